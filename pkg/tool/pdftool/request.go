// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pdftool

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kadirpekel/studyagent/pkg/tool"
)

// ContentTypePDF is the only content type this tool produces.
const ContentTypePDF = "application/pdf"

// Request is the tool input. Optional booleans and strings that the
// remote side distinguishes from their zero value are pointers.
type Request struct {
	HTML                string   `json:"html,omitempty" jsonschema:"description=HTML content to render into PDF"`
	Markdown            string   `json:"markdown,omitempty" jsonschema:"description=Markdown content to render into PDF"`
	Filename            string   `json:"filename,omitempty" jsonschema:"description=Desired filename (e.g. output.pdf)"`
	TOC                 *bool    `json:"toc,omitempty" jsonschema:"description=Add a table of contents to the beginning of the PDF"`
	Cover               *bool    `json:"cover,omitempty" jsonschema:"description=Add a cover page containing title and subtitle and date and image"`
	Title               *string  `json:"title,omitempty" jsonschema:"description=Title for the PDF document (required if using cover)"`
	Authors             []string `json:"authors,omitempty" jsonschema:"description=Authors listed on the cover page"`
	DarkMode            *bool    `json:"darkMode,omitempty" jsonschema:"description=Enable dark theme for the document"`
	Subtitle            *string  `json:"subtitle,omitempty" jsonschema:"description=Subtitle for the PDF document"`
	PageMargin          *string  `json:"pageMargin,omitempty" jsonschema:"description=Page margins (e.g. '1in' or CSS-like shorthand)"`
	MarkdownDocument    string   `json:"markdownDocument,omitempty" jsonschema:"description=Markdown content to convert to PDF"`
	EnablePageNumbering *bool    `json:"enablePageNumbering,omitempty" jsonschema:"description=Enable page numbering"`
}

// Validate enforces that some renderable content is present.
func (r Request) Validate() error {
	if r.HTML == "" && r.Markdown == "" && r.MarkdownDocument == "" {
		return &tool.ValidationError{
			Field:   "markdownDocument",
			Message: "Provide 'html', 'markdown', or 'markdownDocument'",
		}
	}
	return nil
}

// Arguments builds the remote argument map. Only supplied fields are
// forwarded: content strings when non-empty, flags and labels when set,
// authors when a list was given at all.
func (r Request) Arguments() map[string]any {
	args := make(map[string]any)

	if r.HTML != "" {
		args["html"] = r.HTML
	}
	if r.Markdown != "" {
		args["markdown"] = r.Markdown
	}
	if r.MarkdownDocument != "" {
		args["markdownDocument"] = r.MarkdownDocument
	}
	if r.Filename != "" {
		args["filename"] = r.Filename
	}
	if r.TOC != nil {
		args["toc"] = *r.TOC
	}
	if r.Cover != nil {
		args["cover"] = *r.Cover
	}
	if r.Title != nil {
		args["title"] = *r.Title
	}
	if r.Authors != nil {
		args["authors"] = r.Authors
	}
	if r.DarkMode != nil {
		args["darkMode"] = *r.DarkMode
	}
	if r.Subtitle != nil {
		args["subtitle"] = *r.Subtitle
	}
	if r.PageMargin != nil {
		args["pageMargin"] = *r.PageMargin
	}
	if r.EnablePageNumbering != nil {
		args["enablePageNumbering"] = *r.EnablePageNumbering
	}

	return args
}

// Result is the tool output.
type Result struct {
	PDFBase64   string `json:"pdfBase64" jsonschema:"description=Base64-encoded PDF content"`
	ContentType string `json:"contentType" jsonschema:"default=application/pdf"`
	Bytes       *int   `json:"bytes,omitempty" jsonschema:"description=Size in bytes if known"`
	ToolName    string `json:"toolName,omitempty" jsonschema:"description=MCP tool used for generation"`
}

// PDF decodes PDFBase64.
func (r Result) PDF() ([]byte, error) {
	payload := strings.TrimSpace(r.PDFBase64)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PDF payload: %w", err)
	}
	return data, nil
}
