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

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/pdftool"
	"github.com/kadirpekel/studyagent/pkg/tool/questiontool"
	"github.com/kadirpekel/studyagent/pkg/tool/searchtool"
)

// cliResource is the resource ID attached to calls made from the CLI.
const cliResource = "cli"

// SearchCmd runs the search tool.
type SearchCmd struct {
	Query string `arg:"" help:"Search query."`
}

func (c *SearchCmd) Run(cli *CLI) error {
	out, err := cli.callTool(searchtool.ToolName, map[string]any{"query": c.Query})
	if err != nil {
		return err
	}
	return printJSON(out)
}

// PDFCmd renders a document with the PDF tool.
type PDFCmd struct {
	Markdown string `help:"Markdown file to render." type:"existingfile" xor:"content"`
	HTML     string `name:"html" help:"HTML file to render." type:"existingfile" xor:"content"`
	Title    string `help:"Document title."`
	Out      string `short:"o" help:"Output PDF path." default:"output.pdf" type:"path"`
}

func (c *PDFCmd) Run(cli *CLI) error {
	args := map[string]any{}
	if c.Markdown != "" {
		data, err := os.ReadFile(c.Markdown)
		if err != nil {
			return err
		}
		args["markdown"] = string(data)
	}
	if c.HTML != "" {
		data, err := os.ReadFile(c.HTML)
		if err != nil {
			return err
		}
		args["html"] = string(data)
	}
	if c.Title != "" {
		args["title"] = c.Title
	}

	out, err := cli.callTool(pdftool.ToolName, args)
	if err != nil {
		return err
	}

	encoded, _ := out["pdfBase64"].(string)
	pdf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("invalid PDF payload: %w", err)
	}
	if err := os.WriteFile(c.Out, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Out, err)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", c.Out, len(pdf))
	return nil
}

// QuestionsCmd runs the question tool.
type QuestionsCmd struct {
	Text  string `help:"Text file to read." type:"existingfile" xor:"source"`
	PDF   string `name:"pdf" help:"PDF file to read." type:"existingfile" xor:"source"`
	Count int    `help:"Number of questions (1-20)." default:"0"`
}

func (c *QuestionsCmd) Run(cli *CLI) error {
	args := map[string]any{}
	switch {
	case c.Text != "":
		data, err := os.ReadFile(c.Text)
		if err != nil {
			return err
		}
		args["text"] = string(data)
	case c.PDF != "":
		data, err := os.ReadFile(c.PDF)
		if err != nil {
			return err
		}
		args["pdfBase64"] = base64.StdEncoding.EncodeToString(data)
	}
	if c.Count > 0 {
		args["count"] = c.Count
	}

	out, err := cli.callTool(questiontool.ToolName, args)
	if err != nil {
		return err
	}

	questions, _ := out["questions"].([]any)
	for i, q := range questions {
		fmt.Printf("%d. %v\n", i+1, q)
	}
	return nil
}

// callTool runs one tool call against a fresh registry.
func (cli *CLI) callTool(name string, args map[string]any) (map[string]any, error) {
	ctx := context.Background()
	reg, err := cli.openRegistry(ctx)
	if err != nil {
		return nil, err
	}
	defer reg.Close(ctx)

	t, ok := reg.Tool(name)
	if !ok {
		return nil, fmt.Errorf("tool %q not found", name)
	}

	out, err := t.Call(tool.NewContext(ctx, "", cliResource), args)
	if err != nil {
		return nil, describeToolError(err)
	}
	return out, nil
}

// describeToolError adds a hint for the error kinds a user can fix.
func describeToolError(err error) error {
	var cfgErr *tool.ConfigurationError
	if errors.As(err, &cfgErr) {
		return fmt.Errorf("%w (export %s or set it in .env)", err, cfgErr.Variable)
	}
	var valErr *tool.ValidationError
	if errors.As(err, &valErr) {
		return fmt.Errorf("invalid input: %w", err)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
