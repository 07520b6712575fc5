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
	"context"

	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/functiontool"
)

const (
	ToolName        = "gen-pdf-tool"
	ToolDescription = "Generates a PDF using Smithery MCP @gen-pdf. Provide either HTML or Markdown input."
)

// Generator is the subset of Client the tool needs.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// New wraps g as the gen-pdf-tool.
func New(g Generator) (tool.CallableTool, error) {
	return functiontool.NewWithValidation(
		functiontool.Config{Name: ToolName, Description: ToolDescription},
		func(ctx tool.Context, req Request) (Result, error) {
			res, err := g.Generate(ctx, req)
			if err != nil {
				return Result{}, err
			}
			return *res, nil
		},
		Request.Validate,
	)
}
