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

package searchtool

import (
	"context"

	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/functiontool"
)

const (
	ToolName        = "search-tool"
	ToolDescription = "Performs real-time web search using Brave Web Search API."
)

// Args is the tool input.
type Args struct {
	Query string `json:"query" jsonschema:"required,description=The web search query to send to Brave Search API"`
}

// Result is the tool output.
type Result struct {
	Results any `json:"results" jsonschema:"description=Raw Brave Web Search API response"`
}

// Searcher is the subset of Client the tool needs.
type Searcher interface {
	Search(ctx context.Context, query string) (any, error)
}

// New wraps s as the search-tool.
func New(s Searcher) (tool.CallableTool, error) {
	return functiontool.NewWithValidation(
		functiontool.Config{Name: ToolName, Description: ToolDescription},
		func(ctx tool.Context, args Args) (Result, error) {
			results, err := s.Search(ctx, args.Query)
			if err != nil {
				return Result{}, err
			}
			return Result{Results: results}, nil
		},
		func(args Args) error {
			if args.Query == "" {
				return &tool.ValidationError{Field: "query", Message: "query is required"}
			}
			return nil
		},
	)
}
