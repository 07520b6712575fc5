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

// Package functiontool builds tools from typed Go functions.
//
// Input and output schemas are generated from struct tags, so a tool's
// contract lives next to the types it exchanges:
//
//	type SearchArgs struct {
//	    Query string `json:"query" jsonschema:"required,description=Search query"`
//	}
//
//	type SearchResult struct {
//	    Results any `json:"results"`
//	}
//
//	t, err := functiontool.New(
//	    functiontool.Config{Name: "search-tool", Description: "Search the web"},
//	    func(ctx tool.Context, args SearchArgs) (SearchResult, error) { ... },
//	)
//
// Arguments that fail to decode, and arguments rejected by the optional
// validate function, are reported as *tool.ValidationError before the
// function body runs.
package functiontool

import (
	"errors"
	"fmt"

	"github.com/kadirpekel/studyagent/pkg/tool"
)

// Config defines the configuration for a function tool.
type Config struct {
	// Name is the unique identifier for this tool (required).
	Name string

	// Description explains what the tool does (required).
	Description string
}

// New creates a CallableTool from a typed function.
func New[Args, Result any](cfg Config, fn func(tool.Context, Args) (Result, error)) (tool.CallableTool, error) {
	return NewWithValidation(cfg, fn, nil)
}

// NewWithValidation creates a CallableTool whose arguments are checked by
// validate after decoding and before fn runs. Use it for refinements that
// struct tags cannot express, such as "at least one of these fields".
func NewWithValidation[Args, Result any](
	cfg Config,
	fn func(tool.Context, Args) (Result, error),
	validate func(Args) error,
) (tool.CallableTool, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("tool %s: function is required", cfg.Name)
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}
	outputSchema, err := generateSchema[Result]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate output schema for %s: %w", cfg.Name, err)
	}

	return &functionTool[Args, Result]{
		config:       cfg,
		fn:           fn,
		validate:     validate,
		schema:       schema,
		outputSchema: outputSchema,
	}, nil
}

type functionTool[Args, Result any] struct {
	config       Config
	fn           func(tool.Context, Args) (Result, error)
	validate     func(Args) error
	schema       map[string]any
	outputSchema map[string]any
}

func (t *functionTool[Args, Result]) Name() string {
	return t.config.Name
}

func (t *functionTool[Args, Result]) Description() string {
	return t.config.Description
}

func (t *functionTool[Args, Result]) Schema() map[string]any {
	return t.schema
}

func (t *functionTool[Args, Result]) OutputSchema() map[string]any {
	return t.outputSchema
}

// Call decodes args, validates them and runs the function.
func (t *functionTool[Args, Result]) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	var typedArgs Args
	if err := mapToStruct(args, &typedArgs); err != nil {
		return nil, &tool.ValidationError{
			Message: fmt.Sprintf("invalid arguments for %s: %v", t.config.Name, err),
		}
	}

	if t.validate != nil {
		if err := t.validate(typedArgs); err != nil {
			var verr *tool.ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, &tool.ValidationError{
				Message: fmt.Sprintf("validation failed for %s: %v", t.config.Name, err),
			}
		}
	}

	result, err := t.fn(ctx, typedArgs)
	if err != nil {
		return nil, err
	}

	out, err := structToMap(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result of %s: %w", t.config.Name, err)
	}
	return out, nil
}

func validateConfig(cfg Config) error {
	if cfg.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return fmt.Errorf("tool description is required")
	}
	return nil
}

var _ tool.CallableTool = (*functionTool[struct{}, struct{}])(nil)
