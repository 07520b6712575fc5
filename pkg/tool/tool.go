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

// Package tool defines the contract shared by every capability an agent
// can invoke.
//
// A tool is an identifier, an input schema, an output schema and a blocking
// execute function:
//
//	Tool
//	  └── CallableTool - Schema/OutputSchema + Call(ctx, args)
//
// Tools never retry. Failures surface as one of the typed errors in this
// package (ConfigurationError, ValidationError, RemoteServiceError) so the
// HTTP and CLI edges can classify them with errors.As.
//
// # Creating Tools
//
// Typed tools are built with functiontool:
//
//	t, err := functiontool.New(functiontool.Config{Name: "search-tool", ...}, fn)
package tool

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Tool is the base interface for an invocable capability.
type Tool interface {
	// Name returns the unique identifier of the tool.
	Name() string

	// Description returns a human-readable summary shown to models.
	Description() string
}

// CallableTool extends Tool with synchronous execution.
type CallableTool interface {
	Tool

	// Call executes the tool. It blocks until the remote work completes.
	Call(ctx Context, args map[string]any) (map[string]any, error)

	// Schema returns the JSON schema for the tool's input.
	Schema() map[string]any

	// OutputSchema returns the JSON schema for the tool's output.
	// Returns nil when the output is free-form.
	OutputSchema() map[string]any
}

// Context carries invocation-scoped data into a tool call.
type Context interface {
	context.Context

	// FunctionCallID returns the unique ID of this invocation.
	FunctionCallID() string

	// AgentName returns the agent that issued the call, if any.
	AgentName() string

	// ResourceID returns the end-user scope of the call, if any.
	ResourceID() string
}

type invocationContext struct {
	context.Context
	callID     string
	agentName  string
	resourceID string
}

// NewContext wraps ctx with a fresh call ID.
func NewContext(ctx context.Context, agentName, resourceID string) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &invocationContext{
		Context:    ctx,
		callID:     uuid.NewString(),
		agentName:  agentName,
		resourceID: resourceID,
	}
}

// WithContext returns a Context carrying tc's identifiers over ctx, so
// wrappers can add deadlines or spans without minting a new call ID.
func WithContext(tc Context, ctx context.Context) Context {
	return &invocationContext{
		Context:    ctx,
		callID:     tc.FunctionCallID(),
		agentName:  tc.AgentName(),
		resourceID: tc.ResourceID(),
	}
}

func (c *invocationContext) FunctionCallID() string { return c.callID }
func (c *invocationContext) AgentName() string      { return c.agentName }
func (c *invocationContext) ResourceID() string     { return c.resourceID }

// Definition describes a tool for discovery endpoints and model prompts.
type Definition struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

// ToDefinition converts a tool into its Definition.
func ToDefinition(t Tool) Definition {
	def := Definition{
		Name:        t.Name(),
		Description: t.Description(),
	}
	if ct, ok := t.(CallableTool); ok {
		def.Parameters = ct.Schema()
		def.OutputSchema = ct.OutputSchema()
	}
	return def
}

// Set is an ordered, immutable collection of tools keyed by name.
type Set struct {
	order []string
	tools map[string]CallableTool
}

// NewSet builds a Set. Duplicate or nil tools are rejected.
func NewSet(tools ...CallableTool) (Set, error) {
	s := Set{tools: make(map[string]CallableTool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return Set{}, fmt.Errorf("nil tool in set")
		}
		name := t.Name()
		if _, exists := s.tools[name]; exists {
			return Set{}, fmt.Errorf("duplicate tool %q", name)
		}
		s.tools[name] = t
		s.order = append(s.order, name)
	}
	return s, nil
}

// Get returns the tool registered under name.
func (s Set) Get(name string) (CallableTool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Names returns tool names in insertion order.
func (s Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tools.
func (s Set) Len() int {
	return len(s.order)
}

// Definitions returns the definitions of all tools in insertion order.
func (s Set) Definitions() []Definition {
	defs := make([]Definition, 0, len(s.order))
	for _, name := range s.order {
		defs = append(defs, ToDefinition(s.tools[name]))
	}
	return defs
}
