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

// Package mcpclient opens short-lived sessions against MCP servers.
//
// Two transports are supported. Remote servers speak streamable HTTP,
// implemented here as plain JSON-RPC over POST so tool results reach the
// caller as raw JSON. Local servers are spawned over stdio with mcp-go.
//
// A Session is meant to live for exactly one tool invocation:
//
//	sess, err := dialer.Dial(ctx)
//	defer sess.Close()
//	tools, err := sess.ListTools(ctx)
//	raw, err := sess.CallTool(ctx, tools[0].Name, args)
package mcpclient

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultClientName    = "Study Agent"
	DefaultClientVersion = "1.0.0"
)

// ToolInfo describes a capability advertised by a server.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Session is an initialized connection to one MCP server.
type Session interface {
	// ListTools returns the advertised capabilities in server order.
	ListTools(ctx context.Context) ([]ToolInfo, error)

	// CallTool invokes a capability and returns the raw result payload.
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)

	// Close releases the session.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (Session, error)

func (f DialerFunc) Dial(ctx context.Context) (Session, error) {
	return f(ctx)
}

// Config selects and configures a transport.
type Config struct {
	// URL of a streamable HTTP endpoint. Mutually exclusive with Command.
	URL string

	// Command, Args and Env spawn a stdio server.
	Command string
	Args    []string
	Env     map[string]string

	ClientName    string
	ClientVersion string

	// Timeout bounds each HTTP request. Zero disables it.
	Timeout time.Duration

	// SSETimeout bounds waiting for an event-stream reply.
	SSETimeout time.Duration
}

// SetDefaults fills client identity and timeouts.
func (c *Config) SetDefaults() {
	if c.ClientName == "" {
		c.ClientName = DefaultClientName
	}
	if c.ClientVersion == "" {
		c.ClientVersion = DefaultClientVersion
	}
	if c.SSETimeout == 0 {
		c.SSETimeout = 5 * time.Minute
	}
}

// Validate checks that exactly one transport is configured.
func (c *Config) Validate() error {
	if c.URL == "" && c.Command == "" {
		return fmt.Errorf("either url or command is required")
	}
	if c.URL != "" && c.Command != "" {
		return fmt.Errorf("url and command are mutually exclusive")
	}
	return nil
}

// NewDialer returns the dialer matching cfg.
func NewDialer(cfg Config) (Dialer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Command != "" {
		return &StdioDialer{cfg: cfg}, nil
	}
	return &HTTPDialer{cfg: cfg}, nil
}

// RPCError is a JSON-RPC error object returned by the server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}
