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

// Package pdftool renders HTML or Markdown to PDF through the hosted
// gen-pdf MCP server on Smithery.
//
// Every call opens a fresh MCP session, discovers the server's
// capabilities, invokes the one that looks like a PDF generator and
// normalises whatever envelope comes back into a base64 payload.
package pdftool

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/kadirpekel/studyagent/pkg/mcpclient"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

const (
	// DefaultEndpoint is the hosted gen-pdf MCP server.
	DefaultEndpoint = "https://server.smithery.ai/@gen-pdf/mcp"

	// DefaultServerPackage is the Smithery package run in stdio mode.
	DefaultServerPackage = "@gen-pdf/mcp"

	APIKeyEnvVar  = "SMITHERY_API_KEY"
	ProfileEnvVar = "SMITHERY_PROFILE"

	TransportHTTP  = "http"
	TransportStdio = "stdio"

	serviceName = "gen-pdf MCP"
)

// Config configures the PDF client.
type Config struct {
	APIKey  string
	Profile string

	// Endpoint overrides DefaultEndpoint for the HTTP transport.
	Endpoint string

	// Transport is "http" (default) or "stdio".
	Transport string

	// Command launches the Smithery CLI in stdio mode. Default: npx.
	Command string

	Timeout time.Duration

	// Dial builds the session dialer. Defaults to mcpclient.NewDialer.
	Dial func(mcpclient.Config) (mcpclient.Dialer, error)
}

// Client generates PDFs.
type Client struct {
	cfg Config
}

// NewClient creates a Client. Missing credentials are reported on use.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportHTTP
	}
	if cfg.Command == "" {
		cfg.Command = "npx"
	}
	if cfg.Dial == nil {
		cfg.Dial = mcpclient.NewDialer
	}
	return &Client{cfg: cfg}
}

// BuildServerURL attaches credentials to the endpoint as query parameters.
func BuildServerURL(endpoint, apiKey, profile string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("api_key", apiKey)
	q.Set("profile", profile)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var pdfName = regexp.MustCompile(`(?i)pdf`)

// SelectCapability returns the first name containing "pdf" in any case,
// or the first name when none does. ok is false for an empty list.
func SelectCapability(names []string) (name string, ok bool) {
	if len(names) == 0 {
		return "", false
	}
	for _, n := range names {
		if n != "" && pdfName.MatchString(n) {
			return n, true
		}
	}
	return names[0], true
}

// Generate renders req. Input is validated and credentials are checked
// before any connection is attempted.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if c.cfg.APIKey == "" {
		return nil, &tool.ConfigurationError{Variable: APIKeyEnvVar}
	}
	if c.cfg.Profile == "" {
		return nil, &tool.ConfigurationError{Variable: ProfileEnvVar}
	}

	sessCfg, err := c.sessionConfig()
	if err != nil {
		return nil, err
	}
	dialer, err := c.cfg.Dial(sessCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP dialer: %w", err)
	}

	sess, err := dialer.Dial(ctx)
	if err != nil {
		return nil, &tool.RemoteServiceError{Service: serviceName, Err: err}
	}
	defer sess.Close()

	tools, err := sess.ListTools(ctx)
	if err != nil {
		return nil, &tool.RemoteServiceError{Service: serviceName, Err: err}
	}
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}

	toolName, ok := SelectCapability(names)
	if !ok {
		return nil, &tool.RemoteServiceError{Service: serviceName, Message: "No MCP tools available"}
	}

	raw, err := sess.CallTool(ctx, toolName, req.Arguments())
	if err != nil {
		return nil, &tool.RemoteServiceError{
			Service: serviceName,
			Message: fmt.Sprintf("capability %s failed: %v", toolName, err),
			Err:     err,
		}
	}

	env := ClassifyEnvelope(raw)
	if env.IsFallback() {
		slog.Warn("PDF response had no recognised payload, returning encoded response",
			"tool", toolName)
		slog.Debug("PDF fallback response", "tool", toolName, "isError", ReportsError(raw))
	} else {
		slog.Debug("PDF generated", "tool", toolName, "envelope", env.Kind.String())
	}

	result := env.Result(toolName)
	return &result, nil
}

func (c *Client) sessionConfig() (mcpclient.Config, error) {
	cfg := mcpclient.Config{
		ClientName:    mcpclient.DefaultClientName,
		ClientVersion: mcpclient.DefaultClientVersion,
		Timeout:       c.cfg.Timeout,
	}

	switch c.cfg.Transport {
	case TransportStdio:
		cfg.Command = c.cfg.Command
		cfg.Args = []string{
			"-y", "@smithery/cli@latest", "run", DefaultServerPackage,
			"--key", c.cfg.APIKey,
			"--profile", c.cfg.Profile,
		}
	case TransportHTTP:
		serverURL, err := BuildServerURL(c.cfg.Endpoint, c.cfg.APIKey, c.cfg.Profile)
		if err != nil {
			return cfg, err
		}
		cfg.URL = serverURL
	default:
		return cfg, fmt.Errorf("unsupported transport %q", c.cfg.Transport)
	}
	return cfg, nil
}
