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

package mcpclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kadirpekel/studyagent/pkg/httpclient"
)

const sessionHeader = "Mcp-Session-Id"

// HTTPDialer opens streamable HTTP sessions.
type HTTPDialer struct {
	cfg        Config
	httpClient *http.Client
}

// NewHTTPDialer creates a dialer for url. A nil client uses a default one.
func NewHTTPDialer(cfg Config, client *http.Client) *HTTPDialer {
	cfg.SetDefaults()
	return &HTTPDialer{cfg: cfg, httpClient: client}
}

// Dial performs the initialize handshake.
func (d *HTTPDialer) Dial(ctx context.Context) (Session, error) {
	hc := d.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: d.cfg.Timeout}
	}

	s := &httpSession{
		cfg:  d.cfg,
		http: httpclient.New(httpclient.WithHTTPClient(hc)),
	}

	var initResult struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}
	err := s.call(ctx, string(mcp.MethodInitialize), map[string]any{
		"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
		"clientInfo": map[string]any{
			"name":    d.cfg.ClientName,
			"version": d.cfg.ClientVersion,
		},
		"capabilities": map[string]any{},
	}, &initResult)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MCP session: %w", err)
	}

	if err := s.notify(ctx, "notifications/initialized"); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to confirm MCP initialization: %w", err)
	}

	slog.Debug("Connected to MCP server (HTTP)",
		"server", initResult.ServerInfo.Name,
		"protocol", initResult.ProtocolVersion)

	return s, nil
}

type httpSession struct {
	cfg  Config
	http *httpclient.Client

	nextID    atomic.Int64
	mu        sync.RWMutex
	sessionID string
	closed    bool
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

func (s *httpSession) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var result struct {
		Tools []ToolInfo `json:"tools"`
	}
	if err := s.call(ctx, string(mcp.MethodToolsList), map[string]any{}, &result); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

func (s *httpSession) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	var result any
	err := s.call(ctx, string(mcp.MethodToolsCall), map[string]any{
		"name":      name,
		"arguments": args,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close terminates the server-side session. Errors are logged, not returned,
// since the call result has already been obtained.
func (s *httpSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessionID := s.sessionID
	s.mu.Unlock()

	if sessionID == "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodDelete, s.cfg.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set(sessionHeader, sessionID)
	resp, err := s.http.Do(req)
	if err != nil {
		slog.Debug("MCP session close failed", "error", err)
		return nil
	}
	resp.Body.Close()
	return nil
}

func (s *httpSession) call(ctx context.Context, method string, params any, out any) error {
	id := s.nextID.Add(1)
	resp, err := s.roundTrip(ctx, rpcRequest{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      &id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (s *httpSession) notify(ctx context.Context, method string) error {
	_, err := s.roundTrip(ctx, rpcRequest{JSONRPC: mcp.JSONRPC_VERSION, Method: method})
	return err
}

// roundTrip posts one JSON-RPC message. Notifications return a nil response.
func (s *httpSession) roundTrip(ctx context.Context, msg rpcRequest) (*rpcResponse, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SSETimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	s.mu.RLock()
	if s.sessionID != "" {
		req.Header.Set(sessionHeader, s.sessionID)
	}
	s.mu.RUnlock()

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get(sessionHeader); sid != "" {
		s.mu.Lock()
		s.sessionID = sid
		s.mu.Unlock()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(snippet)}
	}

	if msg.ID == nil {
		return nil, nil
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		return readSSEResponse(resp.Body)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// HTTPStatusError reports a non-2xx transport status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %s", e.Status)
	}
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.Body)
}

// readSSEResponse returns the first event carrying a result or an error.
// Server notifications interleaved on the stream are skipped.
func readSSEResponse(r io.Reader) (*rpcResponse, error) {
	reader := bufio.NewReader(r)
	var data strings.Builder

	flush := func() (*rpcResponse, bool) {
		if data.Len() == 0 {
			return nil, false
		}
		var resp rpcResponse
		err := json.Unmarshal([]byte(data.String()), &resp)
		data.Reset()
		if err != nil || (resp.Result == nil && resp.Error == nil) {
			return nil, false
		}
		return &resp, true
	}

	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")

		switch {
		case trimmed == "":
			if resp, ok := flush(); ok {
				return resp, nil
			}
		case strings.HasPrefix(trimmed, "data:"):
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(trimmed, "data:"), " "))
		}

		if err != nil {
			if resp, ok := flush(); ok {
				return resp, nil
			}
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("SSE stream ended without a response")
			}
			return nil, fmt.Errorf("SSE read error: %w", err)
		}
	}
}
