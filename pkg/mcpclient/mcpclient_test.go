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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal streamable HTTP MCP endpoint.
type fakeServer struct {
	mu         sync.Mutex
	methods    []string
	clientInfo map[string]any
	sessionIDs []string
	deleted    bool
	useSSE     bool
	callResult any
	callError  *RPCError

	// notifyStatus, when set, rejects notifications with that status.
	notifyStatus  int
	deletedWithID string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodDelete {
		f.deleted = true
		f.deletedWithID = r.Header.Get("Mcp-Session-Id")
		w.WriteHeader(http.StatusOK)
		return
	}

	var req struct {
		ID     *int64         `json:"id"`
		Method string         `json:"method"`
		Params map[string]any `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.methods = append(f.methods, req.Method)
	f.sessionIDs = append(f.sessionIDs, r.Header.Get("Mcp-Session-Id"))

	if req.ID == nil {
		if f.notifyStatus != 0 {
			http.Error(w, "rejected", f.notifyStatus)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": *req.ID}
	switch req.Method {
	case "initialize":
		f.clientInfo, _ = req.Params["clientInfo"].(map[string]any)
		w.Header().Set("Mcp-Session-Id", "sess-1")
		resp["result"] = map[string]any{
			"protocolVersion": "2025-06-18",
			"serverInfo":      map[string]any{"name": "fake", "version": "0"},
		}
	case "tools/list":
		resp["result"] = map[string]any{"tools": []any{
			map[string]any{"name": "alpha"},
			map[string]any{"name": "report-pdf-gen", "description": "make pdf"},
		}}
	case "tools/call":
		if f.callError != nil {
			resp["error"] = f.callError
		} else {
			resp["result"] = f.callResult
		}
	}

	data, _ := json.Marshal(resp)
	if f.useSSE && req.Method == "tools/call" {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"method\":\"notifications/progress\"}\n\n")
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func TestHTTPSession_Lifecycle(t *testing.T) {
	fake := &fakeServer{callResult: map[string]any{"base64": "AAAA"}}
	server := httptest.NewServer(fake)
	defer server.Close()

	dialer, err := NewDialer(Config{URL: server.URL})
	require.NoError(t, err)

	sess, err := dialer.Dial(context.Background())
	require.NoError(t, err)

	tools, err := sess.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "report-pdf-gen", tools[1].Name)

	raw, err := sess.CallTool(context.Background(), "report-pdf-gen", map[string]any{"markdown": "# hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"base64": "AAAA"}, raw)

	require.NoError(t, sess.Close())

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"initialize", "notifications/initialized", "tools/list", "tools/call"}, fake.methods)
	assert.Equal(t, "Study Agent", fake.clientInfo["name"])
	assert.Equal(t, "1.0.0", fake.clientInfo["version"])
	assert.Equal(t, "", fake.sessionIDs[0])
	assert.Equal(t, "sess-1", fake.sessionIDs[3])
	assert.True(t, fake.deleted)
}

func TestHTTPSession_SSEResponse(t *testing.T) {
	fake := &fakeServer{useSSE: true, callResult: "JVBERi0x"}
	server := httptest.NewServer(fake)
	defer server.Close()

	sess, err := NewHTTPDialer(Config{URL: server.URL}, nil).Dial(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	raw, err := sess.CallTool(context.Background(), "alpha", nil)
	require.NoError(t, err)
	assert.Equal(t, "JVBERi0x", raw)
}

func TestHTTPSession_RPCError(t *testing.T) {
	fake := &fakeServer{callError: &RPCError{Code: -32602, Message: "bad args"}}
	server := httptest.NewServer(fake)
	defer server.Close()

	sess, err := NewHTTPDialer(Config{URL: server.URL}, nil).Dial(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.CallTool(context.Background(), "alpha", nil)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "bad args", rpcErr.Message)
}

func TestHTTPSession_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewHTTPDialer(Config{URL: server.URL}, nil).Dial(context.Background())
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestHTTPDialer_ClosesSessionWhenInitializedRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeServer{notifyStatus: tt.status}
			server := httptest.NewServer(fake)
			defer server.Close()

			sess, err := NewHTTPDialer(Config{URL: server.URL}, nil).Dial(context.Background())
			require.Error(t, err)
			assert.Nil(t, sess)
			assert.Contains(t, err.Error(), "failed to confirm MCP initialization")

			var statusErr *HTTPStatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)

			fake.mu.Lock()
			defer fake.mu.Unlock()
			assert.True(t, fake.deleted)
			assert.Equal(t, "sess-1", fake.deletedWithID)
		})
	}
}

func TestReadSSEResponse_EndsWithoutMessage(t *testing.T) {
	_, err := readSSEResponse(strings.NewReader("event: ping\n\n"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewDialer(Config{})
	assert.Error(t, err)

	_, err = NewDialer(Config{URL: "http://x", Command: "y"})
	assert.Error(t, err)

	d, err := NewDialer(Config{Command: "gen-pdf"})
	require.NoError(t, err)
	assert.IsType(t, &StdioDialer{}, d)
}

func TestEnvList(t *testing.T) {
	assert.Nil(t, envList(nil))
	assert.Equal(t, []string{"A=1", "B=2"}, envList(map[string]string{"B": "2", "A": "1"}))
}
