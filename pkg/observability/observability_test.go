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

package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/storage"
	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/functiontool"
)

type echoArgs struct {
	Text string `json:"text"`
}

type echoResult struct {
	Text string `json:"text"`
}

func echoTool(t *testing.T, fail error) tool.CallableTool {
	t.Helper()
	ct, err := functiontool.New(functiontool.Config{Name: "echo-tool", Description: "echo"},
		func(_ tool.Context, a echoArgs) (echoResult, error) {
			if fail != nil {
				return echoResult{}, fail
			}
			return echoResult{Text: a.Text}, nil
		})
	require.NoError(t, err)
	return ct
}

type captureRecorder struct {
	mu     sync.Mutex
	events []ToolCallEvent
}

func (r *captureRecorder) RecordToolCall(_ context.Context, ev ToolCallEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type memoryStore struct {
	calls []storage.ToolCall
	err   error
}

func (s *memoryStore) Record(_ context.Context, call storage.ToolCall) error {
	s.calls = append(s.calls, call)
	return s.err
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "validation", ErrorKind(&tool.ValidationError{Field: "query", Message: "required"}))
	assert.Equal(t, "configuration", ErrorKind(&tool.ConfigurationError{Variable: "BRAVE_API_KEY"}))
	assert.Equal(t, "remote", ErrorKind(&tool.RemoteServiceError{Service: "Brave API", StatusCode: 500}))
	assert.Equal(t, "internal", ErrorKind(errors.New("boom")))
}

func TestInstrument_ReportsCalls(t *testing.T) {
	rec := &captureRecorder{}
	wrapped := Instrument(echoTool(t, nil), rec)

	assert.Equal(t, "echo-tool", wrapped.Name())
	assert.NotNil(t, wrapped.Schema())

	ctx := tool.NewContext(context.Background(), "research", "student-1")
	out, err := wrapped.Call(ctx, map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out["text"])

	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, "echo-tool", ev.Tool)
	assert.Equal(t, "research", ev.Agent)
	assert.Equal(t, "student-1", ev.Resource)
	assert.Equal(t, ctx.FunctionCallID(), ev.CallID)
	assert.NoError(t, ev.Err)
}

func TestInstrument_ReportsErrors(t *testing.T) {
	rec := &captureRecorder{}
	cause := &tool.ConfigurationError{Variable: "BRAVE_API_KEY"}
	wrapped := Instrument(echoTool(t, cause), rec)

	_, err := wrapped.Call(tool.NewContext(context.Background(), "", ""), map[string]any{"text": "hi"})
	require.Error(t, err)
	assert.True(t, tool.IsConfigurationError(err))

	require.Len(t, rec.events, 1)
	assert.True(t, tool.IsConfigurationError(rec.events[0].Err))
}

func TestManager_PersistsCallsAndMetrics(t *testing.T) {
	metrics, err := NewMetrics(&config.MetricsConfig{Namespace: "studytest"})
	require.NoError(t, err)

	store := &memoryStore{}
	m := NewManager(nil, metrics, store)

	ok := Instrument(echoTool(t, nil), m)
	bad := Instrument(echoTool(t, &tool.ValidationError{Field: "text", Message: "required"}), m)

	ctx := tool.NewContext(context.Background(), "summary", "student-2")
	_, err = ok.Call(ctx, map[string]any{"text": "hi"})
	require.NoError(t, err)
	_, err = bad.Call(ctx, map[string]any{"text": ""})
	require.Error(t, err)

	require.Len(t, store.calls, 2)
	assert.Equal(t, storage.StatusOK, store.calls[0].Status)
	assert.Equal(t, "summary", store.calls[0].Agent)
	assert.Equal(t, storage.StatusError, store.calls[1].Status)
	assert.Equal(t, "text: required", store.calls[1].Error)

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "studytest_tool_calls_total")
	assert.Contains(t, text, "studytest_tool_errors_total")
	assert.Contains(t, text, "studytest_tool_duration")
	assert.Contains(t, text, `kind="validation"`)

	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StoreFailureDoesNotFailCall(t *testing.T) {
	m := NewManager(nil, nil, &memoryStore{err: errors.New("disk full")})
	wrapped := Instrument(echoTool(t, nil), m)

	_, err := wrapped.Call(tool.NewContext(context.Background(), "", ""), map[string]any{"text": "hi"})
	assert.NoError(t, err)
}

func TestNewMetrics_Disabled(t *testing.T) {
	off := false
	m, err := NewMetrics(&config.MetricsConfig{Enabled: &off})
	require.NoError(t, err)
	assert.Nil(t, m)

	m.RecordToolCall(context.Background(), "x", 0, "")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewTracer_Disabled(t *testing.T) {
	tr, err := NewTracer(context.Background(), &config.TracingConfig{})
	require.NoError(t, err)
	assert.Nil(t, tr)

	_, span := tr.Start(context.Background(), "x")
	span.End()
	assert.NoError(t, tr.Shutdown(context.Background()))
}
