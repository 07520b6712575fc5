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

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kadirpekel/studyagent/pkg/agent"
	"github.com/kadirpekel/studyagent/pkg/auth"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// ScorersHeader lists, comma separated, the scorers sampled for an
// execute call made on behalf of an agent.
const ScorersHeader = "X-Scorers"

// maxBodyBytes bounds request bodies; base64 PDFs dominate.
const maxBodyBytes = 20 << 20

// ExecuteRequest is the body of POST /api/tools/{tool}/execute.
type ExecuteRequest struct {
	Data       map[string]any `json:"data"`
	AgentID    string         `json:"agentId,omitempty"`
	ResourceID string         `json:"resourceId,omitempty"`
}

// MemoryDocument is the body of the memory routes.
type MemoryDocument struct {
	ResourceID    string `json:"resourceId"`
	ThreadID      string `json:"threadId,omitempty"`
	WorkingMemory string `json:"workingMemory"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	defs := s.current().Agents()
	out := make([]agent.Summary, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agent")
	def, ok := s.current().Agent(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("agent %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, def.Detail())
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.current().Tools().Definitions())
}

func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	backend := s.current()
	name := chi.URLParam(r, "tool")

	t, ok := backend.Tools().Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("tool %q not found", name))
		return
	}

	var req ExecuteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Data == nil {
		req.Data = map[string]any{}
	}

	if req.AgentID != "" {
		def, ok := backend.Agent(req.AgentID)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("agent %q not found", req.AgentID))
			return
		}
		if !def.HasTool(name) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("agent %q cannot use tool %q", req.AgentID, name))
			return
		}
		if picked := def.SampleScorers(); len(picked) > 0 {
			w.Header().Set(ScorersHeader, strings.Join(picked, ","))
		}
	}

	resource := resourceFor(r, req.ResourceID)
	ctx := tool.NewContext(r.Context(), req.AgentID, resource)

	result, err := t.Call(ctx, req.Data)
	if err != nil {
		writeToolError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	backend := s.current()
	store := backend.Memory()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "working memory is disabled")
		return
	}

	resource := chi.URLParam(r, "resource")
	thread := r.URL.Query().Get("threadId")
	key, err := backend.MemoryConfig().Key(resource, thread)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	content, err := store.Get(r.Context(), key)
	if err != nil {
		slog.Error("Failed to read working memory", "resource", resource, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read working memory")
		return
	}
	writeJSON(w, http.StatusOK, MemoryDocument{ResourceID: resource, ThreadID: thread, WorkingMemory: content})
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	backend := s.current()
	store := backend.Memory()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "working memory is disabled")
		return
	}

	var doc MemoryDocument
	if !decodeBody(w, r, &doc) {
		return
	}

	resource := chi.URLParam(r, "resource")
	key, err := backend.MemoryConfig().Key(resource, doc.ThreadID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.Update(r.Context(), key, doc.WorkingMemory); err != nil {
		slog.Error("Failed to update working memory", "resource", resource, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update working memory")
		return
	}
	doc.ResourceID = resource
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListToolCalls(w http.ResponseWriter, r *http.Request) {
	store := s.current().Telemetry()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "telemetry is disabled")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 1000")
			return
		}
		limit = n
	}

	calls, err := store.List(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list tool calls", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tool calls")
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// resourceFor prefers the explicit resource ID and falls back to the
// token subject.
func resourceFor(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// writeToolError maps tool failures to status codes: bad input is 400,
// missing credentials 503 and upstream failures 502.
func writeToolError(w http.ResponseWriter, name string, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case tool.IsValidationError(err):
		status, kind = http.StatusBadRequest, "validation"
	case tool.IsConfigurationError(err):
		status, kind = http.StatusServiceUnavailable, "configuration"
	case tool.IsRemoteServiceError(err):
		status, kind = http.StatusBadGateway, "remote"
	}

	if status >= 500 {
		slog.Warn("Tool call failed", "tool", name, "kind", kind, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
