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

// Package server exposes agents, tools, working memory and telemetry over
// HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	GET  /api/agents
//	GET  /api/agents/{agent}
//	GET  /api/tools
//	POST /api/tools/{tool}/execute
//	GET  /api/memory/{resource}
//	PUT  /api/memory/{resource}
//	GET  /api/telemetry/tool-calls
//
// When a validator is configured every /api route requires a bearer token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kadirpekel/studyagent/pkg/agent"
	"github.com/kadirpekel/studyagent/pkg/auth"
	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/memory"
	"github.com/kadirpekel/studyagent/pkg/storage"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// Backend is what the server serves. The registry implements it.
type Backend interface {
	Agents() []*agent.Definition
	Agent(id string) (*agent.Definition, bool)
	Tools() tool.Set

	// Memory returns nil when working memory is disabled.
	Memory() *memory.Store
	MemoryConfig() *memory.Config

	// Telemetry returns nil when call records are not kept.
	Telemetry() *storage.TelemetryStore
}

// Server is the HTTP server.
type Server struct {
	cfg       config.ServerConfig
	validator *auth.Validator
	metrics   http.Handler

	mu      sync.RWMutex
	backend Backend

	server *http.Server
}

// Option configures the server.
type Option func(*Server)

// WithAuth requires bearer tokens on /api routes.
func WithAuth(v *auth.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a server over backend.
func New(cfg config.ServerConfig, backend Backend, opts ...Option) *Server {
	if cfg.Port == 0 {
		cfg.SetDefaults()
	}
	s := &Server{cfg: cfg, backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update swaps the backend, for configuration reloads.
func (s *Server) Update(b Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backend = b
}

func (s *Server) current() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		if s.validator != nil {
			r.Use(s.validator.HTTPMiddleware(s.cfg.Auth.ExcludedPaths))
		}

		r.Get("/agents", s.handleListAgents)
		r.Get("/agents/{agent}", s.handleGetAgent)

		r.Get("/tools", s.handleListTools)
		r.Post("/tools/{tool}/execute", s.handleExecuteTool)

		r.Get("/memory/{resource}", s.handleGetMemory)
		r.Put("/memory/{resource}", s.handleUpdateMemory)

		r.Get("/telemetry/tool-calls", s.handleListToolCalls)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("route %s %s not found", r.Method, r.URL.Path))
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("HTTP server starting", "address", s.cfg.Address(), "auth", s.validator != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
