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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kadirpekel/studyagent/pkg/storage"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// ToolCallEvent describes one finished tool invocation.
type ToolCallEvent struct {
	CallID   string
	Tool     string
	Agent    string
	Resource string
	Start    time.Time
	Duration time.Duration
	Err      error
}

// Recorder receives finished tool invocations.
type Recorder interface {
	RecordToolCall(ctx context.Context, ev ToolCallEvent)
}

// ErrorKind classifies err for metrics: validation, configuration,
// remote or internal. Nil is empty.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case tool.IsValidationError(err):
		return "validation"
	case tool.IsConfigurationError(err):
		return "configuration"
	case tool.IsRemoteServiceError(err):
		return "remote"
	default:
		return "internal"
	}
}

// CallStore persists tool call records.
type CallStore interface {
	Record(ctx context.Context, call storage.ToolCall) error
}

// Manager fans tool call events out to tracing, metrics and the call
// store. Every part is optional.
type Manager struct {
	tracer  *Tracer
	metrics *Metrics
	store   CallStore
}

// NewManager creates a manager over the given sinks.
func NewManager(tracer *Tracer, metrics *Metrics, store CallStore) *Manager {
	return &Manager{tracer: tracer, metrics: metrics, store: store}
}

// Tracer returns the tracer, possibly nil.
func (m *Manager) Tracer() *Tracer { return m.tracer }

// Metrics returns the metrics, possibly nil.
func (m *Manager) Metrics() *Metrics { return m.metrics }

// RecordToolCall implements Recorder.
func (m *Manager) RecordToolCall(ctx context.Context, ev ToolCallEvent) {
	kind := ErrorKind(ev.Err)
	m.metrics.RecordToolCall(ctx, ev.Tool, ev.Duration, kind)

	if m.store == nil {
		return
	}
	call := storage.ToolCall{
		ID:         ev.CallID,
		Tool:       ev.Tool,
		Agent:      ev.Agent,
		Resource:   ev.Resource,
		DurationMS: ev.Duration.Milliseconds(),
		Status:     storage.StatusOK,
		CreatedAt:  ev.Start,
	}
	if ev.Err != nil {
		call.Status = storage.StatusError
		call.Error = ev.Err.Error()
	}
	// Telemetry must never fail the call it describes.
	if err := m.store.Record(context.WithoutCancel(ctx), call); err != nil {
		slog.Warn("Failed to record tool call", "tool", ev.Tool, "error", err)
	}
}

// Shutdown flushes traces and metrics.
func (m *Manager) Shutdown(ctx context.Context) error {
	return errors.Join(m.tracer.Shutdown(ctx), m.metrics.Shutdown(ctx))
}

type instrumentedTool struct {
	tool.CallableTool
	tracer *Tracer
	rec    Recorder
}

// Instrument wraps t so every call opens a span and is reported to rec.
// The tracer comes from rec when it is a *Manager.
func Instrument(t tool.CallableTool, rec Recorder) tool.CallableTool {
	it := &instrumentedTool{CallableTool: t, rec: rec}
	if m, ok := rec.(*Manager); ok {
		it.tracer = m.tracer
	}
	return it
}

func (t *instrumentedTool) Call(ctx tool.Context, args map[string]any) (map[string]any, error) {
	name := t.Name()

	spanCtx, span := t.tracer.Start(ctx, SpanToolExecution,
		trace.WithAttributes(
			attribute.String(AttrToolName, name),
			attribute.String(AttrToolCallID, ctx.FunctionCallID()),
			attribute.String(AttrAgentName, ctx.AgentName()),
			attribute.String(AttrResourceID, ctx.ResourceID()),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := t.CallableTool.Call(tool.WithContext(ctx, spanCtx), args)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorKind, ErrorKind(err)))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if t.rec != nil {
		t.rec.RecordToolCall(spanCtx, ToolCallEvent{
			CallID:   ctx.FunctionCallID(),
			Tool:     name,
			Agent:    ctx.AgentName(),
			Resource: ctx.ResourceID(),
			Start:    start,
			Duration: duration,
			Err:      err,
		})
	}
	return result, err
}
