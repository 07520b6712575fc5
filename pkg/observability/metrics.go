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
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kadirpekel/studyagent/pkg/config"
)

// Metrics records tool call counters and durations and serves them in
// the Prometheus exposition format.
type Metrics struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	toolCalls    metric.Int64Counter
	toolErrors   metric.Int64Counter
	toolDuration metric.Float64Histogram
}

// NewMetrics creates the tool instruments on a private registry. It
// returns nil when metrics are disabled; a nil *Metrics is safe to use.
func NewMetrics(cfg *config.MetricsConfig) (*Metrics, error) {
	if cfg != nil && !cfg.IsEnabled() {
		return nil, nil
	}
	namespace := "studyagent"
	if cfg != nil && cfg.Namespace != "" {
		namespace = cfg.Namespace
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithNamespace(namespace),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(InstrumentationName)

	toolCalls, err := meter.Int64Counter(
		"tool_calls",
		metric.WithDescription("Total tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	toolErrors, err := meter.Int64Counter(
		"tool_errors",
		metric.WithDescription("Total tool errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool errors counter: %w", err)
	}

	toolDuration, err := meter.Float64Histogram(
		"tool_duration",
		metric.WithDescription("Tool execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	return &Metrics{
		registry:     registry,
		provider:     provider,
		toolCalls:    toolCalls,
		toolErrors:   toolErrors,
		toolDuration: toolDuration,
	}, nil
}

// RecordToolCall counts one call. errKind is empty on success.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, duration time.Duration, errKind string) {
	if m == nil {
		return
	}

	status := StatusOK
	if errKind != "" {
		status = StatusError
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("status", status),
	)

	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)

	if errKind != "" {
		m.toolErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("kind", errKind),
		))
	}
}

// Handler serves the registry. A nil *Metrics serves 404.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
