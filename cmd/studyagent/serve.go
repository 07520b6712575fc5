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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/observability"
	"github.com/kadirpekel/studyagent/pkg/registry"
	"github.com/kadirpekel/studyagent/pkg/server"
	"github.com/kadirpekel/studyagent/pkg/storage"
)

// ServeCmd starts the HTTP server.
type ServeCmd struct {
	Host  string `help:"Host to listen on (overrides config)."`
	Port  int    `help:"Port to listen on (overrides config)."`
	Watch bool   `help:"Watch config file for changes and rebuild the agents."`
}

// reloader swaps the registry behind the server when the config changes.
// Address, auth and observability settings need a restart.
type reloader struct {
	mu      sync.Mutex
	ctx     context.Context
	pool    *storage.DBPool
	tracer  *observability.Tracer
	metrics *observability.Metrics
	srv     *server.Server
	reg     *registry.Registry
}

func (r *reloader) build(cfg *config.Config) (*registry.Registry, error) {
	return registry.New(r.ctx, cfg,
		registry.WithDBPool(r.pool),
		registry.WithObservability(r.tracer, r.metrics),
	)
}

func (r *reloader) apply(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.build(cfg)
	if err != nil {
		slog.Error("Failed to rebuild agents; keeping previous configuration", "error", err)
		return
	}

	old := r.reg
	r.reg = reg
	r.srv.Update(reg)
	if old != nil {
		if err := old.Close(r.ctx); err != nil {
			slog.Warn("Failed to release previous registry", "error", err)
		}
	}
	slog.Info("Agents rebuilt", "agents", len(reg.Agents()), "tools", reg.Tools().Len())
}

func (r *reloader) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reg != nil {
		_ = r.reg.Close(context.WithoutCancel(r.ctx))
	}
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rl := &reloader{ctx: ctx, pool: storage.NewDBPool()}
	defer rl.pool.Close()

	cfg, loader, err := cli.loadConfig(ctx, config.WithOnChange(rl.apply))
	if err != nil {
		return err
	}
	if loader != nil {
		defer loader.Close()
	}

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	if rl.tracer, err = observability.NewTracer(ctx, &cfg.Observability.Tracing); err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	if rl.metrics, err = observability.NewMetrics(&cfg.Observability.Metrics); err != nil {
		return fmt.Errorf("failed to start metrics: %w", err)
	}
	defer func() {
		obs := observability.NewManager(rl.tracer, rl.metrics, nil)
		if err := obs.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("Observability shutdown error", "error", err)
		}
	}()

	if rl.reg, err = rl.build(cfg); err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}
	defer rl.close()

	opts := []server.Option{server.WithAuth(rl.reg.Auth())}
	if rl.metrics != nil {
		opts = append(opts, server.WithMetricsHandler(rl.metrics.Handler()))
	}
	rl.srv = server.New(cfg.Server, rl.reg, opts...)

	printStartup(cfg, rl.reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rl.srv.Start(gctx)
	})
	if c.Watch && loader != nil {
		g.Go(func() error {
			if err := loader.Watch(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("config watch: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	slog.Info("Shutting down")
	return err
}

func printStartup(cfg *config.Config, reg *registry.Registry) {
	addr := cfg.Server.Address()
	fmt.Printf("\nstudyagent server ready\n")
	fmt.Printf("   Health:      http://%s/health\n", addr)
	fmt.Printf("   Agents:      http://%s/api/agents\n", addr)
	fmt.Printf("   Tools:       http://%s/api/tools\n", addr)
	if cfg.Observability.Metrics.IsEnabled() {
		fmt.Printf("   Metrics:     http://%s/metrics\n", addr)
	}
	if cfg.Observability.Tracing.Enabled {
		fmt.Printf("   Tracing:     %s (%s)\n", cfg.Observability.Tracing.Exporter, cfg.Observability.Tracing.Endpoint)
	}
	db := cfg.Storage.Database
	fmt.Printf("   Storage:     %s (%s)\n", db.Driver, db.Database)
	if reg.Auth() != nil {
		fmt.Printf("   Auth:        bearer JWT\n")
	}

	fmt.Println("\n   Agents:")
	for _, d := range reg.Agents() {
		fmt.Printf("     - %s (%s)\n", d.ID(), d.Name())
	}
	fmt.Println("\nPress Ctrl+C to stop")
}
