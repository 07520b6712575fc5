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

// Package registry assembles a runnable study agent backend from
// configuration: models, tools, storage, observability and agents.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kadirpekel/studyagent/pkg/agent"
	"github.com/kadirpekel/studyagent/pkg/agents"
	"github.com/kadirpekel/studyagent/pkg/auth"
	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/memory"
	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/model/gemini"
	"github.com/kadirpekel/studyagent/pkg/model/openai"
	"github.com/kadirpekel/studyagent/pkg/observability"
	"github.com/kadirpekel/studyagent/pkg/storage"
	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/pdftool"
	"github.com/kadirpekel/studyagent/pkg/tool/questiontool"
	"github.com/kadirpekel/studyagent/pkg/tool/searchtool"
)

// Registry owns everything built from one configuration snapshot.
type Registry struct {
	cfg *config.Config

	llms   *Named[model.LLM]
	agents *Named[*agent.Definition]
	tools  tool.Set

	pool     *storage.DBPool
	ownsPool bool

	memCfg    *memory.Config
	memory    *memory.Store
	telemetry *storage.TelemetryStore

	tracer  *observability.Tracer
	metrics *observability.Metrics
	ownsObs bool
	obs     *observability.Manager

	creds *config.Credentials

	validator *auth.Validator
	searcher  searchtool.Searcher
	generator pdftool.Generator
}

// Option configures New.
type Option func(*Registry)

// WithDBPool shares a connection pool across registries, so reloads
// keep their connections and in-memory databases.
func WithDBPool(p *storage.DBPool) Option {
	return func(r *Registry) {
		r.pool = p
	}
}

// WithObservability shares a tracer and metrics across registries.
// Either may be nil. The registry does not shut them down.
func WithObservability(t *observability.Tracer, m *observability.Metrics) Option {
	return func(r *Registry) {
		r.tracer = t
		r.metrics = m
		r.ownsObs = false
	}
}

// WithCredentials fills secrets the configuration left blank. They are
// applied to a copy; the caller's configuration is left untouched.
func WithCredentials(creds config.Credentials) Option {
	return func(r *Registry) {
		r.creds = &creds
	}
}

// WithSearcher replaces the Brave client.
func WithSearcher(s searchtool.Searcher) Option {
	return func(r *Registry) {
		r.searcher = s
	}
}

// WithPDFGenerator replaces the Smithery client.
func WithPDFGenerator(g pdftool.Generator) Option {
	return func(r *Registry) {
		r.generator = g
	}
}

// New builds a registry from a finalized configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (reg *Registry, err error) {
	if cfg == nil {
		cfg = config.Default()
	}

	r := &Registry{
		cfg:     cfg,
		llms:    NewNamed[model.LLM](),
		agents:  NewNamed[*agent.Definition](),
		ownsObs: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.creds != nil {
		cfg = withCredentials(cfg, *r.creds)
		r.cfg = cfg
	}
	if r.pool == nil {
		r.pool = storage.NewDBPool()
		r.ownsPool = true
	}

	defer func() {
		if err != nil {
			_ = r.Close(context.WithoutCancel(ctx))
		}
	}()

	if err := r.buildLLMs(); err != nil {
		return nil, err
	}
	if err := r.buildStorage(ctx); err != nil {
		return nil, err
	}
	if err := r.buildObservability(ctx); err != nil {
		return nil, err
	}
	if err := r.buildTools(); err != nil {
		return nil, err
	}
	if err := r.buildAgents(); err != nil {
		return nil, err
	}

	if r.validator, err = auth.NewValidatorFromConfig(&cfg.Server.Auth); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	slog.Debug("Registry built",
		"agents", r.agents.Names(),
		"tools", r.tools.Names(),
		"memory", r.memory != nil)
	return r, nil
}

// withCredentials returns a copy of cfg with creds applied. LLM entries
// are copied too since they are held by pointer.
func withCredentials(cfg *config.Config, creds config.Credentials) *config.Config {
	c := *cfg
	c.LLMs = make(map[string]*config.LLMConfig, len(cfg.LLMs))
	for name, lc := range cfg.LLMs {
		if lc == nil {
			c.LLMs[name] = nil
			continue
		}
		cp := *lc
		c.LLMs[name] = &cp
	}
	c.ApplyCredentials(creds)
	return &c
}

func (r *Registry) buildLLMs() error {
	for _, name := range sortedKeys(r.cfg.LLMs) {
		lc := r.cfg.LLMs[name]
		if lc == nil {
			continue
		}
		llm, err := buildLLM(lc)
		if err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
		if err := r.llms.Register(name, llm); err != nil {
			return err
		}
	}
	return nil
}

// buildLLM binds a model. Mistral and OpenAI share the chat completions
// client; Gemini has its own.
func buildLLM(lc *config.LLMConfig) (model.LLM, error) {
	switch lc.Provider {
	case config.ProviderMistral, config.ProviderOpenAI:
		return openai.New(openai.Config{
			Provider:    model.Provider(lc.Provider),
			APIKey:      lc.APIKey,
			BaseURL:     lc.BaseURL,
			Model:       lc.Model,
			Temperature: lc.Temperature,
			MaxTokens:   lc.MaxTokens,
		})
	case config.ProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:      lc.APIKey,
			Model:       lc.Model,
			MaxTokens:   lc.MaxTokens,
			Temperature: lc.Temperature,
			BaseURL:     lc.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported provider %q", lc.Provider)
	}
}

func (r *Registry) buildStorage(ctx context.Context) error {
	dbCfg := &r.cfg.Storage.Database
	db, err := r.pool.Get(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	r.telemetry, err = storage.NewTelemetryStore(db, dbCfg.Dialect())
	if err != nil {
		return err
	}
	if err := r.telemetry.Migrate(ctx); err != nil {
		return err
	}

	r.memCfg = memory.FromConfig(&r.cfg.Memory)
	if !r.memCfg.Enabled {
		return nil
	}
	r.memory, err = memory.NewStore(db, dbCfg.Dialect(), r.memCfg.Template)
	if err != nil {
		return err
	}
	return r.memory.Migrate(ctx)
}

func (r *Registry) buildObservability(ctx context.Context) error {
	if r.ownsObs {
		var err error
		if r.tracer, err = observability.NewTracer(ctx, &r.cfg.Observability.Tracing); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		if r.metrics, err = observability.NewMetrics(&r.cfg.Observability.Metrics); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}
	r.obs = observability.NewManager(r.tracer, r.metrics, r.telemetry)
	return nil
}

func (r *Registry) buildTools() error {
	tc := r.cfg.Tools

	searcher := r.searcher
	if searcher == nil {
		searcher = searchtool.NewClient(searchtool.Config{
			APIKey:     tc.Search.APIKey,
			Endpoint:   tc.Search.Endpoint,
			MaxRetries: tc.Search.MaxRetries,
			Timeout:    tc.Search.Timeout,
		})
	}
	search, err := searchtool.New(searcher)
	if err != nil {
		return err
	}

	generator := r.generator
	if generator == nil {
		generator = pdftool.NewClient(pdftool.Config{
			APIKey:    tc.PDF.APIKey,
			Profile:   tc.PDF.Profile,
			Endpoint:  tc.PDF.Endpoint,
			Transport: tc.PDF.Transport,
			Command:   tc.PDF.Command,
			Timeout:   tc.PDF.Timeout,
		})
	}
	pdf, err := pdftool.New(generator)
	if err != nil {
		return err
	}

	llm, ok := r.llms.Get(tc.Questions.LLM)
	if !ok {
		return fmt.Errorf("tools.questions: llm %q not found", tc.Questions.LLM)
	}
	gen, err := questiontool.NewGenerator(questiontool.Config{
		LLM:            llm,
		MaxInputTokens: tc.Questions.MaxInputTokens,
		DefaultCount:   tc.Questions.DefaultCount,
	})
	if err != nil {
		return err
	}
	questions, err := questiontool.New(gen)
	if err != nil {
		return err
	}

	r.tools, err = tool.NewSet(
		observability.Instrument(search, r.obs),
		observability.Instrument(pdf, r.obs),
		observability.Instrument(questions, r.obs),
	)
	return err
}

func (r *Registry) buildAgents() error {
	defs, err := agents.Build(agents.Deps{
		Config: r.cfg,
		Tools:  r.tools,
		Memory: r.memCfg,
	})
	if err != nil {
		return err
	}
	for id, def := range defs {
		if err := r.agents.Register(id, def); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the configuration the registry was built from.
func (r *Registry) Config() *config.Config { return r.cfg }

// Agents returns the agents ordered by ID.
func (r *Registry) Agents() []*agent.Definition { return r.agents.List() }

// Agent returns the agent with the given ID.
func (r *Registry) Agent(id string) (*agent.Definition, bool) { return r.agents.Get(id) }

// Tools returns every registered tool.
func (r *Registry) Tools() tool.Set { return r.tools }

// Tool returns the tool with the given name.
func (r *Registry) Tool(name string) (tool.CallableTool, bool) { return r.tools.Get(name) }

// LLM returns the model bound under name.
func (r *Registry) LLM(name string) (model.LLM, bool) { return r.llms.Get(name) }

// LLMNames returns the configured model names in sorted order.
func (r *Registry) LLMNames() []string { return r.llms.Names() }

// Memory returns the working memory store, or nil when disabled.
func (r *Registry) Memory() *memory.Store { return r.memory }

// MemoryConfig returns the working memory settings.
func (r *Registry) MemoryConfig() *memory.Config { return r.memCfg }

// Telemetry returns the tool call store.
func (r *Registry) Telemetry() *storage.TelemetryStore { return r.telemetry }

// Observability returns the instrumentation manager.
func (r *Registry) Observability() *observability.Manager { return r.obs }

// Auth returns the JWT validator, or nil when auth is disabled.
func (r *Registry) Auth() *auth.Validator { return r.validator }

// Storage returns the database settings in use.
func (r *Registry) Storage() config.StorageConfig { return r.cfg.Storage }

// Logger returns the logger settings from the configuration file.
func (r *Registry) Logger() config.LoggerConfig { return r.cfg.Logger }

// Close releases models and, when owned, observability and the pool.
func (r *Registry) Close(ctx context.Context) error {
	var errs []error
	for _, llm := range r.llms.List() {
		if err := llm.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.ownsObs {
		if err := r.shutdownObservability(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.ownsPool && r.pool != nil {
		if err := r.pool.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// shutdownObservability also covers a build that failed before the
// manager existed.
func (r *Registry) shutdownObservability(ctx context.Context) error {
	if r.obs != nil {
		return r.obs.Shutdown(ctx)
	}
	return errors.Join(r.tracer.Shutdown(ctx), r.metrics.Shutdown(ctx))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
