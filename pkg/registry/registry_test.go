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

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/kadirpekel/studyagent/pkg/agents"
	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/observability"
	"github.com/kadirpekel/studyagent/pkg/server"
	"github.com/kadirpekel/studyagent/pkg/storage"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

var _ server.Backend = (*Registry)(nil)

type fakeSearcher struct {
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (any, error) {
	f.queries = append(f.queries, query)
	return map[string]any{"web": map[string]any{"results": []any{}}}, nil
}

func newRegistry(t *testing.T, cfg *config.Config, opts ...Option) *Registry {
	t.Helper()
	r, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func TestNew_Defaults(t *testing.T) {
	r := newRegistry(t, config.Default())

	ids := make([]string, 0)
	for _, d := range r.Agents() {
		ids = append(ids, d.ID())
	}
	assert.Equal(t, []string{agents.Research, agents.Summary, agents.Test, agents.TextQuestion}, ids)
	assert.Equal(t, []string{"search-tool", "gen-pdf-tool", "generate-questions-from-text-tool"}, r.Tools().Names())
	assert.Equal(t, []string{config.DefaultAgentLLM, config.DefaultScorerLLM}, r.LLMNames())

	assert.NotNil(t, r.Memory())
	assert.True(t, r.MemoryConfig().Enabled)
	assert.NotNil(t, r.Telemetry())
	assert.NotNil(t, r.Observability().Metrics())
	assert.Nil(t, r.Auth())
	assert.Equal(t, "sqlite", r.Storage().Database.Driver)

	research, ok := r.Agent(agents.Research)
	require.True(t, ok)
	assert.True(t, research.HasTool("search-tool"))
	assert.Equal(t, "mistral/mistral-large-latest", research.Model().String())

	llm, ok := r.LLM(config.DefaultAgentLLM)
	require.True(t, ok)
	assert.Equal(t, model.ProviderMistral, llm.Provider())
}

func TestToolCallsAreRecorded(t *testing.T) {
	ctx := context.Background()
	fs := &fakeSearcher{}
	r := newRegistry(t, config.Default(), WithSearcher(fs))

	search, ok := r.Tool("search-tool")
	require.True(t, ok)

	_, err := search.Call(tool.NewContext(ctx, agents.Research, "student-1"), map[string]any{"query": "photosynthesis"})
	require.NoError(t, err)
	assert.Equal(t, []string{"photosynthesis"}, fs.queries)

	_, err = search.Call(tool.NewContext(ctx, agents.Research, "student-1"), map[string]any{"query": ""})
	require.Error(t, err)
	assert.True(t, tool.IsValidationError(err))

	calls, err := r.Telemetry().List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, calls, 2)

	statuses := map[string]int{}
	for _, c := range calls {
		assert.Equal(t, "search-tool", c.Tool)
		assert.Equal(t, agents.Research, c.Agent)
		assert.Equal(t, "student-1", c.Resource)
		statuses[c.Status]++
	}
	assert.Equal(t, map[string]int{storage.StatusOK: 1, storage.StatusError: 1}, statuses)
}

func TestMissingKeyIsConfigurationError(t *testing.T) {
	r := newRegistry(t, config.Default())

	search, ok := r.Tool("search-tool")
	require.True(t, ok)

	_, err := search.Call(tool.NewContext(context.Background(), "", ""), map[string]any{"query": "go"})
	require.Error(t, err)
	assert.True(t, tool.IsConfigurationError(err))
}

func TestMemoryDisabled(t *testing.T) {
	cfg := config.Default()
	disabled := false
	cfg.Memory.Enabled = &disabled

	r := newRegistry(t, cfg)
	assert.Nil(t, r.Memory())
	for _, d := range r.Agents() {
		assert.Nil(t, d.Memory(), d.ID())
	}
}

func TestAuthEnabled(t *testing.T) {
	cfg := config.Default()
	creds := config.CredentialsFrom(func(k string) string {
		if k == config.EnvJWTSecret {
			return "mySuperSecretKey123!@#"
		}
		return ""
	})

	r := newRegistry(t, cfg, WithCredentials(creds))
	assert.NotNil(t, r.Auth())
}

func TestWithCredentials_LeavesCallerConfig(t *testing.T) {
	creds := config.Credentials{
		BraveAPIKey:     "brave-key",
		SmitheryAPIKey:  "smithery-key",
		SmitheryProfile: "profile",
		MistralAPIKey:   "mistral-key",
		JWTSecret:       "mySuperSecretKey123!@#",
	}

	tests := []struct {
		name   string
		caller func(*config.Config) string
		built  func(*config.Config) string
		want   string
	}{
		{
			name:   "jwt secret",
			caller: func(c *config.Config) string { return c.Server.Auth.Secret },
			want:   creds.JWTSecret,
		},
		{
			name:   "search key",
			caller: func(c *config.Config) string { return c.Tools.Search.APIKey },
			want:   creds.BraveAPIKey,
		},
		{
			name:   "pdf profile",
			caller: func(c *config.Config) string { return c.Tools.PDF.Profile },
			want:   creds.SmitheryProfile,
		},
		{
			name:   "llm key",
			caller: func(c *config.Config) string { return c.LLMs[config.DefaultAgentLLM].APIKey },
			want:   creds.MistralAPIKey,
		},
	}

	cfg := config.Default()
	r := newRegistry(t, cfg, WithCredentials(creds))
	require.NotSame(t, cfg, r.cfg)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.caller(cfg))
			assert.Equal(t, tt.want, tt.caller(r.cfg))
		})
	}
	assert.NotNil(t, r.Auth())
}

func TestWithCredentials_KeepsExplicitValues(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Auth.Secret = "fromFileSecretKey123!@#"
	cfg.LLMs[config.DefaultAgentLLM].APIKey = "from-file"

	r := newRegistry(t, cfg, WithCredentials(config.Credentials{
		MistralAPIKey: "from-env",
		JWTSecret:     "fromEnvSecretKey123!@#",
	}))

	assert.Equal(t, "fromFileSecretKey123!@#", r.cfg.Server.Auth.Secret)
	assert.Equal(t, "from-file", r.cfg.LLMs[config.DefaultAgentLLM].APIKey)
	assert.NotSame(t, cfg.LLMs[config.DefaultAgentLLM], r.cfg.LLMs[config.DefaultAgentLLM])
}

func TestClose_ShutsDownOwnedTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	tests := []struct {
		name        string
		withManager bool
		owned       bool
		wantStopped bool
	}{
		{name: "manager built", withManager: true, owned: true, wantStopped: true},
		{name: "build failed before manager", owned: true, wantStopped: true},
		{name: "shared tracer", withManager: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tracer, err := observability.NewTracer(ctx, &config.TracingConfig{
				Enabled:      true,
				Exporter:     "stdout",
				ServiceName:  "studyagent-test",
				SamplingRate: 1,
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = tracer.Shutdown(ctx) })

			r := &Registry{
				llms:    NewNamed[model.LLM](),
				tracer:  tracer,
				ownsObs: tt.owned,
			}
			if tt.withManager {
				r.obs = observability.NewManager(tracer, nil, nil)
			}
			require.NoError(t, r.Close(ctx))

			_, span := otel.GetTracerProvider().Tracer("check").Start(ctx, "after-close")
			defer span.End()
			assert.Equal(t, tt.wantStopped, !span.IsRecording())
		})
	}
}

func TestGeminiLLM(t *testing.T) {
	cfg := config.Default()
	cfg.LLMs["flash"] = &config.LLMConfig{Provider: config.ProviderGemini, Model: "gemini-2.0-flash"}
	cfg.Tools.Questions.LLM = "flash"

	r := newRegistry(t, cfg)
	llm, ok := r.LLM("flash")
	require.True(t, ok)
	assert.Equal(t, model.ProviderGemini, llm.Provider())
}

func TestCustomAgent(t *testing.T) {
	cfg := config.Default()
	cfg.Agents["tutor"] = &config.AgentConfig{
		Instruction: "Explain one concept at a time.",
		Tools:       []string{"search-tool"},
	}

	r := newRegistry(t, cfg)
	tutor, ok := r.Agent("tutor")
	require.True(t, ok)
	assert.True(t, tutor.HasTool("search-tool"))
	assert.Len(t, r.Agents(), 5)
}

func TestCustomAgentUnknownTool(t *testing.T) {
	cfg := config.Default()
	cfg.Agents["tutor"] = &config.AgentConfig{
		Instruction: "Explain one concept at a time.",
		Tools:       []string{"crawl-tool"},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestSharedPoolKeepsMemory(t *testing.T) {
	ctx := context.Background()
	pool := storage.NewDBPool()
	t.Cleanup(func() { _ = pool.Close() })

	first := newRegistry(t, config.Default(), WithDBPool(pool), WithObservability(nil, nil))
	key, err := first.MemoryConfig().Key("student-1", "")
	require.NoError(t, err)
	require.NoError(t, first.Memory().Update(ctx, key, "# Study Agent Profile\n- **Student Name**: Ada\n"))

	second := newRegistry(t, config.Default(), WithDBPool(pool), WithObservability(nil, nil))
	got, err := second.Memory().Get(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, got, "Ada")
}
