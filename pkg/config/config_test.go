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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "study-agent", cfg.Name)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "simple", cfg.Logger.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Storage.Database.Database)
	assert.True(t, cfg.Memory.IsEnabled())
	assert.Equal(t, MemoryScopeResource, cfg.Memory.Scope)

	require.Contains(t, cfg.LLMs, DefaultAgentLLM)
	assert.Equal(t, "mistral/mistral-large-latest", cfg.LLMs[DefaultAgentLLM].Ref())
	assert.Equal(t, "mistral/mistral-medium-latest", cfg.LLMs[DefaultScorerLLM].Ref())

	assert.Equal(t, "https://api.search.brave.com/res/v1/web/search", cfg.Tools.Search.Endpoint)
	assert.Zero(t, cfg.Tools.Search.MaxRetries)
	assert.Equal(t, "http", cfg.Tools.PDF.Transport)
	assert.Equal(t, 6000, cfg.Tools.Questions.MaxInputTokens)
	assert.Equal(t, 8, cfg.Tools.Questions.DefaultCount)
	assert.False(t, cfg.Server.Auth.IsEnabled())
}

func TestApplyCredentials(t *testing.T) {
	env := map[string]string{
		EnvBraveAPIKey:     "brave",
		EnvSmitheryAPIKey:  "smithery",
		EnvSmitheryProfile: "profile",
		EnvMistralAPIKey:   "mistral",
		EnvJWTSecret:       "0123456789abcdef",
	}
	creds := CredentialsFrom(func(k string) string { return env[k] })
	assert.Empty(t, creds.Missing())

	cfg := &Config{}
	cfg.Tools.Search.APIKey = "from-file"
	require.NoError(t, Finalize(cfg, creds))

	assert.Equal(t, "from-file", cfg.Tools.Search.APIKey)
	assert.Equal(t, "smithery", cfg.Tools.PDF.APIKey)
	assert.Equal(t, "profile", cfg.Tools.PDF.Profile)
	assert.Equal(t, "mistral", cfg.LLMs[DefaultAgentLLM].APIKey)
	assert.True(t, cfg.Server.Auth.IsEnabled())
}

func TestCredentialsMissing(t *testing.T) {
	creds := CredentialsFrom(func(string) string { return "" })
	assert.Equal(t, []string{EnvBraveAPIKey, EnvSmitheryAPIKey, EnvSmitheryProfile, EnvMistralAPIKey}, creds.Missing())
}

func TestParse(t *testing.T) {
	t.Setenv("STUDY_TEST_PORT", "9090")
	t.Setenv("STUDY_TEST_KEY", "k-123")

	cfg, err := Parse([]byte(`
name: classroom
server:
  port: ${STUDY_TEST_PORT}
  shutdown_timeout: 3s
tools:
  search:
    api_key: ${STUDY_TEST_KEY}
    max_retries: 2
  pdf:
    transport: stdio
  questions:
    llm: ${STUDY_TEST_LLM:-mistral-large}
agents:
  summary:
    description: Summarises notes
    tools: [search-tool]
    scorers:
      safety:
        rate: 0.5
`))
	require.NoError(t, err)
	require.NoError(t, Finalize(cfg, Credentials{}))

	assert.Equal(t, "classroom", cfg.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "k-123", cfg.Tools.Search.APIKey)
	assert.Equal(t, 2, cfg.Tools.Search.MaxRetries)
	assert.Equal(t, "stdio", cfg.Tools.PDF.Transport)
	assert.Equal(t, "mistral-large", cfg.Tools.Questions.LLM)

	summary := cfg.Agents["summary"]
	require.NotNil(t, summary)
	assert.Equal(t, []string{"search-tool"}, summary.Tools)
	require.NotNil(t, summary.Scorers["safety"].Rate)
	assert.Equal(t, 0.5, *summary.Scorers["safety"].Rate)
	assert.Equal(t, []string{"summary"}, cfg.AgentIDs())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("servr:\n  port: 1\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"short secret", func(c *Config) { c.Server.Auth.Secret = "short" }},
		{"bad driver", func(c *Config) { c.Storage.Database.Driver = "oracle" }},
		{"postgres without host", func(c *Config) { c.Storage.Database.Driver = "postgres" }},
		{"bad memory scope", func(c *Config) { c.Memory.Scope = "global" }},
		{"bad provider", func(c *Config) { c.LLMs["x"] = &LLMConfig{Provider: "acme", Model: "m"} }},
		{"missing model", func(c *Config) { c.LLMs["x"] = &LLMConfig{Provider: "mistral"} }},
		{"bad pdf transport", func(c *Config) { c.Tools.PDF.Transport = "grpc" }},
		{"too many retries", func(c *Config) { c.Tools.Search.MaxRetries = 11 }},
		{"bad default count", func(c *Config) { c.Tools.Questions.DefaultCount = 21 }},
		{"unknown questions llm", func(c *Config) { c.Tools.Questions.LLM = "nope" }},
		{"unknown agent llm", func(c *Config) { c.Agents["a"] = &AgentConfig{LLM: "nope"} }},
		{"bad scorer rate", func(c *Config) {
			rate := 1.5
			c.Agents["a"] = &AgentConfig{Scorers: map[string]*ScorerConfig{"s": {Rate: &rate}}}
		}},
		{"bad scorer kind", func(c *Config) {
			c.Agents["a"] = &AgentConfig{Scorers: map[string]*ScorerConfig{"s": {Kind: "vibes"}}}
		}},
		{"bad exporter", func(c *Config) { c.Observability.Tracing.Exporter = "zipkin" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Database: "study", Username: "u", Password: "p"}
	pg.SetDefaults()
	assert.Equal(t, "host=db port=5432 dbname=study user=u password=p sslmode=disable", pg.DSN())
	assert.Equal(t, "postgres", pg.Dialect())

	my := DatabaseConfig{Driver: "mysql", Host: "db", Database: "study", Username: "u", Password: "p"}
	my.SetDefaults()
	assert.Equal(t, "u:p@tcp(db:3306)/study?parseTime=true", my.DSN())

	lite := DatabaseConfig{Driver: "sqlite3"}
	lite.SetDefaults()
	assert.Equal(t, ":memory:", lite.DSN())
	assert.Equal(t, "sqlite3", lite.DriverName())
	assert.Equal(t, "sqlite", lite.Dialect())
}

func TestLoadFile(t *testing.T) {
	cfg, loader, err := LoadFile(context.Background(), "", Credentials{MistralAPIKey: "m"})
	require.NoError(t, err)
	assert.Nil(t, loader)
	assert.Equal(t, "m", cfg.LLMs[DefaultAgentLLM].APIKey)

	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\n"), 0o600))

	cfg, loader, err = LoadFile(context.Background(), path, Credentials{})
	require.NoError(t, err)
	require.NotNil(t, loader)
	defer loader.Close()
	assert.Equal(t, "from-file", cfg.Name)

	require.NoError(t, os.WriteFile(path, []byte("logger:\n  level: loud\n"), 0o600))
	_, err = loader.Load(context.Background())
	assert.Error(t, err)
}

func TestLoader_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: one\n"), 0o600))

	reloaded := make(chan *Config, 1)
	_, loader, err := LoadFile(context.Background(), path, Credentials{}, WithOnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	}))
	require.NoError(t, err)
	defer loader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loader.Watch(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("name: two\n"), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "two", cfg.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestSchema(t *testing.T) {
	schema := Schema()
	require.NotNil(t, schema)
	assert.Equal(t, "Study Agent Configuration", schema.Title)
	require.NotNil(t, schema.Properties)
	_, ok := schema.Properties.Get("tools")
	assert.True(t, ok)
}
