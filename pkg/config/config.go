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

// Package config loads the application configuration.
//
// Configuration is a single YAML (or JSON) document. Values may reference
// environment variables as ${VAR} or ${VAR:-default}. Sections carry
// SetDefaults and Validate methods; the Loader calls them in that order.
// Without a file the built-in study agent setup is used (see Default).
package config

import (
	"fmt"
	"sort"
)

const (
	// DefaultAgentLLM names the llms entry used by agents.
	DefaultAgentLLM = "mistral-large"

	// DefaultScorerLLM names the llms entry used by scorers.
	DefaultScorerLLM = "mistral-medium"
)

// Config is the root configuration.
type Config struct {
	// Name identifies this deployment in logs and the info command.
	Name string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Name,default=study-agent"`

	Logger        LoggerConfig            `yaml:"logger,omitempty" json:"logger,omitempty"`
	Server        ServerConfig            `yaml:"server,omitempty" json:"server,omitempty"`
	Storage       StorageConfig           `yaml:"storage,omitempty" json:"storage,omitempty"`
	Memory        MemoryConfig            `yaml:"memory,omitempty" json:"memory,omitempty"`
	LLMs          map[string]*LLMConfig   `yaml:"llms,omitempty" json:"llms,omitempty"`
	Tools         ToolsConfig             `yaml:"tools,omitempty" json:"tools,omitempty"`
	Agents        map[string]*AgentConfig `yaml:"agents,omitempty" json:"agents,omitempty"`
	Observability ObservabilityConfig     `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "study-agent"
	}

	if c.LLMs == nil {
		c.LLMs = make(map[string]*LLMConfig)
	}
	if _, ok := c.LLMs[DefaultAgentLLM]; !ok {
		c.LLMs[DefaultAgentLLM] = &LLMConfig{Provider: ProviderMistral, Model: "mistral-large-latest"}
	}
	if _, ok := c.LLMs[DefaultScorerLLM]; !ok {
		c.LLMs[DefaultScorerLLM] = &LLMConfig{Provider: ProviderMistral, Model: "mistral-medium-latest"}
	}
	for _, llm := range c.LLMs {
		if llm != nil {
			llm.SetDefaults()
		}
	}

	if c.Agents == nil {
		c.Agents = make(map[string]*AgentConfig)
	}

	c.Logger.SetDefaults()
	c.Server.SetDefaults()
	c.Storage.SetDefaults()
	c.Memory.SetDefaults()
	c.Tools.SetDefaults()
	c.Observability.SetDefaults()
}

// Validate checks every section and cross references between them.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	for _, name := range sortedKeys(c.LLMs) {
		llm := c.LLMs[name]
		if llm == nil {
			continue
		}
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q: %w", name, err)
		}
	}
	if err := c.Tools.Validate(); err != nil {
		return fmt.Errorf("tools: %w", err)
	}
	for _, id := range sortedKeys(c.Agents) {
		agent := c.Agents[id]
		if agent == nil {
			continue
		}
		if err := agent.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", id, err)
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	return c.validateReferences()
}

func (c *Config) validateReferences() error {
	if _, ok := c.LLMs[c.Tools.Questions.LLM]; !ok {
		return fmt.Errorf("tools.questions: llm %q not found (available: %v)", c.Tools.Questions.LLM, sortedKeys(c.LLMs))
	}

	for _, id := range sortedKeys(c.Agents) {
		agent := c.Agents[id]
		if agent == nil {
			continue
		}
		if agent.LLM != "" {
			if _, ok := c.LLMs[agent.LLM]; !ok {
				return fmt.Errorf("agent %q: llm %q not found (available: %v)", id, agent.LLM, sortedKeys(c.LLMs))
			}
		}
		for name, sc := range agent.Scorers {
			if sc == nil || sc.LLM == "" {
				continue
			}
			if _, ok := c.LLMs[sc.LLM]; !ok {
				return fmt.Errorf("agent %q: scorer %q: llm %q not found", id, name, sc.LLM)
			}
		}
	}
	return nil
}

// AgentIDs returns configured agent IDs in sorted order.
func (c *Config) AgentIDs() []string {
	return sortedKeys(c.Agents)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
