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

import "fmt"

// AgentConfig overrides a built-in agent or declares an additional one.
//
// Example:
//
//	agents:
//	  summary:
//	    description: Summarises lecture notes
//	    scorers:
//	      safety:
//	        rate: 0.5
type AgentConfig struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"title=Name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`
	Instruction string `yaml:"instruction,omitempty" json:"instruction,omitempty" jsonschema:"title=Instruction"`

	// LLM names an llms entry.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"title=LLM"`

	// Tools lists tool IDs. Nil keeps the built-in selection.
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty" jsonschema:"title=Tools"`

	// Memory toggles working memory. Nil keeps the built-in setting.
	Memory *bool `yaml:"memory,omitempty" json:"memory,omitempty" jsonschema:"title=Memory"`

	Scorers map[string]*ScorerConfig `yaml:"scorers,omitempty" json:"scorers,omitempty" jsonschema:"title=Scorers"`
}

// Validate checks the agent configuration.
func (c *AgentConfig) Validate() error {
	for name, sc := range c.Scorers {
		if sc == nil {
			continue
		}
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("scorer %q: %w", name, err)
		}
	}
	return nil
}

// ScorerConfig overrides one scorer of an agent.
type ScorerConfig struct {
	// Kind is faithfulness, hallucination, answer-relevancy or toxicity.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty" jsonschema:"title=Kind,enum=faithfulness,enum=hallucination,enum=answer-relevancy,enum=toxicity"`

	// LLM names the llms entry that runs the scorer.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"title=LLM"`

	// Rate is the sampling ratio in [0, 1].
	Rate *float64 `yaml:"rate,omitempty" json:"rate,omitempty" jsonschema:"title=Rate,minimum=0,maximum=1"`
}

// Validate checks the scorer configuration.
func (c *ScorerConfig) Validate() error {
	switch c.Kind {
	case "", "faithfulness", "hallucination", "answer-relevancy", "toxicity":
	default:
		return fmt.Errorf("invalid kind %q", c.Kind)
	}
	if c.Rate != nil && (*c.Rate < 0 || *c.Rate > 1) {
		return fmt.Errorf("rate must be between 0 and 1")
	}
	return nil
}
