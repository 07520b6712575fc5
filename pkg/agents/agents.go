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

// Package agents declares the built-in study agents and merges the
// agents section of the configuration file into them.
package agents

import (
	"fmt"
	"sort"

	"github.com/kadirpekel/studyagent/pkg/agent"
	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/memory"
	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/scorer"
	"github.com/kadirpekel/studyagent/pkg/tool"
	"github.com/kadirpekel/studyagent/pkg/tool/pdftool"
	"github.com/kadirpekel/studyagent/pkg/tool/questiontool"
	"github.com/kadirpekel/studyagent/pkg/tool/searchtool"
)

// Built-in agent IDs.
const (
	Research     = "research"
	Summary      = "summary"
	Test         = "test"
	TextQuestion = "text-question"
)

type builtin struct {
	name        string
	description string
	instruction string
	tools       []string
	memory      bool
	scorers     bool
}

var builtins = map[string]builtin{
	Research: {
		name:        "ResearchAgent",
		description: "An agent that performs real-time web search using the Brave Search API.",
		instruction: researchInstruction,
		tools:       []string{searchtool.ToolName, pdftool.ToolName},
		memory:      true,
		scorers:     true,
	},
	Summary: {
		name:        "Summary Agent",
		description: "An agent that summarizes content using the Mistral model and can perform real-time web search with Brave Search for up-to-date context.",
		instruction: summaryInstruction,
		tools:       []string{searchtool.ToolName},
		memory:      true,
		scorers:     true,
	},
	Test: {
		name:        "Test Agent",
		description: "An agent specialized in generating comprehensive questions from text",
		instruction: testInstruction,
		tools:       []string{questiontool.ToolName},
		memory:      true,
		scorers:     true,
	},
	TextQuestion: {
		name:        "textQuestionAgent",
		description: "Lightweight agent for generating questions from provided text without using additional tools",
		instruction: textQuestionInstruction,
	},
}

// BuiltinIDs returns the built-in agent IDs sorted.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Deps carries everything Build resolves agents against.
type Deps struct {
	// Config supplies llms and agent overrides. Nil means config.Default().
	Config *config.Config

	// Tools holds every constructed tool.
	Tools tool.Set

	// Memory is the working memory shared by memory-enabled agents.
	// Nil or disabled turns memory off for every agent.
	Memory *memory.Config
}

// Build returns the built-in agents with overrides applied, plus any
// additional agents declared in the configuration, keyed by ID.
func Build(deps Deps) (map[string]*agent.Definition, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}

	r := resolver{cfg: cfg, tools: deps.Tools, memory: deps.Memory}

	agentModel, err := r.ref(config.DefaultAgentLLM)
	if err != nil {
		return nil, err
	}
	scorerModel, err := r.ref(config.DefaultScorerLLM)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*agent.Definition, len(builtins)+len(cfg.Agents))

	for _, id := range BuiltinIDs() {
		b := builtins[id]
		c := agent.Config{
			ID:          id,
			Name:        b.name,
			Description: b.description,
			Instruction: b.instruction,
			Model:       agentModel,
		}
		toolNames := b.tools
		useMemory := b.memory
		scorers := map[string]scorer.Config{}
		if b.scorers {
			scorers = scorer.DefaultSet(scorerModel).All()
		}

		if o := cfg.Agents[id]; o != nil {
			if err := r.apply(&c, o); err != nil {
				return nil, fmt.Errorf("agent %q: %w", id, err)
			}
			if o.Tools != nil {
				toolNames = o.Tools
			}
			if o.Memory != nil {
				useMemory = *o.Memory
			}
			if err := r.mergeScorers(scorers, o.Scorers, scorerModel); err != nil {
				return nil, fmt.Errorf("agent %q: %w", id, err)
			}
		}

		def, err := r.finish(c, toolNames, useMemory, scorers)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", id, err)
		}
		out[id] = def
	}

	for _, id := range cfg.AgentIDs() {
		if _, ok := builtins[id]; ok {
			continue
		}
		o := cfg.Agents[id]
		if o == nil {
			continue
		}

		c := agent.Config{ID: id, Name: id, Model: agentModel}
		if err := r.apply(&c, o); err != nil {
			return nil, fmt.Errorf("agent %q: %w", id, err)
		}
		scorers := map[string]scorer.Config{}
		if err := r.mergeScorers(scorers, o.Scorers, scorerModel); err != nil {
			return nil, fmt.Errorf("agent %q: %w", id, err)
		}

		def, err := r.finish(c, o.Tools, o.Memory != nil && *o.Memory, scorers)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", id, err)
		}
		out[id] = def
	}

	return out, nil
}

type resolver struct {
	cfg    *config.Config
	tools  tool.Set
	memory *memory.Config
}

func (r resolver) ref(llm string) (model.Ref, error) {
	c, ok := r.cfg.LLMs[llm]
	if !ok || c == nil {
		return model.Ref{}, fmt.Errorf("llm %q not found", llm)
	}
	return model.ParseRef(c.Ref())
}

func (r resolver) apply(c *agent.Config, o *config.AgentConfig) error {
	if o.Name != "" {
		c.Name = o.Name
	}
	if o.Description != "" {
		c.Description = o.Description
	}
	if o.Instruction != "" {
		c.Instruction = o.Instruction
	}
	if o.LLM != "" {
		ref, err := r.ref(o.LLM)
		if err != nil {
			return err
		}
		c.Model = ref
	}
	return nil
}

func (r resolver) mergeScorers(dst map[string]scorer.Config, overrides map[string]*config.ScorerConfig, def model.Ref) error {
	for name, o := range overrides {
		if o == nil {
			continue
		}
		sc, exists := dst[name]
		if !exists {
			kind, ok := scorer.KindForName(name)
			if o.Kind != "" {
				kind, ok = scorer.Kind(o.Kind), true
			}
			if !ok {
				return fmt.Errorf("scorer %q: kind is required", name)
			}
			sc = scorer.Ratio(kind, def, 1)
		}
		if o.Kind != "" {
			sc.Kind = scorer.Kind(o.Kind)
		}
		if o.LLM != "" {
			ref, err := r.ref(o.LLM)
			if err != nil {
				return fmt.Errorf("scorer %q: %w", name, err)
			}
			sc.Model = ref
		}
		if o.Rate != nil {
			sc.Sampling.Rate = *o.Rate
		}
		dst[name] = sc
	}
	return nil
}

func (r resolver) finish(c agent.Config, toolNames []string, useMemory bool, scorers map[string]scorer.Config) (*agent.Definition, error) {
	selected := make([]tool.CallableTool, 0, len(toolNames))
	for _, name := range toolNames {
		t, ok := r.tools.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown tool %q (available: %v)", name, r.tools.Names())
		}
		selected = append(selected, t)
	}
	set, err := tool.NewSet(selected...)
	if err != nil {
		return nil, err
	}
	c.Tools = set

	if useMemory && r.memory != nil && r.memory.Enabled {
		c.Memory = r.memory
	}

	c.Scorers, err = scorer.NewSet(scorers)
	if err != nil {
		return nil, err
	}
	return agent.New(c)
}
