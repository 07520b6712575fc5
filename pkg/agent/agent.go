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

// Package agent defines the immutable agent definition.
//
// A definition is static configuration: a prompt, a model selection, the
// tools the model may call, working memory and quality scorers. Running
// the agent belongs to whatever hosts it.
//
//	def, err := agent.New(agent.Config{
//	    Name:        "ResearchAgent",
//	    Instruction: "You are an advanced AI research assistant...",
//	    Model:       model.MustParseRef("mistral/mistral-large-latest"),
//	    Tools:       tools,
//	})
package agent

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/studyagent/pkg/memory"
	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/scorer"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// Config is the input to New.
type Config struct {
	// ID is the registry key. Defaults to Name.
	ID          string
	Name        string
	Description string
	Instruction string
	Model       model.Ref
	Tools       tool.Set

	// Memory is nil for agents without working memory.
	Memory  *memory.Config
	Scorers scorer.Set
}

// Definition is a validated, read-only agent.
type Definition struct {
	id          string
	name        string
	description string
	instruction string
	model       model.Ref
	tools       tool.Set
	memory      *memory.Config
	scorers     scorer.Set
	sampler     *scorer.Sampler
}

// New validates cfg and builds a Definition.
func New(cfg Config) (*Definition, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if strings.TrimSpace(cfg.Instruction) == "" {
		return nil, fmt.Errorf("agent %q: instruction is required", cfg.Name)
	}
	if cfg.Model.IsZero() {
		return nil, fmt.Errorf("agent %q: model is required", cfg.Name)
	}
	if !cfg.Model.Provider.Valid() {
		return nil, fmt.Errorf("agent %q: unsupported model provider %q", cfg.Name, cfg.Model.Provider)
	}
	for name, sc := range cfg.Scorers.All() {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("agent %q: scorer %q: %w", cfg.Name, name, err)
		}
	}

	id := cfg.ID
	if id == "" {
		id = cfg.Name
	}

	var mem *memory.Config
	if cfg.Memory != nil && cfg.Memory.Enabled {
		cp := *cfg.Memory
		mem = &cp
	}

	return &Definition{
		id:          id,
		name:        cfg.Name,
		description: cfg.Description,
		instruction: cfg.Instruction,
		model:       cfg.Model,
		tools:       cfg.Tools,
		memory:      mem,
		scorers:     cfg.Scorers,
		sampler:     scorer.NewSampler(cfg.Scorers, nil),
	}, nil
}

func (d *Definition) ID() string          { return d.id }
func (d *Definition) Name() string        { return d.name }
func (d *Definition) Description() string { return d.description }
func (d *Definition) Instruction() string { return d.instruction }
func (d *Definition) Model() model.Ref    { return d.model }
func (d *Definition) Tools() tool.Set     { return d.tools }
func (d *Definition) Scorers() scorer.Set { return d.scorers }

// SampleScorers draws the scorers that run for one exchange with this agent.
func (d *Definition) SampleScorers() []string { return d.sampler.Select() }

// Memory returns a copy of the working memory configuration, or nil.
func (d *Definition) Memory() *memory.Config {
	if d.memory == nil {
		return nil
	}
	cp := *d.memory
	return &cp
}

// HasTool reports whether the agent may call the named tool.
func (d *Definition) HasTool(name string) bool {
	_, ok := d.tools.Get(name)
	return ok
}

// Summary is the listing view of a definition.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
}

// Detail is the full view of a definition.
type Detail struct {
	Summary
	Instruction string                   `json:"instructions"`
	Tools       []tool.Definition        `json:"tools"`
	Memory      *MemoryDetail            `json:"memory,omitempty"`
	Scorers     map[string]scorer.Config `json:"scorers,omitempty"`
}

// MemoryDetail describes working memory in Detail.
type MemoryDetail struct {
	Scope    string `json:"scope"`
	Template string `json:"template"`
}

// Summary returns the listing view.
func (d *Definition) Summary() Summary {
	return Summary{
		ID:          d.id,
		Name:        d.name,
		Description: d.description,
		Model:       d.model.String(),
	}
}

// Detail returns the full view.
func (d *Definition) Detail() Detail {
	out := Detail{
		Summary:     d.Summary(),
		Instruction: d.instruction,
		Tools:       d.tools.Definitions(),
	}
	if d.memory != nil {
		out.Memory = &MemoryDetail{Scope: string(d.memory.Scope), Template: d.memory.Template}
	}
	if d.scorers.Len() > 0 {
		out.Scorers = d.scorers.All()
	}
	return out
}
