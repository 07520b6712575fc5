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

// Package scorer declares the quality scorers attached to agents and the
// sampling policy deciding which responses get scored.
//
// Running a scorer is not this package's concern; it only describes which
// judge, on which model, at what rate.
package scorer

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/kadirpekel/studyagent/pkg/model"
)

// Kind identifies the judge a scorer runs.
type Kind string

const (
	KindFaithfulness    Kind = "faithfulness"
	KindHallucination   Kind = "hallucination"
	KindAnswerRelevancy Kind = "answer-relevancy"
	KindToxicity        Kind = "toxicity"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFaithfulness, KindHallucination, KindAnswerRelevancy, KindToxicity:
		return true
	}
	return false
}

// SamplingRatio is the only sampling type.
const SamplingRatio = "ratio"

// Sampling selects a fraction of responses for scoring.
type Sampling struct {
	Type string  `json:"type"`
	Rate float64 `json:"rate"`
}

// Config describes one scorer.
type Config struct {
	Kind     Kind      `json:"kind"`
	Model    model.Ref `json:"model"`
	Sampling Sampling  `json:"sampling"`
}

// Validate checks the scorer configuration.
func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown scorer kind %q", c.Kind)
	}
	if c.Model.IsZero() {
		return fmt.Errorf("scorer %s: model is required", c.Kind)
	}
	if c.Sampling.Type != SamplingRatio {
		return fmt.Errorf("scorer %s: unsupported sampling type %q", c.Kind, c.Sampling.Type)
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("scorer %s: sampling rate %v outside [0, 1]", c.Kind, c.Sampling.Rate)
	}
	return nil
}

// Ratio returns a Config sampling at rate.
func Ratio(kind Kind, m model.Ref, rate float64) Config {
	return Config{Kind: kind, Model: m, Sampling: Sampling{Type: SamplingRatio, Rate: rate}}
}

// Default scorer names.
const (
	NameFaithfulness  = "faithfulness"
	NameHallucination = "hallucination"
	NameRelevancy     = "relevancy"
	NameSafety        = "safety"
)

// KindForName maps a default scorer name to its kind.
func KindForName(name string) (Kind, bool) {
	switch name {
	case NameFaithfulness:
		return KindFaithfulness, true
	case NameHallucination:
		return KindHallucination, true
	case NameRelevancy:
		return KindAnswerRelevancy, true
	case NameSafety:
		return KindToxicity, true
	}
	return "", false
}

// Set is an immutable collection of named scorers.
type Set struct {
	scorers map[string]Config
}

// NewSet validates and copies scorers.
func NewSet(scorers map[string]Config) (Set, error) {
	s := Set{scorers: make(map[string]Config, len(scorers))}
	for name, c := range scorers {
		if name == "" {
			return Set{}, fmt.Errorf("scorer name is required")
		}
		if err := c.Validate(); err != nil {
			return Set{}, fmt.Errorf("scorer %q: %w", name, err)
		}
		s.scorers[name] = c
	}
	return s, nil
}

// DefaultSet is the four-judge set used by the study agents: faithfulness,
// hallucination and relevancy sampled at 0.3, safety on every response.
func DefaultSet(m model.Ref) Set {
	return Set{scorers: map[string]Config{
		NameFaithfulness:  Ratio(KindFaithfulness, m, 0.3),
		NameHallucination: Ratio(KindHallucination, m, 0.3),
		NameRelevancy:     Ratio(KindAnswerRelevancy, m, 0.3),
		NameSafety:        Ratio(KindToxicity, m, 1),
	}}
}

// Get returns the scorer registered under name.
func (s Set) Get(name string) (Config, bool) {
	c, ok := s.scorers[name]
	return c, ok
}

// Names returns scorer names sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.scorers))
	for name := range s.scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of scorers.
func (s Set) Len() int {
	return len(s.scorers)
}

// All returns a copy of the scorers.
func (s Set) All() map[string]Config {
	out := make(map[string]Config, len(s.scorers))
	for k, v := range s.scorers {
		out[k] = v
	}
	return out
}

// Sampler decides per response whether a scorer runs.
type Sampler struct {
	set Set

	mu    sync.Mutex
	float func() float64
}

// NewSampler creates a sampler. A nil source uses math/rand/v2.
func NewSampler(set Set, source func() float64) *Sampler {
	if source == nil {
		source = rand.Float64
	}
	return &Sampler{set: set, float: source}
}

// ShouldScore reports whether the named scorer runs for one response.
// Rate 0 never scores and rate 1 always does. Unknown names never score.
func (s *Sampler) ShouldScore(name string) bool {
	c, ok := s.set.Get(name)
	if !ok {
		return false
	}
	switch rate := c.Sampling.Rate; {
	case rate <= 0:
		return false
	case rate >= 1:
		return true
	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.float() < rate
	}
}

// Select returns the names of the scorers that run for one response.
func (s *Sampler) Select() []string {
	var out []string
	for _, name := range s.set.Names() {
		if s.ShouldScore(name) {
			out = append(out, name)
		}
	}
	return out
}
