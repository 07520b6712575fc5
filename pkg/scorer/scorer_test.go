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

package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kadirpekel/studyagent/pkg/model"
)

var judge = model.MustParseRef("mistral/mistral-medium-latest")

func TestDefaultSet(t *testing.T) {
	s := DefaultSet(judge)

	assert.Equal(t, []string{"faithfulness", "hallucination", "relevancy", "safety"}, s.Names())

	safety, ok := s.Get(NameSafety)
	require.True(t, ok)
	assert.Equal(t, KindToxicity, safety.Kind)
	assert.Equal(t, 1.0, safety.Sampling.Rate)
	assert.Equal(t, judge, safety.Model)

	rel, ok := s.Get(NameRelevancy)
	require.True(t, ok)
	assert.Equal(t, KindAnswerRelevancy, rel.Kind)
	assert.Equal(t, 0.3, rel.Sampling.Rate)

	for _, c := range s.All() {
		assert.NoError(t, c.Validate())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Ratio(KindFaithfulness, judge, 0.5)},
		{name: "rate zero", cfg: Ratio(KindFaithfulness, judge, 0)},
		{name: "rate one", cfg: Ratio(KindToxicity, judge, 1)},
		{name: "rate above one", cfg: Ratio(KindToxicity, judge, 1.2), wantErr: true},
		{name: "negative rate", cfg: Ratio(KindToxicity, judge, -0.1), wantErr: true},
		{name: "unknown kind", cfg: Ratio("bleu", judge, 0.5), wantErr: true},
		{name: "missing model", cfg: Ratio(KindFaithfulness, model.Ref{}, 0.5), wantErr: true},
		{name: "bad sampling type", cfg: Config{Kind: KindFaithfulness, Model: judge, Sampling: Sampling{Type: "count", Rate: 1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSet(t *testing.T) {
	s, err := NewSet(map[string]Config{"f": Ratio(KindFaithfulness, judge, 0.1)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	_, err = NewSet(map[string]Config{"f": Ratio(KindFaithfulness, judge, 2)})
	assert.Error(t, err)

	_, err = NewSet(map[string]Config{"": Ratio(KindFaithfulness, judge, 0.1)})
	assert.Error(t, err)
}

func TestKindForName(t *testing.T) {
	k, ok := KindForName("relevancy")
	assert.True(t, ok)
	assert.Equal(t, KindAnswerRelevancy, k)

	_, ok = KindForName("bleu")
	assert.False(t, ok)
}

func TestSampler_ShouldScore(t *testing.T) {
	set, err := NewSet(map[string]Config{
		"never":  Ratio(KindFaithfulness, judge, 0),
		"always": Ratio(KindToxicity, judge, 1),
		"third":  Ratio(KindHallucination, judge, 0.3),
	})
	require.NoError(t, err)

	draw := 0.0
	s := NewSampler(set, func() float64 { return draw })

	draw = 0.0
	assert.False(t, s.ShouldScore("never"))
	assert.True(t, s.ShouldScore("always"))
	assert.True(t, s.ShouldScore("third"))
	assert.False(t, s.ShouldScore("missing"))

	draw = 0.3
	assert.False(t, s.ShouldScore("third"))

	draw = 0.99
	assert.True(t, s.ShouldScore("always"))
	assert.Equal(t, []string{"always"}, s.Select())
}

func TestSampler_RateBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rate := rapid.Float64Range(0, 1).Draw(t, "rate")
		draw := rapid.Float64Range(0, 0.9999).Draw(t, "draw")

		set, err := NewSet(map[string]Config{"s": Ratio(KindFaithfulness, judge, rate)})
		if err != nil {
			t.Fatalf("NewSet: %v", err)
		}
		got := NewSampler(set, func() float64 { return draw }).ShouldScore("s")

		switch {
		case rate == 0 && got:
			t.Fatalf("rate 0 scored")
		case rate == 1 && !got:
			t.Fatalf("rate 1 skipped")
		case rate > 0 && rate < 1 && got != (draw < rate):
			t.Fatalf("rate %v draw %v: got %v", rate, draw, got)
		}
	})
}
