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

package questiontool

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// wordTokenizer treats each space-separated word as one token.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	out := make([]int, len(words))
	for i := range words {
		out[i] = i
	}
	return out
}

func (wordTokenizer) Decode(tokens []int) string {
	return strings.Repeat("w ", len(tokens))
}

type fakeLLM struct {
	reply string
	err   error
	req   *model.Request
	calls int
}

func (f *fakeLLM) Name() string             { return "fake" }
func (f *fakeLLM) Provider() model.Provider { return model.ProviderMistral }
func (f *fakeLLM) Close() error             { return nil }
func (f *fakeLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &model.Response{Text: f.reply}, nil
}

func newGenerator(t *testing.T, llm model.LLM, maxTokens int) *Generator {
	t.Helper()
	g, err := NewGenerator(Config{LLM: llm, MaxInputTokens: maxTokens, Tokenizer: wordTokenizer{}})
	require.NoError(t, err)
	return g
}

func TestParseQuestions(t *testing.T) {
	reply := "Here are your questions:\n" +
		"1. What is mitosis?\n" +
		"2) Name the phases of meiosis.\n" +
		"  3.   **Why do cells divide?**  \n" +
		"- Where is DNA stored?\n" +
		"\n" +
		"Good luck!"

	assert.Equal(t, []string{
		"What is mitosis?",
		"Name the phases of meiosis.",
		"Why do cells divide?",
		"Where is DNA stored?",
	}, ParseQuestions(reply))

	assert.Empty(t, ParseQuestions("no list here"))
}

func TestTruncate(t *testing.T) {
	out, cut := Truncate(wordTokenizer{}, "a b c", 5)
	assert.False(t, cut)
	assert.Equal(t, "a b c", out)

	out, cut = Truncate(wordTokenizer{}, "a b c d e f", 2)
	assert.True(t, cut)
	assert.Equal(t, "w w ", out)

	out, cut = Truncate(nil, "ééééééééééé", 2)
	assert.True(t, cut)
	assert.Equal(t, "éééééééé", out)

	out, cut = Truncate(nil, "short", 0)
	assert.False(t, cut)
	assert.Equal(t, "short", out)
}

func TestGenerate(t *testing.T) {
	llm := &fakeLLM{reply: "1. Q1\n2. Q2\n3. Q3\n4. Q4"}
	g := newGenerator(t, llm, 100)

	res, err := g.Generate(context.Background(), Args{Text: "Photosynthesis converts light.", Count: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"Q1", "Q2", "Q3"}, res.Questions)
	assert.Equal(t, SourceText, res.Source)
	assert.False(t, res.Truncated)
	require.Len(t, llm.req.Messages, 1)
	assert.Contains(t, llm.req.Messages[0].Content, "Write 3 questions")
	assert.Contains(t, llm.req.Messages[0].Content, "Photosynthesis converts light.")
}

func TestGenerate_DefaultCountAndTruncation(t *testing.T) {
	llm := &fakeLLM{reply: "1. Q"}
	g := newGenerator(t, llm, 2)

	res, err := g.Generate(context.Background(), Args{Text: "one two three four"})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Contains(t, llm.req.Messages[0].Content, "Write 8 questions")
	assert.NotContains(t, llm.req.Messages[0].Content, "three")
}

func TestGenerate_Validation(t *testing.T) {
	llm := &fakeLLM{reply: "1. Q"}
	g := newGenerator(t, llm, 100)

	cases := []Args{
		{},
		{Text: "   "},
		{Text: "x", Count: 21},
		{Text: "x", Count: -1},
		{PDFBase64: "***"},
		{PDFBase64: base64.StdEncoding.EncodeToString([]byte("plain text"))},
	}
	for _, args := range cases {
		_, err := g.Generate(context.Background(), args)
		assert.True(t, tool.IsValidationError(err), "%+v: %v", args, err)
	}
	assert.Zero(t, llm.calls)
}

func TestGenerate_ModelFailures(t *testing.T) {
	cfgErr := &tool.ConfigurationError{Variable: "MISTRAL_API_KEY"}
	g := newGenerator(t, &fakeLLM{err: cfgErr}, 100)
	_, err := g.Generate(context.Background(), Args{Text: "x"})
	assert.True(t, errors.Is(err, cfgErr))

	g = newGenerator(t, &fakeLLM{reply: "I cannot help with that."}, 100)
	_, err = g.Generate(context.Background(), Args{Text: "x"})
	assert.True(t, tool.IsRemoteServiceError(err))
}

func TestNewGenerator_RequiresModel(t *testing.T) {
	_, err := NewGenerator(Config{Tokenizer: wordTokenizer{}})
	assert.Error(t, err)
}

func TestTool(t *testing.T) {
	g := newGenerator(t, &fakeLLM{reply: "1. A\n2. B"}, 100)
	qt, err := New(g)
	require.NoError(t, err)
	assert.Equal(t, "generate-questions-from-text-tool", qt.Name())

	out, err := qt.Call(tool.NewContext(context.Background(), "test", ""), map[string]any{"text": "cells", "count": 2})
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, out["questions"])
	assert.Equal(t, "text", out["source"])

	props, ok := qt.Schema()["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "pdfBase64")
}
