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

// Package questiontool generates study questions from text or a PDF.
package questiontool

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/pdftext"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

const (
	DefaultCount          = 8
	MaxCount              = 20
	DefaultMaxInputTokens = 6000

	SourceText = "text"
	SourcePDF  = "pdf"
)

const systemPrompt = `You write study questions for students.
Return only a numbered list, one question per line, with no answers and no commentary.`

// Args is the tool input.
type Args struct {
	Text      string `json:"text,omitempty" jsonschema:"description=Source text to generate questions from"`
	PDFBase64 string `json:"pdfBase64,omitempty" jsonschema:"description=Base64-encoded PDF to generate questions from"`
	Count     int    `json:"count,omitempty" jsonschema:"description=Number of questions (1-20),minimum=1,maximum=20,default=8"`
}

// Validate checks input shape without decoding the PDF.
func (a Args) Validate() error {
	if strings.TrimSpace(a.Text) == "" && strings.TrimSpace(a.PDFBase64) == "" {
		return &tool.ValidationError{Field: "text", Message: "Provide 'text' or 'pdfBase64'"}
	}
	if a.Count < 0 || a.Count > MaxCount {
		return &tool.ValidationError{Field: "count", Message: fmt.Sprintf("must be between 1 and %d", MaxCount)}
	}
	return nil
}

// Result is the tool output.
type Result struct {
	Questions []string `json:"questions"`
	Source    string   `json:"source"`
	Truncated bool     `json:"truncated,omitempty"`
}

// Config configures a Generator.
type Config struct {
	LLM            model.LLM
	MaxInputTokens int
	DefaultCount   int

	// Tokenizer measures input. Defaults to DefaultTokenizer().
	Tokenizer Tokenizer
}

// Generator asks a model for questions about a document.
type Generator struct {
	llm          model.LLM
	maxTokens    int
	defaultCount int
	tokenizer    Tokenizer
}

// NewGenerator creates a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("question generator requires a model")
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = DefaultMaxInputTokens
	}
	if cfg.DefaultCount <= 0 || cfg.DefaultCount > MaxCount {
		cfg.DefaultCount = DefaultCount
	}
	if cfg.Tokenizer == nil {
		cfg.Tokenizer = DefaultTokenizer()
	}
	return &Generator{
		llm:          cfg.LLM,
		maxTokens:    cfg.MaxInputTokens,
		defaultCount: cfg.DefaultCount,
		tokenizer:    cfg.Tokenizer,
	}, nil
}

// Generate produces up to Count questions.
func (g *Generator) Generate(ctx context.Context, args Args) (Result, error) {
	if err := args.Validate(); err != nil {
		return Result{}, err
	}
	count := args.Count
	if count == 0 {
		count = g.defaultCount
	}

	text, source, err := sourceText(ctx, args)
	if err != nil {
		return Result{}, err
	}

	text, truncated := Truncate(g.tokenizer, text, g.maxTokens)
	if truncated {
		slog.Debug("Question source truncated", "max_tokens", g.maxTokens)
	}

	resp, err := g.llm.Generate(ctx, &model.Request{
		SystemInstruction: systemPrompt,
		Messages: []model.Message{model.UserMessage(
			fmt.Sprintf("Write %d questions about the following material.\n\n%s", count, text),
		)},
	})
	if err != nil {
		return Result{}, err
	}

	questions := ParseQuestions(resp.Text)
	if len(questions) > count {
		questions = questions[:count]
	}
	if len(questions) == 0 {
		return Result{}, &tool.RemoteServiceError{
			Service: g.llm.Name(),
			Message: "model returned no questions",
		}
	}

	return Result{Questions: questions, Source: source, Truncated: truncated}, nil
}

func sourceText(ctx context.Context, args Args) (string, string, error) {
	if strings.TrimSpace(args.PDFBase64) == "" {
		return args.Text, SourceText, nil
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(args.PDFBase64))
	if err != nil {
		return "", "", &tool.ValidationError{Field: "pdfBase64", Message: "invalid base64 payload"}
	}
	doc, err := pdftext.ExtractContext(ctx, data)
	if err != nil {
		return "", "", &tool.ValidationError{Field: "pdfBase64", Message: err.Error()}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return "", "", &tool.ValidationError{Field: "pdfBase64", Message: "PDF contains no extractable text"}
	}

	text := doc.Text
	if strings.TrimSpace(args.Text) != "" {
		text = args.Text + "\n\n" + doc.Text
	}
	return text, SourcePDF, nil
}

var listItem = regexp.MustCompile(`^\s*(?:\d+\s*[.)]|[-*•])\s+(.+?)\s*$`)

// ParseQuestions extracts list items from a model reply. Lines that are
// not numbered or bulleted are ignored.
func ParseQuestions(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		q := strings.Trim(m[1], "*_ ")
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}
