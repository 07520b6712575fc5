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

// Package model binds agents and tools to language-model providers.
//
// Only a single blocking completion call is exposed. It is used by tools
// that need a model on their own (question generation) and by the CLI
// to check that a binding works:
//
//	llm := openai.New(openai.Config{Provider: model.ProviderMistral, ...})
//	resp, err := llm.Generate(ctx, &model.Request{Messages: ...})
package model

import (
	"context"
	"fmt"
	"strings"
)

// LLM is a bound language model.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Provider returns the provider serving the model.
	Provider() Provider

	// Generate produces one complete response.
	// Missing credentials surface here as a tool.ConfigurationError.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the LLM.
	Close() error
}

// Provider identifies the LLM provider.
type Provider string

const (
	// ProviderOpenAI is the OpenAI API.
	ProviderOpenAI Provider = "openai"

	// ProviderMistral is Mistral's OpenAI-compatible API.
	ProviderMistral Provider = "mistral"

	// ProviderGemini is Google's Gemini API.
	ProviderGemini Provider = "gemini"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderMistral, ProviderGemini:
		return true
	}
	return false
}

// Ref names a model as "provider/model", for example
// "mistral/mistral-large-latest".
type Ref struct {
	Provider Provider
	Model    string
}

// ParseRef parses a "provider/model" string.
func ParseRef(s string) (Ref, error) {
	provider, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || provider == "" || name == "" {
		return Ref{}, fmt.Errorf("invalid model reference %q: expected provider/model", s)
	}
	ref := Ref{Provider: Provider(strings.ToLower(provider)), Model: name}
	if !ref.Provider.Valid() {
		return Ref{}, fmt.Errorf("invalid model reference %q: unknown provider %q", s, provider)
	}
	return ref, nil
}

// MustParseRef is ParseRef for package-level declarations.
func MustParseRef(s string) Ref {
	ref, err := ParseRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}
	return string(r.Provider) + "/" + r.Model
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool {
	return r.Provider == "" && r.Model == ""
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(b []byte) error {
	parsed, err := ParseRef(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// UserMessage is a convenience constructor.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// Request contains the input for an LLM call.
type Request struct {
	// SystemInstruction is prepended to the conversation.
	SystemInstruction string

	Messages []Message

	// Config overrides the binding's generation defaults.
	Config *GenerateConfig
}

// GenerateConfig contains configuration for generation.
type GenerateConfig struct {
	// Temperature controls randomness (0-2).
	Temperature *float64

	// MaxTokens limits the response length.
	MaxTokens *int
}

// Response contains the result of an LLM call.
type Response struct {
	Text         string
	FinishReason FinishReason
	Usage        *Usage
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// FinishReason indicates why generation stopped.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonContent FinishReason = "content_filter"
	FinishReasonOther   FinishReason = "other"
)
