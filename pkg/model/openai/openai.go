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

// Package openai binds OpenAI-compatible chat completion APIs.
//
// Mistral exposes the same wire format, so both providers share this
// implementation and differ only in base URL and credential.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

const (
	DefaultOpenAIBaseURL  = "https://api.openai.com/v1"
	DefaultMistralBaseURL = "https://api.mistral.ai/v1"

	defaultTimeout = 120 * time.Second
)

// Config contains configuration for an OpenAI-compatible model.
type Config struct {
	// Provider selects defaults. Defaults to openai.
	Provider model.Provider

	// APIKey may be empty; Generate then fails with a ConfigurationError.
	APIKey string

	// BaseURL overrides the provider default.
	BaseURL string

	Model       string
	Temperature *float64
	MaxTokens   int

	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// KeyVariable returns the environment variable that holds the provider's key.
func KeyVariable(p model.Provider) string {
	if p == model.ProviderMistral {
		return "MISTRAL_API_KEY"
	}
	return "OPENAI_API_KEY"
}

type chatModel struct {
	cfg    Config
	client *openai.Client
}

// New creates a model binding. No request is made.
func New(cfg Config) (model.LLM, error) {
	if cfg.Provider == "" {
		cfg.Provider = model.ProviderOpenAI
	}
	if cfg.Provider != model.ProviderOpenAI && cfg.Provider != model.ProviderMistral {
		return nil, fmt.Errorf("provider %q is not OpenAI-compatible", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
		if cfg.Provider == model.ProviderMistral {
			cfg.BaseURL = DefaultMistralBaseURL
		}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	m := &chatModel{cfg: cfg}
	if cfg.APIKey != "" {
		opts := []option.RequestOption{
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithMaxRetries(cfg.MaxRetries),
			option.WithRequestTimeout(cfg.Timeout),
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
		}
		client := openai.NewClient(opts...)
		m.client = &client
	}
	return m, nil
}

func (m *chatModel) Name() string {
	return m.cfg.Model
}

func (m *chatModel) Provider() model.Provider {
	return m.cfg.Provider
}

func (m *chatModel) Close() error {
	return nil
}

func (m *chatModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if m.client == nil {
		return nil, &tool.ConfigurationError{Variable: KeyVariable(m.cfg.Provider)}
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}

	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return nil, &tool.RemoteServiceError{
			Service: string(m.cfg.Provider),
			Message: fmt.Sprintf("chat completion failed: %v", err),
			Err:     err,
		}
	}
	if len(resp.Choices) == 0 {
		return nil, &tool.RemoteServiceError{Service: string(m.cfg.Provider), Message: "response has no choices"}
	}

	choice := resp.Choices[0]
	return &model.Response{
		Text:         choice.Message.Content,
		FinishReason: mapFinishReason(string(choice.FinishReason)),
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (m *chatModel) buildParams(req *model.Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}
	for _, msg := range req.Messages {
		if msg.Role == model.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(msg.Content))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.cfg.Model),
		Messages: messages,
	}

	temperature := m.cfg.Temperature
	maxTokens := m.cfg.MaxTokens
	if req.Config != nil {
		if req.Config.Temperature != nil {
			temperature = req.Config.Temperature
		}
		if req.Config.MaxTokens != nil {
			maxTokens = *req.Config.MaxTokens
		}
	}
	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	return params
}

func mapFinishReason(reason string) model.FinishReason {
	switch reason {
	case "stop":
		return model.FinishReasonStop
	case "length":
		return model.FinishReasonLength
	case "content_filter":
		return model.FinishReasonContent
	default:
		return model.FinishReasonOther
	}
}
