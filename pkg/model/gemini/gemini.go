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

// Package gemini binds Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

// KeyVariable is the environment variable holding the API key.
const KeyVariable = "GEMINI_API_KEY"

// Config contains configuration for the Gemini model.
type Config struct {
	// APIKey may be empty; Generate then fails with a ConfigurationError.
	APIKey string

	// Model is the model name (e.g., "gemini-2.0-flash").
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	Temperature *float64

	// BaseURL overrides the API endpoint.
	BaseURL string
}

type geminiModel struct {
	cfg Config

	once      sync.Once
	client    *genai.Client
	clientErr error
}

// New creates a Gemini binding. The client is created on first use.
func New(cfg Config) (model.LLM, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &geminiModel{cfg: cfg}, nil
}

func (m *geminiModel) Name() string {
	return m.cfg.Model
}

func (m *geminiModel) Provider() model.Provider {
	return model.ProviderGemini
}

func (m *geminiModel) Close() error {
	return nil
}

func (m *geminiModel) getClient(ctx context.Context) (*genai.Client, error) {
	m.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:  m.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if m.cfg.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: m.cfg.BaseURL}
		}
		m.client, m.clientErr = genai.NewClient(ctx, cc)
	})
	return m.client, m.clientErr
}

func (m *geminiModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if m.cfg.APIKey == "" {
		return nil, &tool.ConfigurationError{Variable: KeyVariable}
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("request has no messages")
	}

	client, err := m.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	contents, config := m.buildRequest(req)
	genResp, err := client.Models.GenerateContent(ctx, m.cfg.Model, contents, config)
	if err != nil {
		return nil, &tool.RemoteServiceError{
			Service: "Gemini",
			Message: fmt.Sprintf("generation failed: %v", err),
			Err:     err,
		}
	}

	resp := &model.Response{Text: genResp.Text(), FinishReason: model.FinishReasonOther}
	if len(genResp.Candidates) > 0 {
		resp.FinishReason = mapFinishReason(genResp.Candidates[0].FinishReason)
	}
	if u := genResp.UsageMetadata; u != nil {
		resp.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return resp, nil
}

func (m *geminiModel) buildRequest(req *model.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
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
		config.Temperature = genai.Ptr(float32(*temperature))
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	return contents, config
}

func mapFinishReason(reason genai.FinishReason) model.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return model.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return model.FinishReasonLength
	case genai.FinishReasonSafety:
		return model.FinishReasonContent
	default:
		return model.FinishReasonOther
	}
}
