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

package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/kadirpekel/studyagent/pkg/model"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

func TestGenerate_MissingKey(t *testing.T) {
	llm, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", llm.Name())
	assert.Equal(t, model.ProviderGemini, llm.Provider())

	_, err = llm.Generate(context.Background(), &model.Request{Messages: []model.Message{model.UserMessage("hi")}})
	var cfgErr *tool.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Variable)
}

func TestBuildRequest(t *testing.T) {
	temp := 0.7
	m := &geminiModel{cfg: Config{Model: "gemini-2.0-flash", MaxTokens: 100, Temperature: &temp}}

	override := 50
	contents, config := m.buildRequest(&model.Request{
		SystemInstruction: "be brief",
		Messages: []model.Message{
			model.UserMessage("q"),
			{Role: model.RoleAssistant, Content: "a"},
		},
		Config: &model.GenerateConfig{MaxTokens: &override},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "be brief", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(50), config.MaxOutputTokens)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.7, float64(*config.Temperature), 1e-6)
}

func TestMapFinishReason(t *testing.T) {
	assert.Equal(t, model.FinishReasonStop, mapFinishReason(genai.FinishReasonStop))
	assert.Equal(t, model.FinishReasonLength, mapFinishReason(genai.FinishReasonMaxTokens))
	assert.Equal(t, model.FinishReasonOther, mapFinishReason(genai.FinishReasonOther))
}
