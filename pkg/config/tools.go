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

package config

import (
	"fmt"
	"time"
)

// ToolsConfig configures the built-in tools.
type ToolsConfig struct {
	Search    SearchToolConfig    `yaml:"search,omitempty" json:"search,omitempty"`
	PDF       PDFToolConfig       `yaml:"pdf,omitempty" json:"pdf,omitempty"`
	Questions QuestionsToolConfig `yaml:"questions,omitempty" json:"questions,omitempty"`
}

// SetDefaults applies default values to ToolsConfig.
func (c *ToolsConfig) SetDefaults() {
	c.Search.SetDefaults()
	c.PDF.SetDefaults()
	c.Questions.SetDefaults()
}

// Validate checks the tools configuration.
func (c *ToolsConfig) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.PDF.Validate(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	if err := c.Questions.Validate(); err != nil {
		return fmt.Errorf("questions: %w", err)
	}
	return nil
}

// SearchToolConfig configures the Brave web search tool.
//
// Example:
//
//	tools:
//	  search:
//	    api_key: ${BRAVE_API_KEY}
//	    max_retries: 2
type SearchToolConfig struct {
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"title=Endpoint,default=https://api.search.brave.com/res/v1/web/search"`

	// APIKey falls back to BRAVE_API_KEY.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key"`

	// MaxRetries applies to throttled responses only. Default: 0.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty" jsonschema:"title=Max Retries,minimum=0,maximum=10"`

	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,type=string,default=30s"`
}

// SetDefaults applies default values to SearchToolConfig.
func (c *SearchToolConfig) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://api.search.brave.com/res/v1/web/search"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

// Validate checks the search tool configuration.
func (c *SearchToolConfig) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 0 and 10")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	return nil
}

// PDFToolConfig configures PDF generation through the Smithery gen-pdf server.
type PDFToolConfig struct {
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"title=Endpoint,default=https://server.smithery.ai/@gen-pdf/mcp"`

	// APIKey falls back to SMITHERY_API_KEY.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty" jsonschema:"title=API Key"`

	// Profile falls back to SMITHERY_PROFILE.
	Profile string `yaml:"profile,omitempty" json:"profile,omitempty" jsonschema:"title=Profile"`

	// Transport is "http" or "stdio". Stdio launches the Smithery CLI locally.
	Transport string `yaml:"transport,omitempty" json:"transport,omitempty" jsonschema:"title=Transport,enum=http,enum=stdio,default=http"`

	// Command launches the Smithery CLI in stdio mode.
	Command string `yaml:"command,omitempty" json:"command,omitempty" jsonschema:"title=Command,default=npx"`

	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"title=Timeout,type=string,default=2m"`
}

// SetDefaults applies default values to PDFToolConfig.
func (c *PDFToolConfig) SetDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://server.smithery.ai/@gen-pdf/mcp"
	}
	if c.Transport == "" {
		c.Transport = "http"
	}
	if c.Command == "" {
		c.Command = "npx"
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}
}

// Validate checks the PDF tool configuration.
func (c *PDFToolConfig) Validate() error {
	if c.Transport != "http" && c.Transport != "stdio" {
		return fmt.Errorf("invalid transport %q (valid: http, stdio)", c.Transport)
	}
	return nil
}

// QuestionsToolConfig configures question generation.
type QuestionsToolConfig struct {
	// LLM names the llms entry used to write questions.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"title=LLM,default=mistral-large"`

	MaxInputTokens int `yaml:"max_input_tokens,omitempty" json:"max_input_tokens,omitempty" jsonschema:"title=Max Input Tokens,minimum=1,default=6000"`

	DefaultCount int `yaml:"default_count,omitempty" json:"default_count,omitempty" jsonschema:"title=Default Count,minimum=1,maximum=20,default=8"`
}

// SetDefaults applies default values to QuestionsToolConfig.
func (c *QuestionsToolConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = DefaultAgentLLM
	}
	if c.MaxInputTokens == 0 {
		c.MaxInputTokens = 6000
	}
	if c.DefaultCount == 0 {
		c.DefaultCount = 8
	}
}

// Validate checks the question tool configuration.
func (c *QuestionsToolConfig) Validate() error {
	if c.MaxInputTokens < 0 {
		return fmt.Errorf("max_input_tokens must be positive")
	}
	if c.DefaultCount < 1 || c.DefaultCount > 20 {
		return fmt.Errorf("default_count must be between 1 and 20")
	}
	return nil
}
