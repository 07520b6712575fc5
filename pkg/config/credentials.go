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

import "os"

// Credential environment variables.
const (
	EnvBraveAPIKey     = "BRAVE_API_KEY"
	EnvSmitheryAPIKey  = "SMITHERY_API_KEY"
	EnvSmitheryProfile = "SMITHERY_PROFILE"
	EnvMistralAPIKey   = "MISTRAL_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvJWTSecret       = "JWT_SECRET"
)

// Credentials are the secrets read from the environment at startup.
// They are resolved once and handed to constructors; nothing reads the
// environment at call time.
type Credentials struct {
	BraveAPIKey     string
	SmitheryAPIKey  string
	SmitheryProfile string
	MistralAPIKey   string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	JWTSecret       string
}

// LoadCredentials reads credentials from the process environment.
func LoadCredentials() Credentials {
	return CredentialsFrom(os.Getenv)
}

// CredentialsFrom reads credentials through getenv.
func CredentialsFrom(getenv func(string) string) Credentials {
	return Credentials{
		BraveAPIKey:     getenv(EnvBraveAPIKey),
		SmitheryAPIKey:  getenv(EnvSmitheryAPIKey),
		SmitheryProfile: getenv(EnvSmitheryProfile),
		MistralAPIKey:   getenv(EnvMistralAPIKey),
		OpenAIAPIKey:    getenv(EnvOpenAIAPIKey),
		GeminiAPIKey:    getenv(EnvGeminiAPIKey),
		JWTSecret:       getenv(EnvJWTSecret),
	}
}

// LLMKey returns the key for an LLM provider.
func (c Credentials) LLMKey(provider string) string {
	switch provider {
	case ProviderMistral:
		return c.MistralAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return ""
	}
}

// Missing lists the credential variables that are unset. Missing
// credentials are not fatal; the dependent tool fails when called.
func (c Credentials) Missing() []string {
	var out []string
	for _, kv := range []struct {
		name, value string
	}{
		{EnvBraveAPIKey, c.BraveAPIKey},
		{EnvSmitheryAPIKey, c.SmitheryAPIKey},
		{EnvSmitheryProfile, c.SmitheryProfile},
		{EnvMistralAPIKey, c.MistralAPIKey},
	} {
		if kv.value == "" {
			out = append(out, kv.name)
		}
	}
	return out
}

// ApplyCredentials fills secrets the file left blank.
func (c *Config) ApplyCredentials(creds Credentials) {
	if c.Tools.Search.APIKey == "" {
		c.Tools.Search.APIKey = creds.BraveAPIKey
	}
	if c.Tools.PDF.APIKey == "" {
		c.Tools.PDF.APIKey = creds.SmitheryAPIKey
	}
	if c.Tools.PDF.Profile == "" {
		c.Tools.PDF.Profile = creds.SmitheryProfile
	}
	for _, llm := range c.LLMs {
		if llm != nil && llm.APIKey == "" {
			llm.APIKey = creds.LLMKey(llm.Provider)
		}
	}
	if c.Server.Auth.Secret == "" {
		c.Server.Auth.Secret = creds.JWTSecret
	}
}
