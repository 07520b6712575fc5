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

import "github.com/invopop/jsonschema"

// Schema returns the JSON Schema of the configuration file.
func Schema() *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "Study Agent Configuration"
	schema.Description = "Configuration schema for the study agent server"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []any{
		map[string]any{
			"name": "study-agent",
			"tools": map[string]any{
				"search": map[string]any{"api_key": "${BRAVE_API_KEY}"},
				"pdf": map[string]any{
					"api_key": "${SMITHERY_API_KEY}",
					"profile": "${SMITHERY_PROFILE}",
				},
			},
			"agents": map[string]any{
				"summary": map[string]any{"scorers": map[string]any{"safety": map[string]any{"rate": 0.5}}},
			},
		},
	}
	return schema
}
