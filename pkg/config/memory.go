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

import "fmt"

// Working memory scopes.
const (
	MemoryScopeResource = "resource"
	MemoryScopeThread   = "thread"
)

// MemoryConfig configures per-user working memory.
type MemoryConfig struct {
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty" jsonschema:"title=Enabled,default=true"`

	// Scope is "resource" (one profile per user) or "thread".
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty" jsonschema:"title=Scope,enum=resource,enum=thread,default=resource"`

	// Template seeds new profiles. Empty means the built-in study profile.
	Template string `yaml:"template,omitempty" json:"template,omitempty" jsonschema:"title=Template"`
}

// SetDefaults applies default values to MemoryConfig.
func (c *MemoryConfig) SetDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Scope == "" {
		c.Scope = MemoryScopeResource
	}
}

// Validate checks the memory configuration.
func (c *MemoryConfig) Validate() error {
	if c.Scope != MemoryScopeResource && c.Scope != MemoryScopeThread {
		return fmt.Errorf("invalid scope %q (valid: resource, thread)", c.Scope)
	}
	return nil
}

// IsEnabled reports whether working memory is on.
func (c *MemoryConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
