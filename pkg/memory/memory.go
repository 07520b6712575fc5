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

// Package memory implements per-user working memory: a markdown profile
// seeded from a template and rewritten as the conversation learns about
// the student.
package memory

import (
	"fmt"

	"github.com/kadirpekel/studyagent/pkg/config"
)

// DefaultTemplate is the study profile every new resource starts from.
const DefaultTemplate = `# Study Agent Profile
- **Student Name**:
- **Current Subjects**:
- **Study Goals**:
- **Strengths**:
- **Weaknesses**:
- **Preferred Learning Style**:
- **Upcoming Exam Dates**:
- **Topics to Focus On**:
- **Motivation Level**:
- **Recent Progress**:
`

// Scope decides how profiles are partitioned.
type Scope string

const (
	// ScopeResource keeps one profile per end user across threads.
	ScopeResource Scope = config.MemoryScopeResource
	// ScopeThread keeps one profile per conversation.
	ScopeThread Scope = config.MemoryScopeThread
)

// Config is the working memory attached to an agent.
type Config struct {
	Enabled  bool
	Scope    Scope
	Template string
}

// FromConfig converts the file configuration, filling the built-in
// template when none is set.
func FromConfig(c *config.MemoryConfig) *Config {
	if c == nil {
		return Default()
	}
	out := &Config{
		Enabled:  c.IsEnabled(),
		Scope:    Scope(c.Scope),
		Template: c.Template,
	}
	if out.Scope == "" {
		out.Scope = ScopeResource
	}
	if out.Template == "" {
		out.Template = DefaultTemplate
	}
	return out
}

// Default returns enabled resource-scoped memory with DefaultTemplate.
func Default() *Config {
	return &Config{Enabled: true, Scope: ScopeResource, Template: DefaultTemplate}
}

// Key returns the storage key for a resource and thread under c's scope.
func (c *Config) Key(resource, thread string) (string, error) {
	return ScopeKey(c.Scope, resource, thread)
}

// ScopeKey builds the storage key: the resource ID for resource scope,
// "resource/thread" for thread scope.
func ScopeKey(scope Scope, resource, thread string) (string, error) {
	if resource == "" {
		return "", fmt.Errorf("resource id is required")
	}
	switch scope {
	case ScopeResource, "":
		return resource, nil
	case ScopeThread:
		if thread == "" {
			return "", fmt.Errorf("thread id is required for thread-scoped memory")
		}
		return resource + "/" + thread, nil
	default:
		return "", fmt.Errorf("invalid memory scope %q", scope)
	}
}
