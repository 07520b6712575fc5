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

// Package observability instruments tool invocations with OpenTelemetry
// traces, Prometheus metrics and persisted call records.
package observability

// Span names.
const (
	SpanToolExecution = "tool.execute"
)

// Attribute keys.
const (
	AttrToolName   = "studyagent.tool.name"
	AttrToolCallID = "studyagent.tool.call_id"
	AttrAgentName  = "studyagent.agent.name"
	AttrResourceID = "studyagent.resource.id"
	AttrErrorKind  = "error.type"
)

// Tool call statuses used as the status metric attribute.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// InstrumentationName names the tracer and meter.
const InstrumentationName = "github.com/kadirpekel/studyagent"
