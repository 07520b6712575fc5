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

// Package studyagent is a study assistant backend: agents that search the
// web, render PDFs and write study questions for students.
//
// # Quick Start
//
// Run with the built-in agents and no configuration file:
//
//	export BRAVE_API_KEY=...
//	export SMITHERY_API_KEY=... SMITHERY_PROFILE=...
//	export MISTRAL_API_KEY=...
//	studyagent serve
//
// Or describe overrides in YAML:
//
//	llms:
//	  mistral-large:
//	    provider: mistral
//	    model: mistral-large-latest
//
//	agents:
//	  research:
//	    tools: [search-tool]
//	    memory: false
//
//	studyagent serve --config study.yaml --watch
//
// # Tools
//
//   - search-tool: Brave web search
//   - gen-pdf-tool: PDF rendering through the Smithery gen-pdf server
//   - generate-questions-from-text-tool: study questions from text or a PDF
//
// Tools can be run directly from the command line:
//
//	studyagent search "krebs cycle"
//	studyagent pdf --markdown notes.md --out notes.pdf
//	studyagent questions --text chapter.txt --count 5
//
// # License
//
// AGPL-3.0 - See LICENSE.md for details.
package studyagent
