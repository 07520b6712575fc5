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

package questiontool

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used to measure input size.
const DefaultEncoding = "cl100k_base"

// charsPerToken approximates token size when no encoding is available.
const charsPerToken = 4

// Tokenizer converts between text and tokens.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

func (t tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

var (
	defaultOnce      sync.Once
	defaultTokenizer Tokenizer
)

// DefaultTokenizer returns the shared cl100k_base tokenizer, or nil when
// the encoding cannot be loaded.
func DefaultTokenizer() Tokenizer {
	defaultOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			slog.Warn("Token encoding unavailable, approximating by length",
				"encoding", DefaultEncoding, "error", err)
			return
		}
		defaultTokenizer = tiktokenTokenizer{enc: enc}
	})
	return defaultTokenizer
}

// Truncate cuts text to at most maxTokens tokens. A nil tokenizer falls
// back to charsPerToken runes per token.
func Truncate(tok Tokenizer, text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}

	if tok == nil {
		limit := maxTokens * charsPerToken
		if utf8.RuneCountInString(text) <= limit {
			return text, false
		}
		return string([]rune(text)[:limit]), true
	}

	tokens := tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text, false
	}
	return tok.Decode(tokens[:maxTokens]), true
}
