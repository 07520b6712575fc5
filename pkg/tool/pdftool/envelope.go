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

package pdftool

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
)

// EnvelopeKind tags the shape a remote PDF payload arrived in.
type EnvelopeKind int

// Kinds are listed in the order they are tried.
const (
	// EnvelopeBase64Field is a top-level string "base64" field.
	EnvelopeBase64Field EnvelopeKind = iota + 1
	// EnvelopeDataField is a top-level string "data" field.
	EnvelopeDataField
	// EnvelopeBinaryContent is a content[] object typed "binary" or with
	// mime "application/pdf" and string data.
	EnvelopeBinaryContent
	// EnvelopePDFStringContent is a content[] string that looks like
	// base64 of a %PDF header.
	EnvelopePDFStringContent
	// EnvelopeString is a bare string response.
	EnvelopeString
	// EnvelopeFallback carries base64 of the JSON-encoded response. The
	// payload is not a PDF; it exists so callers can inspect what came back.
	EnvelopeFallback
)

func (k EnvelopeKind) String() string {
	switch k {
	case EnvelopeBase64Field:
		return "base64-field"
	case EnvelopeDataField:
		return "data-field"
	case EnvelopeBinaryContent:
		return "binary-content"
	case EnvelopePDFStringContent:
		return "pdf-string-content"
	case EnvelopeString:
		return "string"
	case EnvelopeFallback:
		return "fallback"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Envelope is a classified remote payload.
type Envelope struct {
	Kind EnvelopeKind

	// Data is the base64 payload for the chosen variant.
	Data string

	// Bytes is the size reported alongside binary content, if any.
	Bytes *int
}

// IsFallback reports whether no recognised PDF shape was found.
func (e Envelope) IsFallback() bool {
	return e.Kind == EnvelopeFallback
}

// Result converts the envelope into the tool output.
func (e Envelope) Result(toolName string) Result {
	return Result{
		PDFBase64:   e.Data,
		ContentType: ContentTypePDF,
		Bytes:       e.Bytes,
		ToolName:    toolName,
	}
}

var pdfMagic = regexp.MustCompile(`(?i)\n?JVBER`)

// ClassifyEnvelope picks the first matching variant for raw. Only object
// responses are scanned for fields and content. A string "base64" field
// shadows "data" even when empty, and an empty payload never counts as a
// match, so such responses end in the fallback.
func ClassifyEnvelope(raw any) Envelope {
	var bytes *int
	if obj, ok := raw.(map[string]any); ok {
		var field string
		kind := EnvelopeBase64Field
		if s, ok := obj["base64"].(string); ok {
			field = s
		} else if s, ok := obj["data"].(string); ok {
			field, kind = s, EnvelopeDataField
		}
		if field != "" {
			return Envelope{Kind: kind, Data: field}
		}

		if items, ok := obj["content"].([]any); ok {
			env := classifyContent(items)
			if env.Data != "" {
				return env
			}
			bytes = env.Bytes
		}
	}

	if s, ok := raw.(string); ok {
		return Envelope{Kind: EnvelopeString, Data: s}
	}

	return Envelope{Kind: EnvelopeFallback, Data: encodeFallback(raw), Bytes: bytes}
}

// classifyContent returns the first recognisable content entry. The scan
// stops there even when its data is empty; the caller treats an empty
// Data as no match but keeps any reported size.
func classifyContent(items []any) Envelope {
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			typ, _ := v["type"].(string)
			mime, _ := v["mime"].(string)
			if typ != "binary" && mime != ContentTypePDF {
				continue
			}
			data, ok := v["data"].(string)
			if !ok {
				continue
			}
			env := Envelope{Kind: EnvelopeBinaryContent, Data: data}
			if n, ok := numberValue(v["bytes"]); ok {
				env.Bytes = &n
			}
			return env
		case string:
			if pdfMagic.MatchString(v) {
				return Envelope{Kind: EnvelopePDFStringContent, Data: v}
			}
		}
	}
	return Envelope{}
}

// ReportsError reports whether raw is an object carrying isError: true.
// Such responses are still classified; the flag is only surfaced for logs.
func ReportsError(raw any) bool {
	obj, ok := raw.(map[string]any)
	if !ok {
		return false
	}
	flag, _ := obj["isError"].(bool)
	return flag
}

func numberValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	default:
		return 0, false
	}
}

// encodeFallback is deterministic: encoding/json sorts object keys.
func encodeFallback(raw any) string {
	data, err := json.Marshal(raw)
	if err != nil {
		data = []byte("null")
	}
	return base64.StdEncoding.EncodeToString(data)
}
