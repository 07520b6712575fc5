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

// Package pdftext extracts plain text from PDF documents held in memory.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when the input lacks a PDF header.
var ErrNotPDF = errors.New("input is not a PDF document")

var pdfHeader = []byte("%PDF-")

// Result is the text content of a document.
type Result struct {
	Text  string
	Pages int
}

// Extract returns the concatenated plain text of every page.
func Extract(data []byte) (Result, error) {
	return ExtractContext(context.Background(), data)
}

// ExtractContext is Extract with cancellation between pages.
func ExtractContext(ctx context.Context, data []byte) (res Result, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfHeader) {
		return Result{}, ErrNotPDF
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse PDF: %w", err)
	}

	total := reader.NumPage()
	parts := make([]string, 0, total)
	for pageNum := 1; pageNum <= total; pageNum++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Result{}, fmt.Errorf("failed to extract page %d: %w", pageNum, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	return Result{Text: strings.Join(parts, "\n\n"), Pages: total}, nil
}
