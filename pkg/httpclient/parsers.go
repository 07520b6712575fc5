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

package httpclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ParseRetryAfter reads a numeric Retry-After header.
func ParseRetryAfter(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}
	if retryAfter := headers.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil {
			info.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	return info
}

// ParseBraveHeaders extracts rate limit info from Brave Search API headers.
//
// Brave reports per-window values as comma separated lists, shortest window
// first, e.g. "X-RateLimit-Reset: 1, 1419704". The first window governs
// when the next request may succeed.
func ParseBraveHeaders(headers http.Header) RateLimitInfo {
	info := ParseRetryAfter(headers)

	if info.RetryAfter == 0 {
		if seconds, ok := firstInt(headers.Get("X-RateLimit-Reset")); ok && seconds > 0 {
			info.RetryAfter = time.Duration(seconds) * time.Second
		}
	}
	if remaining, ok := firstInt(headers.Get("X-RateLimit-Remaining")); ok {
		info.RequestsRemaining = remaining
	}

	return info
}

func firstInt(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	first, _, _ := strings.Cut(value, ",")
	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0, false
	}
	return n, true
}
