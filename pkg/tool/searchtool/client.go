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

// Package searchtool exposes Brave Web Search as an agent tool.
//
// Each call is a single GET with the query URL-escaped into the q parameter
// and the subscription token attached as a header. The decoded JSON body is
// returned untouched; interpreting it is the agent's job.
package searchtool

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/studyagent/pkg/httpclient"
	"github.com/kadirpekel/studyagent/pkg/tool"
)

const (
	// DefaultEndpoint is the Brave Web Search endpoint.
	DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

	// APIKeyEnvVar names the credential in error messages.
	APIKeyEnvVar = "BRAVE_API_KEY"

	serviceName = "Brave Search API"
)

// Config configures the Brave client.
type Config struct {
	// APIKey is the subscription token. May be empty; the client then
	// fails on first use with a ConfigurationError.
	APIKey string

	// Endpoint overrides DefaultEndpoint.
	Endpoint string

	// MaxRetries enables retries on throttled responses. Default: 0.
	MaxRetries int

	// Timeout bounds a single attempt. Zero means no client-side timeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying transport (tests).
	HTTPClient *http.Client
}

// Client performs Brave searches.
type Client struct {
	apiKey   string
	endpoint string
	http     *httpclient.Client
}

// NewClient creates a Client. It never fails on a missing key.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		http: httpclient.New(
			httpclient.WithHTTPClient(hc),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(httpclient.ParseBraveHeaders),
		),
	}
}

// BuildURL returns the request URL for query.
func BuildURL(endpoint, query string) string {
	return endpoint + "?q=" + url.QueryEscape(query)
}

// Search runs query and returns the decoded response body.
func (c *Client) Search(ctx context.Context, query string) (any, error) {
	if query == "" {
		return nil, &tool.ValidationError{Field: "query", Message: "query is required"}
	}
	if c.apiKey == "" {
		return nil, &tool.ConfigurationError{Variable: APIKeyEnvVar}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BuildURL(c.endpoint, query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &tool.RemoteServiceError{Service: serviceName, Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("Brave search completed",
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &tool.RemoteServiceError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return nil, &tool.RemoteServiceError{Service: serviceName, Err: err}
	}

	var results any
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &tool.RemoteServiceError{
			Service: serviceName,
			Message: "invalid JSON response",
			Err:     err,
		}
	}
	return results, nil
}

// statusText strips the numeric prefix net/http puts in Status.
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// decodeBody reads the body, inflating it when the server honoured gzip.
// net/http only decompresses transparently when it set Accept-Encoding
// itself, which is not the case here.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
