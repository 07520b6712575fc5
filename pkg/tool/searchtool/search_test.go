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

package searchtool

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kadirpekel/studyagent/pkg/tool"
)

func TestBuildURL_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		query := rapid.StringN(1, 64, -1).Draw(t, "query")

		u, err := url.Parse(BuildURL(DefaultEndpoint, query))
		if err != nil {
			t.Fatalf("url.Parse: %v", err)
		}
		if got := u.Query().Get("q"); got != query {
			t.Fatalf("q = %q, want %q", got, query)
		}
		if u.Host != "api.search.brave.com" || u.Path != "/res/v1/web/search" {
			t.Fatalf("unexpected endpoint %s", u.String())
		}
	})
}

func TestSearch_SendsHeadersAndReturnsRawBody(t *testing.T) {
	var gotReq *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"search","web":{"results":[{"title":"Go"}]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", Endpoint: server.URL})
	results, err := client.Search(context.Background(), "golang & rust?")
	require.NoError(t, err)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodGet, gotReq.Method)
	assert.Equal(t, "golang & rust?", gotReq.URL.Query().Get("q"))
	assert.Equal(t, "application/json", gotReq.Header.Get("Accept"))
	assert.Equal(t, "gzip", gotReq.Header.Get("Accept-Encoding"))
	assert.Equal(t, "secret", gotReq.Header.Get("X-Subscription-Token"))

	body, ok := results.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "search", body["type"])
}

func TestSearch_DecodesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"ok":true}`))
		_ = gz.Close()
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	results, err := client.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, results)
}

func TestSearch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", Endpoint: server.URL})
	_, err := client.Search(context.Background(), "q")

	var remote *tool.RemoteServiceError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Equal(t, "Unauthorized", remote.Status)
	assert.Equal(t, "Brave Search API error: 401 Unauthorized", err.Error())
}

func TestSearch_MissingCredentialMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	_, err := client.Search(context.Background(), "q")

	var cfgErr *tool.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "BRAVE_API_KEY", cfgErr.Variable)
	assert.Contains(t, err.Error(), "BRAVE_API_KEY")
	assert.Zero(t, calls.Load())
}

func TestSearch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", Endpoint: server.URL})
	_, err := client.Search(context.Background(), "q")
	assert.True(t, tool.IsRemoteServiceError(err))
}

type fakeSearcher struct {
	calls int
	query string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (any, error) {
	f.calls++
	f.query = query
	return []any{"r1"}, nil
}

func TestTool(t *testing.T) {
	fake := &fakeSearcher{}
	searchTool, err := New(fake)
	require.NoError(t, err)

	assert.Equal(t, "search-tool", searchTool.Name())
	assert.Equal(t, "Performs real-time web search using Brave Web Search API.", searchTool.Description())

	out, err := searchTool.Call(tool.NewContext(context.Background(), "research", ""), map[string]any{"query": "mitosis"})
	require.NoError(t, err)
	assert.Equal(t, []any{"r1"}, out["results"])
	assert.Equal(t, "mitosis", fake.query)

	_, err = searchTool.Call(tool.NewContext(context.Background(), "", ""), map[string]any{})
	assert.True(t, tool.IsValidationError(err))
	assert.Equal(t, 1, fake.calls)
}
