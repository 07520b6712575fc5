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

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/studyagent/pkg/config"
)

const testSecret = "mySuperSecretKey123!@#"

func TestNewValidator(t *testing.T) {
	_, err := NewValidator("", "", "")
	assert.ErrorIs(t, err, ErrSecretRequired)

	v, err := NewValidatorFromConfig(&config.AuthConfig{})
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewValidatorFromConfig(&config.AuthConfig{Secret: testSecret})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestValidator_RoundTrip(t *testing.T) {
	v, err := NewValidator(testSecret, "https://study.example.com", "study-api")
	require.NoError(t, err)

	token, err := v.Sign("student-1", time.Hour, map[string]any{
		"email": "ada@example.com",
		"role":  "student",
		"plan":  "free",
	})
	require.NoError(t, err)

	claims, err := v.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "free", claims.GetStringClaim("plan"))
	assert.Equal(t, "", claims.GetStringClaim("missing"))
}

func TestValidator_Rejects(t *testing.T) {
	v, err := NewValidator(testSecret, "https://study.example.com", "study-api")
	require.NoError(t, err)

	other, err := NewValidator("a-completely-different-secret", "https://study.example.com", "study-api")
	require.NoError(t, err)
	wrongKey, err := other.Sign("student-1", time.Hour, nil)
	require.NoError(t, err)

	expired, err := v.Sign("student-1", -time.Hour, nil)
	require.NoError(t, err)

	foreign, err := NewValidator(testSecret, "https://elsewhere.example.com", "study-api")
	require.NoError(t, err)
	wrongIssuer, err := foreign.Sign("student-1", time.Hour, nil)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong key":    wrongKey,
		"expired":      expired,
		"wrong issuer": wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHTTPMiddleware(t *testing.T) {
	v, err := NewValidator(testSecret, "", "")
	require.NoError(t, err)

	valid, err := v.Sign("student-1", time.Hour, nil)
	require.NoError(t, err)

	handler := v.HTTPMiddleware([]string{"/health", "/public/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := ""
		if c := ClaimsFromContext(r.Context()); c != nil {
			subject = c.Subject
		}
		_, _ = w.Write([]byte("ok:" + subject))
	}))

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{name: "valid token", path: "/api/agents", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "ok:student-1"},
		{name: "missing header", path: "/api/agents", wantStatus: http.StatusUnauthorized, wantError: "Missing Authorization header"},
		{name: "wrong scheme", path: "/api/agents", header: "Token " + valid, wantStatus: http.StatusUnauthorized, wantError: "Invalid Authorization format, expected: Bearer <token>"},
		{name: "bad token", path: "/api/agents", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "excluded exact", path: "/health", wantStatus: http.StatusOK, wantBody: "ok:"},
		{name: "excluded prefix", path: "/public/docs", wantStatus: http.StatusOK, wantBody: "ok:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				if tt.wantError != "" {
					assert.Equal(t, tt.wantError, body["error"])
				} else {
					assert.Contains(t, body["error"], "Unauthorized")
				}
			}
		})
	}
}
