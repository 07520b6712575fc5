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
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/kadirpekel/studyagent/pkg/config"
)

// Validator checks HS256 tokens against a shared secret.
type Validator struct {
	secret   []byte
	issuer   string
	audience string
	skew     time.Duration
}

// NewValidator creates a validator. Issuer and audience are checked only
// when non-empty.
func NewValidator(secret, issuer, audience string) (*Validator, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	return &Validator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		skew:     30 * time.Second,
	}, nil
}

// NewValidatorFromConfig returns nil when auth is disabled.
func NewValidatorFromConfig(cfg *config.AuthConfig) (*Validator, error) {
	if cfg == nil || !cfg.IsEnabled() {
		return nil, nil
	}
	return NewValidator(cfg.Secret, cfg.Issuer, cfg.Audience)
}

// ValidateToken verifies the signature, expiry, issuer and audience of
// tokenString and extracts its claims.
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, v.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.skew),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{
		Subject: token.Subject(),
		Custom:  make(map[string]any),
	}
	for key, value := range token.PrivateClaims() {
		switch key {
		case "email":
			claims.Email, _ = value.(string)
		case "role":
			claims.Role, _ = value.(string)
		default:
			claims.Custom[key] = value
		}
	}
	return claims, nil
}

// Sign issues a token for subject valid for ttl. Extra claims are added
// as private claims.
func (v *Validator) Sign(subject string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	builder := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if v.issuer != "" {
		builder = builder.Issuer(v.issuer)
	}
	if v.audience != "" {
		builder = builder.Audience([]string{v.audience})
	}
	for k, val := range extra {
		builder = builder.Claim(k, val)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, v.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}
