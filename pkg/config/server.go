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

package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host,omitempty" json:"host,omitempty" jsonschema:"title=Host,default=0.0.0.0"`
	Port int    `yaml:"port,omitempty" json:"port,omitempty" jsonschema:"title=Port,minimum=1,maximum=65535,default=8080"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty" jsonschema:"title=Shutdown Timeout,type=string,default=10s"`

	Auth AuthConfig `yaml:"auth,omitempty" json:"auth,omitempty"`
}

// SetDefaults applies default values to ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	c.Auth.SetDefaults()
}

// Validate checks the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Address returns host:port.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig configures JWT authentication for the /api routes.
//
// Authentication is enabled when a secret is present, either here or in
// JWT_SECRET. Tokens are HS256-signed:
//
//	Authorization: Bearer <token>
type AuthConfig struct {
	// Secret is the HS256 shared secret.
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty" jsonschema:"title=Secret,description=HS256 shared secret (use ${JWT_SECRET})"`

	// Issuer is the expected iss claim, if set.
	Issuer string `yaml:"issuer,omitempty" json:"issuer,omitempty" jsonschema:"title=Issuer"`

	// Audience is the expected aud claim, if set.
	Audience string `yaml:"audience,omitempty" json:"audience,omitempty" jsonschema:"title=Audience"`

	// ExcludedPaths never require a token.
	// Default: ["/health", "/metrics"]
	ExcludedPaths []string `yaml:"excluded_paths,omitempty" json:"excluded_paths,omitempty" jsonschema:"title=Excluded Paths"`
}

// SetDefaults applies default values to AuthConfig.
func (c *AuthConfig) SetDefaults() {
	if len(c.ExcludedPaths) == 0 {
		c.ExcludedPaths = []string{"/health", "/metrics"}
	}
}

// Validate checks the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Secret != "" && len(c.Secret) < 16 {
		return fmt.Errorf("secret must be at least 16 bytes")
	}
	return nil
}

// IsEnabled reports whether authentication is configured.
func (c *AuthConfig) IsEnabled() bool {
	return c != nil && c.Secret != ""
}
