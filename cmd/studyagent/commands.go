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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kadirpekel/studyagent"
	"github.com/kadirpekel/studyagent/pkg/auth"
	"github.com/kadirpekel/studyagent/pkg/config"
)

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(studyagent.GetVersion())
	return nil
}

// ValidateCmd checks a configuration file without starting anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, loader, err := cli.loadConfig(context.Background())
	if err != nil {
		return err
	}
	if loader != nil {
		loader.Close()
	}

	fmt.Printf("Configuration is valid (%d llms, %d agent overrides)\n", len(cfg.LLMs), len(cfg.Agents))
	return nil
}

// SchemaCmd prints the JSON Schema of the configuration file.
type SchemaCmd struct {
	Compact bool `short:"C" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run() error {
	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(config.Schema()); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}

// InfoCmd shows agent information.
type InfoCmd struct {
	Agent string `arg:"" optional:"" help:"Agent ID to show info for."`
}

func (c *InfoCmd) Run(cli *CLI) error {
	ctx := context.Background()
	reg, err := cli.openRegistry(ctx)
	if err != nil {
		return err
	}
	defer reg.Close(ctx)

	if c.Agent == "" {
		fmt.Println("Available agents:")
		for _, d := range reg.Agents() {
			desc := d.Description()
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Printf("  - %s: %s\n", d.ID(), desc)
		}
		fmt.Printf("\nTools: %s\n", strings.Join(reg.Tools().Names(), ", "))
		return nil
	}

	d, ok := reg.Agent(c.Agent)
	if !ok {
		return fmt.Errorf("agent %q not found", c.Agent)
	}

	fmt.Printf("\nAgent: %s\n", d.ID())
	fmt.Printf("%s\n", strings.Repeat("-", 40))
	fmt.Printf("Name:        %s\n", d.Name())
	if d.Description() != "" {
		fmt.Printf("Description: %s\n", d.Description())
	}
	fmt.Printf("Model:       %s\n", d.Model())
	if d.Tools().Len() > 0 {
		fmt.Printf("Tools:       %s\n", strings.Join(d.Tools().Names(), ", "))
	}
	if mem := d.Memory(); mem != nil {
		fmt.Printf("Memory:      %s scope\n", mem.Scope)
	}
	scorers := d.Scorers()
	for _, name := range scorers.Names() {
		sc, _ := scorers.Get(name)
		fmt.Printf("Scorer:      %s (%s, %s, rate %.2f)\n", name, sc.Kind, sc.Model, sc.Sampling.Rate)
	}
	return nil
}

// TokenCmd signs a bearer token with the configured secret.
type TokenCmd struct {
	Subject string        `arg:"" help:"Token subject; used as the default resource ID."`
	TTL     time.Duration `name:"ttl" help:"Token lifetime." default:"24h"`
}

func (c *TokenCmd) Run(cli *CLI) error {
	cfg, loader, err := cli.loadConfig(context.Background())
	if err != nil {
		return err
	}
	if loader != nil {
		loader.Close()
	}

	v, err := auth.NewValidatorFromConfig(&cfg.Server.Auth)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("auth is disabled: set %s or server.auth.secret", config.EnvJWTSecret)
	}

	token, err := v.Sign(c.Subject, c.TTL, nil)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}
