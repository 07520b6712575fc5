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
	"fmt"
	"log/slog"

	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/registry"
)

// loadConfig loads --config, or the built-in configuration when unset,
// and re-applies the logger settings it carries.
func (cli *CLI) loadConfig(ctx context.Context, opts ...config.LoaderOption) (*config.Config, *config.Loader, error) {
	creds := config.LoadCredentials()

	cfg, loader, err := config.LoadFile(ctx, cli.Config, creds, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cli.setupLogger(cfg); err != nil {
		if loader != nil {
			loader.Close()
		}
		return nil, nil, err
	}

	if cli.Config == "" {
		slog.Info("Using built-in configuration")
	} else {
		slog.Info("Loaded configuration", "path", cli.Config)
	}
	if missing := creds.Missing(); len(missing) > 0 {
		slog.Warn("Credentials not set; dependent tools will fail when called", "variables", missing)
	}
	return cfg, loader, nil
}

// openRegistry builds a one-shot registry for commands that do not serve.
// Tracing and metrics stay off.
func (cli *CLI) openRegistry(ctx context.Context) (*registry.Registry, error) {
	cfg, loader, err := cli.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		loader.Close()
	}

	reg, err := registry.New(ctx, cfg, registry.WithObservability(nil, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	return reg, nil
}
