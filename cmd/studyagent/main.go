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

// Command studyagent serves the study agents over HTTP and runs their
// tools from the command line.
//
// Usage:
//
//	studyagent serve --config study.yaml --watch
//	studyagent search "photosynthesis"
//	studyagent pdf --markdown notes.md --out notes.pdf
//	studyagent questions --text chapter.txt --count 5
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/studyagent/pkg/config"
	"github.com/kadirpekel/studyagent/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version   VersionCmd   `cmd:"" help:"Show version information."`
	Serve     ServeCmd     `cmd:"" help:"Start the HTTP server."`
	Info      InfoCmd      `cmd:"" help:"Show agent information."`
	Validate  ValidateCmd  `cmd:"" help:"Validate configuration file."`
	Schema    SchemaCmd    `cmd:"" help:"Print the JSON Schema of the configuration file."`
	Token     TokenCmd     `cmd:"" help:"Sign a bearer token for the API."`
	Search    SearchCmd    `cmd:"" help:"Run a web search."`
	PDF       PDFCmd       `cmd:"" name:"pdf" help:"Render Markdown or HTML to a PDF file."`
	Questions QuestionsCmd `cmd:"" help:"Generate study questions from text or a PDF."`

	Config    string `short:"c" help:"Path to config file (empty = built-in agents)." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json)."`

	cleanup func() `kong:"-"`
}

func (cli *CLI) flagLogger() logger.Settings {
	return logger.Settings{Level: cli.LogLevel, File: cli.LogFile, Format: cli.LogFormat}
}

// setupLogger installs the logger from flags, environment and the
// logger section of cfg, in that order of priority.
func (cli *CLI) setupLogger(cfg *config.Config) error {
	var file logger.Settings
	if cfg != nil {
		file = logger.Settings{Level: cfg.Logger.Level, File: cfg.Logger.File, Format: cfg.Logger.Format}
	}

	cleanup, err := logger.Setup(logger.Resolve(cli.flagLogger(), file, os.Getenv))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cli.closeLogger()
	cli.cleanup = cleanup
	return nil
}

func (cli *CLI) closeLogger() {
	if cli.cleanup != nil {
		cli.cleanup()
		cli.cleanup = nil
	}
}

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("studyagent"),
		kong.Description("Study agents: web research, PDF generation and study questions"),
		kong.UsageOnError(),
	)

	// File settings are applied once a command loads its configuration.
	if err := cli.setupLogger(nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err := ctx.Run(&cli)
	cli.closeLogger()
	ctx.FatalIfErrorf(err)
}
