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

// Package logger configures the process-wide slog logger.
//
// Three formats are supported:
//   - simple: level, message and attributes (colored via tint on terminals)
//   - verbose: the standard slog text format with timestamps
//   - json: one JSON object per record
//
// Below DEBUG, records from third-party packages are dropped so library
// chatter (MCP transports, SDK retries) stays out of normal output.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Environment variables consulted by Resolve.
const (
	LevelEnvVar  = "LOG_LEVEL"
	FileEnvVar   = "LOG_FILE"
	FormatEnvVar = "LOG_FORMAT"
)

// Formats.
const (
	FormatSimple  = "simple"
	FormatVerbose = "verbose"
	FormatJSON    = "json"
)

const modulePrefix = "github.com/kadirpekel/studyagent"

var defaultLogger *slog.Logger

// ParseLevel parses a level name. Empty means info.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", levelStr)
	}
}

// Settings are the effective logger options.
type Settings struct {
	Level  string
	File   string
	Format string
}

// Resolve picks each setting by priority: flag, then environment, then
// config file, then default (info, stderr, simple).
func Resolve(flags, file Settings, getenv func(string) string) Settings {
	if getenv == nil {
		getenv = os.Getenv
	}
	pick := func(flag, env, cfg, def string) string {
		for _, v := range []string{flag, getenv(env), cfg} {
			if v != "" {
				return v
			}
		}
		return def
	}
	return Settings{
		Level:  pick(flags.Level, LevelEnvVar, file.Level, "info"),
		File:   pick(flags.File, FileEnvVar, file.File, ""),
		Format: pick(flags.Format, FormatEnvVar, file.Format, FormatSimple),
	}
}

// Setup applies s as the default logger and returns a cleanup func that
// closes the log file, if any.
func Setup(s Settings) (func(), error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	output := os.Stderr
	cleanup := func() {}
	if s.File != "" {
		f, closeFn, err := OpenLogFile(s.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
		cleanup = closeFn
	}

	Init(level, output, s.Format)
	return cleanup, nil
}

// Init installs the default logger writing to output.
func Init(level slog.Level, output *os.File, format string) {
	defaultLogger = New(level, output, format, isTerminal(output))
	slog.SetDefault(defaultLogger)
}

// New builds a logger without installing it.
func New(level slog.Level, w io.Writer, format string, color bool) *slog.Logger {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case FormatVerbose:
		if color {
			handler = tint.NewHandler(w, &tint.Options{
				Level:       level,
				TimeFormat:  time.DateTime,
				ReplaceAttr: highlightErrors,
			})
		} else {
			handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
		}
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:       level,
			NoColor:     !color,
			ReplaceAttr: dropTime(highlightErrors),
		})
	}

	return slog.New(&filteringHandler{handler: handler, minLevel: level})
}

// highlightErrors renders error attributes in red.
func highlightErrors(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindAny {
		if _, ok := a.Value.Any().(error); ok {
			return tint.Attr(9, a)
		}
	}
	return a
}

func dropTime(next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return next(groups, a)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level < h.minLevel {
		return false
	}
	return h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || fromModule(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

// fromModule reports whether pc belongs to this module. Records without a
// PC are kept.
func fromModule(pc uintptr) bool {
	if pc == 0 {
		return true
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return true
	}
	return strings.HasPrefix(fn.Name(), modulePrefix)
}

// OpenLogFile opens or creates a log file for appending.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// GetLogger returns the default logger, initialising it on first use.
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, FormatSimple)
	}
	return defaultLogger
}
