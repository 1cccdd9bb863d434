// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Format selects the output encoding.
type Format string

const (
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"

	// FormatConsole writes colored, human-readable lines.
	FormatConsole Format = "console"
)

// Config holds logger configuration.
type Config struct {
	Level  LogLevel
	Format Format

	// Service is attached to every line as "service" when set.
	Service string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()

	log.Logger = logger
	return logger
}

// ParseLevel converts a level name to a zerolog level. Unknown names map to
// info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidateFormat rejects unknown format names.
func ValidateFormat(f string) (Format, error) {
	switch Format(strings.ToLower(f)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatConsole, "pretty":
		return FormatConsole, nil
	default:
		return "", fmt.Errorf("unknown log format %q (want json or console)", f)
	}
}

// NewLogger creates a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Silence disables all logging until the returned restore func is called.
// Used while a full-screen terminal UI owns stdout and stderr.
func Silence() (restore func()) {
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	return func() { zerolog.SetGlobalLevel(prev) }
}

// Log Level Guidelines:
//
// Debug: per-page fetch results, store bulk insert summaries, joined
// in-flight fetches.
//
// Info: server start/stop, fetch start/complete, progress every 50 pages,
// one access log line per HTTP request.
//
// Warn: upstream throttles and cooldowns, failed readiness checks.
//
// Error: aborted fetch runs, failed catalog requests, configuration errors.
//
// Context Fields:
//   - component: emitting package (jikan-client, pager, store, catalog-service, http)
//   - run_id: pager run correlation id
//   - page, total_pages: pagination position
//   - error_class: upstream error classification
//   - backend: store backend
//   - request_id: chi request id
