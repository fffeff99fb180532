// Package log configures structured logging for the dedupe commands.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger configuration
type Config struct {
	Level     slog.Level
	Component string
	Out       io.Writer
}

// DefaultConfig returns sensible defaults for logging
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: "dedupe",
		Out:       os.Stdout,
	}
}

// New creates a logger with the given configuration. The component name
// is baked into every record, including ones emitted through the default
// logger by library packages.
func New(config Config) *slog.Logger {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: config.Level,
	}))
	if config.Component != "" {
		logger = logger.With("component", config.Component)
	}
	return logger
}

// ParseLevel maps a configuration string to a slog level. The empty
// string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
