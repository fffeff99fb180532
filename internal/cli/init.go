// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/dedupe, cmd/dedupe-forget, and cmd/dedupe-history.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"dedupe/internal/config"
	"dedupe/internal/history"
	"dedupe/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes component-tagged structured logging at the
// configured level and installs it as the default logger. An invalid
// level string falls back to info; Validate reports it separately.
func SetupLogger(cfg *config.Config, component string) *slog.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := log.New(log.Config{Level: level, Component: component})
	slog.SetDefault(logger)
	return logger
}

// MustValidate validates the configuration or exits the process.
func MustValidate(logger *slog.Logger, cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
}

// InitLedger opens the run-history ledger. History is optional: an empty
// path or a failed open disables it, and every Ledger method is a no-op
// on the nil receiver this returns.
func InitLedger(logger *slog.Logger, dbPath string) *history.Ledger {
	if dbPath == "" {
		return nil
	}
	ledger, err := history.Open(dbPath)
	if err != nil {
		logger.Warn("Run history disabled", "error", err, "path", dbPath)
		return nil
	}
	return ledger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, so an
// interrupted run stops between stages instead of mid-write.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
