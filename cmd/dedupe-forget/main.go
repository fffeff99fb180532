// Command dedupe-forget deletes the persisted fingerprint and SKU sets so
// the next run starts from an empty memory. Reports processed afterwards
// are treated as entirely new.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"dedupe/internal/cli"
	"dedupe/internal/config"
)

func main() {
	skusOnly := flag.Bool("skus-only", false, "forget only the SKU set")
	fingerprintsOnly := flag.Bool("fingerprints-only", false, "forget only the fingerprint set")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, "dedupe-forget")
	cli.MustValidate(logger, cfg)

	if *skusOnly && *fingerprintsOnly {
		logger.Error("Flags -skus-only and -fingerprints-only are mutually exclusive")
		os.Exit(2)
	}

	failed := false
	if !*skusOnly {
		failed = !forget(logger, "fingerprint set", cfg.MemoryPath) || failed
	}
	if !*fingerprintsOnly {
		failed = !forget(logger, "sku set", cfg.SKUMemoryPath) || failed
	}
	if failed {
		os.Exit(1)
	}
}

// forget removes one set file. A file that never existed counts as
// forgotten.
func forget(logger *slog.Logger, kind, path string) bool {
	err := os.Remove(path)
	switch {
	case err == nil:
		logger.Info("Forgot persisted set", "kind", kind, "path", path)
	case errors.Is(err, os.ErrNotExist):
		logger.Info("No persisted set to forget", "kind", kind, "path", path)
	default:
		logger.Error("Failed to forget persisted set", "kind", kind, "path", path, "error", err)
		return false
	}
	return true
}
