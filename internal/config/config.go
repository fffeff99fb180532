package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dedupe/internal/log"
)

type Config struct {
	// Persistent sets
	MemoryPath    string
	SKUMemoryPath string

	// Artifacts
	OutputDir string

	// Run history (empty disables the ledger)
	HistoryDBPath string

	// Report layout
	ReportPreamble int

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		MemoryPath:    getEnv("DEDUPE_MEMORY_PATH", "memory.txt"),
		SKUMemoryPath: getEnv("DEDUPE_SKU_MEMORY_PATH", "skus.txt"),
		OutputDir:     getEnv("DEDUPE_OUTPUT_DIR", "."),
		HistoryDBPath: getEnv("DEDUPE_HISTORY_DB_PATH", "./data/dedupe.db"),

		ReportPreamble: getEnvInt("DEDUPE_REPORT_PREAMBLE", 7),

		LogLevel: getEnv("DEDUPE_LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.MemoryPath == "" {
		errors = append(errors, "memory path cannot be empty")
	}
	if c.SKUMemoryPath == "" {
		errors = append(errors, "sku memory path cannot be empty")
	}
	if c.MemoryPath != "" && c.MemoryPath == c.SKUMemoryPath {
		errors = append(errors, fmt.Sprintf("memory path and sku memory path must differ, both are '%s'", c.MemoryPath))
	}

	if c.OutputDir == "" {
		errors = append(errors, "output directory cannot be empty")
	}

	if c.ReportPreamble < 0 {
		errors = append(errors, fmt.Sprintf("invalid report preamble %d: cannot be negative", c.ReportPreamble))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Check the history directory exists or can be created
	if c.HistoryDBPath != "" {
		dir := filepath.Dir(c.HistoryDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create history database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
