package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"dedupe/internal/cli"
	"dedupe/internal/config"
	"dedupe/internal/engine"
	"dedupe/internal/history"
	"dedupe/internal/memory"
	"dedupe/internal/output"
	"dedupe/internal/report"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, "dedupe")
	cli.MustValidate(logger, cfg)

	reports := os.Args[1:]
	if len(reports) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dedupe REPORT [REPORT ...]")
		os.Exit(2)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	ledger := cli.InitLedger(logger, cfg.HistoryDBPath)
	defer ledger.Close()

	runner := engine.NewRunner(
		memory.NewFingerprintStore(cfg.MemoryPath),
		memory.NewSKUStore(cfg.SKUMemoryPath),
	)
	reportCfg := report.DefaultConfig()
	reportCfg.Preamble = cfg.ReportPreamble

	logger.Info("Starting dedupe",
		"reports", len(reports),
		"memory", cfg.MemoryPath,
		"sku_memory", cfg.SKUMemoryPath,
		"output_dir", cfg.OutputDir)

	for _, path := range reports {
		if err := processReport(ctx, logger, cfg, runner, ledger, reportCfg, path); err != nil {
			logger.Error("Run failed", "report", path, "error", err)
			os.Exit(1)
		}
	}
}

// processReport executes one full run for a single report file: read,
// classify, write artifacts, checkpoint the sets, record history. The
// checkpoint comes after the artifacts on purpose: a crash in between
// re-processes the report next time instead of silently dropping the
// transactions it covered.
func processReport(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	runner *engine.Runner,
	ledger *history.Ledger,
	reportCfg report.Config,
	path string,
) error {
	started := time.Now()
	logger.Info("Processing report", "report", path)

	records, err := report.ReadFile(path, reportCfg)
	if err != nil {
		recordFailure(ctx, logger, ledger, path, started, err)
		return err
	}

	sets, err := runner.LoadSets(ctx)
	if err != nil {
		recordFailure(ctx, logger, ledger, path, started, err)
		return err
	}
	result := runner.Process(ctx, sets, records)

	outPath, err := output.WriteTSV(cfg.OutputDir, started, result.Buckets)
	if err != nil {
		recordFailure(ctx, logger, ledger, path, started, err)
		return err
	}
	skuPath, err := output.WriteNewSKUs(cfg.OutputDir, started, result.NewSKUs)
	if err != nil {
		recordFailure(ctx, logger, ledger, path, started, err)
		return err
	}

	if err := runner.SaveSets(ctx, sets); err != nil {
		recordFailure(ctx, logger, ledger, path, started, err)
		return err
	}

	logger.Info("Run complete",
		"report", path,
		"records", result.Stats.Records,
		"new", result.Stats.New,
		"duplicates", result.Stats.Duplicates,
		"malformed", result.Stats.Malformed,
		"new_skus", len(result.NewSKUs),
		"fingerprints_total", sets.FingerprintCount(),
		"skus_total", sets.SKUCount(),
		"output", outPath,
		"duration", time.Since(started))
	if skuPath != "" {
		logger.Info("Never-before-seen SKUs in this report", "count", len(result.NewSKUs), "file", skuPath)
	}

	if err := ledger.Record(ctx, history.Run{
		ReportFile: path,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Records:    result.Stats.Records,
		NewRecords: result.Stats.New,
		Duplicates: result.Stats.Duplicates,
		Malformed:  result.Stats.Malformed,
		NewSKUs:    len(result.NewSKUs),
		OutputPath: outPath,
		Status:     history.StatusCompleted,
	}); err != nil {
		logger.Warn("Failed to record run history", "error", err)
	}
	return nil
}

func recordFailure(
	ctx context.Context,
	logger *slog.Logger,
	ledger *history.Ledger,
	path string,
	started time.Time,
	runErr error,
) {
	err := ledger.Record(ctx, history.Run{
		ReportFile: path,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Status:     history.StatusFailed,
		Error:      runErr.Error(),
	})
	if err != nil {
		logger.Warn("Failed to record run history", "error", err)
	}
}
