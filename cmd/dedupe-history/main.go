// Command dedupe-history lists recent runs from the history database,
// newest first.
package main

import (
	"flag"
	"fmt"
	"os"

	"dedupe/internal/cli"
	"dedupe/internal/config"
	"dedupe/internal/history"
)

func main() {
	limit := flag.Int("n", 20, "maximum number of runs to list")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, "dedupe-history")
	cli.MustValidate(logger, cfg)

	if cfg.HistoryDBPath == "" {
		logger.Error("Run history is disabled, set DEDUPE_HISTORY_DB_PATH to enable it")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	ledger, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		logger.Error("Failed to open history database", "path", cfg.HistoryDBPath, "error", err)
		os.Exit(1)
	}
	defer ledger.Close()

	runs, err := ledger.Recent(ctx, *limit)
	if err != nil {
		logger.Error("Failed to list runs", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	for _, run := range runs {
		fmt.Printf("%s  %-9s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Status, run.ReportFile)
		if run.Status == history.StatusFailed {
			fmt.Printf("    error: %s\n", run.Error)
			continue
		}
		fmt.Printf("    records=%d new=%d duplicates=%d malformed=%d new_skus=%d\n",
			run.Records, run.NewRecords, run.Duplicates, run.Malformed, run.NewSKUs)
		if run.OutputPath != "" {
			fmt.Printf("    output: %s\n", run.OutputPath)
		}
	}
}
