// Package history keeps a SQLite ledger of past runs.
//
// The ledger is observability, not state: the engine's correctness never
// depends on it, and callers treat a nil *Ledger as history-disabled.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type (
	// Run is one ledger entry.
	Run struct {
		ID         string
		ReportFile string
		StartedAt  time.Time
		FinishedAt time.Time
		Records    int
		NewRecords int
		Duplicates int
		Malformed  int
		NewSKUs    int
		OutputPath string
		Status     string
		Error      string
	}

	Ledger struct {
		db *sql.DB
	}
)

// Open opens or creates the ledger database and applies migrations.
func Open(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Record appends one run to the ledger. A missing ID is filled in.
func (l *Ledger) Record(ctx context.Context, run Run) error {
	if l == nil {
		return nil
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, report_file, started_at, finished_at, records,
			new_records, duplicates, malformed, new_skus, output_path, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ReportFile, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Records, run.NewRecords, run.Duplicates, run.Malformed,
		run.NewSKUs, run.OutputPath, run.Status, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	if l == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, report_file, started_at, finished_at, records,
			new_records, duplicates, malformed, new_skus, output_path, status, error
		FROM runs
		ORDER BY started_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started, finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.ReportFile, &started, &finished, &r.Records,
			&r.NewRecords, &r.Duplicates, &r.Malformed, &r.NewSKUs,
			&r.OutputPath, &r.Status, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = started.Time
		r.FinishedAt = finished.Time
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close releases the database handle. Safe on a nil ledger.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
