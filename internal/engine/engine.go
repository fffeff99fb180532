// Package engine drives one deduplication run: load the persistent sets,
// classify every record against them, fold the new ones into buckets, and
// checkpoint both sets.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"dedupe/internal/aggregate"
	"dedupe/internal/core"
	"dedupe/internal/fingerprint"
	"dedupe/internal/memory"
)

type (
	// Stats counts how every record of a run was classified.
	Stats struct {
		Records    int
		New        int
		Duplicates int
		Malformed  int
	}

	// RunResult is everything one completed pass produced.
	RunResult struct {
		Buckets []aggregate.Bucket
		NewSKUs []string // first-seen order
		Stats   Stats
	}

	// Sets holds the live fingerprint and SKU sets between load and
	// checkpoint.
	Sets struct {
		fingerprints *memory.Set[fingerprint.Fingerprint]
		skus         *memory.Set[string]
	}

	// Runner owns the persistent set stores and runs passes against them.
	Runner struct {
		fingerprints memory.Store[fingerprint.Fingerprint]
		skus         memory.Store[string]
	}
)

// NewRunner creates a runner over the two set stores.
func NewRunner(fingerprints memory.Store[fingerprint.Fingerprint], skus memory.Store[string]) *Runner {
	return &Runner{fingerprints: fingerprints, skus: skus}
}

// Run executes one full pass: load, process, checkpoint. Callers that
// write artifacts between the pass and the checkpoint use LoadSets,
// Process and SaveSets directly so a crash after the artifact write leads
// to re-processing on the next run, never to dropped transactions.
func (r *Runner) Run(ctx context.Context, records []core.Record) (*RunResult, error) {
	sets, err := r.LoadSets(ctx)
	if err != nil {
		return nil, err
	}
	result := r.Process(ctx, sets, records)
	if err := r.SaveSets(ctx, sets); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadSets reads both persistent sets. It fails before any record is
// examined: a corrupt file aborts the run and stays untouched on disk.
func (r *Runner) LoadSets(ctx context.Context) (*Sets, error) {
	fps, err := r.fingerprints.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("fingerprint set: %w", err)
	}
	skus, err := r.skus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("sku set: %w", err)
	}
	return &Sets{fingerprints: fps, skus: skus}, nil
}

// Process classifies every record in order against the live sets.
//
// A record whose fingerprint is already present is a duplicate and is
// skipped entirely; it reaches neither a bucket nor the new-SKU list. A
// new record that fails to parse is counted malformed and skipped WITHOUT
// recording its fingerprint, so the sets only ever remember transactions
// that were actually accounted for. A second occurrence inside the same
// run is a duplicate like any other.
func (r *Runner) Process(ctx context.Context, sets *Sets, records []core.Record) *RunResult {
	agg := aggregate.New()
	res := &RunResult{}
	for i, rec := range records {
		res.Stats.Records++
		fp := fingerprint.Of(rec)
		if sets.fingerprints.Contains(fp) {
			res.Stats.Duplicates++
			continue
		}
		if err := agg.Add(rec); err != nil {
			res.Stats.Malformed++
			slog.WarnContext(ctx, "Skipping malformed record", "record", i+1, "error", err)
			continue
		}
		res.Stats.New++
		sets.fingerprints.Add(fp)
		if rec.SKU != "" && sets.skus.Add(rec.SKU) {
			res.NewSKUs = append(res.NewSKUs, rec.SKU)
		}
	}
	res.Buckets = agg.Buckets()
	return res
}

// SaveSets checkpoints both sets. The saves run concurrently and each is
// atomic on its own file; either failure fails the run, and re-running
// after a failed checkpoint is safe because insertion is idempotent.
func (r *Runner) SaveSets(ctx context.Context, sets *Sets) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.fingerprints.Save(ctx, sets.fingerprints); err != nil {
			return fmt.Errorf("fingerprint set: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.skus.Save(ctx, sets.skus); err != nil {
			return fmt.Errorf("sku set: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// FingerprintCount returns the live fingerprint set size.
func (s *Sets) FingerprintCount() int {
	return s.fingerprints.Len()
}

// SKUCount returns the live SKU set size.
func (s *Sets) SKUCount() int {
	return s.skus.Len()
}
