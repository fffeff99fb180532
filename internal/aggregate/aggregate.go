// Package aggregate folds new transaction records into order-stable
// buckets with exact cent sums.
package aggregate

import (
	"fmt"

	"dedupe/internal/core"
)

type (
	// Key is the full aggregation identity. Records fold together only
	// when every component matches exactly; nothing is normalized here
	// beyond the whitespace trimming the reader already did.
	Key struct {
		SKU         string
		Unit        core.Money
		Description string
		Kind        string
	}

	// Bucket accumulates the records sharing a Key. Total carries the sum
	// of the observed row totals; Unit times Quantity cannot reconstruct
	// it because zero-quantity rows contribute cents but no units.
	Bucket struct {
		Key
		Quantity int64
		Total    core.Money
	}

	// Aggregator collects buckets in first-seen key order. Later hits fold
	// in place and never reorder; buckets are never merged or split.
	Aggregator struct {
		index   map[Key]int
		buckets []Bucket
	}
)

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{index: make(map[Key]int)}
}

// Add folds one record into its bucket, creating the bucket at the end of
// the order on first sight. A malformed amount or quantity returns an
// error and leaves the aggregator untouched.
func (a *Aggregator) Add(rec core.Record) error {
	totalCents, err := core.ParseCents(rec.Total)
	if err != nil {
		return fmt.Errorf("total %q: %w", rec.Total, err)
	}
	qty, err := core.ParseQuantity(rec.Quantity)
	if err != nil {
		return fmt.Errorf("quantity %q: %w", rec.Quantity, err)
	}

	key := Key{
		SKU:         rec.SKU,
		Unit:        core.Money{Cents: core.UnitCents(totalCents, qty)},
		Description: rec.Description,
		Kind:        rec.Kind,
	}
	i, ok := a.index[key]
	if !ok {
		i = len(a.buckets)
		a.index[key] = i
		a.buckets = append(a.buckets, Bucket{Key: key})
	}
	a.buckets[i].Quantity += qty
	a.buckets[i].Total.Cents += totalCents
	return nil
}

// Buckets returns the buckets in first-seen order.
func (a *Aggregator) Buckets() []Bucket {
	out := make([]Bucket, len(a.buckets))
	copy(out, a.buckets)
	return out
}

// Len returns the number of buckets.
func (a *Aggregator) Len() int {
	return len(a.buckets)
}
