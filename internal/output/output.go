// Package output writes the artifacts of a run: the aggregated TSV and
// the new-SKU list.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dedupe/internal/aggregate"
	"dedupe/internal/core"
)

// consolidatedSKU labels the merged no-SKU rows in the TSV. Fee and
// transfer lines carry no SKU of their own, and downstream accounting
// wants them under one synthetic identifier.
const consolidatedSKU = "FBATF"

var tsvHeader = []string{"sku", "unit", "quantity", "description", "kind"}

// Timestamp renders t in the artifact file-name form: RFC3339 with
// nanoseconds, every colon replaced so the name is valid on any
// filesystem. Sub-second precision keeps the names distinct when several
// reports run in one invocation.
func Timestamp(t time.Time) string {
	return strings.ReplaceAll(t.Format(time.RFC3339Nano), ":", "_")
}

// WriteTSV writes the aggregated buckets to OUTPUT-<timestamp>.tsv in
// dir and returns the file path.
//
// Buckets with a SKU are written as-is, in first-seen order. Buckets
// without one are folded into a single row per description and kind: the
// unit column carries the summed total cents of the folded buckets and
// the quantity is +1, or -1 when that sum is negative. The file is
// written even when there are no buckets; an all-duplicate run leaves a
// header-only file behind as evidence it happened.
func WriteTSV(dir string, now time.Time, buckets []aggregate.Bucket) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	path := filepath.Join(dir, "OUTPUT-"+Timestamp(now)+".tsv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(tsvHeader); err != nil {
		return "", fmt.Errorf("write output %s: %w", path, err)
	}
	for _, b := range buckets {
		if b.SKU == "" {
			continue
		}
		row := []string{
			b.SKU,
			b.Unit.String(),
			strconv.FormatInt(b.Quantity, 10),
			b.Description,
			b.Kind,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write output %s: %w", path, err)
		}
	}
	for _, c := range consolidate(buckets) {
		quantity := int64(1)
		if c.cents < 0 {
			quantity = -1
		}
		row := []string{
			consolidatedSKU,
			core.FormatCents(c.cents),
			strconv.FormatInt(quantity, 10),
			c.description,
			c.kind,
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write output %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write output %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write output %s: %w", path, err)
	}
	return path, nil
}

type consolidated struct {
	description string
	kind        string
	cents       int64
}

// consolidate folds the no-SKU buckets by description and kind, in
// first-seen order, summing their observed totals. Summing totals rather
// than unit prices keeps the folded rows conserving cents even when
// several buckets share the same amount.
func consolidate(buckets []aggregate.Bucket) []consolidated {
	index := make(map[[2]string]int)
	var out []consolidated
	for _, b := range buckets {
		if b.SKU != "" {
			continue
		}
		k := [2]string{b.Description, b.Kind}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, consolidated{description: b.Description, kind: b.Kind})
		}
		out[i].cents += b.Total.Cents
	}
	return out
}

// WriteNewSKUs writes the first-seen list of never-before-observed SKUs
// to NEW-SKUS-<timestamp>.txt in dir, one per line. Nothing is written
// when the list is empty; the returned path is empty in that case.
func WriteNewSKUs(dir string, now time.Time, skus []string) (string, error) {
	if len(skus) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("write new-sku list: %w", err)
	}
	path := filepath.Join(dir, "NEW-SKUS-"+Timestamp(now)+".txt")
	var b strings.Builder
	for _, s := range skus {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write new-sku list: %w", err)
	}
	return path, nil
}
