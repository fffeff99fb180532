// Package report reads vendor transaction exports into records.
//
// The supported layout is the payment-report export: a fixed number of
// preamble records (account metadata, date range), one header record,
// then one record per transaction. Reports are tab-delimited; cell counts
// vary per row and descriptions may contain bare quotes, so parsing is
// deliberately lenient about shape and strict only about the columns the
// engine needs.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"dedupe/internal/core"
)

// ErrMissingColumn marks a report whose header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Config controls report parsing.
type Config struct {
	Preamble int  // records before the header row
	Comma    rune // field delimiter
}

// DefaultConfig matches the vendor transaction export: seven preamble
// records, tab-delimited.
func DefaultConfig() Config {
	return Config{Preamble: 7, Comma: '\t'}
}

// ReadFile parses one report file.
func ReadFile(path string, cfg Config) ([]core.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	defer f.Close()

	recs, err := Read(f, cfg)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return recs, nil
}

// Read parses a whole report stream. An empty or preamble-only stream
// yields no records and no error; a header missing a required column or a
// structurally unparseable stream is an error.
func Read(r io.Reader, cfg Config) ([]core.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(sanitize(data)))
	cr.Comma = cfg.Comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	for i := 0; i < cfg.Preamble; i++ {
		if _, err := cr.Read(); err == io.EOF {
			return nil, nil
		} else if err != nil {
			return nil, fmt.Errorf("preamble record %d: %w", i+1, err)
		}
	}
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		out = append(out, cols.record(row))
	}
	return out, nil
}

// sanitize strips a UTF-8 BOM and replaces invalid UTF-8 bytes so a single
// mojibake cell cannot abort the whole report.
func sanitize(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	return bytes.ToValidUTF8(data, []byte("�"))
}

// columns holds the header position of each mapped field, -1 when absent.
type columns struct {
	dateTime    int
	kind        int
	sku         int
	total       int
	quantity    int
	description int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{dateTime: -1, kind: -1, sku: -1, total: -1, quantity: -1, description: -1}
	set := func(dst *int, i int) {
		if *dst == -1 {
			*dst = i
		}
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date/time", "date":
			set(&cols.dateTime, i)
		case "type":
			set(&cols.kind, i)
		case "sku":
			set(&cols.sku, i)
		case "total":
			set(&cols.total, i)
		case "quantity":
			set(&cols.quantity, i)
		case "description":
			set(&cols.description, i)
		}
	}
	required := []struct {
		name string
		idx  int
	}{
		{"type", cols.kind},
		{"sku", cols.sku},
		{"total", cols.total},
		{"description", cols.description},
	}
	for _, req := range required {
		if req.idx == -1 {
			return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, req.name)
		}
	}
	return cols, nil
}

// record maps one row. Cells beyond the row's length read as empty, so
// ragged rows are data rather than errors.
func (c columns) record(row []string) core.Record {
	return core.Record{
		DateTime:    cell(row, c.dateTime),
		Kind:        cell(row, c.kind),
		SKU:         cell(row, c.sku),
		Total:       cell(row, c.total),
		Quantity:    cell(row, c.quantity),
		Description: cell(row, c.description),
		Raw:         row,
	}
}

// cell reads one mapped field. Quoted cells can smuggle line breaks and
// other control characters past the delimiter; those collapse to spaces so
// mapped fields are always single-line. Raw keeps the verbatim cells.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	s := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, row[i])
	return strings.TrimSpace(s)
}
