package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testCfg skips the two metadata records the fixtures below carry.
func testCfg() Config {
	return Config{Preamble: 2, Comma: '\t'}
}

const fixture = "Account activity\n" +
	"Jan 1 2024 - Jan 31 2024\n" +
	"date/time\ttype\tsku\ttotal\tquantity\tdescription\n" +
	"2024-01-02 10:00:00\tOrder\tSKU-1\t19.99\t1\tWidget\n" +
	"2024-01-03 11:30:00\tFBA Fee\t\t-1.50\t\tStorage fee\n"

func TestReadHappyPath(t *testing.T) {
	recs, err := Read(strings.NewReader(fixture), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	r := recs[0]
	if r.DateTime != "2024-01-02 10:00:00" || r.Kind != "Order" || r.SKU != "SKU-1" ||
		r.Total != "19.99" || r.Quantity != "1" || r.Description != "Widget" {
		t.Errorf("first record mapped wrong: %+v", r)
	}
	if len(r.Raw) != 6 || r.Raw[2] != "SKU-1" {
		t.Errorf("raw row not preserved: %v", r.Raw)
	}
	if recs[1].SKU != "" || recs[1].Quantity != "" {
		t.Errorf("fee record should have empty sku and quantity: %+v", recs[1])
	}
}

func TestReadTrimsMappedFieldsOnly(t *testing.T) {
	in := "h1\nh2\n" +
		"type\tsku\ttotal\tdescription\n" +
		"Order\t SKU-1 \t 5.00\tWidget \n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	r := recs[0]
	if r.SKU != "SKU-1" || r.Total != "5.00" || r.Description != "Widget" {
		t.Errorf("fields not trimmed: %+v", r)
	}
	if r.Raw[1] != " SKU-1 " {
		t.Errorf("raw row must stay untrimmed, got %q", r.Raw[1])
	}
}

func TestReadRaggedRows(t *testing.T) {
	in := "h1\nh2\n" +
		"type\tsku\ttotal\tquantity\tdescription\n" +
		"Order\tSKU-1\t5.00\n" + // short row
		"Order\tSKU-2\t6.00\t1\tGadget\textra\tcells\n" // long row
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Quantity != "" || recs[0].Description != "" {
		t.Errorf("short row should read missing cells as empty: %+v", recs[0])
	}
	if recs[1].Description != "Gadget" {
		t.Errorf("long row mapped wrong: %+v", recs[1])
	}
	if len(recs[1].Raw) != 7 {
		t.Errorf("long raw row truncated: %v", recs[1].Raw)
	}
}

func TestReadHeaderCaseInsensitive(t *testing.T) {
	in := "h1\nh2\n" +
		"Date/Time\tTYPE\tSku\tTotal\tQuantity\tDescription\n" +
		"2024-01-02\tOrder\tSKU-1\t5.00\t1\tWidget\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if recs[0].SKU != "SKU-1" || recs[0].DateTime != "2024-01-02" {
		t.Errorf("case-insensitive mapping failed: %+v", recs[0])
	}
}

func TestReadUnknownColumnsIgnored(t *testing.T) {
	in := "h1\nh2\n" +
		"settlement id\ttype\torder id\tsku\ttotal\tdescription\n" +
		"123\tOrder\tORD-9\tSKU-1\t5.00\tWidget\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if recs[0].SKU != "SKU-1" || recs[0].Total != "5.00" {
		t.Errorf("mapping with extra columns failed: %+v", recs[0])
	}
}

func TestReadMissingRequiredColumn(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"no total", "type\tsku\tdescription"},
		{"no sku", "type\ttotal\tdescription"},
		{"no type", "sku\ttotal\tdescription"},
		{"no description", "type\tsku\ttotal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := "h1\nh2\n" + tc.header + "\nOrder\tx\ty\n"
			_, err := Read(strings.NewReader(in), testCfg())
			if !errors.Is(err, ErrMissingColumn) {
				t.Fatalf("expected ErrMissingColumn, got %v", err)
			}
		})
	}
}

func TestReadOptionalColumnsMayBeAbsent(t *testing.T) {
	in := "h1\nh2\n" +
		"type\tsku\ttotal\tdescription\n" +
		"Order\tSKU-1\t5.00\tWidget\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if recs[0].DateTime != "" || recs[0].Quantity != "" {
		t.Errorf("absent optional columns should read empty: %+v", recs[0])
	}
}

func TestReadEmptyInput(t *testing.T) {
	for _, in := range []string{"", "h1\n", "h1\nh2\n"} {
		recs, err := Read(strings.NewReader(in), testCfg())
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if len(recs) != 0 {
			t.Fatalf("%q: got %d records, want 0", in, len(recs))
		}
	}
}

func TestReadHeaderOnlyInput(t *testing.T) {
	in := "h1\nh2\ntype\tsku\ttotal\tdescription\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}

func TestReadStripsBOM(t *testing.T) {
	in := "\ufefftype\tsku\ttotal\tdescription\n" +
		"Order\tSKU-1\t5.00\tWidget\n"
	recs, err := Read(strings.NewReader(in), Config{Preamble: 0, Comma: '\t'})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 1 || recs[0].Kind != "Order" {
		t.Fatalf("BOM broke header mapping: %+v", recs)
	}
}

func TestReadReplacesInvalidUTF8(t *testing.T) {
	in := "h1\nh2\n" +
		"type\tsku\ttotal\tdescription\n" +
		"Order\tSKU-1\t5.00\tWid\xffget\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(recs[0].Description, "�") {
		t.Errorf("invalid byte not replaced: %q", recs[0].Description)
	}
}

func TestReadCollapsesEmbeddedLineBreaks(t *testing.T) {
	// A quoted cell may span lines. The mapped fields must come out
	// single-line; the raw row keeps the cell verbatim.
	in := "type\tsku\ttotal\tdescription\n" +
		"Order\t\"BAD\nSKU\"\t5.00\tWidget\n"
	recs, err := Read(strings.NewReader(in), Config{Preamble: 0, Comma: '\t'})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].SKU != "BAD SKU" {
		t.Errorf("SKU = %q, want %q", recs[0].SKU, "BAD SKU")
	}
	if strings.ContainsAny(recs[0].SKU, "\r\n") {
		t.Errorf("SKU still holds a line break: %q", recs[0].SKU)
	}
	if recs[0].Raw[1] != "BAD\nSKU" {
		t.Errorf("raw cell changed, got %q", recs[0].Raw[1])
	}
}

func TestReadBareQuotesInDescription(t *testing.T) {
	in := "h1\nh2\n" +
		"type\tsku\ttotal\tdescription\n" +
		"Order\tSKU-1\t5.00\t19\" monitor stand\n"
	recs, err := Read(strings.NewReader(in), testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	recs, err := ReadFile(path, testCfg())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt"), testCfg())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Preamble != 7 || cfg.Comma != '\t' {
		t.Fatalf("unexpected default: %+v", cfg)
	}
}
