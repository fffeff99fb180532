// Package fingerprint derives the stable 64-bit identity of a transaction
// record.
package fingerprint

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"dedupe/internal/core"
)

// Fingerprint identifies one transaction across runs. Equal canonical
// fields always hash to the same value regardless of run, platform, or Go
// version; any byte difference in a canonical field yields a different
// value. The 64-bit collision bound is accepted, no cryptographic strength
// is implied.
type Fingerprint uint64

// sep joins fields in the canonical byte form. The unit separator cannot
// occur inside a report cell, so field boundaries stay unambiguous.
const sep = 0x1f

// Of hashes a record's canonical identity bytes.
//
// The canonical form is the raw row with trailing empty cells dropped,
// fields joined by the unit separator. Reports re-exported with a ragged
// tail of empty columns therefore keep their fingerprints. A record built
// without a raw row falls back to its semantic fields in declaration
// order. Only observed input bytes participate; derived values such as the
// unit price never do.
func Of(rec core.Record) Fingerprint {
	fields := rec.Raw
	if len(fields) == 0 {
		fields = []string{rec.DateTime, rec.Kind, rec.SKU, rec.Total, rec.Quantity, rec.Description}
	}
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}

	d := xxhash.New()
	for i, f := range fields {
		if i > 0 {
			d.Write([]byte{sep})
		}
		d.WriteString(f)
	}
	return Fingerprint(d.Sum64())
}

// Parse reads the decimal form back into a Fingerprint.
func Parse(s string) (Fingerprint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Fingerprint(v), nil
}

// String returns the decimal form used in the persisted set file.
func (f Fingerprint) String() string {
	return strconv.FormatUint(uint64(f), 10)
}
