package core

import "errors"

type (
	// Record is one transaction row from a vendor report. The semantic
	// fields hold the mapped, whitespace-trimmed cell values used for
	// aggregation; Raw keeps the row exactly as it was read, which is what
	// identity hashing consumes.
	Record struct {
		DateTime    string
		Kind        string
		SKU         string
		Total       string
		Quantity    string
		Description string

		Raw []string
	}

	// Money is an exact amount in cents.
	Money struct {
		Cents int64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
)
