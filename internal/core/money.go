// Package core defines transaction records and exact money handling.
//
// Amounts never pass through binary floating point: report strings are
// parsed with decimal arithmetic into int64 cents, summed as integers, and
// formatted back through decimal only for display.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCents converts a report amount string to signed cents.
//
// Vendor exports are inconsistent about separators: European rows use dot
// thousands with a decimal comma ("1.234,56"), US rows comma thousands
// with a decimal dot ("1,234.56"). When both characters appear, whichever
// comes last is the decimal separator and the other is dropped; a comma
// alone is a decimal comma. Surrounding whitespace and double quotes are
// ignored. Rounding past two decimals is half away from zero.
//
// Examples:
//
//	ParseCents("12.34")    -> 1234, nil
//	ParseCents("1,234.56") -> 123456, nil
//	ParseCents("1.234,56") -> 123456, nil
//	ParseCents("1234,56")  -> 123456, nil
//	ParseCents("-0.5")     -> -50, nil
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// ParseQuantity converts a report quantity cell to a signed count.
// Fee and adjustment rows carry no quantity at all, so the empty string is 0.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return n, nil
}

// UnitCents derives a per-unit price. A zero quantity means the row's total
// is itself the unit amount (fees, adjustments); otherwise the total is
// divided evenly, truncating toward zero.
func UnitCents(totalCents, quantity int64) int64 {
	if quantity == 0 {
		return totalCents
	}
	return totalCents / quantity
}

// FormatCents renders cents as a currency string with exactly two decimals.
//
// Examples:
//
//	FormatCents(1234) -> "12.34"
//	FormatCents(-50)  -> "-0.50"
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// String implements fmt.Stringer.
func (m Money) String() string {
	return FormatCents(m.Cents)
}
