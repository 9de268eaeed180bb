// Package money normalizes raw monetary text from POS exports into exact
// decimal values. The exports use Brazilian formatting: "." as thousands
// separator and "," as decimal separator (e.g. "1.234,56").
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Parse converts a raw monetary cell into a decimal value.
// Returns decimal.Zero when the cell is empty or unparseable — the caller
// drops zero-amount records, so a bad cell excludes the row downstream
// instead of failing the run.
//
// When a comma is present the Brazilian transformation applies: thousands
// dots are stripped first, then the comma becomes the decimal point. The
// order matters — swapping first would corrupt "1.234,56" into 1.23456.
// Values without a comma are taken as plain dot-decimal numbers.
func Parse(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds to two decimal places. Applied only at output boundaries;
// internal aggregation keeps full precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
