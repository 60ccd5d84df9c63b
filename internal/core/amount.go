// Package core defines the finance tracker's domain model: heads,
// transactions, calendar dates and amount parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount string to a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Only strictly positive values are valid; signs, empty strings and
// anything decimal cannot parse are rejected with ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
