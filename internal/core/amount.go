// Package core holds the movement domain: amounts, entry dates, the
// category table and the accounting class.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a signed decimal amount and rounds it to two
// fractional digits (half away from zero on the third digit).
//
// Both dot and comma are accepted as the fractional separator, so "12,5"
// and "12.5" parse to the same value. Anything that is not a plain
// decimal number is ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12,5")   -> 12.5
//	ParseAmount("-3.999") -> -4
//	ParseAmount("1.005")  -> 1.01
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}
