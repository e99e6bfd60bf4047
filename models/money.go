package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is the exact fixed-point amount used for every monetary field.
// Amounts are persisted as TEXT and round-trip through decimal's
// sql.Scanner / driver.Valuer without ever touching floating point.
type Money = decimal.Decimal

// MoneyPlaces is the rounding applied to every derived amount.
const MoneyPlaces = 2

// ParseMoney parses a user-supplied amount. Both "." and "," are accepted
// as decimal separator; the comma form is normalized before parsing.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	// "1.234,56" carries a thousands separator, "1234,56" does not.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustMoney is a test/seed helper for literal amounts.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}
