package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used when comparing recomputed monetary aggregates.
// One minor currency unit absorbs decimal rounding noise without hiding real drift.
var Epsilon = decimal.New(1, -2)

// ErrInvalidAmount is returned when a decimal string cannot be parsed or is negative
// where a non-negative amount is required.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// Parse converts a decimal string into a Decimal.
func Parse(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	return d, nil
}

// ParseNonNegative parses a decimal string and rejects negative results.
func ParseNonNegative(value string) (decimal.Decimal, error) {
	d, err := Parse(value)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}
	return d, nil
}

// Round normalises an amount to two decimal places (minor currency units).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApproxEqual reports whether two amounts differ by no more than Epsilon.
func ApproxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
