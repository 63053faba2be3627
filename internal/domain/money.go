package domain

import (
	"github.com/shopspring/decimal"
)

// Money is a monetary amount in minor units (cents). All arithmetic on
// financial paths happens on int64 minor units; decimal strings only appear
// at the API boundary.
type Money int64

// MoneyFromDecimal converts a decimal amount (e.g. "10.50") to minor units.
// Amounts with sub-cent precision are rejected rather than rounded.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, ErrInvalidAmount
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}

	return Money(cents.IntPart()), nil
}

// ParseMoney parses a decimal amount string into minor units.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	return MoneyFromDecimal(d)
}

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats the amount with two decimal places.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m > 0
}
