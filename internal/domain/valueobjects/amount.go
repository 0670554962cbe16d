// Package valueobjects - Amount is the monetary value object for virtual currencies.
// Balances are stored as NUMERIC(20,2), so every amount in the system is an
// exact decimal with at most two fractional digits.
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common domain errors for Amount operations
var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrInvalidAmount     = errors.New("invalid amount format")
	ErrTooManyDecimals   = errors.New("amount cannot have more than 2 decimal places")
)

// Amount represents a positive transfer amount.
// Uses shopspring/decimal for exact decimal arithmetic; floating point is
// never allowed anywhere near a balance.
//
// Value Object Pattern:
// - Immutable: all operations return new instances
// - Self-validating: cannot create an invalid Amount
type Amount struct {
	value decimal.Decimal
}

// NewAmount creates an Amount from a decimal value.
//
// Returns error if:
//   - value <= 0
//   - value carries more than 2 decimal places
func NewAmount(value decimal.Decimal) (Amount, error) {
	if !value.IsPositive() {
		return Amount{}, ErrNonPositiveAmount
	}
	if value.Exponent() < -2 {
		return Amount{}, ErrTooManyDecimals
	}
	return Amount{value: value}, nil
}

// NewAmountFromString parses a decimal string (e.g., "100.50").
func NewAmountFromString(s string) (Amount, error) {
	value, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	return NewAmount(value)
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// Negated returns the amount with its sign flipped.
// Used for DEBIT ledger entries, which record -amount.
func (a Amount) Negated() decimal.Decimal {
	return a.value.Neg()
}

// String renders the amount with exactly two decimal places.
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

// Equals checks value equality.
func (a Amount) Equals(other Amount) bool {
	return a.value.Equal(other.value)
}

// IsZero reports whether the amount is unset.
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}
