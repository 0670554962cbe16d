// Package valueobjects_test demonstrates domain layer testing.
// Domain tests have NO external dependencies - pure unit tests.
//
// Testing Principles:
// - Test business rules and invariants
// - Test value object immutability
// - Test error conditions
// - No mocks needed (pure domain logic)
package valueobjects_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// TestNewAmount_Success tests successful amount creation.
func TestNewAmount_Success(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Whole number", "100"},
		{"One decimal", "100.5"},
		{"Two decimals", "100.50"},
		{"Smallest unit", "0.01"},
		{"Large value", "999999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, _ := decimal.NewFromString(tt.value)
			amount, err := valueobjects.NewAmount(value)
			if err != nil {
				t.Fatalf("NewAmount(%s) unexpected error: %v", tt.value, err)
			}
			if !amount.Decimal().Equal(value) {
				t.Errorf("Decimal mismatch: got %v, want %v", amount.Decimal(), value)
			}
		})
	}
}

// TestNewAmount_NonPositive tests that zero and negative amounts are rejected.
// Business Rule: transfer amounts are strictly positive.
func TestNewAmount_NonPositive(t *testing.T) {
	for _, v := range []string{"0", "0.00", "-100.50", "-0.01"} {
		t.Run(v, func(t *testing.T) {
			value, _ := decimal.NewFromString(v)
			_, err := valueobjects.NewAmount(value)
			if !errors.Is(err, valueobjects.ErrNonPositiveAmount) {
				t.Errorf("Expected ErrNonPositiveAmount for %q, got %v", v, err)
			}
		})
	}
}

// TestNewAmount_TooManyDecimals tests the 2-decimal-place limit.
// Business Rule: balances are NUMERIC(20,2), so amounts carry at most
// two fractional digits.
func TestNewAmount_TooManyDecimals(t *testing.T) {
	for _, v := range []string{"100.555", "0.001", "1.2345"} {
		t.Run(v, func(t *testing.T) {
			value, _ := decimal.NewFromString(v)
			_, err := valueobjects.NewAmount(value)
			if !errors.Is(err, valueobjects.ErrTooManyDecimals) {
				t.Errorf("Expected ErrTooManyDecimals for %q, got %v", v, err)
			}
		})
	}
}

// TestNewAmountFromString tests string parsing.
func TestNewAmountFromString(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		amount, err := valueobjects.NewAmountFromString("250.75")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if amount.String() != "250.75" {
			t.Errorf("String mismatch: got %q, want %q", amount.String(), "250.75")
		}
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		for _, s := range []string{"abc", "12.34.56", "", "100,50"} {
			_, err := valueobjects.NewAmountFromString(s)
			if !errors.Is(err, valueobjects.ErrInvalidAmount) {
				t.Errorf("Expected ErrInvalidAmount for %q, got %v", s, err)
			}
		}
	})

	t.Run("NegativeRejected", func(t *testing.T) {
		_, err := valueobjects.NewAmountFromString("-10.00")
		if !errors.Is(err, valueobjects.ErrNonPositiveAmount) {
			t.Errorf("Expected ErrNonPositiveAmount, got %v", err)
		}
	})
}

// TestAmount_String tests that amounts always render with two decimals.
func TestAmount_String(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"100", "100.00"},
		{"100.5", "100.50"},
		{"0.01", "0.01"},
	}

	for _, tt := range tests {
		amount, err := valueobjects.NewAmountFromString(tt.input)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", tt.input, err)
		}
		if amount.String() != tt.want {
			t.Errorf("String(%q): got %q, want %q", tt.input, amount.String(), tt.want)
		}
	}
}

// TestAmount_Negated tests sign flip for DEBIT ledger entries.
func TestAmount_Negated(t *testing.T) {
	amount, _ := valueobjects.NewAmountFromString("50.00")

	negated := amount.Negated()

	if !negated.Equal(decimal.RequireFromString("-50.00")) {
		t.Errorf("Negated: got %v, want -50.00", negated)
	}
	// Original must stay untouched (immutability)
	if amount.String() != "50.00" {
		t.Errorf("Original mutated: %v", amount)
	}
}

// TestAmount_Equals tests value equality.
func TestAmount_Equals(t *testing.T) {
	a, _ := valueobjects.NewAmountFromString("100.50")
	b, _ := valueobjects.NewAmountFromString("100.5")
	c, _ := valueobjects.NewAmountFromString("100.51")

	if !a.Equals(b) {
		t.Error("100.50 should equal 100.5")
	}
	if a.Equals(c) {
		t.Error("100.50 should not equal 100.51")
	}
}

// TestAmount_IsZero tests the zero-value check.
func TestAmount_IsZero(t *testing.T) {
	var zero valueobjects.Amount
	if !zero.IsZero() {
		t.Error("Zero-value Amount should report IsZero")
	}

	amount, _ := valueobjects.NewAmountFromString("1.00")
	if amount.IsZero() {
		t.Error("Constructed Amount should not report IsZero")
	}
}
