package valueobjects_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// TestNewAssetCode_Success tests valid asset codes.
func TestNewAssetCode_Success(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"GOLD_COIN", "GOLD_COIN"},
		{"DIAMOND", "DIAMOND"},
		{"LOYALTY_POINT", "LOYALTY_POINT"},
		{"gold_coin", "GOLD_COIN"},   // normalized to upper case
		{" DIAMOND ", "DIAMOND"},     // trimmed
		{"X1", "X1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			code, err := valueobjects.NewAssetCode(tt.input)
			if err != nil {
				t.Fatalf("NewAssetCode(%q) unexpected error: %v", tt.input, err)
			}
			if code.String() != tt.want {
				t.Errorf("Normalized code: got %q, want %q", code.String(), tt.want)
			}
		})
	}
}

// TestNewAssetCode_Empty tests empty input rejection.
func TestNewAssetCode_Empty(t *testing.T) {
	for _, input := range []string{"", "   "} {
		_, err := valueobjects.NewAssetCode(input)
		if !errors.Is(err, valueobjects.ErrEmptyAssetCode) {
			t.Errorf("Expected ErrEmptyAssetCode for %q, got %v", input, err)
		}
	}
}

// TestNewAssetCode_TooLong tests the 50 character limit.
func TestNewAssetCode_TooLong(t *testing.T) {
	_, err := valueobjects.NewAssetCode(strings.Repeat("A", 51))
	if !errors.Is(err, valueobjects.ErrAssetCodeTooLong) {
		t.Errorf("Expected ErrAssetCodeTooLong, got %v", err)
	}

	// Exactly 50 characters is still fine
	code, err := valueobjects.NewAssetCode(strings.Repeat("A", 50))
	if err != nil {
		t.Fatalf("50-char code rejected: %v", err)
	}
	if len(code.String()) != 50 {
		t.Errorf("Length mismatch: %d", len(code.String()))
	}
}

// TestNewAssetCode_InvalidCharacters tests character set validation.
func TestNewAssetCode_InvalidCharacters(t *testing.T) {
	invalid := []string{"GOLD COIN", "GOLD-COIN", "GOLD.COIN", "кошелёк", "GOLD!"}

	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := valueobjects.NewAssetCode(input)
			if !errors.Is(err, valueobjects.ErrAssetCodeFormat) {
				t.Errorf("Expected ErrAssetCodeFormat for %q, got %v", input, err)
			}
		})
	}
}

// TestAssetCode_SystemUserIDs tests reserved system wallet addressing.
func TestAssetCode_SystemUserIDs(t *testing.T) {
	code, _ := valueobjects.NewAssetCode("GOLD_COIN")

	if got := code.TreasuryUserID(); got != "SYSTEM_TREASURY_GOLD_COIN" {
		t.Errorf("TreasuryUserID: got %q", got)
	}
	if got := code.BonusPoolUserID(); got != "SYSTEM_BONUS_POOL_GOLD_COIN" {
		t.Errorf("BonusPoolUserID: got %q", got)
	}
	if got := code.RevenueUserID(); got != "SYSTEM_REVENUE_GOLD_COIN" {
		t.Errorf("RevenueUserID: got %q", got)
	}
}

// TestIsSystemUserID tests system wallet detection.
// Business Rule: external callers may never transact as a system wallet.
func TestIsSystemUserID(t *testing.T) {
	system := []string{
		"SYSTEM_TREASURY_GOLD_COIN",
		"SYSTEM_BONUS_POOL_DIAMOND",
		"SYSTEM_REVENUE_LOYALTY_POINT",
	}
	for _, id := range system {
		if !valueobjects.IsSystemUserID(id) {
			t.Errorf("%q should be a system user ID", id)
		}
	}

	regular := []string{"alice", "bob", "user-123", "SYSTEM", "TREASURY_GOLD_COIN"}
	for _, id := range regular {
		if valueobjects.IsSystemUserID(id) {
			t.Errorf("%q should not be a system user ID", id)
		}
	}
}

// TestAssetCode_Equals tests equality after normalization.
func TestAssetCode_Equals(t *testing.T) {
	a, _ := valueobjects.NewAssetCode("gold_coin")
	b, _ := valueobjects.NewAssetCode("GOLD_COIN")
	c, _ := valueobjects.NewAssetCode("DIAMOND")

	if !a.Equals(b) {
		t.Error("Codes differing only in case should be equal")
	}
	if a.Equals(c) {
		t.Error("Different codes should not be equal")
	}
}

// TestAssetCode_IsZero tests the zero-value check.
func TestAssetCode_IsZero(t *testing.T) {
	var zero valueobjects.AssetCode
	if !zero.IsZero() {
		t.Error("Zero-value AssetCode should report IsZero")
	}

	code, _ := valueobjects.NewAssetCode("DIAMOND")
	if code.IsZero() {
		t.Error("Constructed AssetCode should not report IsZero")
	}
}
