package entities_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/domain/entities"
	domerrors "github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

func mustAmount(t *testing.T, s string) valueobjects.Amount {
	t.Helper()
	amount, err := valueobjects.NewAmountFromString(s)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", s, err)
	}
	return amount
}

// TestNewWallet_Success tests wallet creation.
func TestNewWallet_Success(t *testing.T) {
	wallet, err := entities.NewWallet("alice", 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if wallet.UserID() != "alice" {
		t.Errorf("UserID: got %q", wallet.UserID())
	}
	if wallet.AssetTypeID() != 1 {
		t.Errorf("AssetTypeID: got %d", wallet.AssetTypeID())
	}
	if !wallet.Balance().IsZero() {
		t.Errorf("New wallet should start at zero, got %v", wallet.Balance())
	}
	if wallet.IsSystem() {
		t.Error("Regular user wallet must not be flagged system")
	}
	if wallet.Version() != 0 {
		t.Errorf("Version should start at 0, got %d", wallet.Version())
	}
}

// TestNewWallet_SystemDetection tests that SYSTEM_* owners are flagged.
func TestNewWallet_SystemDetection(t *testing.T) {
	systemIDs := []string{
		"SYSTEM_TREASURY_GOLD_COIN",
		"SYSTEM_BONUS_POOL_DIAMOND",
		"SYSTEM_REVENUE_LOYALTY_POINT",
	}

	for _, userID := range systemIDs {
		wallet, err := entities.NewWallet(userID, 1)
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", userID, err)
		}
		if !wallet.IsSystem() {
			t.Errorf("Wallet for %q should be system", userID)
		}
	}
}

// TestNewWallet_Validation tests input validation.
func TestNewWallet_Validation(t *testing.T) {
	t.Run("EmptyUserID", func(t *testing.T) {
		_, err := entities.NewWallet("", 1)
		var valErr domerrors.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
		if valErr.Field != "user_id" {
			t.Errorf("Field: got %q", valErr.Field)
		}
	})

	t.Run("UserIDTooLong", func(t *testing.T) {
		long := make([]byte, 101)
		for i := range long {
			long[i] = 'a'
		}
		_, err := entities.NewWallet(string(long), 1)
		var valErr domerrors.ValidationError
		if !errors.As(err, &valErr) {
			t.Fatalf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("InvalidAssetTypeID", func(t *testing.T) {
		_, err := entities.NewWallet("alice", 0)
		if !errors.Is(err, domerrors.ErrInvalidEntityID) {
			t.Errorf("Expected ErrInvalidEntityID, got %v", err)
		}
	})
}

// TestWallet_Credit tests adding funds.
func TestWallet_Credit(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)

	wallet.Credit(mustAmount(t, "100.50"))

	if !wallet.Balance().Equal(decimal.RequireFromString("100.50")) {
		t.Errorf("Balance after credit: got %v", wallet.Balance())
	}
	if wallet.Version() != 1 {
		t.Errorf("Version after credit: got %d, want 1", wallet.Version())
	}
}

// TestWallet_Debit_Success tests removing funds.
func TestWallet_Debit_Success(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)
	wallet.Credit(mustAmount(t, "100.00"))

	err := wallet.Debit(mustAmount(t, "40.00"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !wallet.Balance().Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("Balance after debit: got %v", wallet.Balance())
	}
	if wallet.Version() != 2 {
		t.Errorf("Version after two mutations: got %d, want 2", wallet.Version())
	}
}

// TestWallet_Debit_ExactBalance tests draining the wallet to zero.
func TestWallet_Debit_ExactBalance(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)
	wallet.Credit(mustAmount(t, "25.00"))

	if err := wallet.Debit(mustAmount(t, "25.00")); err != nil {
		t.Fatalf("Debit of exact balance should succeed: %v", err)
	}
	if !wallet.Balance().IsZero() {
		t.Errorf("Balance should be zero, got %v", wallet.Balance())
	}
}

// TestWallet_Debit_InsufficientFunds tests the non-negative invariant.
// Business Rule: user wallets cannot go below zero, and the error message
// carries the available and required amounts.
func TestWallet_Debit_InsufficientFunds(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)
	wallet.Credit(mustAmount(t, "10.00"))

	err := wallet.Debit(mustAmount(t, "50.00"))

	if !domerrors.IsInsufficientFunds(err) {
		t.Fatalf("Expected insufficient funds error, got %v", err)
	}

	var domainErr *domerrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("Expected DomainError, got %T", err)
	}
	want := "Insufficient balance. Available: 10.00, Required: 50.00"
	if domainErr.Message != want {
		t.Errorf("Message: got %q, want %q", domainErr.Message, want)
	}

	// Failed debit must not touch balance or version
	if !wallet.Balance().Equal(decimal.RequireFromString("10.00")) {
		t.Errorf("Balance changed on failed debit: %v", wallet.Balance())
	}
	if wallet.Version() != 1 {
		t.Errorf("Version changed on failed debit: %d", wallet.Version())
	}
}

// TestWallet_Debit_SystemCanGoNegative tests the unlimited supply model.
// Business Rule: treasury and bonus pool wallets may go arbitrarily negative.
func TestWallet_Debit_SystemCanGoNegative(t *testing.T) {
	wallet, _ := entities.NewWallet("SYSTEM_TREASURY_GOLD_COIN", 1)

	if err := wallet.Debit(mustAmount(t, "1000.00")); err != nil {
		t.Fatalf("System wallet debit should always succeed: %v", err)
	}

	if !wallet.Balance().Equal(decimal.RequireFromString("-1000.00")) {
		t.Errorf("Balance: got %v, want -1000.00", wallet.Balance())
	}
}

// TestWallet_HasSufficientBalance tests the funds check.
func TestWallet_HasSufficientBalance(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)
	wallet.Credit(mustAmount(t, "50.00"))

	if !wallet.HasSufficientBalance(mustAmount(t, "50.00")) {
		t.Error("Exact balance should be sufficient")
	}
	if !wallet.HasSufficientBalance(mustAmount(t, "49.99")) {
		t.Error("Smaller amount should be sufficient")
	}
	if wallet.HasSufficientBalance(mustAmount(t, "50.01")) {
		t.Error("Larger amount should not be sufficient")
	}
}

// TestReconstructWallet tests hydration from the database.
func TestReconstructWallet(t *testing.T) {
	now := time.Now()
	balance := decimal.RequireFromString("750.00")

	wallet := entities.ReconstructWallet(42, "bob", 2, balance, false, 7, now, now)

	if wallet.ID() != 42 {
		t.Errorf("ID: got %d", wallet.ID())
	}
	if wallet.UserID() != "bob" {
		t.Errorf("UserID: got %q", wallet.UserID())
	}
	if !wallet.Balance().Equal(balance) {
		t.Errorf("Balance: got %v", wallet.Balance())
	}
	if wallet.Version() != 7 {
		t.Errorf("Version: got %d", wallet.Version())
	}
}

// TestWallet_SetID tests identity assignment after insert.
func TestWallet_SetID(t *testing.T) {
	wallet, _ := entities.NewWallet("alice", 1)

	wallet.SetID(101)

	if wallet.ID() != 101 {
		t.Errorf("ID after SetID: got %d", wallet.ID())
	}
}
