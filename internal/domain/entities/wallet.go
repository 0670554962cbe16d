// Package entities - Wallet is the core entity for managing balances.
// Each wallet binds one user (or system account) to one asset type.
package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// Wallet represents a balance of one asset type held by one owner.
// A user has at most one wallet per asset type (unique user_id + asset_type_id).
//
// Entity Pattern:
// - Has identity (ID)
// - Enforces invariants (non-negative user balances)
// - Rich behavior (not just data)
type Wallet struct {
	id          int64
	userID      string
	assetTypeID int64
	balance     decimal.Decimal
	isSystem    bool

	// version counts balance mutations. Row locks are the primary
	// concurrency control; the version guard on UPDATE is a backstop.
	version int64

	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a new wallet with zero balance.
// Factory function with validation.
//
// Business Rules:
// - Owner user ID is required
// - System wallets use reserved SYSTEM_* user IDs
// - New wallets start at balance 0.00, version 0
func NewWallet(userID string, assetTypeID int64) (*Wallet, error) {
	if userID == "" {
		return nil, errors.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		}
	}
	if len(userID) > 100 {
		return nil, errors.ValidationError{
			Field:   "user_id",
			Message: "user_id cannot exceed 100 characters",
		}
	}
	if assetTypeID <= 0 {
		return nil, errors.ErrInvalidEntityID
	}

	now := time.Now()
	return &Wallet{
		userID:      userID,
		assetTypeID: assetTypeID,
		balance:     decimal.Zero,
		isSystem:    valueobjects.IsSystemUserID(userID),
		version:     0,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructWallet reconstructs a Wallet from stored data.
// Used by repository to hydrate entities from database.
func ReconstructWallet(
	id int64,
	userID string,
	assetTypeID int64,
	balance decimal.Decimal,
	isSystem bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:          id,
		userID:      userID,
		assetTypeID: assetTypeID,
		balance:     balance,
		isSystem:    isSystem,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Getters

func (w *Wallet) ID() int64 {
	return w.id
}

func (w *Wallet) UserID() string {
	return w.userID
}

func (w *Wallet) AssetTypeID() int64 {
	return w.assetTypeID
}

func (w *Wallet) Balance() decimal.Decimal {
	return w.balance
}

func (w *Wallet) IsSystem() bool {
	return w.isSystem
}

func (w *Wallet) Version() int64 {
	return w.version
}

func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// SetID assigns the database-generated identity after insert.
func (w *Wallet) SetID(id int64) {
	w.id = id
}

// Business Methods

// HasSufficientBalance reports whether a debit of the given amount is allowed.
// System wallets always pass: the treasury and bonus pool model an unlimited
// supply and may go arbitrarily negative.
func (w *Wallet) HasSufficientBalance(amount valueobjects.Amount) bool {
	if w.isSystem {
		return true
	}
	return w.balance.GreaterThanOrEqual(amount.Decimal())
}

// Debit subtracts funds from the wallet.
//
// Business Rules:
// - User wallets cannot go below zero
// - Version is incremented on every mutation
func (w *Wallet) Debit(amount valueobjects.Amount) error {
	if !w.HasSufficientBalance(amount) {
		return errors.NewInsufficientFunds(w.balance.StringFixed(2), amount.String())
	}

	w.balance = w.balance.Sub(amount.Decimal())
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// Credit adds funds to the wallet.
func (w *Wallet) Credit(amount valueobjects.Amount) {
	w.balance = w.balance.Add(amount.Decimal())
	w.version++
	w.updatedAt = time.Now()
}
