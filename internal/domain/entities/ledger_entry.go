// Package entities - LedgerEntry is one leg of a double-entry transfer.
package entities

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// EntryType marks the direction of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"  // amount recorded negative
	EntryTypeCredit EntryType = "CREDIT" // amount recorded positive
)

// IsValid checks if the entry type is valid.
func (t EntryType) IsValid() bool {
	return t == EntryTypeDebit || t == EntryTypeCredit
}

// LedgerEntry records one leg of a transfer together with the wallet balance
// snapshot taken immediately after the mutation. Every transfer produces
// exactly one DEBIT and one CREDIT entry; their amounts sum to zero.
type LedgerEntry struct {
	id            int64
	transactionID int64 // FK to transactions.id
	walletID      int64
	entryType     EntryType
	amount        decimal.Decimal // signed: negative for DEBIT
	balanceAfter  decimal.Decimal
	createdAt     time.Time
}

// NewDebitEntry creates the DEBIT leg: -amount against the source wallet.
func NewDebitEntry(transactionID, walletID int64, amount valueobjects.Amount, balanceAfter decimal.Decimal) (*LedgerEntry, error) {
	if transactionID <= 0 || walletID <= 0 {
		return nil, errors.ErrInvalidEntityID
	}
	return &LedgerEntry{
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     EntryTypeDebit,
		amount:        amount.Negated(),
		balanceAfter:  balanceAfter,
		createdAt:     time.Now(),
	}, nil
}

// NewCreditEntry creates the CREDIT leg: +amount to the destination wallet.
func NewCreditEntry(transactionID, walletID int64, amount valueobjects.Amount, balanceAfter decimal.Decimal) (*LedgerEntry, error) {
	if transactionID <= 0 || walletID <= 0 {
		return nil, errors.ErrInvalidEntityID
	}
	return &LedgerEntry{
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     EntryTypeCredit,
		amount:        amount.Decimal(),
		balanceAfter:  balanceAfter,
		createdAt:     time.Now(),
	}, nil
}

// ReconstructLedgerEntry reconstructs a LedgerEntry from stored data.
func ReconstructLedgerEntry(
	id, transactionID, walletID int64,
	entryType EntryType,
	amount, balanceAfter decimal.Decimal,
	createdAt time.Time,
) *LedgerEntry {
	return &LedgerEntry{
		id:            id,
		transactionID: transactionID,
		walletID:      walletID,
		entryType:     entryType,
		amount:        amount,
		balanceAfter:  balanceAfter,
		createdAt:     createdAt,
	}
}

// Getters

func (e *LedgerEntry) ID() int64 {
	return e.id
}

func (e *LedgerEntry) TransactionID() int64 {
	return e.transactionID
}

func (e *LedgerEntry) WalletID() int64 {
	return e.walletID
}

func (e *LedgerEntry) EntryType() EntryType {
	return e.entryType
}

func (e *LedgerEntry) Amount() decimal.Decimal {
	return e.amount
}

func (e *LedgerEntry) BalanceAfter() decimal.Decimal {
	return e.balanceAfter
}

func (e *LedgerEntry) CreatedAt() time.Time {
	return e.createdAt
}
