// Package entities - Transaction is the header row of one double-entry transfer.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// TransactionType represents the money flow of a transfer.
type TransactionType string

const (
	TransactionTypeTopup TransactionType = "TOPUP" // Treasury -> user
	TransactionTypeBonus TransactionType = "BONUS" // Bonus pool -> user
	TransactionTypeSpend TransactionType = "SPEND" // User -> revenue
	// REFUND and ADJUSTMENT are reserved for compensating and manual
	// flows; no public operation produces them yet.
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeTopup, TransactionTypeBonus, TransactionTypeSpend,
		TransactionTypeRefund, TransactionTypeAdjustment:
		return true
	default:
		return false
	}
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	// TransactionStatusRolledBack exists in the schema enum but is never
	// emitted: failed transfers roll back the whole DB transaction,
	// header included.
	TransactionStatusRolledBack TransactionStatus = "ROLLED_BACK"
)

// IsValid checks if the transaction status is valid.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusRolledBack:
		return true
	default:
		return false
	}
}

// Transaction is the audit header of one transfer between two wallets.
// The balance-affecting detail lives in the paired ledger entries.
//
// Lifecycle: created PENDING, marked COMPLETED in the same DB transaction
// once both ledger entries are written.
type Transaction struct {
	id             int64
	transactionID  string // public uuid4 identifier
	idempotencyKey string
	txType         TransactionType
	status         TransactionStatus
	assetTypeID    int64 // both wallets carry the same asset type
	fromWalletID   int64
	toWalletID     int64
	amount         valueobjects.Amount
	description    string
	metadata       string // JSON-encoded flow context, e.g. {"flow":"topup"}
	createdAt      time.Time
	completedAt    *time.Time
}

// NewTransaction creates a PENDING transaction header with a fresh uuid4
// public identifier.
func NewTransaction(
	txType TransactionType,
	assetTypeID, fromWalletID, toWalletID int64,
	amount valueobjects.Amount,
	idempotencyKey, description, metadata string,
) (*Transaction, error) {
	if !txType.IsValid() {
		return nil, errors.ErrInvalidTransactionType
	}
	if idempotencyKey == "" {
		return nil, errors.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency key is required",
		}
	}
	if assetTypeID <= 0 || fromWalletID <= 0 || toWalletID <= 0 {
		return nil, errors.ErrInvalidEntityID
	}
	if len(description) > 500 {
		return nil, errors.ValidationError{
			Field:   "description",
			Message: "description cannot exceed 500 characters",
		}
	}

	return &Transaction{
		transactionID:  uuid.New().String(),
		idempotencyKey: idempotencyKey,
		txType:         txType,
		status:         TransactionStatusPending,
		assetTypeID:    assetTypeID,
		fromWalletID:   fromWalletID,
		toWalletID:     toWalletID,
		amount:         amount,
		description:    description,
		metadata:       metadata,
		createdAt:      time.Now(),
	}, nil
}

// ReconstructTransaction reconstructs a Transaction from stored data.
func ReconstructTransaction(
	id int64,
	transactionID, idempotencyKey string,
	txType TransactionType,
	status TransactionStatus,
	assetTypeID, fromWalletID, toWalletID int64,
	amount valueobjects.Amount,
	description, metadata string,
	createdAt time.Time,
	completedAt *time.Time,
) *Transaction {
	return &Transaction{
		id:             id,
		transactionID:  transactionID,
		idempotencyKey: idempotencyKey,
		txType:         txType,
		status:         status,
		assetTypeID:    assetTypeID,
		fromWalletID:   fromWalletID,
		toWalletID:     toWalletID,
		amount:         amount,
		description:    description,
		metadata:       metadata,
		createdAt:      createdAt,
		completedAt:    completedAt,
	}
}

// Getters

func (t *Transaction) ID() int64 {
	return t.id
}

func (t *Transaction) TransactionID() string {
	return t.transactionID
}

func (t *Transaction) IdempotencyKey() string {
	return t.idempotencyKey
}

func (t *Transaction) Type() TransactionType {
	return t.txType
}

func (t *Transaction) Status() TransactionStatus {
	return t.status
}

func (t *Transaction) AssetTypeID() int64 {
	return t.assetTypeID
}

func (t *Transaction) FromWalletID() int64 {
	return t.fromWalletID
}

func (t *Transaction) ToWalletID() int64 {
	return t.toWalletID
}

func (t *Transaction) Amount() valueobjects.Amount {
	return t.amount
}

func (t *Transaction) Description() string {
	return t.description
}

func (t *Transaction) Metadata() string {
	return t.metadata
}

func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Transaction) CompletedAt() *time.Time {
	return t.completedAt
}

// SetID assigns the database-generated identity after insert.
func (t *Transaction) SetID(id int64) {
	t.id = id
}

// Business Methods

// IsPending returns true while the transfer is still in flight.
func (t *Transaction) IsPending() bool {
	return t.status == TransactionStatusPending
}

// Complete marks the transaction COMPLETED and stamps completed_at.
// Only PENDING transactions can complete.
func (t *Transaction) Complete() error {
	if t.status != TransactionStatusPending {
		return errors.ErrTransactionNotPending
	}

	now := time.Now()
	t.status = TransactionStatusCompleted
	t.completedAt = &now
	return nil
}

// Fail marks the transaction FAILED.
// Only reachable for transfers persisted outside the atomic path; the
// standard engine rolls the header back together with everything else.
func (t *Transaction) Fail() error {
	if t.status != TransactionStatusPending {
		return errors.ErrTransactionNotPending
	}

	t.status = TransactionStatusFailed
	return nil
}
