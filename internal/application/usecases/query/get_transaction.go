package query

import (
	"context"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/errors"
)

// GetTransactionUseCase - транзакция по публичному идентификатору
// вместе с обеими ногами двойной записи.
type GetTransactionUseCase struct {
	transactionRepo ports.TransactionRepository
	ledgerRepo      ports.LedgerEntryRepository
}

// NewGetTransactionUseCase создаёт use case.
func NewGetTransactionUseCase(
	transactionRepo ports.TransactionRepository,
	ledgerRepo ports.LedgerEntryRepository,
) *GetTransactionUseCase {
	return &GetTransactionUseCase{
		transactionRepo: transactionRepo,
		ledgerRepo:      ledgerRepo,
	}
}

// Execute возвращает транзакцию с ledger entries.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, transactionID string) (*dtos.TransactionDetailDTO, error) {
	if transactionID == "" {
		return nil, errors.ValidationError{Field: "transaction_id", Message: "transaction_id is required"}
	}

	tx, err := uc.transactionRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.ListByTransaction(ctx, tx.ID())
	if err != nil {
		return nil, err
	}

	result := &dtos.TransactionDetailDTO{
		Transaction: dtos.MapTransactionToDTO(tx),
		Entries:     make([]dtos.LedgerEntryDTO, 0, len(entries)),
	}
	for _, e := range entries {
		result.Entries = append(result.Entries, dtos.MapLedgerEntryToDTO(e))
	}

	return result, nil
}
