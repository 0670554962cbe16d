package query

import (
	"context"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// Лимиты пагинации истории.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// GetHistoryUseCase - история транзакций пользователя.
//
// Возвращает транзакции, где любой из кошельков пользователя участвует
// как источник или получатель, отсортированные по created_at desc.
// Пользователь без кошельков получает пустой список, не ошибку.
type GetHistoryUseCase struct {
	assetRepo       ports.AssetTypeRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
}

// NewGetHistoryUseCase создаёт use case.
func NewGetHistoryUseCase(
	assetRepo ports.AssetTypeRepository,
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
) *GetHistoryUseCase {
	return &GetHistoryUseCase{
		assetRepo:       assetRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute возвращает страницу истории транзакций.
func (uc *GetHistoryUseCase) Execute(ctx context.Context, q dtos.GetHistoryQuery) (*dtos.TransactionListDTO, error) {
	if q.UserID == "" {
		return nil, errors.ValidationError{Field: "user_id", Message: "user_id is required"}
	}

	limit := clampLimit(q.Limit)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	wallets, err := uc.resolveWallets(ctx, q)
	if err != nil {
		return nil, err
	}

	result := &dtos.TransactionListDTO{
		UserID:       q.UserID,
		Transactions: []dtos.TransactionDTO{},
		Limit:        limit,
		Offset:       offset,
	}

	if len(wallets) == 0 {
		return result, nil
	}

	walletIDs := make([]int64, 0, len(wallets))
	for _, w := range wallets {
		walletIDs = append(walletIDs, w.ID())
	}

	transactions, err := uc.transactionRepo.ListByWalletIDs(ctx, walletIDs, limit, offset)
	if err != nil {
		return nil, err
	}

	result.Transactions = dtos.MapTransactionsToDTO(transactions)
	result.Count = len(result.Transactions)
	return result, nil
}

// resolveWallets возвращает кошельки пользователя: все или только
// по конкретному asset, если он указан в запросе.
func (uc *GetHistoryUseCase) resolveWallets(ctx context.Context, q dtos.GetHistoryQuery) ([]*entities.Wallet, error) {
	if q.AssetCode == "" {
		return uc.walletRepo.ListByUser(ctx, q.UserID)
	}

	assetCode, err := valueobjects.NewAssetCode(q.AssetCode)
	if err != nil {
		return nil, errors.ValidationError{Field: "asset_code", Message: err.Error()}
	}

	asset, err := uc.assetRepo.FindActiveByCode(ctx, assetCode)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.FindByUserAndAsset(ctx, q.UserID, asset.ID())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return []*entities.Wallet{wallet}, nil
}

// clampLimit нормализует limit: default 50, максимум 100.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
