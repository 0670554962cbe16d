// Package query - read-операции: баланс и история транзакций.
package query

import (
	"context"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// GetBalanceUseCase - запрос баланса кошелька.
//
// Чтение баланса лениво создаёт кошелёк: пользователь, который ещё не
// совершал операций, видит нулевой баланс, а не 404. Создание идёт
// внутри UnitOfWork, чтобы конкурентные первые обращения разрешились
// через unique constraint.
type GetBalanceUseCase struct {
	assetRepo  ports.AssetTypeRepository
	walletRepo ports.WalletRepository
	uow        ports.UnitOfWork
}

// NewGetBalanceUseCase создаёт use case.
func NewGetBalanceUseCase(
	assetRepo ports.AssetTypeRepository,
	walletRepo ports.WalletRepository,
	uow ports.UnitOfWork,
) *GetBalanceUseCase {
	return &GetBalanceUseCase{
		assetRepo:  assetRepo,
		walletRepo: walletRepo,
		uow:        uow,
	}
}

// Execute возвращает баланс кошелька пользователя.
func (uc *GetBalanceUseCase) Execute(ctx context.Context, q dtos.GetBalanceQuery) (*dtos.WalletBalanceDTO, error) {
	if q.UserID == "" {
		return nil, errors.ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if valueobjects.IsSystemUserID(q.UserID) {
		return nil, errors.ValidationError{
			Field:   "user_id",
			Message: "system wallets cannot be addressed directly",
		}
	}

	assetCode, err := valueobjects.NewAssetCode(q.AssetCode)
	if err != nil {
		return nil, errors.ValidationError{Field: "asset_code", Message: err.Error()}
	}

	value, err := uc.uow.ExecuteWithResult(ctx, func(txCtx context.Context) (interface{}, error) {
		asset, err := uc.assetRepo.FindActiveByCode(txCtx, assetCode)
		if err != nil {
			return nil, err
		}

		return uc.walletRepo.GetOrCreate(txCtx, q.UserID, asset.ID())
	})
	if err != nil {
		return nil, err
	}

	wallet := value.(*entities.Wallet)
	dto := dtos.MapWalletToBalanceDTO(wallet, assetCode.String())
	return &dto, nil
}
