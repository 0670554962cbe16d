// Package asset - административные операции над asset types.
package asset

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/events"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// systemSeedBalance - стартовый баланс treasury и bonus pool.
// Моделирует неограниченную эмиссию; revenue начинает с нуля.
var systemSeedBalance = decimal.RequireFromString("999999999.00")

// CreateAssetUseCase - регистрация нового asset type.
//
// Сценарий (атомарно):
// 1. Создать asset type
// 2. Создать три системных кошелька: treasury, bonus pool, revenue
// 3. Опубликовать события AssetCreated + WalletCreated
type CreateAssetUseCase struct {
	assetRepo      ports.AssetTypeRepository
	walletRepo     ports.WalletRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCreateAssetUseCase создаёт use case.
func NewCreateAssetUseCase(
	assetRepo ports.AssetTypeRepository,
	walletRepo ports.WalletRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreateAssetUseCase {
	return &CreateAssetUseCase{
		assetRepo:      assetRepo,
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute регистрирует asset type вместе с системными кошельками.
func (uc *CreateAssetUseCase) Execute(ctx context.Context, cmd dtos.CreateAssetCommand) (*dtos.AssetTypeDTO, error) {
	code, err := valueobjects.NewAssetCode(cmd.Code)
	if err != nil {
		return nil, errors.ValidationError{Field: "code", Message: err.Error()}
	}

	var result *dtos.AssetTypeDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		asset, err := entities.NewAssetType(code, cmd.Name, cmd.Description)
		if err != nil {
			return err
		}
		if err := uc.assetRepo.Save(txCtx, asset); err != nil {
			return err
		}

		// События копятся в EventStore и уходят в outbox одним батчем.
		store := events.NewEventStore()
		store.Add(events.NewAssetCreated(code.String(), asset.Name()))

		// Системные кошельки создаются сразу, чтобы переводы не
		// конкурировали за их создание на горячем пути.
		systemWallets := []struct {
			userID  string
			balance decimal.Decimal
		}{
			{code.TreasuryUserID(), systemSeedBalance},
			{code.BonusPoolUserID(), systemSeedBalance},
			{code.RevenueUserID(), decimal.Zero},
		}

		for _, sw := range systemWallets {
			wallet, err := entities.NewWallet(sw.userID, asset.ID())
			if err != nil {
				return err
			}
			if sw.balance.IsPositive() {
				amount, err := valueobjects.NewAmount(sw.balance)
				if err != nil {
					return err
				}
				wallet.Credit(amount)
			}
			if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
				return fmt.Errorf("failed to provision system wallet %s: %w", sw.userID, err)
			}

			store.Add(events.NewWalletCreated(wallet.ID(), sw.userID, code.String()))
		}

		if err := uc.eventPublisher.PublishBatch(txCtx, store.GetAll()); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}

		dto := dtos.MapAssetTypeToDTO(asset)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
