package asset

import (
	"context"
	"fmt"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/events"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// DeactivateAssetUseCase - вывод asset type из обращения.
//
// Балансы существующих кошельков сохраняются, но переводы по этому
// asset перестают проходить: резолв активного asset даёт ASSET_NOT_FOUND.
type DeactivateAssetUseCase struct {
	assetRepo      ports.AssetTypeRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewDeactivateAssetUseCase создаёт use case.
func NewDeactivateAssetUseCase(
	assetRepo ports.AssetTypeRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *DeactivateAssetUseCase {
	return &DeactivateAssetUseCase{
		assetRepo:      assetRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute деактивирует asset type.
func (uc *DeactivateAssetUseCase) Execute(ctx context.Context, cmd dtos.DeactivateAssetCommand) (*dtos.AssetTypeDTO, error) {
	code, err := valueobjects.NewAssetCode(cmd.Code)
	if err != nil {
		return nil, errors.ValidationError{Field: "code", Message: err.Error()}
	}

	var result *dtos.AssetTypeDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		asset, err := uc.assetRepo.FindByCode(txCtx, code)
		if err != nil {
			return err
		}

		if asset.IsActive() {
			asset.Deactivate()
			if err := uc.assetRepo.Update(txCtx, asset); err != nil {
				return err
			}

			event := events.NewAssetDeactivated(code.String())
			if err := uc.eventPublisher.PublishBatch(txCtx, []events.DomainEvent{event}); err != nil {
				return fmt.Errorf("failed to publish events: %w", err)
			}
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
