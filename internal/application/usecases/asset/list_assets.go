package asset

import (
	"context"

	"github.com/coinvault/coinvault/internal/application/dtos"
	"github.com/coinvault/coinvault/internal/application/ports"
)

// ListAssetsUseCase - список всех asset types, включая неактивные.
type ListAssetsUseCase struct {
	assetRepo ports.AssetTypeRepository
}

// NewListAssetsUseCase создаёт use case.
func NewListAssetsUseCase(assetRepo ports.AssetTypeRepository) *ListAssetsUseCase {
	return &ListAssetsUseCase{assetRepo: assetRepo}
}

// Execute возвращает все asset types.
func (uc *ListAssetsUseCase) Execute(ctx context.Context) (*dtos.AssetListDTO, error) {
	assets, err := uc.assetRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &dtos.AssetListDTO{
		Assets: make([]dtos.AssetTypeDTO, 0, len(assets)),
	}
	for _, a := range assets {
		result.Assets = append(result.Assets, dtos.MapAssetTypeToDTO(a))
	}
	result.Count = len(result.Assets)
	return result, nil
}
