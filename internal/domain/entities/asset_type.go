// Package entities - AssetType describes one virtual currency managed by the service.
package entities

import (
	"time"

	"github.com/coinvault/coinvault/internal/domain/errors"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// AssetType is the registry entry for a virtual currency.
// Transfers always resolve the asset by code first; inactive assets are
// treated exactly like missing ones.
type AssetType struct {
	id          int64
	code        valueobjects.AssetCode
	name        string
	description string
	isActive    bool
	createdAt   time.Time
	updatedAt   time.Time
}

// NewAssetType creates a new active asset type.
func NewAssetType(code valueobjects.AssetCode, name, description string) (*AssetType, error) {
	if code.IsZero() {
		return nil, errors.ValidationError{
			Field:   "code",
			Message: "asset code is required",
		}
	}
	if name == "" {
		return nil, errors.ValidationError{
			Field:   "name",
			Message: "asset name is required",
		}
	}
	if len(name) > 100 {
		return nil, errors.ValidationError{
			Field:   "name",
			Message: "asset name cannot exceed 100 characters",
		}
	}
	if len(description) > 500 {
		return nil, errors.ValidationError{
			Field:   "description",
			Message: "description cannot exceed 500 characters",
		}
	}

	now := time.Now()
	return &AssetType{
		code:        code,
		name:        name,
		description: description,
		isActive:    true,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructAssetType reconstructs an AssetType from stored data.
func ReconstructAssetType(
	id int64,
	code valueobjects.AssetCode,
	name, description string,
	isActive bool,
	createdAt, updatedAt time.Time,
) *AssetType {
	return &AssetType{
		id:          id,
		code:        code,
		name:        name,
		description: description,
		isActive:    isActive,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// Getters

func (a *AssetType) ID() int64 {
	return a.id
}

func (a *AssetType) Code() valueobjects.AssetCode {
	return a.code
}

func (a *AssetType) Name() string {
	return a.name
}

func (a *AssetType) Description() string {
	return a.description
}

func (a *AssetType) IsActive() bool {
	return a.isActive
}

func (a *AssetType) CreatedAt() time.Time {
	return a.createdAt
}

func (a *AssetType) UpdatedAt() time.Time {
	return a.updatedAt
}

// SetID assigns the database-generated identity after insert.
func (a *AssetType) SetID(id int64) {
	a.id = id
}

// Business Methods

// Deactivate takes the asset out of circulation. Existing wallets keep their
// balances but no transfer can resolve the asset anymore.
func (a *AssetType) Deactivate() {
	a.isActive = false
	a.updatedAt = time.Now()
}

// Activate returns the asset to circulation.
func (a *AssetType) Activate() {
	a.isActive = true
	a.updatedAt = time.Now()
}
