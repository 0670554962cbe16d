package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// CreateAssetCommand - регистрация нового asset type.
// Вместе с asset создаются три системных кошелька (treasury, bonus pool, revenue).
type CreateAssetCommand struct {
	Code        string `json:"code" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// DeactivateAssetCommand - вывод asset type из обращения.
type DeactivateAssetCommand struct {
	Code string `json:"code" validate:"required,max=50"`
}

// ============================================
// Response DTOs
// ============================================

// AssetTypeDTO - представление asset type для API.
type AssetTypeDTO struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetListDTO - список всех asset types.
type AssetListDTO struct {
	Assets []AssetTypeDTO `json:"assets"`
	Count  int            `json:"count"`
}
