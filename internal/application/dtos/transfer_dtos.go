// Package dtos - команды и ответы transfer engine.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// TransferCommand - обобщённая команда перевода.
// Конкретные операции (topup/bonus/spend) собирают её из своих запросов.
type TransferCommand struct {
	Flow           string            // topup | bonus | spend
	UserID         string            `json:"user_id" validate:"required,max=100"`
	AssetCode      string            `json:"asset_code" validate:"required,max=50"`
	Amount         string            `json:"amount" validate:"required"` // Decimal string: "100.50"
	Description    string            `json:"description,omitempty" validate:"max=500"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key" validate:"required,max=255"`
	RequestPath    string            // для idempotency log
	RequestMethod  string
}

// TopupCommand - пополнение кошелька за реальные деньги.
type TopupCommand struct {
	UserID           string `json:"user_id" validate:"required,max=100"`
	AssetCode        string `json:"asset_code" validate:"required,max=50"`
	Amount           string `json:"amount" validate:"required"`
	PaymentReference string `json:"payment_reference,omitempty" validate:"max=255"`
	Description      string `json:"description,omitempty" validate:"max=500"`
	IdempotencyKey   string
	RequestPath      string
	RequestMethod    string
}

// BonusCommand - начисление бонусных кредитов.
type BonusCommand struct {
	UserID         string `json:"user_id" validate:"required,max=100"`
	AssetCode      string `json:"asset_code" validate:"required,max=50"`
	Amount         string `json:"amount" validate:"required"`
	Reason         string `json:"reason" validate:"required,max=500"`
	Description    string `json:"description,omitempty" validate:"max=500"`
	IdempotencyKey string
	RequestPath    string
	RequestMethod  string
}

// SpendCommand - списание кредитов за покупку.
type SpendCommand struct {
	UserID         string `json:"user_id" validate:"required,max=100"`
	AssetCode      string `json:"asset_code" validate:"required,max=50"`
	Amount         string `json:"amount" validate:"required"`
	ItemID         string `json:"item_id,omitempty" validate:"max=255"`
	Description    string `json:"description,omitempty" validate:"max=500"`
	IdempotencyKey string
	RequestPath    string
	RequestMethod  string
}

// ============================================
// Response DTOs
// ============================================

// TransactionDTO - представление транзакции для API.
// Этот payload сериализуется в idempotency log и воспроизводится при replay.
type TransactionDTO struct {
	TransactionID   string     `json:"transaction_id"`
	TransactionType string     `json:"transaction_type"`
	Status          string     `json:"status"`
	FromWalletID    int64      `json:"from_wallet_id"`
	ToWalletID      int64      `json:"to_wallet_id"`
	Amount          string     `json:"amount"` // Decimal string: "100.50"
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TransferResult - результат выполнения перевода.
//
// ResponseBody - сериализованный Transaction payload байт-в-байт, как он
// записан в idempotency log. HTTP слой отдаёт именно эти байты, чтобы
// повторный ответ был идентичен первому.
type TransferResult struct {
	Transaction    TransactionDTO
	ResponseBody   string
	ResponseStatus int  // HTTP статус оригинального ответа
	Replayed       bool // true если ответ восстановлен по idempotency key
}
