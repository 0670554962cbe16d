package dtos

import "time"

// ============================================
// Queries (Read операции)
// ============================================

// GetBalanceQuery - запрос баланса кошелька.
// Кошелёк лениво создаётся при первом обращении.
type GetBalanceQuery struct {
	UserID    string `json:"user_id" validate:"required,max=100"`
	AssetCode string `json:"asset_code" validate:"required,max=50"`
}

// GetHistoryQuery - запрос истории транзакций пользователя.
type GetHistoryQuery struct {
	UserID    string `json:"user_id" validate:"required,max=100"`
	AssetCode string `json:"asset_code,omitempty"` // пусто = все assets
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
}

// ============================================
// Response DTOs
// ============================================

// WalletBalanceDTO - баланс кошелька для API.
type WalletBalanceDTO struct {
	WalletID  int64     `json:"wallet_id"`
	UserID    string    `json:"user_id"`
	AssetCode string    `json:"asset_code"`
	Balance   string    `json:"balance"` // Decimal string: "1000.00"
	IsSystem  bool      `json:"is_system"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionListDTO - страница истории транзакций.
type TransactionListDTO struct {
	UserID       string           `json:"user_id"`
	Transactions []TransactionDTO `json:"transactions"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
	Count        int              `json:"count"`
}

// TransactionDetailDTO - транзакция вместе с ногами двойной записи.
type TransactionDetailDTO struct {
	Transaction TransactionDTO   `json:"transaction"`
	Entries     []LedgerEntryDTO `json:"entries"`
}

// LedgerEntryDTO - одна нога двойной записи.
type LedgerEntryDTO struct {
	ID           int64     `json:"id"`
	WalletID     int64     `json:"wallet_id"`
	EntryType    string    `json:"entry_type"` // DEBIT | CREDIT
	Amount       string    `json:"amount"`     // подписанная сумма: "-10.00" для DEBIT
	BalanceAfter string    `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
