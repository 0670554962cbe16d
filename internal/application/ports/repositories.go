// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"

	"github.com/coinvault/coinvault/internal/domain/entities"
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// AssetTypeRepository определяет контракт для реестра asset types.
//
// Why interface? (DIP)
// - Application Layer не знает о БД
// - Легко мокировать для тестов
type AssetTypeRepository interface {
	// Save сохраняет новый asset type.
	// Возвращает ErrEntityAlreadyExists при конфликте кода.
	Save(ctx context.Context, asset *entities.AssetType) error

	// Update сохраняет изменения существующего asset type.
	Update(ctx context.Context, asset *entities.AssetType) error

	// FindActiveByCode находит активный asset type по коду.
	// Неактивные и отсутствующие записи дают ASSET_NOT_FOUND.
	FindActiveByCode(ctx context.Context, code valueobjects.AssetCode) (*entities.AssetType, error)

	// FindByCode находит asset type по коду независимо от is_active.
	// Используется админскими операциями.
	FindByCode(ctx context.Context, code valueobjects.AssetCode) (*entities.AssetType, error)

	// FindByID загружает asset type по ID.
	FindByID(ctx context.Context, id int64) (*entities.AssetType, error)

	// List возвращает все asset types (включая неактивные).
	List(ctx context.Context) ([]*entities.AssetType, error)
}

// WalletRepository определяет контракт для хранения кошельков.
type WalletRepository interface {
	// Save сохраняет кошелёк: INSERT для новых (id == 0), UPDATE с проверкой
	// версии для существующих. При несовпадении версии - ConcurrencyError.
	Save(ctx context.Context, wallet *entities.Wallet) error

	// FindByID загружает кошелёк по ID.
	FindByID(ctx context.Context, id int64) (*entities.Wallet, error)

	// FindByUserAndAsset находит кошелёк пользователя для конкретного asset.
	// Возвращает ErrWalletNotFound если кошелька нет.
	FindByUserAndAsset(ctx context.Context, userID string, assetTypeID int64) (*entities.Wallet, error)

	// GetOrCreate находит кошелёк с блокировкой FOR UPDATE или лениво создаёт
	// его с нулевым балансом (version 0). Должен вызываться внутри UnitOfWork.
	// Конкурентное создание разрешается через unique constraint + повторное чтение.
	GetOrCreate(ctx context.Context, userID string, assetTypeID int64) (*entities.Wallet, error)

	// LockByIDs блокирует кошельки SELECT ... FOR UPDATE строго в порядке
	// возрастания id. Единый порядок блокировок исключает deadlock между
	// конкурентными переводами.
	LockByIDs(ctx context.Context, ids []int64) ([]*entities.Wallet, error)

	// ListByUser возвращает все кошельки пользователя.
	ListByUser(ctx context.Context, userID string) ([]*entities.Wallet, error)
}

// TransactionRepository определяет контракт для хранения транзакций.
type TransactionRepository interface {
	// Save вставляет заголовок транзакции (обычно в статусе PENDING).
	Save(ctx context.Context, tx *entities.Transaction) error

	// Update сохраняет смену статуса (PENDING -> COMPLETED).
	Update(ctx context.Context, tx *entities.Transaction) error

	// FindByTransactionID находит транзакцию по публичному uuid4.
	FindByTransactionID(ctx context.Context, transactionID string) (*entities.Transaction, error)

	// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
	FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error)

	// ListByWalletIDs возвращает транзакции, где from или to входит в ids,
	// отсортированные по created_at desc.
	ListByWalletIDs(ctx context.Context, walletIDs []int64, limit, offset int) ([]*entities.Transaction, error)
}

// LedgerEntryRepository определяет контракт для ledger entries.
type LedgerEntryRepository interface {
	// SaveBatch вставляет все entries одного перевода (DEBIT + CREDIT).
	SaveBatch(ctx context.Context, entries []*entities.LedgerEntry) error

	// ListByTransaction возвращает entries одной транзакции.
	ListByTransaction(ctx context.Context, transactionID int64) ([]*entities.LedgerEntry, error)

	// ListByWallet возвращает entries кошелька (created_at desc).
	ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*entities.LedgerEntry, error)
}

// IdempotencyRepository определяет контракт для idempotency records.
type IdempotencyRepository interface {
	// Find возвращает запись по ключу. Просроченные записи (expires_at < now)
	// считаются отсутствующими: возвращается (nil, nil).
	Find(ctx context.Context, key string) (*entities.IdempotencyRecord, error)

	// Save вставляет запись. При конфликте ключа возвращает
	// DUPLICATE_IDEMPOTENCY_RACE - конкурентный запрос успел первым.
	Save(ctx context.Context, record *entities.IdempotencyRecord) error

	// DeleteExpired удаляет просроченные записи. Возвращает число удалённых.
	DeleteExpired(ctx context.Context) (int64, error)
}
