// Package postgres - WalletRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	domainErrors "github.com/coinvault/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

const walletColumns = `id, user_id, asset_type_id, balance, is_system, version, created_at, updated_at`

// WalletRepository реализует ports.WalletRepository.
//
// Ключевые особенности:
// - Balance хранится как NUMERIC(20,2), сканируется в decimal без float
// - GetOrCreate использует FOR UPDATE + unique constraint для ленивого создания
// - LockByIDs блокирует строки строго по возрастанию id
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет кошелёк.
// Новые кошельки (id == 0) вставляются, существующие обновляются.
// Row locks (FOR UPDATE) - основная защита; условие version < $3
// дополнительно гарантирует монотонность версий и отбрасывает запись
// по устаревшему состоянию.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	if wallet.ID() == 0 {
		query := `
			INSERT INTO wallets (user_id, asset_type_id, balance, is_system, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		var id int64
		err := q.QueryRow(ctx, query,
			wallet.UserID(),
			wallet.AssetTypeID(),
			wallet.Balance(),
			wallet.IsSystem(),
			wallet.Version(),
			wallet.CreatedAt(),
			wallet.UpdatedAt(),
		).Scan(&id)

		if err != nil {
			if isUniqueViolation(err, "uq_user_asset") {
				return domainErrors.ErrEntityAlreadyExists
			}
			if isForeignKeyViolation(err) {
				return domainErrors.NewDomainError(domainErrors.CodeAssetNotFound, "asset type does not exist", err)
			}
			return fmt.Errorf("failed to insert wallet: %w", err)
		}

		wallet.SetID(id)
		return nil
	}

	query := `
		UPDATE wallets
		SET balance = $2, version = $3, updated_at = $4
		WHERE id = $1 AND version < $3
	`

	tag, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.Balance(),
		wallet.Version(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domainErrors.NewConcurrencyError(
			"Wallet",
			fmt.Sprintf("%d", wallet.ID()),
			"wallet was modified by another transaction",
		)
	}

	return nil
}

// FindByID загружает кошелёк по ID.
func (r *WalletRepository) FindByID(ctx context.Context, id int64) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// FindByUserAndAsset находит кошелёк пользователя для конкретного asset.
func (r *WalletRepository) FindByUserAndAsset(ctx context.Context, userID string, assetTypeID int64) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 AND asset_type_id = $2`

	wallet, err := r.scanWallet(q.QueryRow(ctx, query, userID, assetTypeID))
	if err != nil {
		if errors.Is(err, domainErrors.ErrEntityNotFound) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, err
	}
	return wallet, nil
}

// GetOrCreate находит кошелёк с блокировкой или лениво создаёт его.
//
// Схема работы:
// 1. SELECT ... FOR UPDATE - если кошелёк есть, возвращаем заблокированным
// 2. INSERT с нулевым балансом (version 0)
// 3. При конкурентном создании (unique violation) повторяем SELECT FOR UPDATE
//
// Должен вызываться внутри UnitOfWork: блокировка живёт до конца транзакции.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID string, assetTypeID int64) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	selectQuery := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE user_id = $1 AND asset_type_id = $2
		FOR UPDATE
	`

	wallet, err := r.scanWallet(q.QueryRow(ctx, selectQuery, userID, assetTypeID))
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domainErrors.ErrEntityNotFound) {
		return nil, err
	}

	fresh, err := entities.NewWallet(userID, assetTypeID)
	if err != nil {
		return nil, err
	}

	insertQuery := `
		INSERT INTO wallets (user_id, asset_type_id, balance, is_system, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	insertErr := q.QueryRow(ctx, insertQuery,
		fresh.UserID(),
		fresh.AssetTypeID(),
		fresh.Balance(),
		fresh.IsSystem(),
		fresh.Version(),
		fresh.CreatedAt(),
		fresh.UpdatedAt(),
	).Scan(&id)

	if insertErr == nil {
		fresh.SetID(id)
		return fresh, nil
	}

	if !isUniqueViolation(insertErr, "uq_user_asset") {
		if isForeignKeyViolation(insertErr) {
			return nil, domainErrors.NewDomainError(domainErrors.CodeAssetNotFound, "asset type does not exist", insertErr)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", insertErr)
	}

	// Конкурент успел первым - читаем его строку с блокировкой.
	return r.scanWallet(q.QueryRow(ctx, selectQuery, userID, assetTypeID))
}

// LockByIDs блокирует кошельки FOR UPDATE в порядке возрастания id.
// ORDER BY id гарантирует единый порядок захвата блокировок независимо
// от направления перевода - это исключает deadlock между конкурентными
// переводами с пересекающимися кошельками.
func (r *WalletRepository) LockByIDs(ctx context.Context, ids []int64) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallets: %w", err)
	}
	defer rows.Close()

	return r.scanWallets(rows)
}

// ListByUser возвращает все кошельки пользователя.
func (r *WalletRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 ORDER BY id`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	return r.scanWallets(rows)
}

// scanWallet сканирует одну строку в Wallet entity.
func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, assetTypeID, version int64
		userID, balanceStr       string
		isSystem                 bool
		createdAt, updatedAt     time.Time
	)

	err := row.Scan(&id, &userID, &assetTypeID, &balanceStr, &isSystem, &version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("invalid balance in database: %w", err)
	}

	return entities.ReconstructWallet(id, userID, assetTypeID, balance, isSystem, version, createdAt, updatedAt), nil
}

// scanWallets сканирует несколько строк.
func (r *WalletRepository) scanWallets(rows pgx.Rows) ([]*entities.Wallet, error) {
	var wallets []*entities.Wallet

	for rows.Next() {
		var (
			id, assetTypeID, version int64
			userID, balanceStr       string
			isSystem                 bool
			createdAt, updatedAt     time.Time
		)

		if err := rows.Scan(&id, &userID, &assetTypeID, &balanceStr, &isSystem, &version, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet row: %w", err)
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("invalid balance in database: %w", err)
		}

		wallets = append(wallets, entities.ReconstructWallet(id, userID, assetTypeID, balance, isSystem, version, createdAt, updatedAt))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	return wallets, nil
}
