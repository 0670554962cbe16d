// Package postgres - TransactionRepository implementation with idempotency support.
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
	"github.com/coinvault/coinvault/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = `id, transaction_id, idempotency_key, transaction_type, status,
	asset_type_id, from_wallet_id, to_wallet_id, amount, description, meta_data, created_at, completed_at`

// TransactionRepository реализует ports.TransactionRepository.
//
// Ключевые особенности:
// - Публичный transaction_id (uuid4) уникален отдельно от surrogate id
// - Unique idempotency_key на уровне БД
// - Amount хранится как NUMERIC(20,2)
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт новый TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save вставляет заголовок транзакции.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transactions (
			transaction_id, idempotency_key, transaction_type, status,
			asset_type_id, from_wallet_id, to_wallet_id, amount, description,
			meta_data, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		tx.TransactionID(),
		tx.IdempotencyKey(),
		string(tx.Type()),
		string(tx.Status()),
		tx.AssetTypeID(),
		tx.FromWalletID(),
		tx.ToWalletID(),
		tx.Amount().Decimal(),
		tx.Description(),
		tx.Metadata(),
		tx.CreatedAt(),
		tx.CompletedAt(),
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err, "idempotency_key") {
			return domainErrors.NewDuplicateIdempotencyRace(tx.IdempotencyKey())
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError(domainErrors.CodeWalletNotFound, "wallet not found", err)
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	tx.SetID(id)
	return nil
}

// Update сохраняет смену статуса (PENDING -> COMPLETED).
func (r *TransactionRepository) Update(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE transactions
		SET status = $2, completed_at = $3
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, tx.ID(), string(tx.Status()), tx.CompletedAt())
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEntityNotFound
	}

	return nil
}

// FindByTransactionID находит транзакцию по публичному uuid4.
func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1`

	return r.scanTransaction(q.QueryRow(ctx, query, transactionID))
}

// FindByIdempotencyKey находит транзакцию по ключу идемпотентности.
// Отсутствие записи - ожидаемый случай: возвращается (nil, nil).
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE idempotency_key = $1`

	tx, err := r.scanTransaction(q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, domainErrors.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return tx, nil
}

// ListByWalletIDs возвращает транзакции, затрагивающие любой из кошельков,
// свежие первыми.
func (r *TransactionRepository) ListByWalletIDs(ctx context.Context, walletIDs []int64, limit, offset int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_wallet_id = ANY($1) OR to_wallet_id = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, walletIDs, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// scanTransaction сканирует одну строку в Transaction entity.
func (r *TransactionRepository) scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, assetTypeID, fromWalletID, toWalletID int64
		transactionID, idempotencyKey             string
		txTypeStr, statusStr, amountStr           string
		description, metadata                     *string
		createdAt                                 time.Time
		completedAt                               *time.Time
	)

	err := row.Scan(
		&id,
		&transactionID,
		&idempotencyKey,
		&txTypeStr,
		&statusStr,
		&assetTypeID,
		&fromWalletID,
		&toWalletID,
		&amountStr,
		&description,
		&metadata,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	return r.reconstruct(id, transactionID, idempotencyKey, txTypeStr, statusStr,
		assetTypeID, fromWalletID, toWalletID, amountStr, description, metadata, createdAt, completedAt)
}

// scanTransactions сканирует несколько строк.
func (r *TransactionRepository) scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var transactions []*entities.Transaction

	for rows.Next() {
		var (
			id, assetTypeID, fromWalletID, toWalletID int64
			transactionID, idempotencyKey             string
			txTypeStr, statusStr, amountStr           string
			description, metadata                     *string
			createdAt                                 time.Time
			completedAt                               *time.Time
		)

		err := rows.Scan(
			&id,
			&transactionID,
			&idempotencyKey,
			&txTypeStr,
			&statusStr,
			&assetTypeID,
			&fromWalletID,
			&toWalletID,
			&amountStr,
			&description,
			&metadata,
			&createdAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		tx, err := r.reconstruct(id, transactionID, idempotencyKey, txTypeStr, statusStr,
			assetTypeID, fromWalletID, toWalletID, amountStr, description, metadata, createdAt, completedAt)
		if err != nil {
			return nil, err
		}

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// reconstruct собирает Transaction entity из отсканированных значений.
func (r *TransactionRepository) reconstruct(
	id int64,
	transactionID, idempotencyKey, txTypeStr, statusStr string,
	assetTypeID, fromWalletID, toWalletID int64,
	amountStr string,
	description, metadata *string,
	createdAt time.Time,
	completedAt *time.Time,
) (*entities.Transaction, error) {
	amountDec, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in database: %w", err)
	}

	amount, err := valueobjects.NewAmount(amountDec)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct amount: %w", err)
	}

	desc := ""
	if description != nil {
		desc = *description
	}

	meta := ""
	if metadata != nil {
		meta = *metadata
	}

	return entities.ReconstructTransaction(
		id,
		transactionID,
		idempotencyKey,
		entities.TransactionType(txTypeStr),
		entities.TransactionStatus(statusStr),
		assetTypeID,
		fromWalletID,
		toWalletID,
		amount,
		desc,
		meta,
		createdAt,
		completedAt,
	), nil
}
