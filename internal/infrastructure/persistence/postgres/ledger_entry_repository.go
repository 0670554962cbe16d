// Package postgres - LedgerEntryRepository implementation.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
)

// Compile-time check
var _ ports.LedgerEntryRepository = (*LedgerEntryRepository)(nil)

const ledgerColumns = `id, transaction_id, wallet_id, entry_type, amount, balance_after, created_at`

// LedgerEntryRepository реализует ports.LedgerEntryRepository.
// Entries иммутабельны: только INSERT и чтение, никаких UPDATE.
type LedgerEntryRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerEntryRepository создаёт новый LedgerEntryRepository.
func NewLedgerEntryRepository(pool *pgxpool.Pool) *LedgerEntryRepository {
	return &LedgerEntryRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *LedgerEntryRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// SaveBatch вставляет все entries одного перевода.
// Вызывается внутри UnitOfWork вместе с заголовком транзакции.
func (r *LedgerEntryRepository) SaveBatch(ctx context.Context, entries []*entities.LedgerEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO ledger_entries (transaction_id, wallet_id, entry_type, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, entry := range entries {
		_, err := q.Exec(ctx, query,
			entry.TransactionID(),
			entry.WalletID(),
			string(entry.EntryType()),
			entry.Amount(),
			entry.BalanceAfter(),
			entry.CreatedAt(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	return nil
}

// ListByTransaction возвращает entries одной транзакции.
func (r *LedgerEntryRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE transaction_id = $1 ORDER BY id`

	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ListByWallet возвращает entries кошелька, свежие первыми.
func (r *LedgerEntryRepository) ListByWallet(ctx context.Context, walletID int64, limit, offset int) ([]*entities.LedgerEntry, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet ledger entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// scanEntries сканирует строки в LedgerEntry entities.
func (r *LedgerEntryRepository) scanEntries(rows pgx.Rows) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry

	for rows.Next() {
		var (
			id, transactionID, walletID int64
			entryTypeStr                string
			amountStr, balanceAfterStr  string
			createdAt                   time.Time
		)

		if err := rows.Scan(&id, &transactionID, &walletID, &entryTypeStr, &amountStr, &balanceAfterStr, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid entry amount in database: %w", err)
		}

		balanceAfter, err := decimal.NewFromString(balanceAfterStr)
		if err != nil {
			return nil, fmt.Errorf("invalid balance_after in database: %w", err)
		}

		entries = append(entries, entities.ReconstructLedgerEntry(
			id, transactionID, walletID,
			entities.EntryType(entryTypeStr),
			amount, balanceAfter, createdAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	return entries, nil
}
