// Package postgres - IdempotencyRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
	domainErrors "github.com/coinvault/coinvault/internal/domain/errors"
)

// Compile-time check
var _ ports.IdempotencyRepository = (*IdempotencyRepository)(nil)

const idempotencyColumns = `id, idempotency_key, request_path, request_method,
	response_status, response_body, created_at, expires_at`

// IdempotencyRepository реализует ports.IdempotencyRepository.
//
// Запись создаётся в той же транзакции, что и перевод. Unique constraint
// на idempotency_key - арбитр при гонке двух запросов с одним ключом.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository создаёт новый IdempotencyRepository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *IdempotencyRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Find возвращает запись по ключу.
// Просроченные записи отфильтровываются прямо в запросе: для клиента
// истёкший ключ неотличим от нового.
func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + idempotencyColumns + `
		FROM idempotency_logs
		WHERE idempotency_key = $1 AND expires_at > NOW()
	`

	record, err := r.scanRecord(q.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, domainErrors.ErrEntityNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

// Save вставляет запись.
// Unique violation означает, что конкурентный запрос с тем же ключом
// закоммитился первым: возвращаем DUPLICATE_IDEMPOTENCY_RACE, вызывающий
// код откатывается и перечитывает запись победителя.
func (r *IdempotencyRepository) Save(ctx context.Context, record *entities.IdempotencyRecord) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO idempotency_logs (
			idempotency_key, request_path, request_method,
			response_status, response_body, created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		record.IdempotencyKey(),
		record.RequestPath(),
		record.RequestMethod(),
		record.ResponseStatus(),
		record.ResponseBody(),
		record.CreatedAt(),
		record.ExpiresAt(),
	).Scan(&id)

	if err != nil {
		if isUniqueViolation(err, "idempotency_key") {
			return domainErrors.NewDuplicateIdempotencyRace(record.IdempotencyKey())
		}
		return fmt.Errorf("failed to save idempotency record: %w", err)
	}

	return nil
}

// DeleteExpired удаляет просроченные записи.
// Вызывается фоновым sweeper'ом, idx_idempotency_expires делает удаление дешёвым.
func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	q := r.getQuerier(ctx)

	tag, err := q.Exec(ctx, `DELETE FROM idempotency_logs WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired idempotency records: %w", err)
	}

	return tag.RowsAffected(), nil
}

// scanRecord сканирует одну строку в IdempotencyRecord.
func (r *IdempotencyRepository) scanRecord(row pgx.Row) (*entities.IdempotencyRecord, error) {
	var (
		id                          int64
		key, path, method, body     string
		status                      int
		createdAt, expiresAt        time.Time
	)

	err := row.Scan(&id, &key, &path, &method, &status, &body, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to scan idempotency record: %w", err)
	}

	return entities.ReconstructIdempotencyRecord(id, key, path, method, status, body, createdAt, expiresAt), nil
}
