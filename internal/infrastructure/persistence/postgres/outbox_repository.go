// Package postgres - OutboxRepository для Transactional Outbox Pattern.
//
// Transactional Outbox Pattern:
// 1. В той же транзакции, что и перевод, сохраняем событие в outbox
// 2. Отдельный relay читает события и публикует в NATS
// 3. После публикации помечает событие как published
//
// Гарантирует, что событие опубликуется тогда и только тогда,
// когда закоммитилась бизнес-операция.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/events"
)

// Compile-time check
var _ ports.OutboxRepository = (*OutboxRepository)(nil)
var _ ports.EventPublisher = (*OutboxRepository)(nil) // OutboxRepository также является EventPublisher

// Retention и лимит попыток для relay.
const (
	outboxMaxAttempts       = 5
	outboxPublishedRetention = 7 * 24 * time.Hour
)

// OutboxRepository реализует ports.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository создаёт новый OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// getQuerier возвращает querier из context или pool.
func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// eventEnvelope - сериализованная форма события в outbox payload.
// BaseEvent держит поля приватными, поэтому envelope дублирует их явно.
type eventEnvelope struct {
	EventID     string      `json:"event_id"`
	EventType   string      `json:"event_type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

// Save сохраняет событие в outbox таблицу.
// Должно выполняться в той же транзакции, что и бизнес-операция!
func (r *OutboxRepository) Save(ctx context.Context, event events.DomainEvent) error {
	q := r.getQuerier(ctx)

	payload, err := json.Marshal(eventEnvelope{
		EventID:     event.EventID().String(),
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Data:        event,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	query := `
		INSERT INTO outbox (
			id, aggregate_type, aggregate_id, event_type,
			payload, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		event.EventID(),
		getAggregateType(event.EventType()),
		event.AggregateID(),
		event.EventType(),
		payload,
		"PENDING",
		event.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}

	return nil
}

// Publish реализует EventPublisher интерфейс.
// В Outbox pattern это alias для Save - сохраняем событие в БД.
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	return r.Save(ctx, event)
}

// PublishBatch реализует EventPublisher интерфейс.
func (r *OutboxRepository) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	if len(eventsList) == 0 {
		return nil
	}

	for _, event := range eventsList {
		if err := r.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}

	return nil
}

// FindUnpublished возвращает события, которые ещё не опубликованы.
// FOR UPDATE SKIP LOCKED позволяет нескольким relay-инстансам работать
// параллельно без двойной публикации в рамках одного батча.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxEvent, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, event_type, aggregate_id, payload, retry_count
		FROM outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer rows.Close()

	var result []ports.OutboxEvent
	for rows.Next() {
		var (
			id          uuid.UUID
			eventType   string
			aggregateID string
			payload     []byte
			attempts    int
		)

		if err := rows.Scan(&id, &eventType, &aggregateID, &payload, &attempts); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		result = append(result, ports.OutboxEvent{
			EventID:     id.String(),
			EventType:   eventType,
			AggregateID: aggregateID,
			Payload:     payload,
			Attempts:    attempts,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return result, nil
}

// MarkPublished помечает событие как опубликованное.
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	q := r.getQuerier(ctx)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET status = 'PUBLISHED', published_at = $2
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := q.Exec(ctx, query, eventUUID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("event not found or already published")
	}

	return nil
}

// MarkForRetry увеличивает счётчик попыток, оставляя событие PENDING.
// После outboxMaxAttempts попыток событие переводится в FAILED.
func (r *OutboxRepository) MarkForRetry(ctx context.Context, eventID string, reason string) error {
	q := r.getQuerier(ctx)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $2,
			status = CASE WHEN retry_count + 1 >= $3 THEN 'FAILED' ELSE 'PENDING' END,
			failed_at = CASE WHEN retry_count + 1 >= $3 THEN NOW() ELSE NULL END
		WHERE id = $1
	`

	_, err = q.Exec(ctx, query, eventUUID, reason, outboxMaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to mark event for retry: %w", err)
	}

	return nil
}

// MarkFailed помечает событие как failed независимо от числа попыток.
func (r *OutboxRepository) MarkFailed(ctx context.Context, eventID string, reason string) error {
	q := r.getQuerier(ctx)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET status = 'FAILED',
			failed_at = $2,
			last_error = $3,
			retry_count = retry_count + 1
		WHERE id = $1
	`

	_, err = q.Exec(ctx, query, eventUUID, time.Now(), reason)
	if err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}

	return nil
}

// CleanupPublished удаляет опубликованные события старше retention.
// Используется для maintenance.
func (r *OutboxRepository) CleanupPublished(ctx context.Context) (int64, error) {
	q := r.getQuerier(ctx)

	cutoff := time.Now().Add(-outboxPublishedRetention)

	query := `
		DELETE FROM outbox
		WHERE status = 'PUBLISHED' AND published_at < $1
	`

	result, err := q.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup published events: %w", err)
	}

	return result.RowsAffected(), nil
}

// getAggregateType определяет тип агрегата из типа события.
func getAggregateType(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "asset"):
		return "AssetType"
	case strings.HasPrefix(eventType, "wallet.transfer"):
		return "Transaction"
	case strings.HasPrefix(eventType, "wallet"):
		return "Wallet"
	default:
		return "Unknown"
	}
}
