// Package ports - EventPublisher для публикации domain events.
//
// Pattern: Publisher/Subscriber + Transactional Outbox
package ports

import (
	"context"

	"github.com/coinvault/coinvault/internal/domain/events"
)

// EventPublisher определяет контракт для публикации domain events.
//
// Production реализация - Transactional Outbox: события пишутся в таблицу
// outbox в той же БД-транзакции, что и перевод, а relay публикует их в NATS.
type EventPublisher interface {
	// Publish публикует одно событие.
	//
	// Behaviour:
	// - At-least-once delivery (могут быть дубликаты)
	// - Consumers должны быть идемпотентными!
	//
	// Example:
	//   event := events.NewTransferCompleted(txID, "topup", userID, code, amount, fromID, toID, completedAt)
	//   err := publisher.Publish(ctx, event)
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch публикует несколько событий за один вызов.
	//
	// Важно: если одно событие не удаётся сохранить, вся batch должна
	// провалиться (атомарность на уровне batch).
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// OutboxRepository - интерфейс для Transactional Outbox Pattern.
//
// Transactional Outbox решает проблему:
// "Как гарантировать, что event опубликуется, если БД-транзакция успешна?"
//
// Решение:
// 1. В той же БД-транзакции сохраняем event в таблицу outbox
// 2. Отдельный relay читает outbox и публикует в NATS
// 3. После успешной публикации помечает event как published
type OutboxRepository interface {
	// Save сохраняет событие в outbox таблицу.
	// Должно выполняться в той же транзакции, что и бизнес-операция!
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished возвращает события, которые ещё не опубликованы.
	// Используется relay'ем; строки захватываются FOR UPDATE SKIP LOCKED.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID string) error

	// MarkForRetry увеличивает счётчик попыток и сохраняет причину ошибки.
	MarkForRetry(ctx context.Context, eventID string, reason string) error

	// MarkFailed помечает событие как failed после N неудачных попыток.
	MarkFailed(ctx context.Context, eventID string, reason string) error

	// CleanupPublished удаляет опубликованные события старше retention.
	CleanupPublished(ctx context.Context) (int64, error)
}

// OutboxEvent - строка outbox в том виде, в котором её публикует relay.
// Payload уже сериализован; relay не знает о конкретных типах событий.
type OutboxEvent struct {
	EventID     string
	EventType   string
	AggregateID string
	Payload     []byte
	Attempts    int
}
