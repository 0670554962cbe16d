// Package messaging - OutboxRelay перекачивает события из outbox в NATS.
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/coinvault/coinvault/internal/application/ports"
)

// BrokerPublisher - минимальный контракт брокера для relay.
// Реализуется NATSPublisher; в тестах подменяется фейком.
type BrokerPublisher interface {
	Publish(eventType string, payload []byte) error
}

// OutboxRelay периодически выгребает PENDING события из outbox и публикует
// их в брокер. Каждый батч обрабатывается в своей транзакции: FOR UPDATE
// SKIP LOCKED в FindUnpublished позволяет запускать несколько инстансов.
type OutboxRelay struct {
	outbox    ports.OutboxRepository
	uow       ports.UnitOfWork
	publisher BrokerPublisher
	logger    *slog.Logger

	interval  time.Duration
	batchSize int
}

// NewOutboxRelay создаёт relay с настройками по умолчанию.
func NewOutboxRelay(
	outbox ports.OutboxRepository,
	uow ports.UnitOfWork,
	publisher BrokerPublisher,
	logger *slog.Logger,
) *OutboxRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRelay{
		outbox:    outbox,
		uow:       uow,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
}

// Run запускает цикл relay. Блокирует до отмены контекста;
// обычно вызывается в отдельной горутине из main.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started",
		slog.Duration("interval", r.interval),
		slog.Int("batch_size", r.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.Error("outbox relay batch failed", slog.String("error", err.Error()))
			}
		}
	}
}

// drainOnce обрабатывает один батч внутри транзакции.
// Блокировки SKIP LOCKED живут до коммита, поэтому publish и
// MarkPublished выполняются в том же UnitOfWork.
func (r *OutboxRelay) drainOnce(ctx context.Context) error {
	return r.uow.Execute(ctx, func(txCtx context.Context) error {
		pending, err := r.outbox.FindUnpublished(txCtx, r.batchSize)
		if err != nil {
			return err
		}

		for _, event := range pending {
			if err := r.publisher.Publish(event.EventType, event.Payload); err != nil {
				r.logger.Warn("event publish failed, scheduling retry",
					slog.String("event_id", event.EventID),
					slog.String("event_type", event.EventType),
					slog.Int("attempts", event.Attempts),
					slog.String("error", err.Error()),
				)
				if markErr := r.outbox.MarkForRetry(txCtx, event.EventID, err.Error()); markErr != nil {
					return markErr
				}
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, event.EventID); err != nil {
				return err
			}
		}

		return nil
	})
}
