// Package cache - Redis-backed read-through cache для idempotency records.
//
// PostgreSQL остаётся source of truth: запись создаётся в той же транзакции,
// что и перевод. Redis лишь ускоряет fast-path проверку повторных запросов,
// поэтому все операции с Redis best-effort - ошибка кэша не ломает запрос.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coinvault/coinvault/internal/application/ports"
	"github.com/coinvault/coinvault/internal/domain/entities"
)

const keyPrefix = "coinvault:idem:"

// cachedRecord - форма записи в Redis.
type cachedRecord struct {
	IdempotencyKey string    `json:"idempotency_key"`
	RequestPath    string    `json:"request_path"`
	RequestMethod  string    `json:"request_method"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   string    `json:"response_body"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// IdempotencyCache - read-through кэш поверх ports.IdempotencyRepository.
//
// Lookup: Redis -> PostgreSQL (с обратным заполнением кэша).
// TTL ключа в Redis привязан к expires_at записи, чтобы кэш не пережил строку.
type IdempotencyCache struct {
	client *redis.Client
	repo   ports.IdempotencyRepository
	logger *slog.Logger
}

// NewIdempotencyCache создаёт кэш. client может быть nil - тогда все
// lookup'ы идут напрямую в PostgreSQL (удобно для тестов и dev-окружения).
func NewIdempotencyCache(client *redis.Client, repo ports.IdempotencyRepository, logger *slog.Logger) *IdempotencyCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCache{
		client: client,
		repo:   repo,
		logger: logger,
	}
}

// Find возвращает запись по ключу или nil.
func (c *IdempotencyCache) Find(ctx context.Context, key string) (*entities.IdempotencyRecord, error) {
	if c.client != nil {
		if record := c.findCached(ctx, key); record != nil {
			return record, nil
		}
	}

	record, err := c.repo.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	c.Store(ctx, record)
	return record, nil
}

// Store кладёт запись в Redis. Ошибки только логируются:
// кэш не участвует в гарантии идемпотентности.
func (c *IdempotencyCache) Store(ctx context.Context, record *entities.IdempotencyRecord) {
	if c.client == nil {
		return
	}

	ttl := record.TTLRemaining(time.Now())
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(cachedRecord{
		IdempotencyKey: record.IdempotencyKey(),
		RequestPath:    record.RequestPath(),
		RequestMethod:  record.RequestMethod(),
		ResponseStatus: record.ResponseStatus(),
		ResponseBody:   record.ResponseBody(),
		CreatedAt:      record.CreatedAt(),
		ExpiresAt:      record.ExpiresAt(),
	})
	if err != nil {
		c.logger.Warn("failed to serialize idempotency record for cache",
			slog.String("key", record.IdempotencyKey()),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+record.IdempotencyKey(), payload, ttl).Err(); err != nil {
		c.logger.Warn("failed to cache idempotency record",
			slog.String("key", record.IdempotencyKey()),
			slog.String("error", err.Error()),
		)
	}
}

// findCached читает запись из Redis; любой сбой трактуется как cache miss.
func (c *IdempotencyCache) findCached(ctx context.Context, key string) *entities.IdempotencyRecord {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("idempotency cache lookup failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var cached cachedRecord
	if err := json.Unmarshal(payload, &cached); err != nil {
		c.logger.Warn("corrupt idempotency cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	record := entities.ReconstructIdempotencyRecord(
		0,
		cached.IdempotencyKey,
		cached.RequestPath,
		cached.RequestMethod,
		cached.ResponseStatus,
		cached.ResponseBody,
		cached.CreatedAt,
		cached.ExpiresAt,
	)
	if record.IsExpired(time.Now()) {
		return nil
	}

	return record
}
