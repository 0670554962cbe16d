// Package entities - IdempotencyRecord stores the replay payload for one
// processed mutation request.
package entities

import (
	"time"

	"github.com/coinvault/coinvault/internal/domain/errors"
)

// IdempotencyTTL is how long a recorded response stays replayable.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord captures the response of a completed mutation so that
// retries with the same Idempotency-Key return the original result instead
// of executing a second transfer.
//
// Records are written inside the same DB transaction as the transfer itself:
// either both commit or neither does.
type IdempotencyRecord struct {
	id             int64
	idempotencyKey string
	requestPath    string
	requestMethod  string
	responseStatus int
	responseBody   string // serialized transaction payload
	createdAt      time.Time
	expiresAt      time.Time
}

// NewIdempotencyRecord creates a record expiring IdempotencyTTL from now.
func NewIdempotencyRecord(key, requestPath, requestMethod string, responseStatus int, responseBody string) (*IdempotencyRecord, error) {
	if key == "" {
		return nil, errors.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency key is required",
		}
	}
	if len(key) > 255 {
		return nil, errors.ValidationError{
			Field:   "idempotency_key",
			Message: "idempotency key cannot exceed 255 characters",
		}
	}
	if len(responseBody) > 5000 {
		return nil, errors.ValidationError{
			Field:   "response_body",
			Message: "response body cannot exceed 5000 characters",
		}
	}

	now := time.Now()
	return &IdempotencyRecord{
		idempotencyKey: key,
		requestPath:    requestPath,
		requestMethod:  requestMethod,
		responseStatus: responseStatus,
		responseBody:   responseBody,
		createdAt:      now,
		expiresAt:      now.Add(IdempotencyTTL),
	}, nil
}

// ReconstructIdempotencyRecord reconstructs a record from stored data.
func ReconstructIdempotencyRecord(
	id int64,
	idempotencyKey, requestPath, requestMethod string,
	responseStatus int,
	responseBody string,
	createdAt, expiresAt time.Time,
) *IdempotencyRecord {
	return &IdempotencyRecord{
		id:             id,
		idempotencyKey: idempotencyKey,
		requestPath:    requestPath,
		requestMethod:  requestMethod,
		responseStatus: responseStatus,
		responseBody:   responseBody,
		createdAt:      createdAt,
		expiresAt:      expiresAt,
	}
}

// Getters

func (r *IdempotencyRecord) ID() int64 {
	return r.id
}

func (r *IdempotencyRecord) IdempotencyKey() string {
	return r.idempotencyKey
}

func (r *IdempotencyRecord) RequestPath() string {
	return r.requestPath
}

func (r *IdempotencyRecord) RequestMethod() string {
	return r.requestMethod
}

func (r *IdempotencyRecord) ResponseStatus() int {
	return r.responseStatus
}

func (r *IdempotencyRecord) ResponseBody() string {
	return r.responseBody
}

func (r *IdempotencyRecord) CreatedAt() time.Time {
	return r.createdAt
}

func (r *IdempotencyRecord) ExpiresAt() time.Time {
	return r.expiresAt
}

// IsExpired reports whether the record is past its TTL.
// Expired records are invisible to lookups; the sweeper deletes them later.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return now.After(r.expiresAt)
}

// TTLRemaining returns how long the record is still valid.
// Used to align the Redis cache TTL with the row's expiry.
func (r *IdempotencyRecord) TTLRemaining(now time.Time) time.Duration {
	if r.IsExpired(now) {
		return 0
	}
	return r.expiresAt.Sub(now)
}
