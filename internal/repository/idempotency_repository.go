package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idempotency:"

// IdempotencyState is the lifecycle of a reserved key.
type IdempotencyState string

const (
	IdempotencyPending   IdempotencyState = "pending"
	IdempotencyCompleted IdempotencyState = "completed"
)

// IdempotencyRecord is what is stored under a key.
type IdempotencyRecord struct {
	State  IdempotencyState `json:"state"`
	Result json.RawMessage  `json:"result,omitempty"`
}

// IdempotencyRepository reserves request keys in Redis. Without a client every
// reservation succeeds and nothing is replayed.
type IdempotencyRepository struct {
	client *redis.Client
}

// NewIdempotencyRepository constructs the repository.
func NewIdempotencyRepository(client *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{client: client}
}

// Reserve claims key for ttl. It returns false when the key is already held.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	payload, err := json.Marshal(IdempotencyRecord{State: IdempotencyPending})
	if err != nil {
		return false, fmt.Errorf("marshal idempotency record: %w", err)
	}
	ok, err := r.client.SetNX(ctx, idempotencyPrefix+key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Load returns the record stored under key, or nil when there is none.
func (r *IdempotencyRepository) Load(ctx context.Context, key string) (*IdempotencyRecord, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var record IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal idempotency record %s: %w", key, err)
	}
	return &record, nil
}

// Complete stores the final result under key for ttl.
func (r *IdempotencyRepository) Complete(ctx context.Context, key string, result interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal idempotency result: %w", err)
	}
	payload, err := json.Marshal(IdempotencyRecord{State: IdempotencyCompleted, Result: raw})
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := r.client.Set(ctx, idempotencyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Release drops a reservation so the request can be retried.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
