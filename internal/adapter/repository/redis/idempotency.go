package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/bankledger/internal/usecase"
)

const (
	keyPrefix     = "bankledger:idempotency:"
	pendingMarker = "pending"
)

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key with a pending marker. A key that is already taken yields
// its stored response, or nil while the owner has not completed.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *usecase.StoredResponse, error) {
	fullKey := keyPrefix + key

	claimed, err := s.client.SetNX(ctx, fullKey, pendingMarker, ttl).Result()
	if err != nil {
		return false, nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if claimed {
		return true, nil, nil
	}

	raw, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; the caller retries later
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("read idempotency key: %w", err)
	}
	if string(raw) == pendingMarker {
		return false, nil, nil
	}

	var stored usecase.StoredResponse
	if err := json.Unmarshal(raw, &stored); err != nil {
		return false, nil, fmt.Errorf("decode stored response: %w", err)
	}
	return false, &stored, nil
}

// Complete stores the final response under key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, resp usecase.StoredResponse, ttl time.Duration) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode stored response: %w", err)
	}
	return s.client.Set(ctx, keyPrefix+key, payload, ttl).Err()
}

// Release deletes key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}
