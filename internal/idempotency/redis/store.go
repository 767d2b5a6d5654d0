package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "idempotency:"

// Store keeps idempotency responses in Redis, relying on key expiry for the ttl.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a Redis-backed idempotency store. A zero ttl keeps keys forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}

	var resp ports.StoredResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}
	return &resp, nil
}

// Save stores the response only if the key is not already taken.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	raw, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode idempotency key: %w", err)
	}
	if err := s.client.SetNX(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}
