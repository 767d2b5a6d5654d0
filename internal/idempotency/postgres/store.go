package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore returns a Postgres-backed idempotency store. A zero ttl keeps keys forever.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, order_id::text
		FROM idempotency_keys
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.OrderID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Save keeps the first response for a key. An expired row is replaced.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, order_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code, body = EXCLUDED.body, order_id = EXCLUDED.order_id,
		    created_at = NOW(), expires_at = EXCLUDED.expires_at
		WHERE idempotency_keys.expires_at IS NOT NULL AND idempotency_keys.expires_at <= NOW()
	`

	var expiresAt *time.Time
	if s.ttl > 0 {
		t := time.Now().Add(s.ttl)
		expiresAt = &t
	}

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.OrderID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

// PurgeExpired deletes expired keys and reports how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
