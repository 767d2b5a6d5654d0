//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/database/dbtest"
	"github.com/dejobratic/storefront/internal/idempotency/postgres"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/google/uuid"
)

func TestStoreSaveAndGet(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool, time.Hour)
	ctx := context.Background()

	key := "test-idempotency-key-1"
	orderID := uuid.NewString()
	response := ports.StoredResponse{
		StatusCode: 201,
		Body:       []byte(`{"message":"order created"}`),
		OrderID:    orderID,
	}

	if err := store.Save(ctx, key, response); err != nil {
		t.Fatalf("failed to save idempotency key: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get idempotency key: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected response, got nil")
	}
	if retrieved.StatusCode != response.StatusCode {
		t.Errorf("expected status code %d, got %d", response.StatusCode, retrieved.StatusCode)
	}
	if string(retrieved.Body) != string(response.Body) {
		t.Errorf("expected body %s, got %s", response.Body, retrieved.Body)
	}
	if retrieved.OrderID != orderID {
		t.Errorf("expected order ID %s, got %s", orderID, retrieved.OrderID)
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool, 0)

	retrieved, err := store.Get(context.Background(), "nonexistent-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if retrieved != nil {
		t.Errorf("expected nil response, got %v", retrieved)
	}
}

func TestStoreSave_Conflict(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool, 0)
	ctx := context.Background()

	key := "test-idempotency-key-conflict"
	first := ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: uuid.NewString()}
	second := ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: uuid.NewString()}

	if err := store.Save(ctx, key, first); err != nil {
		t.Fatalf("failed to save first response: %v", err)
	}
	if err := store.Save(ctx, key, second); err != nil {
		t.Fatalf("failed to save second response (conflict): %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved.OrderID != first.OrderID {
		t.Errorf("expected first response to be preserved, got order ID %s", retrieved.OrderID)
	}
}

func TestStoreExpiry(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool, time.Millisecond)
	ctx := context.Background()

	if err := store.Save(ctx, "short-lived", ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`), OrderID: uuid.NewString()}); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	retrieved, err := store.Get(ctx, "short-lived")
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if retrieved != nil {
		t.Errorf("expected expired key to be ignored, got %+v", retrieved)
	}

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("failed to purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged key, got %d", purged)
	}
}
