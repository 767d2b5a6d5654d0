package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/orders/ports"
)

type entry struct {
	response  ports.StoredResponse
	expiresAt time.Time
}

// Store retains idempotency responses for replaying duplicate requests.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates an in-memory idempotency store. A zero ttl keeps keys forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{items: make(map[string]entry), ttl: ttl, now: time.Now}
}

// Get returns the stored response for a key, or nil once it is unknown or expired.
func (s *Store) Get(_ context.Context, key string) (*ports.StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok || s.expired(value) {
		return nil, nil
	}
	response := value.response
	return &response, nil
}

// Save keeps the first response stored under a key until it expires.
func (s *Store) Save(_ context.Context, key string, response ports.StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[key]; ok && !s.expired(existing) {
		return nil
	}

	e := entry{response: response}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.items[key] = e
	return nil
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
