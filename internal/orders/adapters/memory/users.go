package memory

import (
	"context"
	"sync"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// UserRepository indexes registered users by normalized phone number.
type UserRepository struct {
	mu      sync.RWMutex
	byPhone map[string]domain.User
}

func NewUserRepository(users ...domain.User) *UserRepository {
	r := &UserRepository{byPhone: make(map[string]domain.User, len(users))}
	for _, u := range users {
		r.byPhone[u.Phone] = u
	}
	return r
}

func (r *UserRepository) Put(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPhone[user.Phone] = user
}

func (r *UserRepository) Save(_ context.Context, user domain.User) error {
	r.Put(user)
	return nil
}

func (r *UserRepository) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byPhone[phone]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &user, nil
}
