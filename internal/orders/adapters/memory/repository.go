package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Repository provides an in-memory order store useful for local development and tests.
type Repository struct {
	mu       sync.RWMutex
	orders   map[string]domain.Order
	shortIDs map[string]string
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		orders:   make(map[string]domain.Order),
		shortIDs: make(map[string]string),
	}
}

// Create stores a new order instance. Reusing an id or short id fails with ErrDuplicate.
func (r *Repository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return ports.ErrDuplicate
	}
	if _, ok := r.shortIDs[order.ShortID]; ok {
		return ports.ErrDuplicate
	}

	r.orders[order.ID] = clone(order)
	r.shortIDs[order.ShortID] = order.ID
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	found := clone(order)
	return &found, nil
}

func (r *Repository) GetByShortID(ctx context.Context, shortID string) (*domain.Order, error) {
	r.mu.RLock()
	id, ok := r.shortIDs[shortID]
	r.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// List returns orders respecting the provided filter, newest first. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	filter = filter.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.UserID != nil && !order.OwnedBy(*filter.UserID) {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	start := filter.Offset()
	if start < 0 || start >= len(result) {
		return []domain.Order{}, nil
	}
	end := min(start+filter.PageSize, len(result))

	page := make([]domain.Order, 0, end-start)
	for _, order := range result[start:end] {
		page = append(page, clone(order))
	}
	return page, nil
}

// SaveStatus updates status fields when the stored status still equals expected.
func (r *Repository) SaveStatus(_ context.Context, order domain.Order, expected domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if stored.Status != expected {
		return ports.ErrStatusConflict
	}

	stored.Status = order.Status
	stored.PaymentStatus = order.PaymentStatus
	stored.UpdatedAt = order.UpdatedAt
	r.orders[order.ID] = stored
	return nil
}

func clone(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	if order.UserID != nil {
		userID := *order.UserID
		order.UserID = &userID
	}
	return order
}
