package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// ProductRepository keeps inventory in a map guarded by a single mutex,
// which makes each AdjustStock call a check-and-set.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

func NewProductRepository(products ...domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

// Put inserts or replaces a product. It is used to seed local environments and tests.
func (r *ProductRepository) Put(product domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
}

func (r *ProductRepository) Save(_ context.Context, product domain.Product) error {
	r.Put(product)
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			found = append(found, product)
		}
	}
	return found, nil
}

func (r *ProductRepository) AdjustStock(_ context.Context, id string, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return 0, ports.ErrNotFound
	}
	if product.Quantity+delta < 0 {
		return product.Quantity, ports.ErrInsufficientStock
	}

	product.Quantity += delta
	product.UpdatedAt = time.Now().UTC()
	r.products[id] = product
	return product.Quantity, nil
}
