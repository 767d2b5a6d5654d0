package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	// SaveStatus persists the order's status, payment status and updated_at, but only
	// while the stored status still equals expected. It returns ErrStatusConflict otherwise.
	SaveStatus(ctx context.Context, order domain.Order, expected domain.OrderStatus) error
}

// ProductRepository exposes inventory lookups and the single stock mutation primitive.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// FindByIDs returns the products found; missing ids are simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	// AdjustStock atomically adds delta to the product quantity and returns the new quantity.
	// It fails with ErrInsufficientStock, leaving stock untouched, when the result would be negative.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}

// UserRepository resolves registered users for order attribution.
type UserRepository interface {
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// ListFilter narrows list queries by status, owner and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	UserID   *string
	Page     int
	PageSize int
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

// Normalize fills in paging defaults and clamps the page and page size so Offset cannot overflow.
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f
}

// Offset is the number of records skipped before the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is returned when a stock adjustment would make the quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStatusConflict is returned when an order's stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")
	// ErrDuplicate is returned when a unique key such as the short id already exists.
	ErrDuplicate = errors.New("duplicate key")
)
