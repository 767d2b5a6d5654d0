package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// observe runs op inside a span and records its latency under operation.
// Expected misses such as ErrNotFound are not marked as span errors.
func observe(ctx context.Context, dbMetrics *database.Metrics, spanName, operation string, attrs []attribute.KeyValue, op func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := op(ctx)
	queryErr := err
	if isRejection(err) {
		queryErr = nil
	}
	dbMetrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), queryErr)

	finishSpan(span, err)
	return err
}

func isRejection(err error) bool {
	return errors.Is(err, ports.ErrNotFound) ||
		errors.Is(err, ports.ErrInsufficientStock) ||
		errors.Is(err, ports.ErrStatusConflict)
}

func finishSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		telemetry.SetSpanSuccess(span)
	case isRejection(err):
		telemetry.AddSpanEvent(span, "rejected", attribute.String("reason", err.Error()))
	default:
		telemetry.RecordSpanError(span, err)
	}
}

type ObservableRepository struct {
	repo         ports.OrderRepository
	metrics      *database.Metrics
	orderMetrics *metrics.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, dbMetrics *database.Metrics, orderMetrics *metrics.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:         repo,
		metrics:      dbMetrics,
		orderMetrics: orderMetrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) error {
	return observe(ctx, r.metrics, "OrderRepository.Create", "create_order",
		[]attribute.KeyValue{
			attribute.String("order.id", order.ID),
			attribute.String("order.short_id", order.ShortID),
			attribute.Int("order.items", len(order.Items)),
		},
		func(ctx context.Context) error { return r.repo.Create(ctx, order) },
	)
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var order *domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.GetByID", "get_order_by_id",
		[]attribute.KeyValue{attribute.String("order.id", id)},
		func(ctx context.Context) (err error) {
			order, err = r.repo.GetByID(ctx, id)
			return err
		},
	)
	return order, err
}

func (r *ObservableRepository) GetByShortID(ctx context.Context, shortID string) (*domain.Order, error) {
	var order *domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.GetByShortID", "get_order_by_short_id",
		[]attribute.KeyValue{attribute.String("order.short_id", shortID)},
		func(ctx context.Context) (err error) {
			order, err = r.repo.GetByShortID(ctx, shortID)
			return err
		},
	)
	return order, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.UserID != nil {
		attrs = append(attrs, attribute.Bool("filter.owner", true))
	}

	var orders []domain.Order
	err := observe(ctx, r.metrics, "OrderRepository.List", "list_orders", attrs,
		func(ctx context.Context) (err error) {
			orders, err = r.repo.List(ctx, filter)
			return err
		},
	)
	return orders, err
}

// SaveStatus also counts the transition once it has been persisted.
func (r *ObservableRepository) SaveStatus(ctx context.Context, order domain.Order, expected domain.OrderStatus) error {
	err := observe(ctx, r.metrics, "OrderRepository.SaveStatus", "save_order_status",
		[]attribute.KeyValue{
			attribute.String("order.id", order.ID),
			attribute.String("order.expected_status", string(expected)),
			attribute.String("order.new_status", string(order.Status)),
		},
		func(ctx context.Context) error { return r.repo.SaveStatus(ctx, order, expected) },
	)
	if err == nil {
		r.orderMetrics.RecordStatusTransition(ctx, string(expected), string(order.Status))
	}
	return err
}

type ObservableProductRepository struct {
	repo         ports.ProductRepository
	metrics      *database.Metrics
	orderMetrics *metrics.Metrics
}

func NewObservableProductRepository(repo ports.ProductRepository, dbMetrics *database.Metrics, orderMetrics *metrics.Metrics) *ObservableProductRepository {
	return &ObservableProductRepository{
		repo:         repo,
		metrics:      dbMetrics,
		orderMetrics: orderMetrics,
	}
}

func (r *ObservableProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product *domain.Product
	err := observe(ctx, r.metrics, "ProductRepository.FindByID", "get_product_by_id",
		[]attribute.KeyValue{attribute.String("product.id", id)},
		func(ctx context.Context) (err error) {
			product, err = r.repo.FindByID(ctx, id)
			return err
		},
	)
	return product, err
}

func (r *ObservableProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	var products []domain.Product
	err := observe(ctx, r.metrics, "ProductRepository.FindByIDs", "find_products",
		[]attribute.KeyValue{attribute.Int("product.count", len(ids))},
		func(ctx context.Context) (err error) {
			products, err = r.repo.FindByIDs(ctx, ids)
			return err
		},
	)
	return products, err
}

func (r *ObservableProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var quantity int
	err := observe(ctx, r.metrics, "ProductRepository.AdjustStock", "adjust_stock",
		[]attribute.KeyValue{
			attribute.String("product.id", id),
			attribute.Int("stock.delta", delta),
		},
		func(ctx context.Context) (err error) {
			quantity, err = r.repo.AdjustStock(ctx, id, delta)
			return err
		},
	)
	r.orderMetrics.RecordStockAdjustment(ctx, delta, stockResult(err))
	return quantity, err
}

func stockResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ports.ErrInsufficientStock):
		return "insufficient"
	case errors.Is(err, ports.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

type ObservableUserRepository struct {
	repo    ports.UserRepository
	metrics *database.Metrics
}

func NewObservableUserRepository(repo ports.UserRepository, dbMetrics *database.Metrics) *ObservableUserRepository {
	return &ObservableUserRepository{repo: repo, metrics: dbMetrics}
}

func (r *ObservableUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user *domain.User
	err := observe(ctx, r.metrics, "UserRepository.FindByPhone", "find_user_by_phone", nil,
		func(ctx context.Context) (err error) {
			user, err = r.repo.FindByPhone(ctx, phone)
			return err
		},
	)
	return user, err
}
