package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxShortIDAttempts = 3

type OrderItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderCommand struct {
	Items           []OrderItemInput
	ShippingAddress domain.ShippingAddress
	ShippingMethod  domain.ShippingMethod
	PaymentMethod   domain.PaymentMethod
	Phone           string
	TotalPrice      decimal.Decimal
}

func (c CreateOrderCommand) Name() string { return "CreateOrder" }

func (c CreateOrderCommand) LogAttrs() []any {
	return []any{
		"item_count", len(c.Items),
		"payment_method", c.PaymentMethod,
		"declared_total", c.TotalPrice.String(),
	}
}

// Validate checks the request shape in the order the checkout form is reviewed:
// items, address, payment method, phone and shipping method.
func (c CreateOrderCommand) Validate() error {
	if len(c.Items) == 0 {
		return domain.ValidationError("items is required")
	}
	perProduct := make(map[string]int, len(c.Items))
	for i, item := range c.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return domain.ValidationError("items[%d].product is required", i)
		}
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return domain.ValidationError("items[%d].product %q is not a valid product id", i, item.ProductID)
		}
		if item.Quantity < 1 {
			return domain.ValidationError("items[%d].quantity must be at least 1", i)
		}
		if item.Quantity > domain.MaxItemQuantity {
			return domain.ValidationError("items[%d].quantity must be at most %d", i, domain.MaxItemQuantity)
		}
		// Both terms are bounded, so the running sum cannot overflow.
		perProduct[item.ProductID] += item.Quantity
		if perProduct[item.ProductID] > domain.MaxItemQuantity {
			return domain.ValidationError("items for product %s exceed %d units", item.ProductID, domain.MaxItemQuantity)
		}
	}

	addr := c.ShippingAddress
	for _, field := range []struct{ name, value string }{
		{"full_name", addr.FullName},
		{"address", addr.Address},
		{"city", addr.City},
		{"district", addr.District},
		{"ward", addr.Ward},
		{"postal_code", addr.PostalCode},
	} {
		if strings.TrimSpace(field.value) == "" {
			return domain.ValidationError("shipping_address.%s is required", field.name)
		}
	}

	if !c.PaymentMethod.Valid() {
		return domain.ValidationError("payment_method must be one of COD, Stripe")
	}

	if strings.TrimSpace(c.Phone) == "" {
		return domain.ValidationError("phone is required")
	}

	method := c.ShippingMethod
	for _, field := range []struct{ name, value string }{
		{"method", method.Method},
		{"expected_date", method.ExpectedDate},
		{"courier", method.Courier},
		{"tracking_id", method.TrackingID},
	} {
		if strings.TrimSpace(field.value) == "" {
			return domain.ValidationError("shipping_method.%s is required", field.name)
		}
	}

	if c.TotalPrice.IsNegative() {
		return domain.ValidationError("total_price must not be negative")
	}
	return nil
}

type CreateOrderCommandHandler struct {
	orders    ports.OrderRepository
	products  ports.ProductRepository
	users     ports.UserRepository
	events    ports.EventBus
	codes     ports.ShortCodeGenerator
	stock     stockLedger
	tolerance PriceTolerance
	now       func() time.Time
}

func NewCreateOrderCommandHandler(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	users ports.UserRepository,
	events ports.EventBus,
	codes ports.ShortCodeGenerator,
	tolerance PriceTolerance,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		orders:    orders,
		products:  products,
		users:     users,
		events:    events,
		codes:     codes,
		stock:     stockLedger{products: products},
		tolerance: tolerance,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	phone, ok := domain.NormalizePhone(cmd.Phone)
	if !ok {
		return nil, domain.ValidationError("invalid phone number: expected 10 digits starting with 0")
	}

	userID, err := h.resolveUser(ctx, phone)
	if err != nil {
		return nil, err
	}

	products, err := h.loadProducts(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		product := products[in.ProductID]
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  in.Quantity,
			Price:     product.UnitPrice(),
		})
	}

	deltas := domain.StockDeltas(items)
	for _, delta := range deltas {
		if product := products[delta.ProductID]; delta.Quantity > product.Quantity {
			return nil, insufficientStock(product)
		}
	}

	now := h.now()
	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Phone:           phone,
		Items:           items,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.StatusPending,
		ShippingAddress: cmd.ShippingAddress,
		ShippingMethod:  cmd.ShippingMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.ShippingAddress.Phone = phone
	order.TotalPrice = order.ItemsTotal()

	if h.tolerance.Exceeded(order.TotalPrice, cmd.TotalPrice) {
		return nil, domain.ConflictError("price mismatch: order total is %s but %s was submitted",
			order.TotalPrice.StringFixed(2), cmd.TotalPrice.StringFixed(2))
	}

	if err := h.stock.reserve(ctx, deltas); err != nil {
		return nil, h.reservationFailure(ctx, products, err)
	}

	if err := h.persist(ctx, &order); err != nil {
		if rerr := h.stock.release(context.WithoutCancel(ctx), deltas); rerr != nil {
			slog.ErrorContext(ctx, "failed to release stock after order save failure",
				"error", rerr,
				"order_id", order.ID,
			)
		}
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order); err != nil {
		slog.WarnContext(ctx, "order saved but failed to publish event",
			"error", err,
			"order_id", order.ID,
		)
	}

	return &order, nil
}

func (h *CreateOrderCommandHandler) resolveUser(ctx context.Context, phone string) (*string, error) {
	user, err := h.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("look up user by phone: %w", err)
	}
	return &user.ID, nil
}

func (h *CreateOrderCommandHandler) loadProducts(ctx context.Context, items []OrderItemInput) (map[string]domain.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	found, err := h.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	byID := make(map[string]domain.Product, len(found))
	for _, product := range found {
		byID[product.ID] = product
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, domain.NotFoundError("product %s not found", id)
		}
	}
	return byID, nil
}

// persist saves the order, drawing a new short id when the generated one is already taken.
func (h *CreateOrderCommandHandler) persist(ctx context.Context, order *domain.Order) error {
	for attempt := 1; ; attempt++ {
		shortID, err := h.codes.Generate()
		if err != nil {
			return err
		}
		order.ShortID = shortID

		err = h.orders.Create(ctx, *order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrDuplicate) || attempt == maxShortIDAttempts {
			return fmt.Errorf("save order: %w", err)
		}
	}
}

// reservationFailure turns a lost stock race into the same conflict the pre-check reports,
// using the product's current quantity.
func (h *CreateOrderCommandHandler) reservationFailure(ctx context.Context, products map[string]domain.Product, err error) error {
	var rerr *reserveError
	if !errors.As(err, &rerr) || !errors.Is(err, ports.ErrInsufficientStock) {
		return err
	}

	product := products[rerr.ProductID]
	if current, ferr := h.products.FindByID(ctx, rerr.ProductID); ferr == nil {
		product.Quantity = current.Quantity
	}
	return insufficientStock(product)
}
