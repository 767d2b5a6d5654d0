package commands_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dejobratic/storefront/internal/orders/adapters/memory"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
)

const (
	mugID    = "6f1c3a52-2b1e-4f5e-9d49-1d2a4a0c7e01"
	teapotID = "6f1c3a52-2b1e-4f5e-9d49-1d2a4a0c7e02"
	missedID = "6f1c3a52-2b1e-4f5e-9d49-1d2a4a0c7eff"

	customerPhone = "0912345678"
	customerID    = "user-1"
)

var admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

type recordingEventBus struct {
	mu      sync.Mutex
	created []string
	changed []string
	err     error
}

func (b *recordingEventBus) PublishOrderCreated(_ context.Context, order domain.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, order.ID)
	return b.err
}

func (b *recordingEventBus) PublishOrderStatusChanged(_ context.Context, order domain.Order, previous domain.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changed = append(b.changed, fmt.Sprintf("%s:%s->%s", order.ID, previous, order.Status))
	return b.err
}

type sequenceCodes struct {
	n     atomic.Int64
	codes []string
}

func (s *sequenceCodes) Generate() (string, error) {
	i := int(s.n.Add(1)) - 1
	if i < len(s.codes) {
		return s.codes[i], nil
	}
	return fmt.Sprintf("ORD-%06d", i), nil
}

type failingOrderRepository struct {
	ports.OrderRepository
	createErr error
}

func (r *failingOrderRepository) Create(ctx context.Context, order domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.OrderRepository.Create(ctx, order)
}

type fixture struct {
	orders   *memory.Repository
	products *memory.ProductRepository
	users    *memory.UserRepository
	events   *recordingEventBus
	codes    *sequenceCodes

	create *commands.CreateOrderCommandHandler
	update *commands.UpdateOrderStatusCommandHandler
	cancel *commands.CancelOrderCommandHandler
}

func newFixture() *fixture {
	f := &fixture{
		orders: memory.NewRepository(),
		products: memory.NewProductRepository(
			domain.Product{ID: mugID, Name: "Mug", Price: decimal.NewFromInt(100), Quantity: 5},
			domain.Product{ID: teapotID, Name: "Teapot", Price: decimal.NewFromInt(250), Quantity: 2},
		),
		users:  memory.NewUserRepository(domain.User{ID: customerID, Name: "Lan", Phone: customerPhone, Role: domain.RoleCustomer}),
		events: &recordingEventBus{},
		codes:  &sequenceCodes{},
	}
	f.create = commands.NewCreateOrderCommandHandler(f.orders, f.products, f.users, f.events, f.codes, commands.DefaultPriceTolerance)
	f.update = commands.NewUpdateOrderStatusCommandHandler(f.orders, f.products, f.events)
	f.cancel = commands.NewCancelOrderCommandHandler(f.orders, f.products, f.events)
	return f
}

func newCreateHandler(f *fixture, orders ports.OrderRepository) *commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(orders, f.products, f.users, f.events, f.codes, commands.DefaultPriceTolerance)
}

func (f *fixture) stock(id string) int {
	product, err := f.products.FindByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return product.Quantity
}

func validCommand(items ...commands.OrderItemInput) commands.CreateOrderCommand {
	return commands.CreateOrderCommand{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			FullName:   "Nguyen Van Lan",
			Address:    "12 Hang Bac",
			City:       "Hanoi",
			District:   "Hoan Kiem",
			Ward:       "Hang Bac",
			PostalCode: "100000",
		},
		ShippingMethod: domain.ShippingMethod{
			Method:       "standard",
			ExpectedDate: "2026-03-05",
			Courier:      "GHN",
			TrackingID:   "GHN123456",
		},
		PaymentMethod: domain.PaymentCOD,
		Phone:         customerPhone,
		TotalPrice:    decimal.Zero,
	}
}

func item(productID string, quantity int) commands.OrderItemInput {
	return commands.OrderItemInput{ProductID: productID, Quantity: quantity}
}

func withTotal(cmd commands.CreateOrderCommand, total int64) commands.CreateOrderCommand {
	cmd.TotalPrice = decimal.NewFromInt(total)
	return cmd
}
