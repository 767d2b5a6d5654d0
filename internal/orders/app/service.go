package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// Service bundles use cases for handling orders via the API.
type Service struct {
	idemStore           ports.IdempotencyStore
	createOrderHandler  commands.CommandHandler[commands.CreateOrderCommand]
	updateStatusHandler commands.CommandHandler[commands.UpdateOrderStatusCommand]
	cancelOrderHandler  commands.CommandHandler[commands.CancelOrderCommand]
	getOrderHandler     *queries.GetOrderQueryHandler
	listOrdersHandler   *queries.ListOrdersQueryHandler
}

// Dependencies lists the ports and observability hooks the service is built from.
type Dependencies struct {
	Orders      ports.OrderRepository
	Products    ports.ProductRepository
	Users       ports.UserRepository
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
	ShortCodes  ports.ShortCodeGenerator
	Tolerance   commands.PriceTolerance
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	create := commands.NewCreateOrderCommandHandler(
		deps.Orders, deps.Products, deps.Users, deps.Events, deps.ShortCodes, deps.Tolerance,
	)
	update := commands.NewUpdateOrderStatusCommandHandler(deps.Orders, deps.Products, deps.Events)
	cancel := commands.NewCancelOrderCommandHandler(deps.Orders, deps.Products, deps.Events)

	return &Service{
		idemStore:           deps.Idempotency,
		createOrderHandler:  commands.NewObservableCommandHandler[commands.CreateOrderCommand](create, deps.Logger, deps.Metrics),
		updateStatusHandler: commands.NewObservableCommandHandler[commands.UpdateOrderStatusCommand](update, deps.Logger, deps.Metrics),
		cancelOrderHandler:  commands.NewObservableCommandHandler[commands.CancelOrderCommand](cancel, deps.Logger, deps.Metrics),
		getOrderHandler:     queries.NewGetOrderQueryHandler(deps.Orders),
		listOrdersHandler:   queries.NewListOrdersQueryHandler(deps.Orders),
	}
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	Items           []OrderItemInput     `json:"items" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressInput `json:"shipping_address"`
	ShippingMethod  ShippingMethodInput  `json:"shipping_method"`
	PaymentMethod   string               `json:"payment_method" validate:"required,oneof=COD Stripe"`
	Phone           string               `json:"phone" validate:"required"`
	TotalPrice      *decimal.Decimal     `json:"total_price" validate:"required"`
}

type OrderItemInput struct {
	Product  string `json:"product" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=10000"`
}

type ShippingAddressInput struct {
	FullName   string `json:"full_name" validate:"required"`
	Phone      string `json:"phone"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	District   string `json:"district" validate:"required"`
	Ward       string `json:"ward" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

type ShippingMethodInput struct {
	Method       string `json:"method" validate:"required"`
	ExpectedDate string `json:"expected_date" validate:"required"`
	Courier      string `json:"courier" validate:"required"`
	TrackingID   string `json:"tracking_id" validate:"required"`
}

// CreateOrderCommand converts the payload into the command handled by the application.
func (in CreateOrderInput) CreateOrderCommand() commands.CreateOrderCommand {
	items := make([]commands.OrderItemInput, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, commands.OrderItemInput{ProductID: item.Product, Quantity: item.Quantity})
	}

	cmd := commands.CreateOrderCommand{
		Items: items,
		ShippingAddress: domain.ShippingAddress{
			FullName:   in.ShippingAddress.FullName,
			Phone:      in.ShippingAddress.Phone,
			Address:    in.ShippingAddress.Address,
			City:       in.ShippingAddress.City,
			District:   in.ShippingAddress.District,
			Ward:       in.ShippingAddress.Ward,
			PostalCode: in.ShippingAddress.PostalCode,
		},
		ShippingMethod: domain.ShippingMethod{
			Method:       in.ShippingMethod.Method,
			ExpectedDate: in.ShippingMethod.ExpectedDate,
			Courier:      in.ShippingMethod.Courier,
			TrackingID:   in.ShippingMethod.TrackingID,
		},
		PaymentMethod: domain.PaymentMethod(in.PaymentMethod),
		Phone:         in.Phone,
	}
	if in.TotalPrice != nil {
		cmd.TotalPrice = *in.TotalPrice
	}
	return cmd
}

// CreateOrder validates stock and prices, reserves inventory and stores the order.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	return s.createOrderHandler.Handle(ctx, input.CreateOrderCommand())
}

// UpdateOrderStatus moves an order to status on behalf of an administrator.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor domain.Actor, id, status string) (*domain.Order, error) {
	return s.updateStatusHandler.Handle(ctx, commands.UpdateOrderStatusCommand{OrderID: id, Status: status, Actor: actor})
}

// CancelOrder cancels a confirmed order and returns its stock.
func (s *Service) CancelOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.cancelOrderHandler.Handle(ctx, commands.CancelOrderCommand{OrderID: id, Actor: actor})
}

// GetOrder retrieves an order by ID or short code.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id, Actor: actor})
}

// ListOrders returns a page of orders visible to the actor.
func (s *Service) ListOrders(ctx context.Context, actor domain.Actor, query queries.ListOrdersQuery) ([]domain.Order, error) {
	query.Actor = actor
	return s.listOrdersHandler.Handle(ctx, query)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
