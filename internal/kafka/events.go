package kafka

import (
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

// OrderCreatedEvent is the payload published on TopicOrderCreated.
type OrderCreatedEvent struct {
	OrderID       string               `json:"order_id"`
	ShortID       string               `json:"short_id"`
	UserID        *string              `json:"user_id,omitempty"`
	Items         []domain.OrderItem   `json:"items"`
	TotalPrice    decimal.Decimal      `json:"total_price"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Status        domain.OrderStatus   `json:"status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// OrderStatusChangedEvent is the payload published on TopicOrderStatusChanged.
type OrderStatusChangedEvent struct {
	OrderID       string               `json:"order_id"`
	ShortID       string               `json:"short_id"`
	From          domain.OrderStatus   `json:"from"`
	To            domain.OrderStatus   `json:"to"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderCreatedEvent(order domain.Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:       order.ID,
		ShortID:       order.ShortID,
		UserID:        order.UserID,
		Items:         order.Items,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		Status:        order.Status,
		OccurredAt:    order.CreatedAt,
	}
}

func newOrderStatusChangedEvent(order domain.Order, previous domain.OrderStatus) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:       order.ID,
		ShortID:       order.ShortID,
		From:          previous,
		To:            order.Status,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    order.UpdatedAt,
	}
}
