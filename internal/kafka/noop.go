package kafka

import (
	"context"
	"log/slog"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// NoopEventBus logs events without sending them to Kafka. Used when no brokers are configured.
type NoopEventBus struct{}

func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	slog.DebugContext(ctx, "event::order_created", "order_id", order.ID, "short_id", order.ShortID)
	return nil
}

func (n *NoopEventBus) PublishOrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	slog.DebugContext(ctx, "event::order_status_changed", "order_id", order.ID, "from", previous, "to", order.Status)
	return nil
}
