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
)

// transitioner applies status changes shared by the admin status update and user cancellation.
type transitioner struct {
	orders ports.OrderRepository
	stock  stockLedger
	events ports.EventBus
	now    func() time.Time
}

func newTransitioner(orders ports.OrderRepository, products ports.ProductRepository, events ports.EventBus) transitioner {
	return transitioner{
		orders: orders,
		stock:  stockLedger{products: products},
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// load resolves an order by UUID or, failing that, by short id.
func (t transitioner) load(ctx context.Context, id string) (*domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ValidationError("order id is required")
	}

	var (
		order *domain.Order
		err   error
	)
	if _, perr := uuid.Parse(id); perr == nil {
		order, err = t.orders.GetByID(ctx, id)
	} else {
		order, err = t.orders.GetByShortID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.NotFoundError("order %s not found", id)
		}
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	return order, nil
}

// apply moves order to status. The write is conditional on the status read earlier, so of
// two racing requests only one can cancel and restock.
func (t transitioner) apply(ctx context.Context, order *domain.Order, status domain.OrderStatus) error {
	previous := order.Status
	if !domain.CanTransition(previous, status) {
		return domain.ConflictError("cannot transition order from %s to %s", previous, status)
	}

	order.ApplyStatus(status, t.now())

	if err := t.orders.SaveStatus(ctx, *order, previous); err != nil {
		switch {
		case errors.Is(err, ports.ErrStatusConflict):
			return domain.ConflictError("order %s was modified by another request, reload and try again", order.ShortID)
		case errors.Is(err, ports.ErrNotFound):
			return domain.NotFoundError("order %s not found", order.ID)
		default:
			return fmt.Errorf("save order status: %w", err)
		}
	}

	if status == domain.StatusCancelled {
		if err := t.stock.release(context.WithoutCancel(ctx), domain.StockDeltas(order.Items)); err != nil {
			slog.ErrorContext(ctx, "order cancelled but stock was not fully returned",
				"error", err,
				"order_id", order.ID,
			)
			return fmt.Errorf("restock cancelled order %s: %w", order.ID, err)
		}
	}

	if err := t.events.PublishOrderStatusChanged(ctx, *order, previous); err != nil {
		slog.WarnContext(ctx, "order status saved but failed to publish event",
			"error", err,
			"order_id", order.ID,
			"status", order.Status,
		)
	}
	return nil
}
