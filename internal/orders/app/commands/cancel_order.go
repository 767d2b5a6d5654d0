package commands

import (
	"context"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

type CancelOrderCommand struct {
	OrderID string
	Actor   domain.Actor
}

func (c CancelOrderCommand) Name() string { return "CancelOrder" }

func (c CancelOrderCommand) LogAttrs() []any {
	return []any{
		"order_id", c.OrderID,
		"actor_id", c.Actor.UserID,
		"actor_role", c.Actor.Role,
	}
}

// CancelOrderCommandHandler cancels a confirmed order on behalf of its owner or an administrator.
type CancelOrderCommandHandler struct {
	transitions transitioner
}

func NewCancelOrderCommandHandler(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	events ports.EventBus,
) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{
		transitions: newTransitioner(orders, products, events),
	}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	order, err := h.transitions.load(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if !cmd.Actor.IsAdmin() && !order.OwnedBy(cmd.Actor.UserID) {
		return nil, domain.ForbiddenError("you are not allowed to cancel this order")
	}

	switch {
	case order.Status == domain.StatusPending:
		return nil, domain.ConflictError("order can only be cancelled once it has been confirmed")
	case order.Status.IsTerminal():
		return nil, domain.ConflictError("order is already %s and can no longer be cancelled", order.Status)
	}

	if err := h.transitions.apply(ctx, order, domain.StatusCancelled); err != nil {
		return nil, err
	}
	return order, nil
}
