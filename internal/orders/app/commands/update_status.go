package commands

import (
	"context"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
	Actor   domain.Actor
}

func (c UpdateOrderStatusCommand) Name() string { return "UpdateOrderStatus" }

func (c UpdateOrderStatusCommand) LogAttrs() []any {
	return []any{
		"order_id", c.OrderID,
		"target_status", c.Status,
		"actor_id", c.Actor.UserID,
	}
}

// UpdateOrderStatusCommandHandler lets administrators move orders along the fulfilment path.
type UpdateOrderStatusCommandHandler struct {
	transitions transitioner
}

func NewUpdateOrderStatusCommandHandler(
	orders ports.OrderRepository,
	products ports.ProductRepository,
	events ports.EventBus,
) *UpdateOrderStatusCommandHandler {
	return &UpdateOrderStatusCommandHandler{
		transitions: newTransitioner(orders, products, events),
	}
}

func (h *UpdateOrderStatusCommandHandler) Handle(ctx context.Context, cmd UpdateOrderStatusCommand) (*domain.Order, error) {
	if !cmd.Actor.IsAdmin() {
		return nil, domain.ForbiddenError("only administrators can change order status")
	}

	status, ok := domain.ParseOrderStatus(cmd.Status)
	if !ok {
		return nil, domain.ValidationError("invalid status %q", cmd.Status)
	}

	order, err := h.transitions.load(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := h.transitions.apply(ctx, order, status); err != nil {
		return nil, err
	}
	return order, nil
}
