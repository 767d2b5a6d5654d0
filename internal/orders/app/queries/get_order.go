package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/google/uuid"
)

// GetOrderQuery represents a request to retrieve an order by its ID or short code.
type GetOrderQuery struct {
	OrderID string
	Actor   domain.Actor
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order if found.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle executes the query. Customers can only read their own orders.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(query.OrderID)
	var (
		order *domain.Order
		err   error
	)
	if _, perr := uuid.Parse(id); perr == nil {
		order, err = h.repo.GetByID(ctx, id)
	} else {
		order, err = h.repo.GetByShortID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, domain.NotFoundError("order %s not found", id)
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	if !query.Actor.IsAdmin() && !order.OwnedBy(query.Actor.UserID) {
		return nil, domain.ForbiddenError("you are not allowed to view this order")
	}

	return order, nil
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return domain.ValidationError("order_id is required")
	}
	return nil
}
