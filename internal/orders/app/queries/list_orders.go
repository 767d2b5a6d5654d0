package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// ListOrdersQuery pages through orders, newest first.
type ListOrdersQuery struct {
	Status   string
	Page     int
	PageSize int
	Actor    domain.Actor
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

// Handle lists every order for administrators and only the caller's own orders for customers.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter := ports.ListFilter{Page: query.Page, PageSize: query.PageSize}

	if query.Status != "" {
		status, ok := domain.ParseOrderStatus(query.Status)
		if !ok {
			return nil, domain.ValidationError("invalid status %q", query.Status)
		}
		filter.Status = &status
	}

	switch {
	case query.Actor.IsAdmin():
	case query.Actor.UserID != "":
		userID := query.Actor.UserID
		filter.UserID = &userID
	default:
		return nil, domain.ForbiddenError("sign in to list orders")
	}

	orders, err := h.repo.List(ctx, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
