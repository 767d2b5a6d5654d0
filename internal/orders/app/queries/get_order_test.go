package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/orders/adapters/memory"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderID = "0b6f7c1e-8f3d-4a4e-b3a5-4c1a2f9d7e10"

var (
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: "user-1", Role: domain.RoleCustomer}
)

type failingRepository struct {
	ports.OrderRepository
}

func (failingRepository) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, errors.New("database connection failed")
}

func (failingRepository) List(context.Context, ports.ListFilter) ([]domain.Order, error) {
	return nil, errors.New("database connection failed")
}

func seededRepository(t *testing.T) *memory.Repository {
	t.Helper()

	repo := memory.NewRepository()
	userID := customer.UserID
	now := time.Now().UTC()
	orders := []domain.Order{
		{ID: orderID, ShortID: "ORD-ABCDEF", UserID: &userID, Status: domain.StatusPending, TotalPrice: decimal.NewFromInt(300), CreatedAt: now},
		{ID: "0b6f7c1e-8f3d-4a4e-b3a5-4c1a2f9d7e11", ShortID: "ORD-GUEST1", Status: domain.StatusProcessing, CreatedAt: now.Add(time.Minute)},
		{ID: "0b6f7c1e-8f3d-4a4e-b3a5-4c1a2f9d7e12", ShortID: "ORD-USER12", UserID: &userID, Status: domain.StatusProcessing, CreatedAt: now.Add(2 * time.Minute)},
	}
	for _, o := range orders {
		require.NoError(t, repo.Create(context.Background(), o))
	}
	return repo
}

func TestGetOrder(t *testing.T) {
	t.Run("returns order by ID", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(seededRepository(t))

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: orderID, Actor: customer})

		require.NoError(t, err)
		assert.Equal(t, "ORD-ABCDEF", order.ShortID)
		assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(300)), "total %s", order.TotalPrice)
	})

	t.Run("returns order by short id", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(seededRepository(t))

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "ORD-GUEST1", Actor: admin})

		require.NoError(t, err)
		assert.True(t, order.IsGuest())
	})

	t.Run("forbids reading other customers' orders", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(seededRepository(t))

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "ORD-GUEST1", Actor: customer})

		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("returns not found for unknown orders", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(seededRepository(t))

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "ORD-MISSING", Actor: admin})

		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("returns validation error for empty id", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(seededRepository(t))

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: "   ", Actor: admin})

		require.Error(t, err)
		assert.Equal(t, "order_id is required", err.Error())
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(failingRepository{})

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderID: orderID, Actor: admin})

		require.Error(t, err)
		assert.Zero(t, domain.KindOf(err), "expected a server error")
	})
}

func TestListOrders(t *testing.T) {
	t.Run("lists every order for administrators", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(seededRepository(t))

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Actor: admin})

		require.NoError(t, err)
		assert.Len(t, orders, 3)
	})

	t.Run("limits customers to their own orders", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(seededRepository(t))

		orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Actor: customer, Status: "processing"})

		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "ORD-USER12", orders[0].ShortID)
	})

	t.Run("pages through results", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(seededRepository(t))

		tests := []struct {
			page, pageSize int
			want           []string
		}{
			{page: 1, pageSize: 2, want: []string{"ORD-USER12", "ORD-GUEST1"}},
			{page: 2, pageSize: 2, want: []string{"ORD-ABCDEF"}},
			{page: 3, pageSize: 2, want: nil},
			{page: 1 << 62, pageSize: 100, want: nil},
		}
		for _, tt := range tests {
			orders, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Actor: admin, Page: tt.page, PageSize: tt.pageSize})

			require.NoError(t, err, "page %d", tt.page)
			var got []string
			for _, o := range orders {
				got = append(got, o.ShortID)
			}
			assert.Equal(t, tt.want, got, "page %d", tt.page)
		}
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(seededRepository(t))

		_, err := handler.Handle(context.Background(), queries.ListOrdersQuery{})

		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("rejects unknown status filters", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(seededRepository(t))

		_, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Actor: admin, Status: "lost"})

		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("wraps repository failures", func(t *testing.T) {
		handler := queries.NewListOrdersQueryHandler(failingRepository{})

		_, err := handler.Handle(context.Background(), queries.ListOrdersQuery{Actor: admin})

		assert.Error(t, err)
	})
}
