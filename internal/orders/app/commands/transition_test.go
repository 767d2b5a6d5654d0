package commands_test

import (
	"context"
	"testing"

	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var owner = domain.Actor{UserID: customerID, Role: domain.RoleCustomer}

func placeOrder(t *testing.T, f *fixture, quantity int) *domain.Order {
	t.Helper()
	order, err := f.create.Handle(context.Background(), withTotal(validCommand(item(mugID, quantity)), int64(quantity)*100))
	require.NoError(t, err)
	return order
}

func setStatus(t *testing.T, f *fixture, id string, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order, err := f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: id, Status: string(status), Actor: admin})
	require.NoError(t, err)
	return order
}

func TestUpdateOrderStatus(t *testing.T) {
	t.Run("walks the fulfilment path without touching stock", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 3)

		setStatus(t, f, order.ID, domain.StatusProcessing)
		assert.Equal(t, 2, f.stock(mugID), "confirmation must not reserve stock a second time")

		setStatus(t, f, order.ShortID, domain.StatusShipped)
		delivered := setStatus(t, f, order.ID, domain.StatusDelivered)

		assert.Equal(t, domain.StatusDelivered, delivered.Status)
		assert.Equal(t, domain.PaymentPaid, delivered.PaymentStatus, "cash on delivery is collected on delivery")
		assert.Equal(t, 2, f.stock(mugID))
		assert.Len(t, f.events.changed, 3)
	})

	t.Run("returns stock when an admin cancels", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 3)

		cancelled := setStatus(t, f, order.ID, domain.StatusCancelled)

		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Equal(t, 5, f.stock(mugID))
	})

	t.Run("rejects skipping steps and leaving terminal states", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 1)

		_, err := f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: order.ID, Status: "shipped", Actor: admin})
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, "cannot transition order from pending to shipped", err.Error())

		setStatus(t, f, order.ID, domain.StatusCancelled)
		_, err = f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: order.ID, Status: "processing", Actor: admin})
		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))

		_, err = f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: order.ID, Status: "cancelled", Actor: admin})
		require.Error(t, err)
		assert.Equal(t, 5, f.stock(mugID), "a cancelled order is restocked exactly once")
	})

	t.Run("rejects unknown statuses", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 1)

		_, err := f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: order.ID, Status: "lost", Actor: admin})

		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("requires an administrator", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 1)

		_, err := f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: order.ID, Status: "processing", Actor: owner})

		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("reports unknown orders as not found", func(t *testing.T) {
		f := newFixture()

		_, err := f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: missedID, Status: "processing", Actor: admin})
		require.Error(t, err)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

		_, err = f.update.Handle(context.Background(), commands.UpdateOrderStatusCommand{OrderID: "ORD-NOPE00", Status: "processing", Actor: admin})
		require.Error(t, err)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("refuses to cancel a pending order", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 3)

		_, err := f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: owner})

		require.Error(t, err)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
		assert.Equal(t, "order can only be cancelled once it has been confirmed", err.Error())
		assert.Equal(t, 2, f.stock(mugID))
	})

	t.Run("cancels a confirmed order and returns its stock", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 3)
		setStatus(t, f, order.ID, domain.StatusProcessing)

		cancelled, err := f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: owner})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, cancelled.Status)
		assert.Equal(t, 5, f.stock(mugID))

		stored, err := f.orders.GetByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, stored.Status, "cancelled orders are kept")
	})

	t.Run("lets administrators cancel guest orders", func(t *testing.T) {
		f := newFixture()
		cmd := withTotal(validCommand(item(mugID, 2)), 200)
		cmd.Phone = "0987654321"
		order, err := f.create.Handle(context.Background(), cmd)
		require.NoError(t, err)
		setStatus(t, f, order.ID, domain.StatusProcessing)

		_, err = f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: owner})
		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

		_, err = f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: domain.Actor{}})
		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

		_, err = f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: admin})
		require.NoError(t, err)
		assert.Equal(t, 5, f.stock(mugID))
	})

	t.Run("forbids other customers", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 1)
		setStatus(t, f, order.ID, domain.StatusProcessing)

		stranger := domain.Actor{UserID: "user-2", Role: domain.RoleCustomer}
		_, err := f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: stranger})

		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
		assert.Equal(t, 4, f.stock(mugID))
	})

	t.Run("refunds paid orders", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 1)
		setStatus(t, f, order.ID, domain.StatusProcessing)

		paid, err := f.orders.GetByID(context.Background(), order.ID)
		require.NoError(t, err)
		paid.PaymentStatus = domain.PaymentPaid
		require.NoError(t, f.orders.SaveStatus(context.Background(), *paid, domain.StatusProcessing))

		cancelled, err := f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: owner})

		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRefunded, cancelled.PaymentStatus)
	})

	t.Run("restocks once when cancellations race", func(t *testing.T) {
		f := newFixture()
		order := placeOrder(t, f, 3)
		setStatus(t, f, order.ID, domain.StatusProcessing)

		var g errgroup.Group
		results := make([]error, 8)
		for i := range results {
			g.Go(func() error {
				_, results[i] = f.cancel.Handle(context.Background(), commands.CancelOrderCommand{OrderID: order.ID, Actor: admin})
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var succeeded int
		for _, err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.Equal(t, domain.KindConflict, domain.KindOf(err), "unexpected error %v", err)
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 5, f.stock(mugID))
	})
}

// flakyProducts fails every decrement of one product as if a concurrent order had just taken the stock.
type flakyProducts struct {
	ports.ProductRepository
	failID string
}

func (p *flakyProducts) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	if id == p.failID && delta < 0 {
		return 0, ports.ErrInsufficientStock
	}
	return p.ProductRepository.AdjustStock(ctx, id, delta)
}

func TestCreateOrderUndoesPartialReservation(t *testing.T) {
	f := newFixture()
	products := &flakyProducts{ProductRepository: f.products, failID: teapotID}
	handler := commands.NewCreateOrderCommandHandler(f.orders, products, f.users, f.events, f.codes, commands.DefaultPriceTolerance)

	_, err := handler.Handle(context.Background(), withTotal(validCommand(item(mugID, 2), item(teapotID, 1)), 450))

	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Contains(t, err.Error(), `"Teapot"`)
	assert.Equal(t, 5, f.stock(mugID), "the mug reservation must be returned")
	assert.Equal(t, 2, f.stock(teapotID))

	orders, err := f.orders.List(context.Background(), ports.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
