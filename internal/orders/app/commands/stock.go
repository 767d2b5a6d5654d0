package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// stockLedger applies order stock deltas through the repository's atomic adjustment.
type stockLedger struct {
	products ports.ProductRepository
}

// reserveError reports which product could not be reserved.
type reserveError struct {
	ProductID string
	Err       error
}

func (e *reserveError) Error() string {
	return fmt.Sprintf("reserve stock for product %s: %v", e.ProductID, e.Err)
}

func (e *reserveError) Unwrap() error {
	return e.Err
}

// reserve decrements stock for every delta. When one fails the deltas already applied
// are returned to inventory before the error is reported, so the batch is all-or-nothing.
func (l stockLedger) reserve(ctx context.Context, deltas []domain.StockDelta) error {
	for i, delta := range deltas {
		if _, err := l.products.AdjustStock(ctx, delta.ProductID, -delta.Quantity); err != nil {
			if rerr := l.release(context.WithoutCancel(ctx), deltas[:i]); rerr != nil {
				slog.ErrorContext(ctx, "failed to undo partial stock reservation",
					"error", rerr,
					"product_id", delta.ProductID,
				)
			}
			return &reserveError{ProductID: delta.ProductID, Err: err}
		}
	}
	return nil
}

// release increments stock for every delta. It attempts all of them and reports the failures together.
func (l stockLedger) release(ctx context.Context, deltas []domain.StockDelta) error {
	var errs []error
	for _, delta := range deltas {
		if _, err := l.products.AdjustStock(ctx, delta.ProductID, delta.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %d of product %s: %w", delta.Quantity, delta.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// insufficientStock builds the caller-facing conflict for a product that cannot cover the request.
func insufficientStock(product domain.Product) *domain.Error {
	return domain.ConflictError("insufficient stock for product %q: only %d left in stock", product.Name, product.Quantity)
}
