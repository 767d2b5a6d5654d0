package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Command is implemented by every order command so it can be traced and logged uniformly.
type Command interface {
	Name() string
	LogAttrs() []any
}

type CommandHandler[C Command] interface {
	Handle(ctx context.Context, cmd C) (*domain.Order, error)
}

type ObservableCommandHandler[C Command] struct {
	handler CommandHandler[C]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler[C Command](handler CommandHandler[C], logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler[C] {
	return &ObservableCommandHandler[C]{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler[C]) Handle(ctx context.Context, cmd C) (*domain.Order, error) {
	name := cmd.Name()
	ctx, span := telemetry.StartSpan(ctx, name+"Command.Handle")
	defer span.End()

	start := time.Now()
	outcome := "success"
	defer func() {
		o.metrics.RecordCommand(ctx, name, outcome, time.Since(start).Seconds())
	}()

	o.logger.InfoContext(ctx, "handling command", append([]any{"command", name}, cmd.LogAttrs()...)...)

	order, err := o.handler.Handle(ctx, cmd)
	if name == (CreateOrderCommand{}).Name() {
		o.metrics.RecordOrderCreated(ctx, err == nil)
	}

	if err != nil {
		outcome = outcomeOf(err)
		telemetry.RecordSpanError(span, err)

		attrs := append([]any{"command", name, "error", err}, cmd.LogAttrs()...)
		if outcome == "error" {
			o.logger.ErrorContext(ctx, "command failed", attrs...)
		} else {
			o.logger.WarnContext(ctx, "command rejected", append(attrs, "reason", outcome)...)
		}
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.short_id", order.ShortID),
		attribute.String("order.status", string(order.Status)),
		attribute.String("order.total_price", order.TotalPrice.String()),
	)

	o.logger.InfoContext(ctx, "command handled successfully",
		"command", name,
		"order_id", order.ID,
		"short_id", order.ShortID,
		"status", order.Status,
	)

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func outcomeOf(err error) string {
	if kind := domain.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "error"
}
