package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderCreated")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("topic", kafka.TopicOrderCreated),
	)

	start := time.Now()
	err := e.bus.PublishOrderCreated(ctx, order)
	e.metrics.RecordPublish(ctx, kafka.TopicOrderCreated, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderStatusChanged")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("topic", kafka.TopicOrderStatusChanged),
		attribute.String("order.previous_status", string(previous)),
		attribute.String("order.new_status", string(order.Status)),
	)

	start := time.Now()
	err := e.bus.PublishOrderStatusChanged(ctx, order, previous)
	e.metrics.RecordPublish(ctx, kafka.TopicOrderStatusChanged, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
