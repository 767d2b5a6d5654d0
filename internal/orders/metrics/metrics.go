package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal      metric.Int64Counter
	commandsTotal           metric.Int64Counter
	commandDuration         metric.Float64Histogram
	statusTransitionsTotal  metric.Int64Counter
	stockAdjustmentsTotal   metric.Int64Counter
	stockAdjustmentQuantity metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.commandsTotal, err = meter.Int64Counter(
		"order_commands_total",
		metric.WithDescription("Total number of order commands handled, by outcome"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_commands_total counter: %w", err)
	}

	m.commandDuration, err = meter.Float64Histogram(
		"order_command_duration_seconds",
		metric.WithDescription("Duration of order command handling"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_command_duration histogram: %w", err)
	}

	m.statusTransitionsTotal, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Total number of applied order status transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	m.stockAdjustmentsTotal, err = meter.Int64Counter(
		"stock_adjustments_total",
		metric.WithDescription("Total number of product stock adjustments, by direction and result"),
		metric.WithUnit("{adjustment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stock_adjustments_total counter: %w", err)
	}

	m.stockAdjustmentQuantity, err = meter.Int64Counter(
		"stock_adjusted_units_total",
		metric.WithDescription("Units of stock reserved or released"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stock_adjusted_units_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

// RecordCommand counts one handled command. outcome is "success" or the kind of failure.
func (m *Metrics) RecordCommand(ctx context.Context, command, outcome string, durationSeconds float64) {
	m.commandsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
	m.commandDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("command", command),
	))
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.statusTransitionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordStockAdjustment counts an AdjustStock call. Negative deltas are reservations.
func (m *Metrics) RecordStockAdjustment(ctx context.Context, delta int, result string) {
	direction := "release"
	units := int64(delta)
	if delta < 0 {
		direction = "reserve"
		units = -units
	}
	attrs := metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("result", result),
	)
	m.stockAdjustmentsTotal.Add(ctx, 1, attrs)
	if result == "success" {
		m.stockAdjustmentQuantity.Add(ctx, units, metric.WithAttributes(
			attribute.String("direction", direction),
		))
	}
}
