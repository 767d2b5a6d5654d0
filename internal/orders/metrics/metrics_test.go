package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := newTestMetrics(t)

		if metrics.ordersCreatedTotal == nil {
			t.Error("ordersCreatedTotal is nil")
		}
		if metrics.commandsTotal == nil {
			t.Error("commandsTotal is nil")
		}
		if metrics.commandDuration == nil {
			t.Error("commandDuration is nil")
		}
		if metrics.statusTransitionsTotal == nil {
			t.Error("statusTransitionsTotal is nil")
		}
		if metrics.stockAdjustmentsTotal == nil {
			t.Error("stockAdjustmentsTotal is nil")
		}
	})
}

func TestRecordOrderCreated(t *testing.T) {
	t.Run("records order creation count with success status", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreated(ctx, true)
		metrics.RecordOrderCreated(ctx, false)

		m, found := collect(t, reader, "orders_created_total")
		if !found {
			t.Fatal("orders_created_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}
	})
}

func TestRecordCommand(t *testing.T) {
	t.Run("records count by outcome and duration by command", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordCommand(ctx, "CreateOrder", "success", 0.2)
		metrics.RecordCommand(ctx, "CreateOrder", "conflict", 0.1)
		metrics.RecordCommand(ctx, "CancelOrder", "forbidden", 0.05)

		m, found := collect(t, reader, "order_commands_total")
		if !found {
			t.Fatal("order_commands_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 3 {
			t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
		}

		m, found = collect(t, reader, "order_command_duration_seconds")
		if !found {
			t.Fatal("order_command_duration_seconds metric not found")
		}
		hist, ok := m.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(hist.DataPoints) != 2 {
			t.Errorf("Expected 2 data points (one per command), got %d", len(hist.DataPoints))
		}
	})
}

func TestRecordStatusTransition(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordStatusTransition(ctx, "processing", "cancelled")
	metrics.RecordStatusTransition(ctx, "processing", "cancelled")

	m, found := collect(t, reader, "order_status_transitions_total")
	if !found {
		t.Fatal("order_status_transitions_total metric not found")
	}
	sum := m.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 {
		t.Fatalf("Expected 1 data point, got %d", len(sum.DataPoints))
	}
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("Expected value 2, got %d", sum.DataPoints[0].Value)
	}
}

func TestRecordStockAdjustment(t *testing.T) {
	t.Run("splits reservations from releases", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordStockAdjustment(ctx, -3, "success")
		metrics.RecordStockAdjustment(ctx, -10, "insufficient_stock")
		metrics.RecordStockAdjustment(ctx, 3, "success")

		m, found := collect(t, reader, "stock_adjusted_units_total")
		if !found {
			t.Fatal("stock_adjusted_units_total metric not found")
		}
		sum := m.Data.(metricdata.Sum[int64])

		units := map[string]int64{}
		for _, dp := range sum.DataPoints {
			direction, _ := dp.Attributes.Value(attribute.Key("direction"))
			units[direction.AsString()] = dp.Value
		}
		if units["reserve"] != 3 {
			t.Errorf("Expected 3 reserved units, got %d", units["reserve"])
		}
		if units["release"] != 3 {
			t.Errorf("Expected 3 released units, got %d", units["release"])
		}

		m, found = collect(t, reader, "stock_adjustments_total")
		if !found {
			t.Fatal("stock_adjustments_total metric not found")
		}
		if got := len(m.Data.(metricdata.Sum[int64]).DataPoints); got != 3 {
			t.Errorf("Expected 3 data points, got %d", got)
		}
	})
}
