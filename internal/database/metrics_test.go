package database

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordQuery(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordQuery(ctx, "create_order", 0.1, nil)
	metrics.RecordQuery(ctx, "adjust_stock", 0.05, nil)
	metrics.RecordQuery(ctx, "adjust_stock", 0.04, nil)
	metrics.RecordQuery(ctx, "adjust_stock", 0.02, errors.New("connection reset"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}

	counts := map[string]uint64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "db_query_duration_seconds" {
				continue
			}
			histogram, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("expected Histogram[float64], got %T", m.Data)
			}
			for _, dp := range histogram.DataPoints {
				op, _ := dp.Attributes.Value("operation")
				status, _ := dp.Attributes.Value("status")
				counts[op.AsString()+"/"+status.AsString()] = dp.Count
			}
		}
	}

	want := map[string]uint64{
		"create_order/success": 1,
		"adjust_stock/success": 2,
		"adjust_stock/error":   1,
	}
	for key, n := range want {
		if counts[key] != n {
			t.Errorf("%s: expected %d samples, got %d", key, n, counts[key])
		}
	}
}
