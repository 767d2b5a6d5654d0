package telemetry

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// discardTraceExporter keeps the tracer provider live, so trace and span ids still
// reach the logs, without shipping spans anywhere.
type discardTraceExporter struct{}

func NewDiscardTraceExporter() sdktrace.SpanExporter {
	return discardTraceExporter{}
}

func (discardTraceExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (discardTraceExporter) Shutdown(context.Context) error { return nil }

type discardMetricExporter struct{}

func NewDiscardMetricExporter() sdkmetric.Exporter {
	return discardMetricExporter{}
}

func (discardMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardMetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (discardMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }

func (discardMetricExporter) ForceFlush(context.Context) error { return nil }

func (discardMetricExporter) Shutdown(context.Context) error { return nil }
