package http

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	requestDuration metric.Float64Histogram
	requestsTotal   metric.Int64Counter

	promRequests *prometheus.CounterVec
	promLatency  *prometheus.HistogramVec
}

// NewMetrics creates the OpenTelemetry instruments and registers the Prometheus
// collectors served on the scrape endpoint.
func NewMetrics(meter metric.Meter, registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_request_duration histogram: %w", err)
	}

	m.requestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http_requests_total counter: %w", err)
	}

	m.promRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	m.promLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "orders",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "route"})

	if err := registerer.Register(m.promRequests); err != nil {
		return nil, fmt.Errorf("register http_requests_total collector: %w", err)
	}
	if err := registerer.Register(m.promLatency); err != nil {
		return nil, fmt.Errorf("register http_request_duration collector: %w", err)
	}

	return m, nil
}

// RecordRequest records one served request. route is the matched mux pattern, not the raw path.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, durationSeconds float64) {
	m.requestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status_code", statusCode),
	))
	m.requestDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))

	m.promRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.promLatency.WithLabelValues(method, route).Observe(durationSeconds)
}
