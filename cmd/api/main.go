package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/orders/adapters"
	httpadapter "github.com/dejobratic/storefront/internal/orders/adapters/http"
	ordersapp "github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/shortcode"
	"github.com/dejobratic/storefront/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	meter := otel.Meter(cfg.Service.Name)
	orderMetrics, err := metrics.NewMetrics(meter)
	if err != nil {
		return err
	}
	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		return err
	}
	kafkaMetrics, err := kafka.NewMetrics(meter)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics, err := httpadapter.NewMetrics(meter, registry)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	events, closeEvents := newEventBus(cfg, logger)
	defer closeEvents()

	codes, err := shortcode.New(cfg.Orders.ShortCodePrefix, cfg.Orders.ShortCodeLength)
	if err != nil {
		return fmt.Errorf("short code generator: %w", err)
	}

	service := ordersapp.NewService(ordersapp.Dependencies{
		Orders:      adapters.NewObservableRepository(store.orders, dbMetrics, orderMetrics),
		Products:    adapters.NewObservableProductRepository(store.products, dbMetrics, orderMetrics),
		Users:       adapters.NewObservableUserRepository(store.users, dbMetrics),
		Events:      adapters.NewObservableEventBus(events, kafkaMetrics),
		Idempotency: store.idempotency,
		ShortCodes:  codes,
		Tolerance: commands.PriceTolerance{
			Absolute: cfg.Orders.PriceToleranceAbsolute,
			Relative: cfg.Orders.PriceToleranceRelative,
		},
		Logger:  logger,
		Metrics: orderMetrics,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ready(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	mux.Handle("GET "+cfg.HTTP.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	httpadapter.NewHandler(service).Register(mux)

	handler := httpadapter.WithRecovery(
		httpadapter.WithRequestID(
			httpadapter.WithLogging(
				httpadapter.WithMetrics(mux, httpMetrics),
			),
		),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			"port", cfg.HTTP.Port,
			"storage", cfg.Storage.Driver,
			"kafka", len(cfg.Kafka.Brokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	return telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
}

func newEventBus(cfg *config.Config, logger *slog.Logger) (ports.EventBus, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no kafka brokers configured, events are only logged")
		return kafka.NewNoopEventBus(), func() {}
	}

	bus := kafka.NewEventBus(kafka.NewWriter(cfg.Kafka.Brokers))
	return bus, func() {
		if err := bus.Close(); err != nil {
			logger.Error("failed to close kafka writer", "error", err)
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
