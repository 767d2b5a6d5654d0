package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTP.Port != defaultHTTPPort {
		t.Errorf("expected port %d, got %d", defaultHTTPPort, cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != StoragePostgres {
		t.Errorf("expected postgres storage, got %s", cfg.Storage.Driver)
	}
	if !strings.Contains(cfg.Database.URL, "/storefront?") {
		t.Errorf("expected storefront database in %s", cfg.Database.URL)
	}
	if !cfg.Orders.PriceToleranceAbsolute.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected absolute tolerance 1, got %s", cfg.Orders.PriceToleranceAbsolute)
	}
	if !cfg.Orders.PriceToleranceRelative.IsZero() {
		t.Errorf("expected no relative tolerance, got %s", cfg.Orders.PriceToleranceRelative)
	}
	if cfg.Orders.IdempotencyTTL != 24*time.Hour {
		t.Errorf("expected 24h idempotency ttl, got %s", cfg.Orders.IdempotencyTTL)
	}
	if cfg.Redis.Addr != "" || len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected redis and kafka to be disabled by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_HTTP_PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Mongo")
	t.Setenv("MONGO_DATABASE", "shop")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ORDER_PRICE_TOLERANCE", "0.5")
	t.Setenv("ORDER_PRICE_TOLERANCE_RATIO", "0.01")
	t.Setenv("ORDER_SHORT_CODE_PREFIX", "SF")
	t.Setenv("IDEMPOTENCY_TTL", "90m")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/orders")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != StorageMongo || cfg.Mongo.Database != "shop" {
		t.Errorf("unexpected storage config %+v / %+v", cfg.Storage, cfg.Mongo)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "kafka-2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if !cfg.Orders.PriceToleranceRelative.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("unexpected relative tolerance %s", cfg.Orders.PriceToleranceRelative)
	}
	if cfg.Orders.ShortCodePrefix != "SF" || cfg.Orders.IdempotencyTTL != 90*time.Minute {
		t.Errorf("unexpected orders config %+v", cfg.Orders)
	}
	if cfg.Database.URL != "postgres://u:p@db:5432/orders" {
		t.Errorf("expected DATABASE_URL to win, got %s", cfg.Database.URL)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port", "API_HTTP_PORT", "http"},
		{"storage driver", "STORAGE_DRIVER", "sqlite"},
		{"tolerance", "ORDER_PRICE_TOLERANCE", "one"},
		{"negative tolerance", "ORDER_PRICE_TOLERANCE", "-1"},
		{"ttl", "IDEMPOTENCY_TTL", "1 day"},
		{"sample rate", "OTEL_SAMPLE_RATE", "most"},
		{"redis db", "REDIS_DB", "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected %s=%q to be rejected", tt.key, tt.value)
			}
		})
	}
}
