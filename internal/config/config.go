package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config captures runtime configuration for the API service.
type Config struct {
	HTTP      HTTPConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Orders    OrdersConfig
	Telemetry TelemetryConfig
	Service   ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	ShutdownGrace int
}

// StorageDriver selects the backend for orders, products and users.
type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMongo    StorageDriver = "mongo"
	StorageMemory   StorageDriver = "memory"
)

type StorageConfig struct {
	Driver StorageDriver
	// SeedPath optionally names a JSON catalogue of products and users loaded at startup.
	SeedPath string
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig is optional. When Addr is empty idempotency keys live in the order store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
}

type OrdersConfig struct {
	PriceToleranceAbsolute decimal.Decimal
	PriceToleranceRelative decimal.Decimal
	ShortCodePrefix        string
	ShortCodeLength        int
	IdempotencyTTL         time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort        = 8080
	defaultMetricsPath     = "/metrics"
	defaultShutdownGrace   = 15
	defaultStorageDriver   = StoragePostgres
	defaultMigrationsPath  = "migrations"
	defaultAutoMigrate     = true
	defaultMongoURI        = "mongodb://localhost:27017/?directConnection=true"
	defaultMongoDatabase   = "storefront"
	defaultToleranceAbs    = "1"
	defaultToleranceRel    = "0"
	defaultShortCodePrefix = "ORD"
	defaultShortCodeLength = 8
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultServiceName     = "storefront-orders"
	defaultServiceVersion  = "0.1.0"
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultOTelSampleRate  = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	storageCfg, err := loadStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("loading storage config: %w", err)
	}

	redisCfg, err := loadRedisConfig()
	if err != nil {
		return nil, fmt.Errorf("loading redis config: %w", err)
	}

	ordersCfg, err := loadOrdersConfig()
	if err != nil {
		return nil, fmt.Errorf("loading orders config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:      httpCfg,
		Storage:   storageCfg,
		Database:  loadDatabaseConfig(),
		Mongo:     loadMongoConfig(),
		Redis:     redisCfg,
		Kafka:     loadKafkaConfig(),
		Orders:    ordersCfg,
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath),
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadStorageConfig() (StorageConfig, error) {
	driver := StorageDriver(strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", string(defaultStorageDriver))))
	switch driver {
	case StoragePostgres, StorageMongo, StorageMemory:
		return StorageConfig{Driver: driver, SeedPath: os.Getenv("CATALOG_SEED_PATH")}, nil
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_DRIVER %q: expected postgres, mongo or memory", driver)
	}
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", defaultAutoMigrate),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      getEnvOrDefault("MONGO_URI", defaultMongoURI),
		Database: getEnvOrDefault("MONGO_DATABASE", defaultMongoDatabase),
	}
}

func loadRedisConfig() (RedisConfig, error) {
	db, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return RedisConfig{}, err
	}

	return RedisConfig{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	if value, ok := os.LookupEnv("KAFKA_BROKERS"); ok && value != "" {
		for _, broker := range strings.Split(value, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}

	return KafkaConfig{
		Brokers: brokers,
	}
}

func loadOrdersConfig() (OrdersConfig, error) {
	absolute, err := getDecimalEnv("ORDER_PRICE_TOLERANCE", defaultToleranceAbs)
	if err != nil {
		return OrdersConfig{}, err
	}
	relative, err := getDecimalEnv("ORDER_PRICE_TOLERANCE_RATIO", defaultToleranceRel)
	if err != nil {
		return OrdersConfig{}, err
	}
	if absolute.IsNegative() || relative.IsNegative() {
		return OrdersConfig{}, fmt.Errorf("price tolerances must not be negative")
	}

	length, err := getIntEnv("ORDER_SHORT_CODE_LENGTH", defaultShortCodeLength)
	if err != nil {
		return OrdersConfig{}, err
	}

	ttl := defaultIdempotencyTTL
	if value, ok := os.LookupEnv("IDEMPOTENCY_TTL"); ok {
		ttl, err = time.ParseDuration(value)
		if err != nil {
			return OrdersConfig{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
	}

	return OrdersConfig{
		PriceToleranceAbsolute: absolute,
		PriceToleranceRelative: relative,
		ShortCodePrefix:        getEnvOrDefault("ORDER_SHORT_CODE_PREFIX", defaultShortCodePrefix),
		ShortCodeLength:        length,
		IdempotencyTTL:         ttl,
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", true),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", true),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "storefront")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDecimalEnv(key, defaultValue string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(getEnvOrDefault(key, defaultValue))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
