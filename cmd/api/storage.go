package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/catalog"
	"github.com/dejobratic/storefront/internal/config"
	"github.com/dejobratic/storefront/internal/database"
	idemmemory "github.com/dejobratic/storefront/internal/idempotency/memory"
	idempostgres "github.com/dejobratic/storefront/internal/idempotency/postgres"
	idemredis "github.com/dejobratic/storefront/internal/idempotency/redis"
	ordersmemory "github.com/dejobratic/storefront/internal/orders/adapters/memory"
	ordersmongo "github.com/dejobratic/storefront/internal/orders/adapters/mongo"
	orderspostgres "github.com/dejobratic/storefront/internal/orders/adapters/postgres"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/redis/go-redis/v9"
)

const idempotencyPurgeInterval = time.Hour

// storage is the set of stores picked by STORAGE_DRIVER plus the idempotency store.
type storage struct {
	orders      ports.OrderRepository
	products    ports.ProductRepository
	users       ports.UserRepository
	idempotency ports.IdempotencyStore

	productWriter catalog.ProductWriter
	userWriter    catalog.UserWriter

	checks  []func(context.Context) error
	closers []func()
}

func (s *storage) ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	s := &storage{}
	var err error

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		err = s.openPostgres(ctx, cfg, logger)
	case config.StorageMongo:
		err = s.openMongo(ctx, cfg)
	default:
		s.openMemory(cfg)
	}
	if err != nil {
		s.close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			s.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.idempotency = idemredis.NewStore(client, cfg.Orders.IdempotencyTTL)
		s.checks = append(s.checks, func(ctx context.Context) error { return client.Ping(ctx).Err() })
		s.closers = append(s.closers, func() { _ = client.Close() })
	}
	if s.idempotency == nil {
		s.idempotency = idemmemory.NewStore(cfg.Orders.IdempotencyTTL)
	}

	if cfg.Storage.SeedPath != "" {
		c, err := catalog.Load(cfg.Storage.SeedPath)
		if err == nil {
			err = catalog.Seed(ctx, c, s.productWriter, s.userWriter)
		}
		if err != nil {
			s.close()
			return nil, err
		}
		logger.Info("catalog seeded", "products", len(c.Products), "users", len(c.Users))
	}

	return s, nil
}

func (s *storage) openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	s.closers = append(s.closers, pool.Close)
	s.checks = append(s.checks, func(ctx context.Context) error { return database.CheckHealth(ctx, pool) })

	products := orderspostgres.NewProductRepository(pool)
	users := orderspostgres.NewUserRepository(pool)
	s.orders = orderspostgres.NewRepository(pool)
	s.products, s.productWriter = products, products
	s.users, s.userWriter = users, users

	if cfg.Redis.Addr == "" {
		idem := idempostgres.NewStore(pool, cfg.Orders.IdempotencyTTL)
		s.idempotency = idem
		if cfg.Orders.IdempotencyTTL > 0 {
			purgeCtx, cancel := context.WithCancel(context.Background())
			s.closers = append(s.closers, cancel)
			go purgeIdempotencyKeys(purgeCtx, idem, logger)
		}
	}
	return nil
}

func (s *storage) openMongo(ctx context.Context, cfg *config.Config) error {
	client, err := ordersmongo.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })
	s.checks = append(s.checks, func(ctx context.Context) error { return client.Ping(ctx, nil) })

	db := client.Database(cfg.Mongo.Database)
	if err := ordersmongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	products := ordersmongo.NewProductRepository(db)
	users := ordersmongo.NewUserRepository(db)
	s.orders = ordersmongo.NewRepository(db)
	s.products, s.productWriter = products, products
	s.users, s.userWriter = users, users
	return nil
}

func (s *storage) openMemory(cfg *config.Config) {
	products := ordersmemory.NewProductRepository()
	users := ordersmemory.NewUserRepository()
	s.orders = ordersmemory.NewRepository()
	s.products, s.productWriter = products, products
	s.users, s.userWriter = users, users
	s.idempotency = idemmemory.NewStore(cfg.Orders.IdempotencyTTL)
}

func purgeIdempotencyKeys(ctx context.Context, store *idempostgres.Store, logger *slog.Logger) {
	ticker := time.NewTicker(idempotencyPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("failed to purge idempotency keys", "error", err)
				continue
			}
			if purged > 0 {
				logger.Debug("purged idempotency keys", "count", purged)
			}
		}
	}
}
