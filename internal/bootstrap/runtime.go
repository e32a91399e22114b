// Package bootstrap wires storage and Redis for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"docfeed/internal/cache"
	"docfeed/internal/config"
	"docfeed/internal/database"
	"docfeed/internal/middleware"
	"docfeed/internal/repository"
	"docfeed/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the process-wide dependencies created at startup.
type Runtime struct {
	Store *repository.Store
	Redis *redis.Client
	DB    *gorm.DB
}

// InitRuntime opens the configured store, connects Redis and optionally seeds demo data.
// Redis may be nil when it is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		rt.Store = repository.NewMemoryStore()
	default:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		rt.Store = repository.NewGormStore(db)
	}

	if cfg.RedisURL != "" {
		rt.Redis = cache.Connect(cfg.RedisURL)
	}

	if cfg.SeedDemo {
		if err := seedDemo(ctx, rt.Store); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return rt, nil
}

func seedDemo(ctx context.Context, store *repository.Store) error {
	empty, err := seed.IsEmpty(ctx, store)
	if err != nil {
		return err
	}
	if !empty {
		middleware.Logger.Info("store already has posts, skipping demo seed")
		return nil
	}

	fx, err := seed.DemoFixture()
	if err != nil {
		return err
	}
	summary, err := seed.ApplyFixture(ctx, store, fx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("demo data seeded",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
	)
	return nil
}

// Close releases the database pool and Redis client.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			middleware.Logger.Warn("failed to close redis", slog.String("error", err.Error()))
		}
	}
	if rt.DB != nil {
		if err := database.Close(rt.DB); err != nil {
			middleware.Logger.Warn("failed to close database", slog.String("error", err.Error()))
		}
	}
}
