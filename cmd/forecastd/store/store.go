// Package store provides storage backend initialization for forecastd.
//
// It acts as a factory for storage.Store implementations based on the
// forecastd configuration:
//
//   - Memory: in-process storage (default). Suitable for single-instance
//     deployments and development. Results are lost on restart.
//
//   - Redis: shared storage for multi-instance deployments. Results carry
//     a TTL and survive forecastd restarts.
//
// Initialization is fail-fast: connectivity is verified during startup and
// the process exits immediately if the backend is unavailable.
package store

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/tidecast/tidecast/cmd/forecastd/config"
	"github.com/tidecast/tidecast/pkg/storage"
)

// New creates and initializes a storage backend based on the provided
// configuration. Never returns nil; calls os.Exit(1) on failure.
func New(cfg *config.Config, logger *slog.Logger) storage.Store {
	switch cfg.Storage {
	case "redis":
		logger.Info("initializing redis storage",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"ttl", cfg.RedisTTL,
		)
		redisStore, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			logger.Error("failed to create redis store", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			logger.Error("redis health check failed", "error", err)
			os.Exit(1)
		}
		logger.Info("redis storage initialized successfully")

		return redisStore

	case "memory":
		logger.Info("initializing in-memory storage")
		return storage.NewMemoryStore()

	default:
		logger.Error("invalid storage type", "storage", cfg.Storage)
		os.Exit(1)
	}

	return nil
}
