package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// NewRedis connects to the shared counter store. An unreachable store is not
// fatal: the tap rate limiter degrades open without it, so we return the
// client anyway and let callers probe per operation.
func NewRedis(ctx context.Context, cfg RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Counter store unreachable, rate limiting will degrade open",
			slog.String("type", "sys"),
			slog.String("address", cfg.Address),
			slog.Any("error", err))
		return rdb
	}

	slog.Info("Counter store connected",
		slog.String("type", "sys"),
		slog.String("address", cfg.Address))
	return rdb
}
