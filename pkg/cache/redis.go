// Package cache opens the optional Redis connection. Redis only backs rate
// limiting, so a missing or unreachable server disables it instead of failing
// startup.
package cache

import (
	"context"
	"time"

	"event-marketplace/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when Redis is not configured or does not answer a ping.
func NewRedisClient(ctx context.Context, cfg utils.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		log.Info("Redis not configured, rate limiting disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, rate limiting disabled",
			zap.Error(err),
			zap.String("addr", cfg.Addr),
		)
		_ = client.Close()
		return nil
	}

	log.Info("Redis connected", zap.String("addr", cfg.Addr))
	return client
}
