package app

import (
	"context"
	"time"

	"github.com/guttosm/label-print-service/config"
	"github.com/guttosm/label-print-service/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisComponents holds the job status store.
type RedisComponents struct {
	StatusStore *repository.RedisStatusStore
}

// Close closes the Redis client.
func (r *RedisComponents) Close() error {
	return r.StatusStore.Close()
}

// InitializeRedis connects to Redis for job status mirroring.
// Returns nil if Redis is disabled or unreachable.
func InitializeRedis(cfg config.RedisConfig) *RedisComponents {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr).Msg("Failed to connect to Redis - continuing without status mirror")
		_ = client.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return &RedisComponents{
		StatusStore: repository.NewRedisStatusStore(client, cfg.StatusTTL,
			repository.WithChannelPrefix(cfg.ChannelPrefix)),
	}
}
