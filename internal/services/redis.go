package services

import (
	"context"
	"time"

	"github.com/mvibe/marketplace/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisProbe checks reachability of the Redis instance backing the queue.
type RedisProbe struct {
	client *redis.Client
}

// NewRedisProbe returns nil when Redis is disabled.
func NewRedisProbe(cfg *config.RedisConfig) *RedisProbe {
	if !cfg.Enabled {
		return nil
	}
	return &RedisProbe{client: redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})}
}

func (p *RedisProbe) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// QueueDepth is the number of view tasks asynq has not picked up yet.
func (p *RedisProbe) QueueDepth(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, "asynq:{"+viewQueueName+"}:pending").Result()
}

func (p *RedisProbe) Close() error {
	return p.client.Close()
}
