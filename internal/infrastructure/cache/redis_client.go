// Package cache provides the redis connection and the cache-first recipe
// lookup used by the planning pipeline
package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisClient wraps a universal client so single nodes and clusters look the same
type RedisClient struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig, logger *zap.Logger) (*RedisClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis: no addresses configured")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:           cfg.Addrs,
		Password:        cfg.Password,
		DB:              cfg.Database,
		MaxRetries:      cfg.MaxRetries,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	})

	r := &RedisClient{client: client, logger: logger.Named("redis")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r.logger.Info("Redis client initialized",
		zap.Strings("addrs", cfg.Addrs),
		zap.Int("database", cfg.Database),
	)
	return r, nil
}

// Ping tests the connection
func (r *RedisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Error("Redis ping failed", zap.Error(err))
		return err
	}
	return nil
}

// Get returns outbound.ErrCacheMiss for absent keys
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.logger.Error("Redis GET failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return value, nil
}

// Set stores a value; a zero ttl keeps the key forever
func (r *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes keys
func (r *RedisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Redis DEL failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Exists reports whether the key is present
func (r *RedisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Redis EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n > 0, nil
}

// Close closes the connection pool
func (r *RedisClient) Close() error {
	return r.client.Close()
}
