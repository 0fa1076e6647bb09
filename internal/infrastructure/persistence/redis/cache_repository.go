// Package redis provides the redis-backed cache repository
package redis

import (
	"context"
	"time"

	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/cache"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"go.uber.org/zap"
)

// CacheRepository implements outbound.CacheRepository on redis. Keys are
// namespaced so several services can share a database.
type CacheRepository struct {
	client    *cache.RedisClient
	namespace string
	logger    *zap.Logger
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(client *cache.RedisClient, namespace string, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{
		client:    client,
		namespace: namespace,
		logger:    logger.Named("cache-repository"),
	}
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

func (r *CacheRepository) key(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

// Get retrieves a value; misses return outbound.ErrCacheMiss
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key))
	if err != nil {
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl)
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.client.Delete(ctx, r.key(key))
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	return r.client.Exists(ctx, r.key(key))
}
