package cache

import (
	"context"
	"time"
)

// remote is the shared layer behind the in-process one. *RedisCache in production.
type remote interface {
	Service
	remaining(ctx context.Context, key string) time.Duration
}

// LayeredCache keeps a short-lived in-process copy of entries held in Redis.
// Writes go to Redis first. Locks never touch the local layer.
type LayeredCache struct {
	local  *MemoryCache
	shared remote
	maxTTL time.Duration
}

// NewLayeredCache puts a memory cache in front of redisCache.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	return newLayered(redisCache, opts...)
}

func newLayered(shared remote, opts ...LayeredOption) *LayeredCache {
	cfg := defaultLayeredConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LayeredCache{
		local:  NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize), WithMemoryDefaultTTL(cfg.MemoryTTL)),
		shared: shared,
		maxTTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.shared.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.local.Set(ctx, key, value, lc.localTTL(expiration))
}

// Get serves from memory when it can and otherwise copies the Redis entry locally.
// The local copy never outlives the Redis one.
func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if lc.local.Get(ctx, key, dest) == nil {
		return nil
	}

	var raw []byte
	if err := lc.shared.Get(ctx, key, &raw); err != nil {
		return err
	}
	_ = lc.local.Set(ctx, key, raw, lc.localTTL(lc.shared.remaining(ctx, key)))
	return decode(raw, dest)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.local.Delete(ctx, keys...)
	return lc.shared.Delete(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return lc.shared.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key string) error {
	return lc.shared.Unlock(ctx, key)
}

// Close closes the memory layer and the Redis client.
func (lc *LayeredCache) Close() error {
	_ = lc.local.Close()
	return lc.shared.Close()
}

func (lc *LayeredCache) localTTL(d time.Duration) time.Duration {
	if d <= 0 || d > lc.maxTTL {
		return lc.maxTTL
	}
	return d
}
