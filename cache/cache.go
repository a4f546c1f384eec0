package cache

import (
	"context"
	"time"

	"github.com/go-redis/cache/v9"
)

// ErrCacheMiss is returned by Get when the key is not cached.
var ErrCacheMiss = cache.ErrCacheMiss

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, data interface{}) error
	Delete(ctx context.Context, key string) error
}

// NewCache builds the in-process reference-data cache. It runs the TinyLFU
// local tier only: the subsystem must keep working with no external
// services reachable, so there is no remote tier to configure.
func NewCache() (Cache, error) {
	return newLocalCache(), nil
}

const cacheSize = 128000

type LocalCache struct {
	cache *cache.Cache
}

func newLocalCache() *LocalCache {
	c := cache.New(&cache.Options{
		LocalCache: cache.NewTinyLFU(cacheSize, time.Hour),
	})

	return &LocalCache{cache: c}
}

func (l *LocalCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	return l.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: data,
		TTL:   ttl,
	})
}

func (l *LocalCache) Get(ctx context.Context, key string, data interface{}) error {
	return l.cache.Get(ctx, key, data)
}

func (l *LocalCache) Delete(ctx context.Context, key string) error {
	return l.cache.Delete(ctx, key)
}
