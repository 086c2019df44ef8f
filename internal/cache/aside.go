package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qs-lzh/spotlight/internal/metrics"
)

// Aside reads through the cache to a durable loader. The cache is only
// ever an optimization: none of its failures reach the caller.
type Aside struct {
	cache  Cache
	logger *zap.Logger
}

func NewAside(cache Cache, logger *zap.Logger) *Aside {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aside{
		cache:  cache,
		logger: logger,
	}
}

// GetOrLoad returns the cached value for key, or calls loader on a miss or
// on any cache error and writes the result back with ttl (zero means no
// expiry). Only loader errors are returned.
//
// No lock is held between load and write back. Concurrent loads of the
// same key write the same durable data, last write wins.
func GetOrLoad[T any](ctx context.Context, a *Aside, key string, ttl time.Duration, loader func(ctx context.Context) (T, error)) (T, error) {
	raw, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		if err := json.Unmarshal([]byte(raw), &value); err == nil {
			metrics.RecordCacheLookup("hit")
			return value, nil
		}
		a.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
		metrics.RecordCacheLookup("miss")
	case errors.Is(err, ErrCacheMiss):
		metrics.RecordCacheLookup("miss")
	default:
		a.logger.Warn("cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheLookup("error")
	}

	value, err := loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Warn("cache value not serializable", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := a.cache.Set(ctx, key, string(data), ttl); err != nil {
		a.logger.Warn("cache write back failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// Invalidate deletes keys, logging instead of returning any failure. A
// stale entry heals on the next miss-driven reload.
func (a *Aside) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := a.cache.Delete(ctx, keys...); err != nil {
		a.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
