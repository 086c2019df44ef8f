package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache is the set of key-value operations the rest of the service relies
// on. Every method fails with ErrCacheUnavailable when the store cannot be
// reached, and lookups of absent keys fail with ErrCacheMiss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key string, member string) (bool, error)

	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error

	// Multi queues commands on a MULTI/EXEC pipeline; they are applied all
	// together or not at all.
	Multi(ctx context.Context, fn func(pipe redis.Pipeliner) error) error
}

// RedisCache holds the single shared connection to redis. The connection is
// checked lazily on first use and again after any transport failure.
type RedisCache struct {
	Client *redis.Client

	mu        sync.Mutex
	connected bool
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache accepts either a bare "host:port" address or a
// redis:// URL. No network traffic happens until the first operation.
func NewRedisCache(url string) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     url,
		Password: "",
		DB:       0,
	}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse cache url: %w", err)
		}
		opts = parsed
	}
	return &RedisCache{Client: redis.NewClient(opts)}, nil
}

// EnsureConnected pings the store unless a previous call already succeeded.
func (r *RedisCache) EnsureConnected(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connected {
		return nil
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	r.connected = true
	return nil
}

func (r *RedisCache) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// WithConnection makes sure the connection is live and then runs op.
// Errors from op are translated: redis.Nil becomes ErrCacheMiss, a reply
// error from the server is returned as is, anything else marks the
// connection as lost and becomes ErrCacheUnavailable.
func (r *RedisCache) WithConnection(ctx context.Context, op func(client *redis.Client) error) error {
	if err := r.EnsureConnected(ctx); err != nil {
		return err
	}
	if err := op(r.Client); err != nil {
		return r.translate(err)
	}
	return nil
}

func (r *RedisCache) translate(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return err
	}
	r.mu.Lock()
	r.connected = false
	r.mu.Unlock()
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.Ping(ctx).Err()
	})
}

func (r *RedisCache) Get(ctx context.Context, key string) (value string, err error) {
	err = r.WithConnection(ctx, func(client *redis.Client) error {
		value, err = client.Get(ctx, key).Result()
		return err
	})
	return value, err
}

// Set stores value under key. A zero ttl means no expiry.
func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.Set(ctx, key, value, ttl).Err()
	})
}

func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.Del(ctx, keys...).Err()
	})
}

func (r *RedisCache) Incr(ctx context.Context, key string) (value int64, err error) {
	err = r.WithConnection(ctx, func(client *redis.Client) error {
		value, err = client.Incr(ctx, key).Result()
		return err
	})
	return value, err
}

func (r *RedisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.Expire(ctx, key, ttl).Err()
	})
}

/*
* sets
 */

func (r *RedisCache) SAdd(ctx context.Context, key string, members ...string) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.SAdd(ctx, key, toAny(members)...).Err()
	})
}

func (r *RedisCache) SRem(ctx context.Context, key string, members ...string) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.SRem(ctx, key, toAny(members)...).Err()
	})
}

func (r *RedisCache) SMembers(ctx context.Context, key string) (members []string, err error) {
	err = r.WithConnection(ctx, func(client *redis.Client) error {
		members, err = client.SMembers(ctx, key).Result()
		return err
	})
	return members, err
}

func (r *RedisCache) SIsMember(ctx context.Context, key string, member string) (isMember bool, err error) {
	err = r.WithConnection(ctx, func(client *redis.Client) error {
		isMember, err = client.SIsMember(ctx, key, member).Result()
		return err
	})
	return isMember, err
}

/*
* hashes
 */

func (r *RedisCache) HGet(ctx context.Context, key, field string) (value string, err error) {
	err = r.WithConnection(ctx, func(client *redis.Client) error {
		value, err = client.HGet(ctx, key, field).Result()
		return err
	})
	return value, err
}

func (r *RedisCache) HSet(ctx context.Context, key, field, value string) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.HSet(ctx, key, field, value).Err()
	})
}

func (r *RedisCache) HDel(ctx context.Context, key string, fields ...string) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		return client.HDel(ctx, key, fields...).Err()
	})
}

func (r *RedisCache) Multi(ctx context.Context, fn func(pipe redis.Pipeliner) error) error {
	return r.WithConnection(ctx, func(client *redis.Client) error {
		_, err := client.TxPipelined(ctx, fn)
		return err
	})
}

func (r *RedisCache) Close() error {
	return r.Client.Close()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
