package cache

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RateLimitResult struct {
	Allowed bool  `json:"allowed"`
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
	// RetryAfter is the window length in seconds, set only when the
	// request was refused.
	RetryAfter int `json:"retryAfter,omitempty"`
}

// RateLimiter is a fixed window counter kept in redis.
//
// Every consumed request pushes the key's expiry a full window forward,
// so steady traffic just under the limit keeps one window alive
// indefinitely. That approximation is intentional.
type RateLimiter struct {
	cache *RedisCache
}

func NewRateLimiter(cache *RedisCache) *RateLimiter {
	return &RateLimiter{
		cache: cache,
	}
}

// CheckAndConsume counts one request against key. When the window already
// holds max requests the counter is left alone and Allowed is false.
// ErrCacheUnavailable is returned as is; the caller owns the fail-open or
// fail-closed decision.
func (l *RateLimiter) CheckAndConsume(ctx context.Context, key string, max int, window time.Duration) (*RateLimitResult, error) {
	windowSeconds := int(window / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	var res []int64
	err := l.cache.WithConnection(ctx, func(client *redis.Client) error {
		var err error
		res, err = checkAndConsumeScript.Run(ctx, client, []string{key}, max, windowSeconds).Int64Slice()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected rate limit reply %v", res)
	}

	result := &RateLimitResult{
		Allowed: res[0] == 1,
		Current: res[1],
		Limit:   int64(max),
	}
	if !result.Allowed {
		result.RetryAfter = windowSeconds
	}
	return result, nil
}
