package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_FixedWindow(t *testing.T) {
	const (
		max    = 20
		window = time.Hour
	)
	ctx := context.Background()
	c, mr := newTestCache(t)
	limiter := NewRateLimiter(c)
	key := MakeRateLimitKey("reveal", "192.0.2.1")

	for i := 1; i <= max; i++ {
		res, err := limiter.CheckAndConsume(ctx, key, max, window)
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, int64(i), res.Current)
		assert.Equal(t, int64(max), res.Limit)
		assert.Zero(t, res.RetryAfter)
	}

	res, err := limiter.CheckAndConsume(ctx, key, max, window)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(max), res.Current)
	assert.Equal(t, 3600, res.RetryAfter)

	// a refused request leaves the counter untouched
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "20", got)

	mr.FastForward(window)

	res, err = limiter.CheckAndConsume(ctx, key, max, window)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Current)
}

func TestRateLimiter_ExpiryMovesWithTraffic(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	limiter := NewRateLimiter(c)
	key := MakeRateLimitKey("reveal", "198.51.100.7")

	_, err := limiter.CheckAndConsume(ctx, key, 5, time.Hour)
	require.NoError(t, err)

	mr.FastForward(40 * time.Minute)
	res, err := limiter.CheckAndConsume(ctx, key, 5, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Current)
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestRateLimiter_IdentitiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	limiter := NewRateLimiter(c)

	res, err := limiter.CheckAndConsume(ctx, MakeRateLimitKey("reveal", "a"), 1, time.Minute)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	res, err = limiter.CheckAndConsume(ctx, MakeRateLimitKey("reveal", "a"), 1, time.Minute)
	require.NoError(t, err)
	require.False(t, res.Allowed)

	res, err = limiter.CheckAndConsume(ctx, MakeRateLimitKey("reveal", "b"), 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRateLimiter_ConcurrentRequestsNeverExceedLimit(t *testing.T) {
	const (
		max         = 20
		concurrency = 100
	)
	ctx := context.Background()
	c, _ := newTestCache(t)
	limiter := NewRateLimiter(c)
	key := MakeRateLimitKey("reveal", "203.0.113.9")

	var allowed, refused int64
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := limiter.CheckAndConsume(ctx, key, max, time.Hour)
			if err != nil {
				t.Errorf("check and consume: %v", err)
				return
			}
			if res.Allowed {
				atomic.AddInt64(&allowed, 1)
			} else {
				atomic.AddInt64(&refused, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(max), allowed)
	assert.Equal(t, int64(concurrency-max), refused)
}

func TestRateLimiter_PropagatesUnavailability(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := NewRateLimiter(c).CheckAndConsume(context.Background(), "rate-limit:reveal:x", 20, time.Hour)
	assert.ErrorIs(t, err, ErrCacheUnavailable)
}
