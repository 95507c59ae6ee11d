package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateResult is the outcome of a single limiter hit.
type RateResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// RateLimiter counts hits per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateResult, error)
}

// RedisRateLimiter is a fixed-window counter (INCR + EXPIRE) shared by every
// server process.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
	max    int64
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) *RedisRateLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisRateLimiter{rdb: rdb, prefix: prefix, max: int64(max), window: window}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateResult, error) {
	winStart := time.Now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateResult{}, err
	}

	hits := incr.Val()
	res := RateResult{Allowed: hits <= l.max, Remaining: l.max - hits}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		res.RetryAfter = winStart.Add(l.window).Sub(time.Now().UTC())
	}
	return res, nil
}
