// Package ratelimit provides Redis-backed request rate limiting.
//
// The limiter uses fixed time buckets with Redis INCR/EXPIRE so that the
// counters are shared across all server instances. When Redis is unavailable
// the limiter fails open and lets the request through.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter checks whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	AllowN(ctx context.Context, key string, n, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// TokenBucketLimiter implements Limiter on top of Redis atomic counters.
type TokenBucketLimiter struct {
	redisClient *redis.Client
	logger      *zap.Logger
	failOpen    bool
}

// NewTokenBucketLimiter creates a limiter backed by the given Redis client.
// With failOpen set, requests are allowed when Redis cannot be reached.
func NewTokenBucketLimiter(redisClient *redis.Client, logger *zap.Logger, failOpen bool) *TokenBucketLimiter {
	return &TokenBucketLimiter{
		redisClient: redisClient,
		logger:      logger,
		failOpen:    failOpen,
	}
}

// Allow reports whether one more request under key fits within limit per window.
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.AllowN(ctx, key, 1, limit, window)
}

// AllowN consumes n tokens at once.
func (l *TokenBucketLimiter) AllowN(ctx context.Context, key string, n, limit int, window time.Duration) (bool, error) {
	bucketKey := l.bucketKey(key, time.Now(), window)

	pipe := l.redisClient.Pipeline()
	incrCmd := pipe.IncrBy(ctx, bucketKey, int64(n))
	pipe.Expire(ctx, bucketKey, window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		if l.failOpen {
			l.logger.Warn("rate limit check failed, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := incrCmd.Val()
	allowed := count <= int64(limit)
	if !allowed {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key),
			zap.Int64("count", count),
			zap.Int("limit", limit),
		)
	}
	return allowed, nil
}

// Reset clears the counters for key in the current and previous window.
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	now := time.Now()
	keys := []string{
		l.bucketKey(key, now, time.Second),
		l.bucketKey(key, now.Add(-time.Second), time.Second),
		l.bucketKey(key, now, time.Minute),
		l.bucketKey(key, now.Add(-time.Minute), time.Minute),
	}
	if err := l.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit for key %s: %w", key, err)
	}
	return nil
}

// bucketKey derives a fixed-window key from the wall clock.
func (l *TokenBucketLimiter) bucketKey(key string, now time.Time, window time.Duration) string {
	secs := int64(window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/secs)
}
