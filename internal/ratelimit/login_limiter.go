package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LoginLimiter throttles authentication attempts per key (normalized email).
// Allow reports whether the attempt may proceed, and the retry-after hint
// when it may not.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RedisLoginLimiter counts attempts in Redis within a fixed window. The
// limiter fails open: if Redis is unreachable, logins proceed.
type RedisLoginLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewRedisLoginLimiter builds a limiter. A nil client or non-positive limit
// disables throttling.
func NewRedisLoginLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RedisLoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLoginLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow increments the attempt counter for key and checks it against the limit.
func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("soundify:login:%s", strings.ToLower(strings.TrimSpace(key)))

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true, 0, nil
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.logger.Warn("login limiter expire failed", zap.Error(err))
		}
	}
	if count > int64(l.limit) {
		retryAfter, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || retryAfter < 0 {
			retryAfter = l.window
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}
