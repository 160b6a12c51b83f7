package data

import (
	"context"
	"fmt"
	"time"

	"kire/pkg/cache"
)

// RedisRateLimiter 基于Redis的固定窗口限流器
// INCR+EXPIRE实现，多实例共享同一窗口计数
type RedisRateLimiter struct {
	cache    cache.Cache
	window   time.Duration
	maxCalls int64
}

// NewRedisRateLimiter 创建Redis限流器
func NewRedisRateLimiter(c cache.Cache, window time.Duration, maxCalls int) *RedisRateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxCalls <= 0 {
		maxCalls = 100
	}
	return &RedisRateLimiter{
		cache:    c,
		window:   window,
		maxCalls: int64(maxCalls),
	}
}

// Allow 消耗一次调用额度
func (l *RedisRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", userID)

	count, err := l.cache.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	// 首次计数时设置窗口过期；EXPIRE失败让键自然驻留到下次覆盖
	if count == 1 {
		if err := l.cache.Expire(ctx, key, l.window); err != nil {
			return false, err
		}
	}

	return count <= l.maxCalls, nil
}
