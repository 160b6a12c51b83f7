package biz

import (
	"context"
	"sync"
	"time"
)

// RateLimiter 固定窗口限流接口
type RateLimiter interface {
	// Allow 消耗一次调用额度，返回是否放行
	Allow(ctx context.Context, userID string) (bool, error)
}

// window 单用户计数窗口
type window struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter 进程内固定窗口限流器
// 同一用户的并发调用通过互斥锁保证计数原子性
type FixedWindowLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	size     time.Duration
	maxCalls int
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(size time.Duration, maxCalls int) *FixedWindowLimiter {
	if size <= 0 {
		size = time.Minute
	}
	if maxCalls <= 0 {
		maxCalls = 100
	}
	return &FixedWindowLimiter{
		windows:  make(map[string]*window),
		size:     size,
		maxCalls: maxCalls,
	}
}

// Allow 消耗一次调用额度
func (l *FixedWindowLimiter) Allow(_ context.Context, userID string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[userID]
	if !exists || now.After(w.resetAt) {
		l.windows[userID] = &window{count: 1, resetAt: now.Add(l.size)}
		return true, nil
	}

	w.count++
	return w.count <= l.maxCalls, nil
}
