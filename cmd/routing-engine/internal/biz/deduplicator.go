package biz

import (
	"context"
	"sync"

	"kire/cmd/routing-engine/internal/domain"
)

// flight 一次在途计算
type flight struct {
	done     chan struct{}
	decision *domain.RouteDecision
	err      error
}

// DeduplicatorStats 去重统计
type DeduplicatorStats struct {
	TotalCalls        int64
	SharedCalls       int64
	DeduplicationRate float64
}

// RequestDeduplicator 请求去重器
// 单飞约束：同一缓存键同一时刻最多一个计算在途，其余调用方等待并共享结果
type RequestDeduplicator struct {
	mu       sync.Mutex
	inflight map[string]*flight

	totalCalls  int64
	sharedCalls int64
}

// NewRequestDeduplicator 创建请求去重器
func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{
		inflight: make(map[string]*flight),
	}
}

// RunOnce 执行或等待同键在途计算
// 计算在独立goroutine中运行：某个等待方被放弃不会取消其他等待方仍需要的结果
func (d *RequestDeduplicator) RunOnce(
	ctx context.Context,
	key string,
	compute func() (*domain.RouteDecision, error),
) (*domain.RouteDecision, error) {
	d.mu.Lock()
	d.totalCalls++

	if f, exists := d.inflight[key]; exists {
		d.sharedCalls++
		d.mu.Unlock()
		return d.wait(ctx, f)
	}

	f := &flight{done: make(chan struct{})}
	d.inflight[key] = f
	d.mu.Unlock()

	go func() {
		f.decision, f.err = compute()
		close(f.done)

		d.mu.Lock()
		delete(d.inflight, key)
		d.mu.Unlock()
	}()

	return d.wait(ctx, f)
}

// wait 等待在途计算完成或调用方上下文结束
func (d *RequestDeduplicator) wait(ctx context.Context, f *flight) (*domain.RouteDecision, error) {
	select {
	case <-f.done:
		return f.decision, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats 返回去重统计快照
func (d *RequestDeduplicator) Stats() DeduplicatorStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := DeduplicatorStats{
		TotalCalls:  d.totalCalls,
		SharedCalls: d.sharedCalls,
	}
	if d.totalCalls > 0 {
		stats.DeduplicationRate = float64(d.sharedCalls) / float64(d.totalCalls)
	}
	return stats
}

// InflightCount 当前在途计算数
func (d *RequestDeduplicator) InflightCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
