package data

import (
	"context"
	"sync"

	"kire/cmd/routing-engine/internal/domain"
)

// MemoryDecisionLog 内存决策日志
// 固定容量环形缓冲，超量时最旧的事件被覆盖
type MemoryDecisionLog struct {
	mu       sync.Mutex
	events   []*domain.DecisionLogEvent
	capacity int
	next     int
	full     bool
}

// NewMemoryDecisionLog 创建内存决策日志
func NewMemoryDecisionLog(capacity int) *MemoryDecisionLog {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryDecisionLog{
		events:   make([]*domain.DecisionLogEvent, capacity),
		capacity: capacity,
	}
}

// Append 追加一条日志事件
func (l *MemoryDecisionLog) Append(_ context.Context, event *domain.DecisionLogEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events[l.next] = event
	l.next = (l.next + 1) % l.capacity
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// History 按时间顺序返回最近的limit条事件
func (l *MemoryDecisionLog) History(_ context.Context, limit int, userID string) ([]*domain.DecisionLogEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ordered := l.snapshot()

	filtered := make([]*domain.DecisionLogEvent, 0, len(ordered))
	for _, event := range ordered {
		if userID != "" && event.UserID != userID {
			continue
		}
		filtered = append(filtered, event)
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

// snapshot 按写入顺序展开环形缓冲
func (l *MemoryDecisionLog) snapshot() []*domain.DecisionLogEvent {
	var ordered []*domain.DecisionLogEvent
	if l.full {
		ordered = append(ordered, l.events[l.next:]...)
	}
	ordered = append(ordered, l.events[:l.next]...)
	return ordered
}
