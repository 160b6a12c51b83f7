package data

import (
	"context"
	"encoding/json"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	decisionLogKey = "kire:decision_log"
)

// RedisDecisionLog 基于Redis List的决策日志
// LPUSH+LTRIM保持固定容量，多实例部署共享同一条日志
type RedisDecisionLog struct {
	client   *redis.Client
	capacity int64
	logger   *log.Helper
}

// NewRedisDecisionLog 创建Redis决策日志
func NewRedisDecisionLog(client *redis.Client, capacity int, logger log.Logger) *RedisDecisionLog {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RedisDecisionLog{
		client:   client,
		capacity: int64(capacity),
		logger:   log.NewHelper(logger),
	}
}

// Append 追加一条日志事件
func (l *RedisDecisionLog) Append(ctx context.Context, event *domain.DecisionLogEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	pipe := l.client.Pipeline()
	pipe.LPush(ctx, decisionLogKey, data)
	pipe.LTrim(ctx, decisionLogKey, 0, l.capacity-1)
	_, err = pipe.Exec(ctx)
	return err
}

// History 按时间顺序返回最近的limit条事件
func (l *RedisDecisionLog) History(ctx context.Context, limit int, userID string) ([]*domain.DecisionLogEvent, error) {
	if limit <= 0 || int64(limit) > l.capacity {
		limit = int(l.capacity)
	}

	// 列表头部是最新事件；全量取回后按用户过滤再截断
	raw, err := l.client.LRange(ctx, decisionLogKey, 0, l.capacity-1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]*domain.DecisionLogEvent, 0, limit)
	for _, item := range raw {
		var event domain.DecisionLogEvent
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			l.logger.Warnf("corrupt decision log entry skipped: %v", err)
			continue
		}
		if userID != "" && event.UserID != userID {
			continue
		}
		events = append(events, &event)
		if len(events) == limit {
			break
		}
	}

	// LPUSH语义下取回是新到旧，反转成时间顺序
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}
