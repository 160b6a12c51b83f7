package biz

import (
	"context"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// DecisionLogger 决策日志记录器
// 追加写审计链路：每次路由调用至少产生start和decision两条事件
type DecisionLogger struct {
	store  domain.DecisionLogStore
	logger *log.Helper
}

// NewDecisionLogger 创建决策日志记录器
func NewDecisionLogger(store domain.DecisionLogStore, logger log.Logger) *DecisionLogger {
	return &DecisionLogger{
		store:  store,
		logger: log.NewHelper(logger),
	}
}

// LogStart 记录路由开始
func (l *DecisionLogger) LogStart(ctx context.Context, correlationID, userID, action string, taskType domain.TaskType) {
	event := &domain.DecisionLogEvent{
		CorrelationID: correlationID,
		UserID:        userID,
		TaskType:      taskType,
		EventType:     domain.EventRoutingStart,
		Action:        action,
		Success:       true,
		Timestamp:     time.Now(),
	}

	if err := l.store.Append(ctx, event); err != nil {
		// 审计写失败不阻断路由路径
		l.logger.WithContext(ctx).Errorf("failed to append start event: %v", err)
	}
}

// LogDecision 记录路由决策
func (l *DecisionLogger) LogDecision(
	ctx context.Context,
	correlationID, userID string,
	taskType domain.TaskType,
	pipelineStep string,
	decision *domain.RouteDecision,
	executionTimeMs int64,
	success bool,
) {
	event := &domain.DecisionLogEvent{
		CorrelationID:   correlationID,
		UserID:          userID,
		TaskType:        taskType,
		PipelineStep:    pipelineStep,
		EventType:       domain.EventRoutingDecision,
		ExecutionTimeMs: executionTimeMs,
		Success:         success,
		Timestamp:       time.Now(),
	}
	if decision != nil {
		event.Provider = decision.Provider
		event.Model = decision.Model
	}

	if err := l.store.Append(ctx, event); err != nil {
		l.logger.WithContext(ctx).Errorf("failed to append decision event: %v", err)
	}
}

// GetHistory 查询最近事件
func (l *DecisionLogger) GetHistory(ctx context.Context, limit int, userID string) ([]*domain.DecisionLogEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return l.store.History(ctx, limit, userID)
}

// GenerateAuditReport 生成审计报告
func (l *DecisionLogger) GenerateAuditReport(ctx context.Context, limit int) (*domain.AuditReport, error) {
	events, err := l.GetHistory(ctx, limit, "")
	if err != nil {
		return nil, err
	}

	report := &domain.AuditReport{
		TotalEvents:      len(events),
		EventsByTaskType: make(map[domain.TaskType]int),
		GeneratedAt:      time.Now(),
	}

	var totalMs int64
	var decisionCount int

	for _, event := range events {
		if event.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
		if event.TaskType != "" {
			report.EventsByTaskType[event.TaskType]++
		}
		if event.EventType == domain.EventRoutingDecision {
			totalMs += event.ExecutionTimeMs
			decisionCount++
		}
	}

	if decisionCount > 0 {
		report.AvgExecutionTimeMs = float64(totalMs) / float64(decisionCount)
	}

	return report, nil
}
