package domain

import "time"

// DecisionEventType 决策日志事件类型
type DecisionEventType string

const (
	EventRoutingStart    DecisionEventType = "routing_start"
	EventRoutingDecision DecisionEventType = "routing_decision"
)

// DecisionLogEvent 决策日志事件（追加写）
type DecisionLogEvent struct {
	CorrelationID   string            `json:"correlation_id"`
	UserID          string            `json:"user_id"`
	TaskType        TaskType          `json:"task_type"`
	PipelineStep    string            `json:"pipeline_step,omitempty"`
	EventType       DecisionEventType `json:"event_type"`
	Action          string            `json:"action,omitempty"`
	Provider        string            `json:"provider,omitempty"`
	Model           string            `json:"model,omitempty"`
	ExecutionTimeMs int64             `json:"execution_time_ms"`
	Success         bool              `json:"success"`
	Timestamp       time.Time         `json:"timestamp"`
}

// AuditReport 审计报告
type AuditReport struct {
	TotalEvents        int              `json:"total_events"`
	SuccessCount       int              `json:"success_count"`
	FailureCount       int              `json:"failure_count"`
	EventsByTaskType   map[TaskType]int `json:"events_by_task_type"`
	AvgExecutionTimeMs float64          `json:"avg_execution_time_ms"`
	GeneratedAt        time.Time        `json:"generated_at"`
}
