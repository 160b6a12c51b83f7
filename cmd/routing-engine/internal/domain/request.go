package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskType 任务类型
type TaskType string

const (
	TaskTypeChat          TaskType = "chat"          // 普通对话
	TaskTypeCode          TaskType = "code"          // 代码生成
	TaskTypeReasoning     TaskType = "reasoning"     // 推理分析
	TaskTypeSummarization TaskType = "summarization" // 文本摘要
	TaskTypeEmbedding     TaskType = "embedding"     // 向量嵌入
	TaskTypeUnknown       TaskType = "unknown"       // 未知
)

// ConversationTurn 历史对话轮次
type ConversationTurn struct {
	Role    string
	Content string
}

// RequestContext 请求上下文
// 类型化字段 + Extra 扩展字典（不再使用全量无类型map）
type RequestContext struct {
	TenantID       string
	Persona        string
	Roles          []string
	History        []ConversationTurn
	SuggestedTools []string
	TaskHint       TaskType
	Extra          map[string]string
}

// Requirements 路由约束
type Requirements struct {
	Capabilities      []string
	PreferredProvider string
	MaxCostPer1K      float64
	MaxLatencyMs      int
	Priority          int
	Extra             map[string]string
}

// RouteRequest 一次路由调用的输入（不可变）
type RouteRequest struct {
	CorrelationID    string
	UserID           string
	TaskTypeHint     TaskType
	Query            string
	PipelineStepHint string
	Context          RequestContext
	Requirements     Requirements
	CreatedAt        time.Time
}

// NewRouteRequest 创建路由请求
func NewRouteRequest(userID, query string) *RouteRequest {
	return &RouteRequest{
		CorrelationID: "route_" + uuid.New().String(),
		UserID:        userID,
		Query:         query,
		CreatedAt:     time.Now(),
	}
}

// CacheKey 计算决策缓存键
// 键只由 user_id / task_type / query / requirements / tenant_id / correlation_id 决定，
// 对话历史等其他上下文字段不参与，保证同质请求共享缓存
func (r *RouteRequest) CacheKey() string {
	raw := strings.Join([]string{
		r.UserID,
		string(r.TaskTypeHint),
		r.Query,
		r.Requirements.canonical(),
		r.Context.TenantID,
		r.CorrelationID,
	}, "|")

	hash := md5.Sum([]byte(raw))
	return hex.EncodeToString(hash[:])
}

// canonical 规范化约束字段
// 能力列表排序后拼接，避免同一组约束因顺序不同产生不同缓存键
func (q *Requirements) canonical() string {
	caps := make([]string, len(q.Capabilities))
	copy(caps, q.Capabilities)
	sort.Strings(caps)

	return fmt.Sprintf("caps=%s;provider=%s;cost=%.4f;latency=%d;priority=%d",
		strings.Join(caps, ","),
		q.PreferredProvider,
		q.MaxCostPer1K,
		q.MaxLatencyMs,
		q.Priority,
	)
}
