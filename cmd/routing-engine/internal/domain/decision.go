package domain

import "time"

// DecisionMetadata 决策元数据
type DecisionMetadata struct {
	CacheHit         bool
	CorrelationID    string
	TaskType         TaskType
	PipelineStep     string
	AnalysisSummary  string
	CognitionSummary string
	RoutedAt         time.Time
}

// RouteDecision 路由决策（不可变，即缓存值）
type RouteDecision struct {
	Provider      string
	Model         string
	Reasoning     string
	Confidence    float64
	FallbackChain []string
	Metadata      DecisionMetadata
}

// NewRouteDecision 创建路由决策
func NewRouteDecision(provider, model, reasoning string, confidence float64) *RouteDecision {
	return &RouteDecision{
		Provider:      provider,
		Model:         model,
		Reasoning:     reasoning,
		Confidence:    confidence,
		FallbackChain: make([]string, 0),
		Metadata: DecisionMetadata{
			RoutedAt: time.Now(),
		},
	}
}

// CapConfidence 封顶置信度
// 置信度只降不升：若当前值已低于上限则保持不变
func (d *RouteDecision) CapConfidence(max float64) {
	if d.Confidence > max {
		d.Confidence = max
	}
}

// WithCacheHit 标记缓存命中并返回副本
// 命中请求拿到的是独立副本，避免调用方修改缓存内的原值
func (d *RouteDecision) WithCacheHit() *RouteDecision {
	clone := *d
	clone.FallbackChain = make([]string, len(d.FallbackChain))
	copy(clone.FallbackChain, d.FallbackChain)
	clone.Metadata.CacheHit = true
	return &clone
}

// CacheEntry 缓存条目（仅 RoutingCache 持有）
type CacheEntry struct {
	Key      string
	Decision *RouteDecision
	StoredAt time.Time
	TTL      time.Duration
}

// Expired 检查条目是否过期
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.StoredAt.Add(e.TTL))
}
