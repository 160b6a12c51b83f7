package domain

import "context"

// ProfileRepository 用户画像存储接口（存储技术由data层决定）
type ProfileRepository interface {
	// GetActiveProfile 获取用户当前激活的画像
	// 激活状态的变更必须对下一次调用立即可见，实现不得缓存
	GetActiveProfile(ctx context.Context, userID string) (*UserProfile, error)

	// GetTenantDefault 获取租户默认画像
	GetTenantDefault(ctx context.Context, tenantID string) (*UserProfile, error)

	// Save 写入画像（画像管理操作使用，路由路径不调用）
	Save(ctx context.Context, profile *UserProfile) error
}

// DecisionLogStore 决策日志存储接口（追加写，需支持并发追加）
type DecisionLogStore interface {
	// Append 追加一条日志事件
	Append(ctx context.Context, event *DecisionLogEvent) error

	// History 按时间顺序返回最近的事件，userID为空时不过滤
	History(ctx context.Context, limit int, userID string) ([]*DecisionLogEvent, error)
}

// ProviderProbe 提供商探测接口（实际传输在引擎范围之外）
type ProviderProbe interface {
	// Probe 探测提供商存活；返回错误表示探测失败，不代表提供商不健康
	Probe(ctx context.Context, provider string) error
}
