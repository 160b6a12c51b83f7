package domain

// HealthStatus 提供商健康状态
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
	// HealthUnknown 探测失败或超时；调用方不得把它当作healthy处理
	HealthUnknown HealthStatus = "unknown"
)

// ProviderConfig 提供商静态配置
type ProviderConfig struct {
	Name         string
	Capabilities []string
	DefaultModel string
	Priority     int
	Enabled      bool
}

// HasCapability 检查提供商是否声明了某能力
func (p *ProviderConfig) HasCapability(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Satisfies 检查提供商是否满足全部能力要求
func (p *ProviderConfig) Satisfies(capabilities []string) bool {
	for _, c := range capabilities {
		if !p.HasCapability(c) {
			return false
		}
	}
	return true
}

// ProviderRegistry 提供商注册表（配置驱动，只读视图）
type ProviderRegistry interface {
	// Get 按名称获取提供商配置
	Get(name string) (*ProviderConfig, bool)

	// PriorityOrder 返回按优先级排序的启用提供商名称
	PriorityOrder() []string
}
