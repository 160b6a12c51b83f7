package data

import (
	"sort"
	"sync/atomic"

	"kire/cmd/routing-engine/internal/conf"
	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// registrySnapshot 提供商表的不可变快照
type registrySnapshot struct {
	providers map[string]*domain.ProviderConfig
	order     []string
}

// ConfigProviderRegistry 配置驱动的提供商注册表
// 读路径无锁：整表快照通过atomic.Pointer换入，Nacos热更新走Swap
type ConfigProviderRegistry struct {
	snapshot atomic.Pointer[registrySnapshot]
	logger   *log.Helper
}

// NewConfigProviderRegistry 从静态配置创建注册表
func NewConfigProviderRegistry(providers []conf.ProviderConfig, logger log.Logger) *ConfigProviderRegistry {
	r := &ConfigProviderRegistry{
		logger: log.NewHelper(logger),
	}
	r.Swap(providers)
	return r
}

// Get 按名称获取提供商配置
func (r *ConfigProviderRegistry) Get(name string) (*domain.ProviderConfig, bool) {
	snap := r.snapshot.Load()
	p, ok := snap.providers[name]
	return p, ok
}

// PriorityOrder 返回按优先级排序的启用提供商名称
func (r *ConfigProviderRegistry) PriorityOrder() []string {
	snap := r.snapshot.Load()
	order := make([]string, len(snap.order))
	copy(order, snap.order)
	return order
}

// Swap 整表换入新的提供商配置
// 禁用的提供商不进入快照，对路由立即不可见
func (r *ConfigProviderRegistry) Swap(providers []conf.ProviderConfig) {
	snap := &registrySnapshot{
		providers: make(map[string]*domain.ProviderConfig, len(providers)),
	}

	for _, p := range providers {
		if !p.Enabled {
			continue
		}
		snap.providers[p.Name] = &domain.ProviderConfig{
			Name:         p.Name,
			Capabilities: append([]string(nil), p.Capabilities...),
			DefaultModel: p.DefaultModel,
			Priority:     p.Priority,
			Enabled:      true,
		}
		snap.order = append(snap.order, p.Name)
	}

	sort.SliceStable(snap.order, func(i, j int) bool {
		return snap.providers[snap.order[i]].Priority < snap.providers[snap.order[j]].Priority
	})

	r.snapshot.Store(snap)
	r.logger.Infof("provider registry swapped: %d enabled providers", len(snap.order))
}
