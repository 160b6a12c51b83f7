package data

import (
	"context"
	"sync"

	"kire/cmd/routing-engine/internal/domain"
)

// MemoryProfileRepo 内存画像存储
// 单机部署与测试使用；激活变更直接写map，立即对读可见
type MemoryProfileRepo struct {
	mu             sync.RWMutex
	byUser         map[string]*domain.UserProfile
	tenantDefaults map[string]*domain.UserProfile
}

// NewMemoryProfileRepo 创建内存画像存储
func NewMemoryProfileRepo() *MemoryProfileRepo {
	return &MemoryProfileRepo{
		byUser:         make(map[string]*domain.UserProfile),
		tenantDefaults: make(map[string]*domain.UserProfile),
	}
}

// GetActiveProfile 获取用户当前激活的画像
func (r *MemoryProfileRepo) GetActiveProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.byUser[userID]
	if !ok || !profile.IsActive {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

// GetTenantDefault 获取租户默认画像
func (r *MemoryProfileRepo) GetTenantDefault(_ context.Context, tenantID string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.tenantDefaults[tenantID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

// Save 写入画像；UserID为空的画像视为租户默认
func (r *MemoryProfileRepo) Save(_ context.Context, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile.UserID != "" {
		r.byUser[profile.UserID] = profile
	}
	if profile.UserID == "" && profile.TenantID != "" {
		r.tenantDefaults[profile.TenantID] = profile
	}
	return nil
}
