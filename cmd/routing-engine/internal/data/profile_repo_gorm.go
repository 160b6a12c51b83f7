package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// UserProfilePO 画像持久化对象
type UserProfilePO struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Name          string    `gorm:"size:128"`
	UserID        string    `gorm:"index;size:64"`
	TenantID      string    `gorm:"index;size:64"`
	Assignments   []byte    `gorm:"type:jsonb"`
	FallbackChain []byte    `gorm:"type:jsonb"`
	IsActive      bool      `gorm:"index"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// TableName 表名
func (UserProfilePO) TableName() string {
	return "routing_profiles"
}

// GormProfileRepo 基于PostgreSQL的画像存储
// 每次查询直达数据库，不缓存激活状态
type GormProfileRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewGormProfileRepo 创建画像存储
func NewGormProfileRepo(db *gorm.DB, logger log.Logger) *GormProfileRepo {
	return &GormProfileRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// GetActiveProfile 获取用户当前激活的画像
func (r *GormProfileRepo) GetActiveProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var po UserProfilePO
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	return r.toDomain(&po)
}

// GetTenantDefault 获取租户默认画像（user_id为空的激活画像）
func (r *GormProfileRepo) GetTenantDefault(ctx context.Context, tenantID string) (*domain.UserProfile, error) {
	var po UserProfilePO
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = '' AND is_active = ?", tenantID, true).
		Order("updated_at DESC").
		First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	return r.toDomain(&po)
}

// Save 写入画像
func (r *GormProfileRepo) Save(ctx context.Context, profile *domain.UserProfile) error {
	assignments, err := json.Marshal(profile.Assignments)
	if err != nil {
		return err
	}
	chain, err := json.Marshal(profile.FallbackChain)
	if err != nil {
		return err
	}

	po := &UserProfilePO{
		ID:            profile.ID,
		Name:          profile.Name,
		UserID:        profile.UserID,
		TenantID:      profile.TenantID,
		Assignments:   assignments,
		FallbackChain: chain,
		IsActive:      profile.IsActive,
		UpdatedAt:     profile.UpdatedAt,
	}

	return r.db.WithContext(ctx).Save(po).Error
}

// toDomain 持久化对象转领域实体
func (r *GormProfileRepo) toDomain(po *UserProfilePO) (*domain.UserProfile, error) {
	profile := &domain.UserProfile{
		ID:            po.ID,
		Name:          po.Name,
		UserID:        po.UserID,
		TenantID:      po.TenantID,
		Assignments:   make(map[domain.TaskType]*domain.ModelAssignment),
		FallbackChain: make([]string, 0),
		IsActive:      po.IsActive,
		UpdatedAt:     po.UpdatedAt,
	}

	if len(po.Assignments) > 0 {
		if err := json.Unmarshal(po.Assignments, &profile.Assignments); err != nil {
			r.logger.Warnf("corrupt assignments for profile %s: %v", po.ID, err)
			return nil, err
		}
	}
	if len(po.FallbackChain) > 0 {
		if err := json.Unmarshal(po.FallbackChain, &profile.FallbackChain); err != nil {
			r.logger.Warnf("corrupt fallback chain for profile %s: %v", po.ID, err)
			return nil, err
		}
	}

	return profile, nil
}
