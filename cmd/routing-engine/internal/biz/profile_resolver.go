package biz

import (
	"context"
	"errors"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// ProfileResolver 画像解析器
// 不缓存"哪个画像处于激活态"：激活变更必须对下一次路由调用立即可见
type ProfileResolver struct {
	repo          domain.ProfileRepository
	lookupTimeout time.Duration
	logger        *log.Helper
}

// NewProfileResolver 创建画像解析器
func NewProfileResolver(repo domain.ProfileRepository, lookupTimeout time.Duration, logger log.Logger) *ProfileResolver {
	if lookupTimeout <= 0 {
		lookupTimeout = 2 * time.Second
	}
	return &ProfileResolver{
		repo:          repo,
		lookupTimeout: lookupTimeout,
		logger:        log.NewHelper(logger),
	}
}

// GetUserProfile 获取用户激活画像，无则回退到租户默认
// 查不到画像返回nil而不是错误：无画像是正常的路由输入
func (r *ProfileResolver) GetUserProfile(ctx context.Context, userID, tenantID string) *domain.UserProfile {
	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	profile, err := r.repo.GetActiveProfile(lookupCtx, userID)
	if err == nil && profile != nil && profile.IsActive {
		return profile
	}
	if err != nil && !errors.Is(err, domain.ErrProfileNotFound) {
		r.logger.WithContext(ctx).Warnf("profile lookup failed for user %s: %v", userID, err)
	}

	if tenantID == "" {
		return nil
	}

	fallback, err := r.repo.GetTenantDefault(lookupCtx, tenantID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			r.logger.WithContext(ctx).Warnf("tenant default lookup failed for %s: %v", tenantID, err)
		}
		return nil
	}

	return fallback
}

// GetModelAssignment 获取画像中指定任务类型的模型指派
func (r *ProfileResolver) GetModelAssignment(profile *domain.UserProfile, taskType domain.TaskType) *domain.ModelAssignment {
	return profile.GetAssignment(taskType)
}
