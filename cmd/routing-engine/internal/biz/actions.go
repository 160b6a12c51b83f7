package biz

import (
	"context"
	"fmt"

	"kire/cmd/routing-engine/internal/domain"
	"kire/pkg/auth"
	pkgerrors "kire/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// Action 路由动作
// 动作是对外暴露能力的唯一入口，必须显式注册并声明所需权限
type Action interface {
	// Name 动作名，形如 routing.select
	Name() string
	// Permission 执行所需的RBAC权限
	Permission() auth.Permission
	// Execute 执行动作
	Execute(ctx context.Context, user *auth.UserContext, payload map[string]interface{}) (interface{}, error)
}

// ActionRegistry 动作注册表
// 执行顺序固定：限流先于RBAC消耗额度，限流结果不受权限校验结果影响
type ActionRegistry struct {
	actions map[string]Action
	rbac    *auth.RBACManager
	limiter RateLimiter
	logger  *log.Helper
}

// NewActionRegistry 创建动作注册表
func NewActionRegistry(rbac *auth.RBACManager, limiter RateLimiter, logger log.Logger) *ActionRegistry {
	return &ActionRegistry{
		actions: make(map[string]Action),
		rbac:    rbac,
		limiter: limiter,
		logger:  log.NewHelper(logger),
	}
}

// Register 注册动作，同名注册覆盖
func (r *ActionRegistry) Register(action Action) {
	r.actions[action.Name()] = action
}

// Names 已注册的动作名列表
func (r *ActionRegistry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}

// Invoke 调用指定动作
// 未注册动作、限流超额、权限不足都以kratos错误返回
func (r *ActionRegistry) Invoke(
	ctx context.Context,
	name string,
	user *auth.UserContext,
	payload map[string]interface{},
) (interface{}, error) {
	action, ok := r.actions[name]
	if !ok {
		ActionsTotal.WithLabelValues(name, "unknown").Inc()
		return nil, pkgerrors.NewNotFound("ACTION_NOT_FOUND", fmt.Sprintf("action %q is not registered", name))
	}

	if user == nil {
		ActionsTotal.WithLabelValues(name, "denied").Inc()
		return nil, pkgerrors.NewPermissionDenied("missing user identity")
	}

	// 限流额度先消耗：即使随后RBAC拒绝，本次调用也计入窗口
	allowed, err := r.limiter.Allow(ctx, user.UserID)
	if err != nil {
		r.logger.WithContext(ctx).Errorf("rate limiter failure for user %s: %v", user.UserID, err)
		ActionsTotal.WithLabelValues(name, "error").Inc()
		return nil, pkgerrors.NewInternalServerError("RATE_LIMITER_FAILURE", err.Error())
	}
	if !allowed {
		ActionsTotal.WithLabelValues(name, "rate_limited").Inc()
		return nil, pkgerrors.NewRateLimited(
			fmt.Sprintf("rate limit exceeded for user %s on action %s", user.UserID, name))
	}

	if !r.rbac.CheckUserPermission(user.Roles, action.Permission()) {
		ActionsTotal.WithLabelValues(name, "denied").Inc()
		return nil, pkgerrors.NewPermissionDenied(
			fmt.Sprintf("user %s lacks permission %s for action %s", user.UserID, action.Permission(), name))
	}

	result, err := action.Execute(ctx, user, payload)
	if err != nil {
		ActionsTotal.WithLabelValues(name, "error").Inc()
		return nil, err
	}

	ActionsTotal.WithLabelValues(name, "ok").Inc()
	return result, nil
}

// SelectAction routing.select：执行一次路由决策
type SelectAction struct {
	router *KIRERouter
}

// NewSelectAction 创建路由决策动作
func NewSelectAction(router *KIRERouter) *SelectAction {
	return &SelectAction{router: router}
}

func (a *SelectAction) Name() string                { return "routing.select" }
func (a *SelectAction) Permission() auth.Permission { return auth.PermissionRoutingUse }

// Execute 从载荷组装路由请求并执行
func (a *SelectAction) Execute(ctx context.Context, user *auth.UserContext, payload map[string]interface{}) (interface{}, error) {
	query, _ := payload["query"].(string)
	if query == "" {
		return nil, pkgerrors.NewBadRequest("EMPTY_QUERY", "query must not be empty")
	}

	req := domain.NewRouteRequest(user.UserID, query)
	req.Context.TenantID = user.TenantID
	req.Context.Roles = user.Roles

	if hint, ok := payload["task_type"].(string); ok {
		req.TaskTypeHint = domain.TaskType(hint)
	}
	if correlationID, ok := payload["correlation_id"].(string); ok && correlationID != "" {
		req.CorrelationID = correlationID
	}
	if preferred, ok := payload["preferred_provider"].(string); ok {
		req.Requirements.PreferredProvider = preferred
	}
	if caps, ok := payload["capabilities"].([]interface{}); ok {
		for _, c := range caps {
			if s, ok := c.(string); ok {
				req.Requirements.Capabilities = append(req.Requirements.Capabilities, s)
			}
		}
	}

	return a.router.Route(ctx, req)
}

// ProfileAction routing.profile：查询调用者当前生效的路由画像
type ProfileAction struct {
	profiles *ProfileResolver
}

// NewProfileAction 创建画像查询动作
func NewProfileAction(profiles *ProfileResolver) *ProfileAction {
	return &ProfileAction{profiles: profiles}
}

func (a *ProfileAction) Name() string                { return "routing.profile" }
func (a *ProfileAction) Permission() auth.Permission { return auth.PermissionRoutingProfile }

func (a *ProfileAction) Execute(ctx context.Context, user *auth.UserContext, _ map[string]interface{}) (interface{}, error) {
	profile := a.profiles.GetUserProfile(ctx, user.UserID, user.TenantID)
	if profile == nil {
		return nil, pkgerrors.NewNotFound("PROFILE_NOT_FOUND",
			fmt.Sprintf("no active profile for user %s", user.UserID))
	}
	return profile, nil
}

// StatsAction routing.stats：运行时缓存与去重统计
type StatsAction struct {
	cache *RoutingCache
	dedup *RequestDeduplicator
}

// NewStatsAction 创建统计查询动作
func NewStatsAction(cache *RoutingCache, dedup *RequestDeduplicator) *StatsAction {
	return &StatsAction{cache: cache, dedup: dedup}
}

func (a *StatsAction) Name() string                { return "routing.stats" }
func (a *StatsAction) Permission() auth.Permission { return auth.PermissionRoutingStats }

func (a *StatsAction) Execute(_ context.Context, _ *auth.UserContext, _ map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{
		"cache":         a.cache.Stats(),
		"deduplication": a.dedup.Stats(),
	}, nil
}

// AuditAction routing.audit：生成决策审计报告
type AuditAction struct {
	decisions *DecisionLogger
}

// NewAuditAction 创建审计报告动作
func NewAuditAction(decisions *DecisionLogger) *AuditAction {
	return &AuditAction{decisions: decisions}
}

func (a *AuditAction) Name() string                { return "routing.audit" }
func (a *AuditAction) Permission() auth.Permission { return auth.PermissionRoutingAudit }

func (a *AuditAction) Execute(ctx context.Context, _ *auth.UserContext, payload map[string]interface{}) (interface{}, error) {
	limit := 0
	if v, ok := payload["limit"].(float64); ok {
		limit = int(v)
	}
	return a.decisions.GenerateAuditReport(ctx, limit)
}
