package service

import (
	"context"
	"errors"
	"time"

	"kire/cmd/routing-engine/internal/biz"
	"kire/cmd/routing-engine/internal/domain"
	"kire/pkg/auth"
	pkgerrors "kire/pkg/errors"
	"kire/pkg/observability"

	"github.com/go-kratos/kratos/v2/log"
)

const tracerName = "routing-engine"

// RouteResponse 路由决策响应
type RouteResponse struct {
	Provider      string   `json:"provider"`
	Model         string   `json:"model"`
	Reasoning     string   `json:"reasoning"`
	Confidence    float64  `json:"confidence"`
	FallbackChain []string `json:"fallback_chain"`
	CacheHit      bool     `json:"cache_hit"`
	CorrelationID string   `json:"correlation_id"`
	RoutedAt      string   `json:"routed_at"`
}

// RoutingService 路由服务层
// 动作边界之上只做DTO转换、错误翻译和span包装
type RoutingService struct {
	actions *biz.ActionRegistry
	logger  *log.Helper
}

// NewRoutingService 创建路由服务
func NewRoutingService(actions *biz.ActionRegistry, logger log.Logger) *RoutingService {
	return &RoutingService{
		actions: actions,
		logger:  log.NewHelper(logger),
	}
}

// Route 执行路由决策动作
func (s *RoutingService) Route(ctx context.Context, user *auth.UserContext, payload map[string]interface{}) (*RouteResponse, error) {
	taskType, _ := payload["task_type"].(string)

	spanCtx, span := observability.StartSpan(ctx, tracerName, "routing.select")
	span.SetAttributes(observability.RouteAttributes{
		UserID:   user.UserID,
		TenantID: user.TenantID,
		TaskType: taskType,
	}.ToAttributes()...)
	defer span.End()

	result, err := s.actions.Invoke(spanCtx, "routing.select", user, payload)
	if err != nil {
		observability.RecordError(span, err)
		return nil, s.translate(err)
	}

	decision, ok := result.(*domain.RouteDecision)
	if !ok {
		return nil, pkgerrors.NewInternalServerError("UNEXPECTED_RESULT", "routing.select returned unexpected type")
	}

	return toRouteResponse(decision), nil
}

// Profile 查询生效画像
func (s *RoutingService) Profile(ctx context.Context, user *auth.UserContext) (interface{}, error) {
	result, err := s.actions.Invoke(ctx, "routing.profile", user, nil)
	if err != nil {
		return nil, s.translate(err)
	}
	return result, nil
}

// Stats 查询运行时统计
func (s *RoutingService) Stats(ctx context.Context, user *auth.UserContext) (interface{}, error) {
	result, err := s.actions.Invoke(ctx, "routing.stats", user, nil)
	if err != nil {
		return nil, s.translate(err)
	}
	return result, nil
}

// Audit 生成审计报告
func (s *RoutingService) Audit(ctx context.Context, user *auth.UserContext, limit int) (interface{}, error) {
	payload := map[string]interface{}{"limit": float64(limit)}
	result, err := s.actions.Invoke(ctx, "routing.audit", user, payload)
	if err != nil {
		return nil, s.translate(err)
	}
	return result, nil
}

// translate 领域错误翻译为kratos错误
func (s *RoutingService) translate(err error) error {
	if errors.Is(err, domain.ErrNoProvidersConfigured) {
		return pkgerrors.NewConfiguration("NO_PROVIDERS_CONFIGURED", err.Error())
	}
	return err
}

// toRouteResponse 决策转响应DTO
func toRouteResponse(d *domain.RouteDecision) *RouteResponse {
	return &RouteResponse{
		Provider:      d.Provider,
		Model:         d.Model,
		Reasoning:     d.Reasoning,
		Confidence:    d.Confidence,
		FallbackChain: d.FallbackChain,
		CacheHit:      d.Metadata.CacheHit,
		CorrelationID: d.Metadata.CorrelationID,
		RoutedAt:      d.Metadata.RoutedAt.Format(time.RFC3339),
	}
}
