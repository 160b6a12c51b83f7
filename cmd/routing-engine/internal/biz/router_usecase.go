package biz

import (
	"context"
	"fmt"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// degradedConfidenceCap 健康状态未知时的置信度上限
const degradedConfidenceCap = 0.55

// RouterConfig 路由器配置
type RouterConfig struct {
	CacheTTL time.Duration
}

// KIRERouter 路由决策编排器
// 单次调用流水线：缓存 → 去重 → 分析 → 认知 → 画像 → 候选链 → 健康/能力精化 → 决策
type KIRERouter struct {
	analyzer  *TaskAnalyzer
	reasoner  *CognitiveReasoner
	profiles  *ProfileResolver
	cache     *RoutingCache
	dedup     *RequestDeduplicator
	health    *ProviderHealthChecker
	decisions *DecisionLogger
	providers domain.ProviderRegistry
	config    RouterConfig
	logger    *log.Helper
}

// NewKIRERouter 创建路由器
func NewKIRERouter(
	analyzer *TaskAnalyzer,
	reasoner *CognitiveReasoner,
	profiles *ProfileResolver,
	cache *RoutingCache,
	dedup *RequestDeduplicator,
	health *ProviderHealthChecker,
	decisions *DecisionLogger,
	providers domain.ProviderRegistry,
	config RouterConfig,
	logger log.Logger,
) *KIRERouter {
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	return &KIRERouter{
		analyzer:  analyzer,
		reasoner:  reasoner,
		profiles:  profiles,
		cache:     cache,
		dedup:     dedup,
		health:    health,
		decisions: decisions,
		providers: providers,
		config:    config,
		logger:    log.NewHelper(logger),
	}
}

// Route 执行一次路由决策
func (r *KIRERouter) Route(ctx context.Context, req *domain.RouteRequest) (*domain.RouteDecision, error) {
	start := time.Now()
	key := req.CacheKey()

	r.decisions.LogStart(ctx, req.CorrelationID, req.UserID, "routing.select", req.TaskTypeHint)

	// 1. 缓存命中直接返回，但事件照常记录
	if cached, ok := r.cache.Get(key); ok {
		CacheEventsTotal.WithLabelValues("hit").Inc()
		decision := cached.WithCacheHit()
		decision.Metadata.CorrelationID = req.CorrelationID

		elapsed := time.Since(start)
		r.decisions.LogDecision(ctx, req.CorrelationID, req.UserID,
			decision.Metadata.TaskType, decision.Metadata.PipelineStep, decision, elapsed.Milliseconds(), true)
		DecisionsTotal.WithLabelValues("cache_hit", string(decision.Metadata.TaskType)).Inc()
		return decision, nil
	}
	CacheEventsTotal.WithLabelValues("miss").Inc()

	// 2. 同键在途计算合并为一次
	// 计算用脱离取消的上下文执行：发起方放弃不影响其他等待方
	computeCtx := context.WithoutCancel(ctx)
	decision, err := r.dedup.RunOnce(ctx, key, func() (*domain.RouteDecision, error) {
		return r.computeDecision(computeCtx, req, key)
	})

	elapsed := time.Since(start)

	if err != nil {
		r.decisions.LogDecision(ctx, req.CorrelationID, req.UserID,
			req.TaskTypeHint, "", nil, elapsed.Milliseconds(), false)
		DecisionsTotal.WithLabelValues("error", string(req.TaskTypeHint)).Inc()
		return nil, err
	}

	taskType := decision.Metadata.TaskType

	r.decisions.LogDecision(ctx, req.CorrelationID, req.UserID,
		taskType, decision.Metadata.PipelineStep, decision, elapsed.Milliseconds(), true)
	DecisionDuration.WithLabelValues(string(taskType)).Observe(elapsed.Seconds())

	status := "ok"
	if decision.Confidence <= degradedConfidenceCap {
		status = "degraded"
	}
	DecisionsTotal.WithLabelValues(status, string(taskType)).Inc()

	return decision, nil
}

// computeDecision 执行完整的决策流水线（缓存未命中路径）
func (r *KIRERouter) computeDecision(ctx context.Context, req *domain.RouteRequest, key string) (*domain.RouteDecision, error) {
	// 3. 任务分析（内部异常走降级路径而非失败）
	analysis, degraded := r.safeAnalyze(req)

	// 4. 画像解析 + 认知推理
	profile := r.profiles.GetUserProfile(ctx, req.UserID, req.Context.TenantID)
	cognition := r.safeEvaluate(req, analysis, profile, &degraded)

	// 5. 构建候选提供商链
	chain, rule := r.buildCandidateChain(req, analysis, profile)
	if len(chain) == 0 {
		return nil, domain.ErrNoProvidersConfigured
	}

	// 6. 按能力与健康精化
	decision := r.refineByHealth(ctx, chain, rule, analysis)

	if degraded {
		decision.CapConfidence(degradedConfidenceCap)
		decision.Reasoning += "; internal analysis degraded"
	}

	decision.Metadata.CorrelationID = req.CorrelationID
	decision.Metadata.TaskType = analysis.TaskType
	decision.Metadata.PipelineStep = analysis.PipelineStep
	decision.Metadata.AnalysisSummary = AnalysisSummary(analysis)
	decision.Metadata.CognitionSummary = CognitionSummary(cognition)
	decision.Metadata.CacheHit = false

	// 8. 写缓存
	r.cache.Put(key, decision, r.config.CacheTTL)
	CacheEventsTotal.WithLabelValues("store").Inc()

	r.logger.WithContext(ctx).Infof(
		"routed %s to provider=%s model=%s confidence=%.2f rule=%s",
		req.CorrelationID, decision.Provider, decision.Model, decision.Confidence, rule)

	return decision, nil
}

// safeAnalyze 运行任务分析器，panic转为降级的默认分析
func (r *KIRERouter) safeAnalyze(req *domain.RouteRequest) (analysis *domain.TaskAnalysis, degraded bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("task analyzer panic: %v", rec)
			analysis = domain.NewTaskAnalysis(domain.TaskTypeChat, 0.3)
			analysis.RequiredCapabilities = []string{"text"}
			analysis.PipelineStep = "response_synthesis"
			degraded = true
		}
	}()

	return r.analyzer.Analyze(req), false
}

// safeEvaluate 运行认知推理器，panic转为中性认知
func (r *KIRERouter) safeEvaluate(
	req *domain.RouteRequest,
	analysis *domain.TaskAnalysis,
	profile *domain.UserProfile,
	degraded *bool,
) (cognition *domain.Cognition) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("cognitive reasoner panic: %v", rec)
			cognition = &domain.Cognition{
				PrimaryGoal: analysis.TaskType,
				NeedUrgency: domain.UrgencyNormal,
				PersonaBias: "neutral",
				Narrative:   "reasoner unavailable, neutral cognition assumed",
			}
			*degraded = true
		}
	}()

	return r.reasoner.Evaluate(req, analysis, profile)
}

// buildCandidateChain 构建候选提供商链并返回命中的规则名
// 顺序：请求偏好提供商 → 画像任务指派 → 画像回退链 → 静态优先级表；同名去重
func (r *KIRERouter) buildCandidateChain(
	req *domain.RouteRequest,
	analysis *domain.TaskAnalysis,
	profile *domain.UserProfile,
) ([]string, string) {
	chain := make([]string, 0)
	seen := make(map[string]bool)
	rule := "static priority order"

	add := func(name string) bool {
		if name == "" || seen[name] {
			return false
		}
		if _, ok := r.providers.Get(name); !ok {
			return false
		}
		seen[name] = true
		chain = append(chain, name)
		return true
	}

	if add(req.Requirements.PreferredProvider) {
		rule = "preferred provider requested"
	}

	if assignment := profile.GetAssignment(analysis.TaskType); assignment != nil {
		if add(assignment.Provider) && rule == "static priority order" {
			rule = fmt.Sprintf("profile assignment for task %q", analysis.TaskType)
		}
	}

	if profile != nil {
		for _, name := range profile.FallbackChain {
			add(name)
		}
	}

	for _, name := range r.providers.PriorityOrder() {
		add(name)
	}

	return chain, rule
}

// refineByHealth 沿候选链做能力过滤与健康检查
// 健康未知时仍然选中但封顶置信度；不健康的候选被排除且不会再进入回退链
func (r *KIRERouter) refineByHealth(
	ctx context.Context,
	chain []string,
	rule string,
	analysis *domain.TaskAnalysis,
) *domain.RouteDecision {
	capable := make([]string, 0, len(chain))
	excluded := make(map[string]bool)

	for _, name := range chain {
		provider, _ := r.providers.Get(name)
		if provider.Satisfies(analysis.RequiredCapabilities) {
			capable = append(capable, name)
		}
	}

	// 无任何候选满足能力要求：选链首并降低置信度，而不是失败
	if len(capable) == 0 {
		head, _ := r.providers.Get(chain[0])
		decision := domain.NewRouteDecision(
			head.Name,
			head.DefaultModel,
			fmt.Sprintf("%s; no candidate declares capabilities %v, falling back to chain head",
				rule, analysis.RequiredCapabilities),
			minFloat(analysis.Confidence, 0.4),
		)
		decision.FallbackChain = remainingOf(chain, head.Name, excluded)
		return decision
	}

	for i, name := range capable {
		provider, _ := r.providers.Get(name)
		status := r.health.Check(ctx, name)

		switch status {
		case domain.HealthHealthy:
			decision := domain.NewRouteDecision(
				provider.Name,
				provider.DefaultModel,
				fmt.Sprintf("%s; provider %q healthy and satisfies %v",
					rule, provider.Name, analysis.RequiredCapabilities),
				analysis.Confidence,
			)
			decision.FallbackChain = remainingOf(capable[i+1:], "", excluded)
			return decision

		case domain.HealthUnknown:
			decision := domain.NewRouteDecision(
				provider.Name,
				provider.DefaultModel,
				fmt.Sprintf("%s; provider %q selected with health unavailable", rule, provider.Name),
				analysis.Confidence,
			)
			decision.CapConfidence(degradedConfidenceCap)
			decision.FallbackChain = remainingOf(capable[i+1:], "", excluded)
			return decision

		default:
			// 不健康：排除，且不允许重新进入回退链
			excluded[name] = true
		}
	}

	// 所有满足能力的候选都不健康：选能力链首并明确降级
	head, _ := r.providers.Get(capable[0])
	decision := domain.NewRouteDecision(
		head.Name,
		head.DefaultModel,
		fmt.Sprintf("%s; all capable providers unhealthy, degraded selection of %q", rule, head.Name),
		minFloat(analysis.Confidence, 0.3),
	)
	return decision
}

// remainingOf 计算回退链：去除已选中与已排除的候选
func remainingOf(candidates []string, selected string, excluded map[string]bool) []string {
	remaining := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if name == selected || excluded[name] {
			continue
		}
		remaining = append(remaining, name)
	}
	return remaining
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
