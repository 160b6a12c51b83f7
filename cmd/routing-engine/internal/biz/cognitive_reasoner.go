package biz

import (
	"fmt"
	"strings"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
)

// CognitiveReasoner 认知推理器
// 纯函数组件：把任务分析与人格/紧急度信号合成决策偏置和可读叙述
type CognitiveReasoner struct {
	logger *log.Helper
}

// NewCognitiveReasoner 创建认知推理器
func NewCognitiveReasoner(logger log.Logger) *CognitiveReasoner {
	return &CognitiveReasoner{
		logger: log.NewHelper(logger),
	}
}

// Evaluate 合成认知结果
func (r *CognitiveReasoner) Evaluate(
	req *domain.RouteRequest,
	analysis *domain.TaskAnalysis,
	profile *domain.UserProfile,
) *domain.Cognition {
	cognition := &domain.Cognition{
		PrimaryGoal:      analysis.TaskType,
		RecommendedTools: analysis.ToolIntents,
		NeedUrgency:      analysis.NeedState.Urgency,
		PersonaBias:      r.resolvePersona(req, profile),
	}

	cognition.Weights = r.deriveWeights(analysis, cognition.PersonaBias)
	cognition.Narrative = r.buildNarrative(analysis, cognition)

	r.logger.Debugf("cognition: goal=%s, urgency=%s, persona=%s, urgency_weight=%.2f",
		cognition.PrimaryGoal, cognition.NeedUrgency, cognition.PersonaBias,
		cognition.Weights.UrgencyWeight)

	return cognition
}

// resolvePersona 人格偏好解析：请求上下文 → 画像默认 → neutral
func (r *CognitiveReasoner) resolvePersona(req *domain.RouteRequest, profile *domain.UserProfile) string {
	if req.Context.Persona != "" {
		return req.Context.Persona
	}
	if p := profile.DefaultPersona(); p != "" {
		return p
	}
	return "neutral"
}

// deriveWeights 按紧急度/情感/人格信号缩放决策向量权重
// 不变式：高紧急度叠加任何情感信号时，紧急权重必须严格大于情感权重
func (r *CognitiveReasoner) deriveWeights(analysis *domain.TaskAnalysis, persona string) domain.DecisionWeights {
	weights := domain.DecisionWeights{
		UrgencyWeight:    0.3,
		AffectWeight:     0.2,
		PersonaWeight:    0.25,
		CapabilityWeight: 0.5,
	}

	switch analysis.NeedState.Urgency {
	case domain.UrgencyHigh:
		weights.UrgencyWeight = 0.9
	case domain.UrgencyElevated:
		weights.UrgencyWeight = 0.6
	}

	if analysis.NeedState.Affect != domain.AffectNeutral {
		weights.AffectWeight = 0.5
	}

	if persona != "neutral" {
		weights.PersonaWeight = 0.4
	}

	if len(analysis.RequiredCapabilities) > 1 {
		weights.CapabilityWeight = 0.7
	}

	return weights
}

// buildNarrative 生成审计叙述
// 次要任务必须逐一点名，保证审计链路自解释
func (r *CognitiveReasoner) buildNarrative(analysis *domain.TaskAnalysis, c *domain.Cognition) string {
	var b strings.Builder

	fmt.Fprintf(&b, "primary goal %q at %s urgency in %s mode",
		c.PrimaryGoal, analysis.NeedState.Urgency, analysis.NeedState.Mode)

	if c.PersonaBias != "neutral" {
		fmt.Fprintf(&b, ", biased by persona %q", c.PersonaBias)
	}

	if len(c.RecommendedTools) > 0 {
		fmt.Fprintf(&b, ", tools suggested: %s", strings.Join(c.RecommendedTools, ", "))
	}

	for _, secondary := range analysis.SecondaryTasks {
		fmt.Fprintf(&b, "; secondary task %q observed in prior turns", secondary)
	}

	return b.String()
}

// CognitionSummary 认知摘要（写入决策元数据）
func CognitionSummary(c *domain.Cognition) string {
	return fmt.Sprintf("goal=%s urgency=%s persona=%s uw=%.2f aw=%.2f",
		c.PrimaryGoal, c.NeedUrgency, c.PersonaBias,
		c.Weights.UrgencyWeight, c.Weights.AffectWeight)
}

// AnalysisSummary 分析摘要（写入决策元数据）
func AnalysisSummary(a *domain.TaskAnalysis) string {
	return fmt.Sprintf("task=%s caps=%s confidence=%.2f step=%s",
		a.TaskType, strings.Join(a.RequiredCapabilities, ","), a.Confidence, a.PipelineStep)
}
