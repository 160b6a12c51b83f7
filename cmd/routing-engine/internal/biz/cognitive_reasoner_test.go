package biz

import (
	"os"
	"strings"
	"testing"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

func TestCognitiveReasoner_WeightInvariant(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	reasoner := NewCognitiveReasoner(logger)

	// 高紧急度叠加情感信号时，紧急权重必须严格大于情感权重
	analysis := domain.NewTaskAnalysis(domain.TaskTypeCode, 0.8)
	analysis.NeedState.Urgency = domain.UrgencyHigh
	analysis.NeedState.Affect = domain.AffectNegative

	req := domain.NewRouteRequest("user-1", "urgent: fix this broken build")
	cognition := reasoner.Evaluate(req, analysis, nil)

	assert.Greater(t, cognition.Weights.UrgencyWeight, cognition.Weights.AffectWeight,
		"urgency weight must dominate affect weight under high urgency")
	assert.Equal(t, 0.9, cognition.Weights.UrgencyWeight)
	assert.Equal(t, 0.5, cognition.Weights.AffectWeight)
}

func TestCognitiveReasoner_WeightScaling(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	reasoner := NewCognitiveReasoner(logger)

	testCases := []struct {
		name           string
		urgency        domain.Urgency
		affect         domain.Affect
		persona        string
		capabilities   []string
		urgencyWeight  float64
		affectWeight   float64
		personaWeight  float64
		capabilityWght float64
	}{
		{
			name:           "全部基线",
			urgency:        domain.UrgencyNormal,
			affect:         domain.AffectNeutral,
			capabilities:   []string{"text"},
			urgencyWeight:  0.3,
			affectWeight:   0.2,
			personaWeight:  0.25,
			capabilityWght: 0.5,
		},
		{
			name:           "次级紧急度",
			urgency:        domain.UrgencyElevated,
			affect:         domain.AffectNeutral,
			capabilities:   []string{"text"},
			urgencyWeight:  0.6,
			affectWeight:   0.2,
			personaWeight:  0.25,
			capabilityWght: 0.5,
		},
		{
			name:           "非中性人格与多能力",
			urgency:        domain.UrgencyNormal,
			affect:         domain.AffectPositive,
			persona:        "concise",
			capabilities:   []string{"text", "code"},
			urgencyWeight:  0.3,
			affectWeight:   0.5,
			personaWeight:  0.4,
			capabilityWght: 0.7,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			analysis := domain.NewTaskAnalysis(domain.TaskTypeChat, 0.7)
			analysis.NeedState.Urgency = tc.urgency
			analysis.NeedState.Affect = tc.affect
			analysis.RequiredCapabilities = tc.capabilities

			req := domain.NewRouteRequest("user-1", "hello")
			req.Context.Persona = tc.persona

			cognition := reasoner.Evaluate(req, analysis, nil)

			assert.Equal(t, tc.urgencyWeight, cognition.Weights.UrgencyWeight)
			assert.Equal(t, tc.affectWeight, cognition.Weights.AffectWeight)
			assert.Equal(t, tc.personaWeight, cognition.Weights.PersonaWeight)
			assert.Equal(t, tc.capabilityWght, cognition.Weights.CapabilityWeight)
		})
	}
}

func TestCognitiveReasoner_PersonaResolution(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	reasoner := NewCognitiveReasoner(logger)
	analysis := domain.NewTaskAnalysis(domain.TaskTypeChat, 0.7)

	t.Run("请求人格优先", func(t *testing.T) {
		req := domain.NewRouteRequest("user-1", "hello")
		req.Context.Persona = "formal"
		profile := domain.NewUserProfile("p1", "casual", "user-1", "tenant-1")

		cognition := reasoner.Evaluate(req, analysis, profile)
		assert.Equal(t, "formal", cognition.PersonaBias)
	})

	t.Run("画像默认人格兜底", func(t *testing.T) {
		req := domain.NewRouteRequest("user-1", "hello")
		profile := domain.NewUserProfile("p1", "casual", "user-1", "tenant-1")

		cognition := reasoner.Evaluate(req, analysis, profile)
		assert.Equal(t, "casual", cognition.PersonaBias)
	})

	t.Run("无画像时neutral", func(t *testing.T) {
		req := domain.NewRouteRequest("user-1", "hello")

		cognition := reasoner.Evaluate(req, analysis, nil)
		assert.Equal(t, "neutral", cognition.PersonaBias)
	})
}

func TestCognitiveReasoner_NarrativeNamesSecondaryTasks(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	reasoner := NewCognitiveReasoner(logger)

	analysis := domain.NewTaskAnalysis(domain.TaskTypeSummarization, 0.8)
	analysis.AddSecondaryTask(domain.TaskTypeCode)
	analysis.AddSecondaryTask(domain.TaskTypeReasoning)

	req := domain.NewRouteRequest("user-1", "please summarize this text")
	cognition := reasoner.Evaluate(req, analysis, nil)

	if !strings.Contains(cognition.Narrative, `secondary task "code"`) {
		t.Errorf("Narrative must name secondary task code: %s", cognition.Narrative)
	}
	if !strings.Contains(cognition.Narrative, `secondary task "reasoning"`) {
		t.Errorf("Narrative must name secondary task reasoning: %s", cognition.Narrative)
	}
}
