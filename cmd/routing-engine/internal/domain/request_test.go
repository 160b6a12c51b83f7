package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteRequest_CacheKeyStable(t *testing.T) {
	build := func() *RouteRequest {
		req := NewRouteRequest("user-1", "hello world")
		req.CorrelationID = "route_fixed"
		req.TaskTypeHint = TaskTypeChat
		req.Context.TenantID = "tenant-1"
		req.Requirements = Requirements{
			Capabilities:      []string{"text", "code"},
			PreferredProvider: "openai",
			MaxCostPer1K:      0.5,
			MaxLatencyMs:      2000,
			Priority:          1,
		}
		return req
	}

	assert.Equal(t, build().CacheKey(), build().CacheKey())
}

func TestRouteRequest_CacheKeyCapabilityOrderInsensitive(t *testing.T) {
	a := NewRouteRequest("user-1", "q")
	a.CorrelationID = "route_fixed"
	a.Requirements.Capabilities = []string{"code", "text", "vision"}

	b := NewRouteRequest("user-1", "q")
	b.CorrelationID = "route_fixed"
	b.Requirements.Capabilities = []string{"vision", "code", "text"}

	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestRouteRequest_CacheKeyFieldSensitivity(t *testing.T) {
	base := func() *RouteRequest {
		req := NewRouteRequest("user-1", "q")
		req.CorrelationID = "route_fixed"
		req.Context.TenantID = "tenant-1"
		return req
	}

	testCases := []struct {
		name   string
		mutate func(*RouteRequest)
	}{
		{"用户变化", func(r *RouteRequest) { r.UserID = "user-2" }},
		{"查询变化", func(r *RouteRequest) { r.Query = "other" }},
		{"任务提示变化", func(r *RouteRequest) { r.TaskTypeHint = TaskTypeCode }},
		{"租户变化", func(r *RouteRequest) { r.Context.TenantID = "tenant-2" }},
		{"关联ID变化", func(r *RouteRequest) { r.CorrelationID = "route_other" }},
		{"约束变化", func(r *RouteRequest) { r.Requirements.PreferredProvider = "local" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mutated := base()
			tc.mutate(mutated)
			assert.NotEqual(t, base().CacheKey(), mutated.CacheKey())
		})
	}
}

func TestRouteRequest_CacheKeyIgnoresHistory(t *testing.T) {
	a := NewRouteRequest("user-1", "q")
	a.CorrelationID = "route_fixed"

	b := NewRouteRequest("user-1", "q")
	b.CorrelationID = "route_fixed"
	b.Context.History = []ConversationTurn{{Role: "user", Content: "prior turn"}}
	b.Context.Persona = "formal"

	assert.Equal(t, a.CacheKey(), b.CacheKey(), "history and persona are not part of the cache key")
}
