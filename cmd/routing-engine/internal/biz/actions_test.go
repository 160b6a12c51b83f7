package biz

import (
	"context"
	"os"
	"testing"
	"time"

	"kire/cmd/routing-engine/internal/domain"
	"kire/pkg/auth"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingLimiter 记录调用次数的限流器
type countingLimiter struct {
	calls   int
	allowed bool
}

func (l *countingLimiter) Allow(_ context.Context, _ string) (bool, error) {
	l.calls++
	return l.allowed, nil
}

func testActionRegistry(t *testing.T, limiter RateLimiter) *ActionRegistry {
	t.Helper()
	logger := log.NewStdLogger(os.Stdout)

	router, _ := testRouter(t, defaultProviders(), nil, nil)

	registry := NewActionRegistry(auth.NewRBACManager(), limiter, logger)
	registry.Register(NewSelectAction(router))
	registry.Register(NewProfileAction(NewProfileResolver(&stubProfileRepo{}, 0, logger)))
	return registry
}

func TestActionRegistry_InvokeSelect(t *testing.T) {
	registry := testActionRegistry(t, &countingLimiter{allowed: true})

	user := &auth.UserContext{UserID: "user-1", TenantID: "tenant-1", Roles: []string{"user"}}
	result, err := registry.Invoke(context.Background(), "routing.select", user, map[string]interface{}{
		"query": "write python code to add two numbers",
	})

	require.NoError(t, err)
	decision, ok := result.(*domain.RouteDecision)
	require.True(t, ok)
	assert.NotEmpty(t, decision.Provider)
}

func TestActionRegistry_RBACDenied(t *testing.T) {
	limiter := &countingLimiter{allowed: true}
	registry := testActionRegistry(t, limiter)

	// guest没有routing:profile权限
	user := &auth.UserContext{UserID: "user-1", Roles: []string{"guest"}}
	_, err := registry.Invoke(context.Background(), "routing.profile", user, nil)

	require.Error(t, err)
	assert.True(t, kratoserrors.IsForbidden(err), "expected forbidden error, got %v", err)
}

func TestActionRegistry_RateLimitConsumedBeforeRBAC(t *testing.T) {
	limiter := &countingLimiter{allowed: true}
	registry := testActionRegistry(t, limiter)

	// 即使RBAC随后拒绝，限流额度也已消耗
	user := &auth.UserContext{UserID: "user-1", Roles: []string{"guest"}}
	_, err := registry.Invoke(context.Background(), "routing.profile", user, nil)

	require.Error(t, err)
	assert.Equal(t, 1, limiter.calls, "rate limit window must be consumed independent of RBAC outcome")
}

func TestActionRegistry_RateLimited(t *testing.T) {
	registry := testActionRegistry(t, &countingLimiter{allowed: false})

	user := &auth.UserContext{UserID: "user-1", Roles: []string{"admin"}}
	_, err := registry.Invoke(context.Background(), "routing.select", user, map[string]interface{}{
		"query": "hello",
	})

	require.Error(t, err)
	ke := kratoserrors.FromError(err)
	assert.Equal(t, int32(429), ke.Code)
	assert.Equal(t, "RATE_LIMITED", ke.Reason)
}

func TestActionRegistry_UnknownAction(t *testing.T) {
	registry := testActionRegistry(t, &countingLimiter{allowed: true})

	user := &auth.UserContext{UserID: "user-1", Roles: []string{"admin"}}
	_, err := registry.Invoke(context.Background(), "routing.nonexistent", user, nil)

	require.Error(t, err)
	assert.True(t, kratoserrors.IsNotFound(err))
}

func TestActionRegistry_MissingUser(t *testing.T) {
	registry := testActionRegistry(t, &countingLimiter{allowed: true})

	_, err := registry.Invoke(context.Background(), "routing.select", nil, nil)

	require.Error(t, err)
	assert.True(t, kratoserrors.IsForbidden(err))
}

func TestFixedWindowLimiter_MaxCalls(t *testing.T) {
	limiter := NewFixedWindowLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(context.Background(), "user-1")
		require.NoError(t, err)
		assert.True(t, allowed, "call %d within limit must pass", i+1)
	}

	allowed, err := limiter.Allow(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, allowed, "max+1 call must be rejected")

	// 其他用户独立计数
	allowed, err = limiter.Allow(context.Background(), "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestFixedWindowLimiter_WindowReset(t *testing.T) {
	limiter := NewFixedWindowLimiter(20*time.Millisecond, 1)

	allowed, _ := limiter.Allow(context.Background(), "user-1")
	require.True(t, allowed)

	allowed, _ = limiter.Allow(context.Background(), "user-1")
	require.False(t, allowed)

	time.Sleep(30 * time.Millisecond)

	allowed, _ = limiter.Allow(context.Background(), "user-1")
	assert.True(t, allowed, "new window must reset the count")
}
