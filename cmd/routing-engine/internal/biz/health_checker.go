package biz

import (
	"context"
	"errors"
	"sync"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/sony/gobreaker"
)

// HealthCheckerConfig 健康检查配置
type HealthCheckerConfig struct {
	ProbeTimeout     time.Duration // 单次探测超时
	FailureThreshold uint32        // 连续失败阈值（触发熔断）
	RecoveryTimeout  time.Duration // 熔断恢复窗口
	// FailureMeansUnhealthy 为true时探测失败直接视为unhealthy而非unknown
	FailureMeansUnhealthy bool
}

// DefaultHealthCheckerConfig 默认配置
func DefaultHealthCheckerConfig() HealthCheckerConfig {
	return HealthCheckerConfig{
		ProbeTimeout:     2 * time.Second,
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// ProviderHealthChecker 提供商健康检查器
// 探测失败/超时一律返回unknown，由路由层走降级路径；绝不静默当成healthy
type ProviderHealthChecker struct {
	probe  domain.ProviderProbe
	config HealthCheckerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker

	logger *log.Helper
}

// NewProviderHealthChecker 创建健康检查器
func NewProviderHealthChecker(
	probe domain.ProviderProbe,
	config HealthCheckerConfig,
	logger log.Logger,
) *ProviderHealthChecker {
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = 2 * time.Second
	}
	return &ProviderHealthChecker{
		probe:    probe,
		config:   config,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		logger:   log.NewHelper(logger),
	}
}

// Check 探测提供商健康状态
func (hc *ProviderHealthChecker) Check(ctx context.Context, provider string) domain.HealthStatus {
	breaker := hc.breakerFor(provider)

	_, err := breaker.Execute(func() (interface{}, error) {
		probeCtx, cancel := context.WithTimeout(ctx, hc.config.ProbeTimeout)
		defer cancel()
		return nil, hc.probe.Probe(probeCtx, provider)
	})

	if err == nil {
		return domain.HealthHealthy
	}

	// 探测成功且明确给出负结论
	if errors.Is(err, domain.ErrProviderUnhealthy) {
		return domain.HealthUnhealthy
	}

	// 熔断打开时不再打到下游，状态视为未知
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		hc.logger.Warnf("health probe circuit open for provider %s", provider)
		return domain.HealthUnknown
	}

	hc.logger.Warnf("health probe failed for provider %s: %v", provider, err)
	if hc.config.FailureMeansUnhealthy {
		return domain.HealthUnhealthy
	}
	return domain.HealthUnknown
}

// breakerFor 按提供商取熔断器
func (hc *ProviderHealthChecker) breakerFor(provider string) *gobreaker.CircuitBreaker {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	if breaker, exists := hc.breakers[provider]; exists {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:    "health-probe-" + provider,
		Timeout: hc.config.RecoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= hc.config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			hc.logger.Infof("circuit %s: %s -> %s", name, from, to)
		},
	}

	breaker := gobreaker.NewCircuitBreaker(settings)
	hc.breakers[provider] = breaker
	return breaker
}
