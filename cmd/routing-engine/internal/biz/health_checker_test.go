package biz

import (
	"context"
	"errors"
	"os"
	"testing"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
)

func TestProviderHealthChecker_Statuses(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)

	testCases := []struct {
		name     string
		probeErr error
		expected domain.HealthStatus
	}{
		{
			name:     "探测成功",
			probeErr: nil,
			expected: domain.HealthHealthy,
		},
		{
			name:     "探测明确报告不可用",
			probeErr: domain.ErrProviderUnhealthy,
			expected: domain.HealthUnhealthy,
		},
		{
			name:     "探测失败视为未知而非不健康",
			probeErr: errors.New("connection refused"),
			expected: domain.HealthUnknown,
		},
		{
			name:     "探测超时视为未知",
			probeErr: context.DeadlineExceeded,
			expected: domain.HealthUnknown,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := NewProviderHealthChecker(
				&stubProbe{fn: func(string) error { return tc.probeErr }},
				DefaultHealthCheckerConfig(),
				logger,
			)

			status := checker.Check(context.Background(), "openai")
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestProviderHealthChecker_FailureMeansUnhealthy(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)

	config := DefaultHealthCheckerConfig()
	config.FailureMeansUnhealthy = true

	checker := NewProviderHealthChecker(
		&stubProbe{fn: func(string) error { return errors.New("connection refused") }},
		config,
		logger,
	)

	status := checker.Check(context.Background(), "openai")
	assert.Equal(t, domain.HealthUnhealthy, status, "configured to treat probe failure as unhealthy")
}

func TestProviderHealthChecker_CircuitOpensAfterConsecutiveFailures(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)

	config := DefaultHealthCheckerConfig()
	config.FailureThreshold = 2

	checker := NewProviderHealthChecker(
		&stubProbe{fn: func(string) error { return errors.New("connection refused") }},
		config,
		logger,
	)

	for i := 0; i < 3; i++ {
		checker.Check(context.Background(), "openai")
	}

	// 熔断打开后不再打到探测端，状态仍为未知
	status := checker.Check(context.Background(), "openai")
	assert.Equal(t, domain.HealthUnknown, status)
}
