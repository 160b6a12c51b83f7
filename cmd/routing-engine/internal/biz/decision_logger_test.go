package biz

import (
	"context"
	"os"
	"sync"
	"testing"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionLogger_StartAndDecisionEvents(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	store := &memStore{}
	dl := NewDecisionLogger(store, logger)

	ctx := context.Background()
	dl.LogStart(ctx, "route_1", "user-1", "routing.select", domain.TaskTypeCode)

	decision := domain.NewRouteDecision("openai", "gpt-4o", "test", 0.9)
	dl.LogDecision(ctx, "route_1", "user-1", domain.TaskTypeCode, "code_generation", decision, 12, true)

	events, err := dl.GetHistory(ctx, 10, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, domain.EventRoutingStart, events[0].EventType)
	assert.Equal(t, domain.EventRoutingDecision, events[1].EventType)
	assert.Equal(t, "openai", events[1].Provider)
	assert.Equal(t, int64(12), events[1].ExecutionTimeMs)
}

func TestDecisionLogger_ConcurrentAppends(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	store := &memStore{}
	dl := NewDecisionLogger(store, logger)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dl.LogStart(context.Background(), "route_c", "user-1", "routing.select", domain.TaskTypeChat)
		}()
	}
	wg.Wait()

	assert.Equal(t, writers, store.count(), "concurrent appends must not lose events")
}

func TestDecisionLogger_AuditReport(t *testing.T) {
	logger := log.NewStdLogger(os.Stdout)
	store := &memStore{}
	dl := NewDecisionLogger(store, logger)

	ctx := context.Background()
	decision := domain.NewRouteDecision("openai", "gpt-4o", "test", 0.9)

	dl.LogStart(ctx, "r1", "user-1", "routing.select", domain.TaskTypeCode)
	dl.LogDecision(ctx, "r1", "user-1", domain.TaskTypeCode, "code_generation", decision, 10, true)
	dl.LogStart(ctx, "r2", "user-2", "routing.select", domain.TaskTypeChat)
	dl.LogDecision(ctx, "r2", "user-2", domain.TaskTypeChat, "", nil, 30, false)

	report, err := dl.GenerateAuditReport(ctx, 100)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalEvents)
	assert.Equal(t, 3, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, 2, report.EventsByTaskType[domain.TaskTypeCode])
	assert.Equal(t, 2, report.EventsByTaskType[domain.TaskTypeChat])
	assert.Equal(t, 20.0, report.AvgExecutionTimeMs, "average over decision events only")
}
