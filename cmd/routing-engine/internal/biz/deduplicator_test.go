package biz

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kire/cmd/routing-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDeduplicator_ConcurrentCallsShareOneComputation(t *testing.T) {
	dedup := NewRequestDeduplicator()

	var computations int64
	compute := func() (*domain.RouteDecision, error) {
		atomic.AddInt64(&computations, 1)
		time.Sleep(50 * time.Millisecond)
		return domain.NewRouteDecision("openai", "gpt-4o", "computed once", 0.9), nil
	}

	const callers = 10
	var wg sync.WaitGroup
	results := make([]*domain.RouteDecision, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = dedup.RunOnce(context.Background(), "same-key", compute)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&computations), "exactly one computation for K concurrent callers")

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, "openai", results[i].Provider)
	}

	stats := dedup.Stats()
	assert.Equal(t, int64(callers), stats.TotalCalls)
	assert.Equal(t, int64(callers-1), stats.SharedCalls)
	assert.Greater(t, stats.DeduplicationRate, 0.0)
}

func TestRequestDeduplicator_DifferentKeysComputeSeparately(t *testing.T) {
	dedup := NewRequestDeduplicator()

	var computations int64
	compute := func() (*domain.RouteDecision, error) {
		atomic.AddInt64(&computations, 1)
		return domain.NewRouteDecision("openai", "gpt-4o", "ok", 0.9), nil
	}

	_, err := dedup.RunOnce(context.Background(), "key-a", compute)
	require.NoError(t, err)
	_, err = dedup.RunOnce(context.Background(), "key-b", compute)
	require.NoError(t, err)

	assert.Equal(t, int64(2), atomic.LoadInt64(&computations))
}

func TestRequestDeduplicator_CanceledWaiterDoesNotCancelComputation(t *testing.T) {
	dedup := NewRequestDeduplicator()

	started := make(chan struct{})
	compute := func() (*domain.RouteDecision, error) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		return domain.NewRouteDecision("openai", "gpt-4o", "survived", 0.9), nil
	}

	// 第一个调用方持有在途计算
	resultCh := make(chan *domain.RouteDecision, 1)
	go func() {
		decision, _ := dedup.RunOnce(context.Background(), "key", compute)
		resultCh <- decision
	}()
	<-started

	// 第二个调用方立即放弃
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := dedup.RunOnce(ctx, "key", compute)
	assert.ErrorIs(t, err, context.Canceled)

	// 在途计算不受影响，第一个调用方拿到结果
	select {
	case decision := <-resultCh:
		require.NotNil(t, decision)
		assert.Equal(t, "survived", decision.Reasoning)
	case <-time.After(time.Second):
		t.Fatal("computation did not complete")
	}

	// 在途表最终清空
	assert.Eventually(t, func() bool {
		return dedup.InflightCount() == 0
	}, time.Second, 10*time.Millisecond)
}
