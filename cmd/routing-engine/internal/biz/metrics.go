package biz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal 决策计数
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kire_decisions_total",
			Help: "Total routing decisions by status and task type",
		},
		[]string{"status", "task_type"},
	)

	// CacheEventsTotal 缓存事件计数
	CacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kire_cache_events_total",
			Help: "Routing cache events (hit/miss/store)",
		},
		[]string{"event"},
	)

	// DecisionDuration 决策耗时分布
	DecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kire_decision_duration_seconds",
			Help:    "Routing decision latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"task_type"},
	)

	// ActionsTotal 动作边界调用计数
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kire_actions_total",
			Help: "Routing action invocations by action and status",
		},
		[]string{"action", "status"},
	)
)
