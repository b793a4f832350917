// Package metrics registers the process-wide Prometheus collectors. All of
// them are fire-and-forget; economic correctness never depends on a counter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tapforge"

var (
	TickOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tick_outcomes_total",
		Help:      "Tick engine invocations by outcome status.",
	}, []string{"status"})

	TickFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tick_failures_total",
		Help:      "Tick engine failures by machine-readable reason.",
	}, []string{"reason"})

	TapRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tap_rejections_total",
		Help:      "Rate-limited tap requests by window.",
	}, []string{"window"})

	RateLimiterDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limiter_degraded_total",
		Help:      "Tap requests allowed through because the counter store was unavailable.",
	})

	OfflineRewards = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offline_rewards_total",
		Help:      "Offline catch-up grants, split by whether the cap truncated them.",
	}, []string{"capped"})

	BuildingGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "building_grants_total",
		Help:      "Building acquisitions by source (purchase vs auto_grant).",
	}, []string{"source"})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_duration_seconds",
		Help:      "Observed play session lengths at logout.",
		Buckets:   prometheus.ExponentialBuckets(30, 2, 12),
	})

	AchievementUnlocks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "achievement_unlocks_total",
		Help:      "Achievement tiers newly unlocked.",
	})

	EngineFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_failures_total",
		Help:      "Non-tick engine failures by engine and reason.",
	}, []string{"engine", "reason"})
)
