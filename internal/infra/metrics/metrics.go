// Package metrics provides Prometheus metrics for FocusQuest:
// completions, XP flow, leveling, streaks, leaderboard caching and HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Engagement ─────────────────────────────────────────────────────────────

// Completions counts first completions by item kind (habit, task, focus).
var Completions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "completions_total",
	Help:      "Total first completions by item kind.",
}, []string{"kind"})

// XPAwarded tracks XP granted, by source (habit, task, focus).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded by source.",
}, []string{"source"})

// LevelUps counts level transitions across all users.
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "level_ups_total",
	Help:      "Total level transitions.",
})

// StreakResets counts streaks zeroed by the missed-day decay.
var StreakResets = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "streak_resets_total",
	Help:      "Total habit streaks reset after a missed day.",
})

// ─── Leaderboards ───────────────────────────────────────────────────────────

// LeaderboardCache counts leaderboard cache lookups by result (hit, miss, error).
var LeaderboardCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "leaderboard_cache_total",
	Help:      "Leaderboard cache lookups by result.",
}, []string{"result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts handled requests by method, route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusquest",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks request latency in seconds.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "focusquest",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
}, []string{"method", "route"})
