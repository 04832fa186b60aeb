package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestEngagementMetrics_Registered(t *testing.T) {
	Completions.WithLabelValues("habit").Inc()
	XPAwarded.WithLabelValues("habit").Add(75)
	LevelUps.Inc()
	StreakResets.Inc()

	names := gatheredNames(t)
	expected := []string{
		"focusquest_completions_total",
		"focusquest_xp_awarded_total",
		"focusquest_level_ups_total",
		"focusquest_streak_resets_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestXPAwarded_Accumulates(t *testing.T) {
	before := counterValue(t, XPAwarded.WithLabelValues("focus"))
	XPAwarded.WithLabelValues("focus").Add(50)
	XPAwarded.WithLabelValues("focus").Add(25)

	if got := counterValue(t, XPAwarded.WithLabelValues("focus")) - before; got != 75 {
		t.Errorf("focus xp delta = %v, want 75", got)
	}
}

func TestHTTPMetrics(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/api/dashboard", "200").Inc()
	HTTPDuration.WithLabelValues("GET", "/api/dashboard").Observe(0.02)
	LeaderboardCache.WithLabelValues("miss").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"focusquest_http_requests_total",
		"focusquest_http_request_duration_seconds",
		"focusquest_leaderboard_cache_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
