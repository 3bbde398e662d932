package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation("milestone", "ok", time.Millisecond)
	m.IncBadgesAwarded("milestone")
	m.IncAwardConflicts()
	m.IncGraceDaysConsumed()
	m.ObserveDescriptorCache(1, 2)
	m.ObserveRequest("/health", "GET", 200, time.Millisecond)
	m.IncRateLimited()
	m.IncWSClients(1)
	m.IncNotificationDrops()
}

func TestCounters(t *testing.T) {
	m := New()
	m.IncBadgesAwarded("streak")
	m.IncBadgesAwarded("streak")
	m.IncAwardConflicts()
	m.ObserveDescriptorCache(3, 1)

	out := scrape(t, m)
	for _, want := range []string{
		`cardtracker_badges_awarded_total{category="streak"} 2`,
		`cardtracker_award_conflicts_total 1`,
		`cardtracker_descriptor_cache_lookups_total{result="hit"} 3`,
		`cardtracker_descriptor_cache_lookups_total{result="miss"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	return string(body)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveEvaluation("milestone", "ok", 5*time.Millisecond)

	out := scrape(t, m)
	if !strings.Contains(out, `cardtracker_evaluations_total{category="milestone",outcome="ok"} 1`) {
		t.Errorf("metrics output missing evaluation counter:\n%s", out)
	}
}
