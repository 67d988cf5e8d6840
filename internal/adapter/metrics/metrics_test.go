package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/V4T54L/alert-triage/internal/domain"
)

func TestTriageMetrics_Observers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTriageMetrics(reg)

	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.ObserveLookup("otx", domain.VerdictVote, 120*time.Millisecond)
	m.ObserveLookup("otx", domain.VerdictError, time.Second)
	m.ObserveDecision(domain.CategoryHigh, map[string]domain.ActionStatus{
		domain.ActionKeyTicket: {OK: false, Message: "Autotask disabled"},
	})

	if got := counterValue(t, reg, "alert_triage_intel_cache_hits_total", nil); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := counterValue(t, reg, "alert_triage_intel_cache_misses_total", nil); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := counterValue(t, reg, "alert_triage_intel_lookups_total", map[string]string{"provider": "otx", "status": "error"}); got != 1 {
		t.Errorf("otx error lookups = %v, want 1", got)
	}
	if got := counterValue(t, reg, "alert_triage_triage_decisions_total", map[string]string{"category": "HIGH"}); got != 1 {
		t.Errorf("HIGH decisions = %v, want 1", got)
	}
	if got := counterValue(t, reg, "alert_triage_triage_actions_total", map[string]string{"action": "ticket", "ok": "false"}); got != 1 {
		t.Errorf("failed tickets = %v, want 1", got)
	}
}

func TestNewTriageMetrics_SeparateRegistries(t *testing.T) {
	// Each registry gets its own collectors; constructing twice must not panic.
	NewTriageMetrics(prometheus.NewRegistry())
	NewTriageMetrics(prometheus.NewRegistry())
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func matchLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}
