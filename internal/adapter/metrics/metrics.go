package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/V4T54L/alert-triage/internal/domain"
)

const namespace = "alert_triage"

// TriageMetrics holds all Prometheus metrics for the triage service.
type TriageMetrics struct {
	WebhookRequestsTotal *prometheus.CounterVec
	BytesTotal           prometheus.Counter
	DecisionsTotal       *prometheus.CounterVec
	ActionsTotal         *prometheus.CounterVec
	PublishErrorsTotal   prometheus.Counter
	WALActive            prometheus.Gauge
	IntelLookupsTotal    *prometheus.CounterVec
	IntelLookupDuration  *prometheus.HistogramVec
	IntelCacheHits       prometheus.Counter
	IntelCacheMisses     prometheus.Counter
	TokenCacheHits       prometheus.Counter
	TokenCacheMisses     prometheus.Counter
}

// NewTriageMetrics initializes the metrics and registers them with reg.
func NewTriageMetrics(reg prometheus.Registerer) *TriageMetrics {
	factory := promauto.With(reg)
	return &TriageMetrics{
		WebhookRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Total number of webhook requests by status.",
		}, []string{"status"}), // status: accepted, error_parse, error_size, error_media_type, error_validation
		BytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "bytes_total",
			Help:      "Total number of webhook payload bytes accepted.",
		}),
		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "triage",
			Name:      "decisions_total",
			Help:      "Total number of triage decisions by category.",
		}, []string{"category"}),
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "triage",
			Name:      "actions_total",
			Help:      "Total number of dispatched actions by kind and outcome.",
		}, []string{"action", "ok"}),
		PublishErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "triage",
			Name:      "publish_errors_total",
			Help:      "Total number of decisions that could not be published.",
		}),
		WALActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "decisions",
			Name:      "wal_active_gauge",
			Help:      "Indicates if the Write-Ahead Log is currently active (1 for active, 0 for inactive).",
		}),
		IntelLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "lookups_total",
			Help:      "Total number of provider lookups by provider and verdict status.",
		}, []string{"provider", "status"}),
		IntelLookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "lookup_duration_seconds",
			Help:      "Provider lookup latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 4, 8, 16},
		}, []string{"provider"}),
		IntelCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "cache_hits_total",
			Help:      "Total number of intel cache hits.",
		}),
		IntelCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intel",
			Name:      "cache_misses_total",
			Help:      "Total number of intel cache misses.",
		}),
		TokenCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_cache_hits_total",
			Help:      "Total number of webhook token cache hits.",
		}),
		TokenCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_cache_misses_total",
			Help:      "Total number of webhook token cache misses.",
		}),
	}
}

// ObserveLookup records one provider lookup.
func (m *TriageMetrics) ObserveLookup(provider string, status domain.VerdictStatus, elapsed time.Duration) {
	m.IntelLookupsTotal.WithLabelValues(provider, string(status)).Inc()
	m.IntelLookupDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveCache records an intel cache hit or miss.
func (m *TriageMetrics) ObserveCache(hit bool) {
	if hit {
		m.IntelCacheHits.Inc()
		return
	}
	m.IntelCacheMisses.Inc()
}

// ObserveDecision records a completed triage and its dispatched actions.
func (m *TriageMetrics) ObserveDecision(category domain.Category, actions map[string]domain.ActionStatus) {
	m.DecisionsTotal.WithLabelValues(string(category)).Inc()
	for name, status := range actions {
		m.ActionsTotal.WithLabelValues(name, strconv.FormatBool(status.OK)).Inc()
	}
}
