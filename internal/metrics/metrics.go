package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the engine and its HTTP
// surface. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	badgesAwarded      *prometheus.CounterVec
	awardConflicts     prometheus.Counter
	graceDaysConsumed  prometheus.Counter
	descriptorCache    *prometheus.CounterVec
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	rateLimited        prometheus.Counter
	wsClients          prometheus.Gauge
	notificationDrops  prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "evaluations_total",
			Help:      "Badge evaluations by category and outcome",
		}, []string{"category", "outcome"}),
		evaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardtracker",
			Name:      "evaluation_duration_seconds",
			Help:      "Histogram of badge evaluation durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		badgesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "badges_awarded_total",
			Help:      "Badges newly written to the award ledger",
		}, []string{"category"}),
		awardConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "award_conflicts_total",
			Help:      "Award attempts that found the badge already held",
		}),
		graceDaysConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "grace_days_consumed_total",
			Help:      "Grace days spent to protect a streak",
		}),
		descriptorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "descriptor_cache_lookups_total",
			Help:      "Item descriptor cache lookups by result",
		}, []string{"result"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests received",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardtracker",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "http_rate_limited_total",
			Help:      "Number of HTTP requests rejected due to rate limiting",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cardtracker",
			Name:      "ws_clients",
			Help:      "Current connected WebSocket clients",
		}),
		notificationDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardtracker",
			Name:      "notification_drops_total",
			Help:      "Award notifications dropped due to slow clients",
		}),
	}

	registry.MustRegister(
		m.evaluations,
		m.evaluationDuration,
		m.badgesAwarded,
		m.awardConflicts,
		m.graceDaysConsumed,
		m.descriptorCache,
		m.requestsTotal,
		m.requestDuration,
		m.rateLimited,
		m.wsClients,
		m.notificationDrops,
	)
	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEvaluation(category, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(category, outcome).Inc()
	m.evaluationDuration.WithLabelValues(category).Observe(dur.Seconds())
}

func (m *Metrics) IncBadgesAwarded(category string) {
	if m == nil {
		return
	}
	m.badgesAwarded.WithLabelValues(category).Inc()
}

func (m *Metrics) IncAwardConflicts() {
	if m == nil {
		return
	}
	m.awardConflicts.Inc()
}

func (m *Metrics) IncGraceDaysConsumed() {
	if m == nil {
		return
	}
	m.graceDaysConsumed.Inc()
}

// ObserveDescriptorCache records hits and misses in bulk.
func (m *Metrics) ObserveDescriptorCache(hits, misses int) {
	if m == nil {
		return
	}
	m.descriptorCache.WithLabelValues("hit").Add(float64(hits))
	m.descriptorCache.WithLabelValues("miss").Add(float64(misses))
}

func (m *Metrics) ObserveRequest(route, method string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(dur.Seconds())
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) IncWSClients(delta float64) {
	if m == nil {
		return
	}
	m.wsClients.Add(delta)
}

func (m *Metrics) IncNotificationDrops() {
	if m == nil {
		return
	}
	m.notificationDrops.Inc()
}
