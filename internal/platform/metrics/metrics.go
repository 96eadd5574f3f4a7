package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec
	AuthRejectedTotal  *prometheus.CounterVec
	AuditWritesTotal   prometheus.Counter
	AuditFailuresTotal prometheus.Counter
	SoftDeletesTotal   *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates all metrics on the default registry, which is what the
// /metrics endpoint serves.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registry. Tests pass a fresh
// registry per test environment to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_logins_total",
			Help: "Total login attempts by outcome",
		}, []string{"outcome"}),
		AuthRejectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_auth_rejected_total",
			Help: "Requests rejected by the identity resolver or policy gate",
		}, []string{"reason"}),
		AuditWritesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "schoolhub_audit_writes_total",
			Help: "Access log entries persisted",
		}),
		AuditFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "schoolhub_audit_failures_total",
			Help: "Access log writes that failed and were suppressed",
		}),
		SoftDeletesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolhub_soft_deletes_total",
			Help: "Soft deletions by record type",
		}, []string{"record"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "schoolhub_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(seconds)
}
