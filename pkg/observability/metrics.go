package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Decision metrics
	DecisionsTotal   *prometheus.CounterVec
	DecisionDuration *prometheus.HistogramVec

	// Delegation metrics
	DelegationsCreatedTotal *prometheus.CounterVec
	DelegationsRevokedTotal prometheus.Counter

	// Audit metrics
	AuditEntriesTotal      *prometheus.CounterVec
	AuditWriteFailuresTotal prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accesscore_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_decisions_total",
				Help: "Total number of access decisions by outcome and reason",
			},
			[]string{"outcome", "reason"},
		),
		DecisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "accesscore_decision_duration_seconds",
				Help:    "Access decision latency in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
		DelegationsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_delegations_created_total",
				Help: "Total number of permission delegations created",
			},
			[]string{"status"},
		),
		DelegationsRevokedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accesscore_delegations_revoked_total",
				Help: "Total number of permission delegations revoked",
			},
		),
		AuditEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accesscore_audit_entries_total",
				Help: "Total number of audit entries written by severity",
			},
			[]string{"severity"},
		),
		AuditWriteFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accesscore_audit_write_failures_total",
				Help: "Total number of audit entries dropped because the sink failed",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "accesscore_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "accesscore_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DecisionsTotal,
		m.DecisionDuration,
		m.DelegationsCreatedTotal,
		m.DelegationsRevokedTotal,
		m.AuditEntriesTotal,
		m.AuditWriteFailuresTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records one access decision outcome
func (m *Metrics) ObserveDecision(allowed bool, reason string, duration time.Duration) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.DecisionsTotal.WithLabelValues(outcome, reason).Inc()
	m.DecisionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveDelegationCreated records one delegation grant
func (m *Metrics) ObserveDelegationCreated(status string) {
	m.DelegationsCreatedTotal.WithLabelValues(status).Inc()
}

// ObserveDelegationRevoked records one delegation revocation
func (m *Metrics) ObserveDelegationRevoked() {
	m.DelegationsRevokedTotal.Inc()
}

// ObserveAuditEntry records one audit entry write by severity
func (m *Metrics) ObserveAuditEntry(severity string) {
	m.AuditEntriesTotal.WithLabelValues(severity).Inc()
}

// ObserveAuditWriteFailure records one dropped audit entry
func (m *Metrics) ObserveAuditWriteFailure() {
	m.AuditWriteFailuresTotal.Inc()
}

// ObserveHTTPRequest records one HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// CollectDBStats copies connection pool stats into the gauges
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
