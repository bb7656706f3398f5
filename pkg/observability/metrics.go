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

	// Authorization metrics
	PolicyDecisionsTotal *prometheus.CounterVec

	// Row scoping metrics
	VisibilityDerivationsTotal   *prometheus.CounterVec
	VisibilityDerivationDuration *prometheus.HistogramVec

	// Auth metrics
	LoginsTotal        *prometheus.CounterVec
	TokensPurgedTotal  prometheus.Counter
	ActiveSessionsSeen prometheus.Gauge

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PolicyDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_policy_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"entity", "operation", "decision"},
		),
		VisibilityDerivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_visibility_derivations_total",
				Help: "Total number of visibility set derivations",
			},
			[]string{"set"},
		),
		VisibilityDerivationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hearth_visibility_derivation_duration_seconds",
				Help:    "Visibility set derivation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"set"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hearth_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"status"},
		),
		TokensPurgedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hearth_tokens_purged_total",
				Help: "Total number of expired token records purged",
			},
		),
		ActiveSessionsSeen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hearth_active_sessions",
				Help: "Live session tokens at last maintenance sweep",
			},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hearth_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hearth_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PolicyDecisionsTotal,
		m.VisibilityDerivationsTotal,
		m.VisibilityDerivationDuration,
		m.LoginsTotal,
		m.TokensPurgedTotal,
		m.ActiveSessionsSeen,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)
	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// CollectDBStats samples the connection pool gauges.
func (m *Metrics) CollectDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// Handler returns the Prometheus scrape handler for the registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
