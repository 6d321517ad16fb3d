// Package metrics holds the Prometheus collectors of the service. Every
// recording method is safe on a nil *Metrics so callers can opt out.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Filter outcomes recorded by the authentication middleware.
const (
	FilterAnonymous     = "anonymous"
	FilterAuthenticated = "authenticated"
	FilterInvalid       = "invalid"
	FilterMalformed     = "malformed"
	FilterUnknownUser   = "unknown_user"
	FilterError         = "error"
)

// Kinds of rows removed by the cleanup job.
const (
	CleanupRefreshTokens = "refresh_tokens"
	CleanupAuditLogs     = "audit_logs"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Token metrics
	TokensIssuedTotal     prometheus.Counter
	TokenValidationsTotal *prometheus.CounterVec
	AuthFilterTotal       *prometheus.CounterVec

	// Login metrics
	LoginAttemptsTotal *prometheus.CounterVec

	// Maintenance metrics
	CleanupRemovedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on the registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_auth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rbac_auth_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TokensIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rbac_auth_tokens_issued_total",
				Help: "Total number of bearer tokens issued",
			},
		),
		TokenValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_auth_token_validations_total",
				Help: "Token validity checks by outcome",
			},
			[]string{"outcome"},
		),
		AuthFilterTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_auth_filter_requests_total",
				Help: "Authentication filter decisions by outcome",
			},
			[]string{"outcome"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_auth_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		CleanupRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rbac_auth_cleanup_removed_total",
				Help: "Rows removed by scheduled cleanup",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.TokensIssuedTotal,
		m.TokenValidationsTotal,
		m.AuthFilterTotal,
		m.LoginAttemptsTotal,
		m.CleanupRemovedTotal,
	)

	return m
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssuedTotal.Inc()
}

func (m *Metrics) TokenValidated(valid bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.TokenValidationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FilterOutcome(outcome string) {
	if m == nil {
		return
	}
	m.AuthFilterTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LoginAttempt(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CleanupRemoved(kind string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.CleanupRemovedTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
