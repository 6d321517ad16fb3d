package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Recording(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.TokenIssued()
	m.TokenIssued()
	m.TokenValidated(true)
	m.TokenValidated(false)
	m.TokenValidated(false)
	m.FilterOutcome(FilterMalformed)
	m.LoginAttempt(false)
	m.CleanupRemoved("refresh_tokens", 3)
	m.CleanupRemoved("refresh_tokens", 0)
	m.ObserveRequest("GET", "/health", "200", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIssuedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenValidationsTotal.WithLabelValues("valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenValidationsTotal.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFilterTotal.WithLabelValues(FilterMalformed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CleanupRemovedTotal.WithLabelValues("refresh_tokens")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TokenIssued()
		m.TokenValidated(true)
		m.FilterOutcome(FilterAnonymous)
		m.LoginAttempt(true)
		m.CleanupRemoved("audit_logs", 1)
		m.ObserveRequest("GET", "/", "200", 0)
	})
}
