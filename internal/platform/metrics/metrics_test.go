package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.IncrementRegistrationsCreated()
	m.IncrementRegistrationsCreated()
	m.IncrementLoginAttempt("failure")
	m.ObserveExport(time.Now(), 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementRegistrationsCreated()
		m.IncrementValidationRejections()
		m.IncrementLoginAttempt("success")
		m.ObserveExport(time.Now(), 0)
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.ObserveRevocationCheck("redis", time.Now())
	})
}

func TestHistogramsAreRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegisterer(reg)

	m.ObserveRequest("POST", "/registration", 200, time.Millisecond)
	m.ObserveRevocationCheck("redis", time.Now())

	count, err := testutil.GatherAndCount(reg, "ekaa_http_request_duration_seconds", "ekaa_session_revocation_check_duration_ms")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}
