package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the application.
type Metrics struct {
	RegistrationsCreated prometheus.Counter
	ValidationRejections prometheus.Counter
	LoginAttempts        *prometheus.CounterVec
	ExportDuration       prometheus.Histogram
	ExportRows           prometheus.Histogram
	RequestDuration      *prometheus.HistogramVec
	RevocationCheck      *prometheus.HistogramVec
}

// New registers collectors with the default registry. Call it once per process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers collectors on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ekaa_registrations_created_total",
			Help: "Total number of registrations persisted",
		}),
		ValidationRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "ekaa_registration_validation_rejections_total",
			Help: "Submissions rejected for missing required fields",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ekaa_admin_login_attempts_total",
			Help: "Admin login attempts by outcome",
		}, []string{"outcome"}),
		ExportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ekaa_export_duration_seconds",
			Help:    "Duration of spreadsheet exports including the full read",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ExportRows: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ekaa_export_rows",
			Help:    "Number of data rows per spreadsheet export",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ekaa_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
		RevocationCheck: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ekaa_session_revocation_check_duration_ms",
			Help:    "Latency of session revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"backend"}),
	}
}

func (m *Metrics) IncrementRegistrationsCreated() {
	if m == nil {
		return
	}
	m.RegistrationsCreated.Inc()
}

func (m *Metrics) IncrementValidationRejections() {
	if m == nil {
		return
	}
	m.ValidationRejections.Inc()
}

// IncrementLoginAttempt records a login outcome: success, failure or locked.
func (m *Metrics) IncrementLoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// ObserveExport records an export started at start that wrote rows data rows.
func (m *Metrics) ObserveExport(start time.Time, rows int) {
	if m == nil {
		return
	}
	m.ExportDuration.Observe(time.Since(start).Seconds())
	m.ExportRows.Observe(float64(rows))
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveRevocationCheck records how long a revocation lookup on backend took.
func (m *Metrics) ObserveRevocationCheck(backend string, start time.Time) {
	if m == nil {
		return
	}
	m.RevocationCheck.WithLabelValues(backend).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
