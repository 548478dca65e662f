// Package metrics exposes Prometheus collectors for the gateway's security
// and quota decisions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the gateway's Prometheus collectors.
type Metrics struct {
	// Input validation outcomes
	validationChecks   *prometheus.CounterVec
	securityRejections *prometheus.CounterVec

	// Quota decisions
	quotaChecks      *prometheus.CounterVec
	quotaDenials     *prometheus.CounterVec
	backendFailovers prometheus.Counter
	trackedClients   prometheus.Gauge

	// Output guard
	outputRejections *prometheus.CounterVec

	// Pipeline stage latency
	stageDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a Metrics instance on a specific registerer.
// Tests use fresh registries to avoid duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		validationChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nku_gateway_validation_checks_total",
				Help: "Total number of input validation checks performed",
			},
			[]string{"result"},
		),

		securityRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nku_gateway_security_rejections_total",
				Help: "Total number of inputs rejected by security checks",
			},
			[]string{"category"},
		),

		quotaChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nku_gateway_quota_checks_total",
				Help: "Total number of quota checks performed",
			},
			[]string{"backend", "result"},
		),

		quotaDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nku_gateway_quota_denials_total",
				Help: "Total number of requests denied by quota",
			},
			[]string{"window"},
		),

		backendFailovers: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "nku_gateway_quota_backend_failovers_total",
				Help: "Total number of silent failovers from the shared quota backend to the in-process fallback",
			},
		),

		trackedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "nku_gateway_quota_tracked_clients",
				Help: "Current number of clients tracked by the in-process fallback",
			},
		),

		outputRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nku_gateway_output_rejections_total",
				Help: "Total number of model outputs rejected by the output guard",
			},
			[]string{"reason"},
		),

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nku_gateway_stage_duration_seconds",
				Help:    "Duration of gateway pipeline stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"stage"},
		),
	}
}

// RecordValidation records an input validation outcome.
func (m *Metrics) RecordValidation(valid bool) {
	result := "valid"
	if !valid {
		result = "invalid"
	}
	m.validationChecks.WithLabelValues(result).Inc()
}

// RecordSecurityRejection records a security rejection by rule category.
func (m *Metrics) RecordSecurityRejection(category string) {
	m.securityRejections.WithLabelValues(category).Inc()
}

// RecordQuotaCheck records a quota decision and which backend made it.
func (m *Metrics) RecordQuotaCheck(backend string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	m.quotaChecks.WithLabelValues(backend, result).Inc()
}

// RecordQuotaDenial records which window denied a request.
func (m *Metrics) RecordQuotaDenial(window string) {
	m.quotaDenials.WithLabelValues(window).Inc()
}

// RecordBackendFailover records a silent failover to the in-process backend.
func (m *Metrics) RecordBackendFailover() {
	m.backendFailovers.Inc()
}

// SetTrackedClients updates the fallback's tracked-client gauge.
func (m *Metrics) SetTrackedClients(n int) {
	m.trackedClients.Set(float64(n))
}

// RecordOutputRejection records an output-guard rejection.
func (m *Metrics) RecordOutputRejection(reason string) {
	m.outputRejections.WithLabelValues(reason).Inc()
}

// RecordStageDuration records the duration of a pipeline stage in seconds.
func (m *Metrics) RecordStageDuration(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}
