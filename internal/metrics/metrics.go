// Package metrics holds the Prometheus collectors for guardmap operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guardmap"

// Metrics records evaluation, mapping and remediation activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations      *prometheus.CounterVec
	Denials          *prometheus.CounterVec
	Mappings         *prometheus.CounterVec
	Coverage         *prometheus.GaugeVec
	RemediationItems *prometheus.GaugeVec
	Duration         *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Action evaluations by decision.",
		}, []string{"decision"}),
		Denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "denials_total",
			Help:      "Denied actions by deciding policy.",
		}, []string{"policy_id"}),
		Mappings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mappings_total",
			Help:      "Compliance maps produced per framework.",
		}, []string{"framework"}),
		Coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coverage_percentage",
			Help:      "Latest coverage percentage per framework.",
		}, []string{"framework"}),
		RemediationItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remediation_items",
			Help:      "Open remediation items per framework.",
		}, []string{"framework"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
	}
	reg.MustRegister(m.Evaluations, m.Denials, m.Mappings, m.Coverage, m.RemediationItems, m.Duration)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDecision counts one evaluation outcome.
func (m *Metrics) RecordDecision(allowed bool, policyID string) {
	if m == nil {
		return
	}
	if allowed {
		m.Evaluations.WithLabelValues("allow").Inc()
		return
	}
	m.Evaluations.WithLabelValues("block").Inc()
	m.Denials.WithLabelValues(policyID).Inc()
}

// RecordMap counts a mapping and sets the framework's coverage gauge.
func (m *Metrics) RecordMap(framework string, coverage int) {
	if m == nil {
		return
	}
	m.Mappings.WithLabelValues(framework).Inc()
	m.Coverage.WithLabelValues(framework).Set(float64(coverage))
}

// RecordGaps sets the framework's remediation item gauge.
func (m *Metrics) RecordGaps(framework string, items int) {
	if m == nil {
		return
	}
	m.RemediationItems.WithLabelValues(framework).Set(float64(items))
}

// Observe records how long an operation took since start.
func (m *Metrics) Observe(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
