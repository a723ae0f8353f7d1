// Package metrics provides the Prometheus collectors for cropwatch.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service exports. All methods are safe
// on a nil receiver so components can run without instrumentation.
type Metrics struct {
	ClassificationsTotal *prometheus.CounterVec   // by scheme and tier
	ScoresClampedTotal   *prometheus.CounterVec   // out-of-range inputs by scheme
	UploadsTotal         *prometheus.CounterVec   // by result: accepted, rejected
	AnalysesTotal        *prometheus.CounterVec   // by outcome: completed, failed, superseded
	AnalysisDuration     prometheus.Histogram     // submit to settle, including the simulated delay
	AnalysesInFlight     prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec   // by method, route, status
	HTTPRequestDuration  *prometheus.HistogramVec // by method, route

	registry *prometheus.Registry
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.init()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register cropwatch metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) init() {
	m.ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropwatch_classifications_total",
			Help: "Scores classified, by scheme and resulting tier",
		},
		[]string{"scheme", "tier"},
	)
	m.ScoresClampedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropwatch_scores_clamped_total",
			Help: "Scores outside [0,100] that were clamped before classification",
		},
		[]string{"scheme"},
	)
	m.UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropwatch_uploads_total",
			Help: "Uploaded files by ingestion result",
		},
		[]string{"result"},
	)
	m.AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropwatch_analyses_total",
			Help: "Field image analyses by outcome",
		},
		[]string{"outcome"},
	)
	m.AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cropwatch_analysis_duration_seconds",
		Help:    "Time from analysis submission to completion",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
	})
	m.AnalysesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cropwatch_analyses_in_flight",
		Help: "Analyses submitted and not yet settled",
	})
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cropwatch_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cropwatch_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.ClassificationsTotal.Describe(ch)
	m.ScoresClampedTotal.Describe(ch)
	m.UploadsTotal.Describe(ch)
	m.AnalysesTotal.Describe(ch)
	m.AnalysisDuration.Describe(ch)
	m.AnalysesInFlight.Describe(ch)
	m.HTTPRequestsTotal.Describe(ch)
	m.HTTPRequestDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.ClassificationsTotal.Collect(ch)
	m.ScoresClampedTotal.Collect(ch)
	m.UploadsTotal.Collect(ch)
	m.AnalysesTotal.Collect(ch)
	m.AnalysisDuration.Collect(ch)
	m.AnalysesInFlight.Collect(ch)
	m.HTTPRequestsTotal.Collect(ch)
	m.HTTPRequestDuration.Collect(ch)
}

func (m *Metrics) RecordClassification(scheme, tier string, clamped bool) {
	if m == nil {
		return
	}
	m.ClassificationsTotal.WithLabelValues(scheme, tier).Inc()
	if clamped {
		m.ScoresClampedTotal.WithLabelValues(scheme).Inc()
	}
}

func (m *Metrics) RecordUpload(accepted bool) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) AnalysisStarted() {
	if m == nil {
		return
	}
	m.AnalysesInFlight.Inc()
}

func (m *Metrics) AnalysisSettled(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesInFlight.Dec()
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Registry returns the registry the collectors were registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
