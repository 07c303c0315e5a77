package pipeline

import (
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for pipeline runs. A nil *Metrics is valid and
// records nothing.
//
// Metrics:
//   - sentinel_pipeline_runs_total{outcome} - runs by "success" or "failure"
//   - sentinel_pipeline_stage_duration_seconds{stage} - stage execution time
//   - sentinel_anomalies_detected_total{type} - anomalies by type
//   - sentinel_alerts_created_total - alerts persisted
//   - sentinel_explanation_fallbacks_total - generated explanations replaced by templates
type Metrics struct {
	RunsTotal           *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	AnomaliesTotal      *prometheus.CounterVec
	AlertsCreatedTotal  prometheus.Counter
	ExplanationFallback prometheus.Counter
}

// NewMetrics creates pipeline metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stage execution in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"stage"},
		),
		AnomaliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_anomalies_detected_total",
				Help: "Total number of anomalies detected by type",
			},
			[]string{"type"},
		),
		AlertsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentinel_alerts_created_total",
				Help: "Total number of alerts persisted by the pipeline",
			},
		),
		ExplanationFallback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sentinel_explanation_fallbacks_total",
				Help: "Total number of generated explanations replaced by templates",
			},
		),
	}
}

func (m *Metrics) runFinished(success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) stageFinished(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) anomaliesDetected(anomalies []model.Anomaly) {
	if m == nil {
		return
	}
	for _, a := range anomalies {
		m.AnomaliesTotal.WithLabelValues(string(a.Type)).Inc()
	}
}

func (m *Metrics) alertCreated() {
	if m == nil {
		return
	}
	m.AlertsCreatedTotal.Inc()
}

func (m *Metrics) explanationFallback() {
	if m == nil {
		return
	}
	m.ExplanationFallback.Inc()
}
