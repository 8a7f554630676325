package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline run outcomes.
const (
	OutcomeOK                 = "ok"
	OutcomeGenerationFallback = "generation_fallback"
	OutcomeProcessingFallback = "processing_fallback"
)

// Inquiry pipeline Prometheus metrics.
var (
	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pipeline_runs_total",
			Help:      "Inquiry pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Inquiry pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	RetrievalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retrieval_failures_total",
			Help:      "Retrievals degraded to an empty context",
		},
		[]string{"step"}, // "embed" / "search"
	)

	RetrievedDocuments = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "retrieved_documents",
			Help:      "Number of context documents passed to generation",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
	)

	GenerationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "generation_fallbacks_total",
			Help:      "Generation fallbacks by reason",
		},
		[]string{"reason"}, // "model_error" / "malformed_output"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(RetrievalFailuresTotal)
	prometheus.MustRegister(RetrievedDocuments)
	prometheus.MustRegister(GenerationFallbacksTotal)
	pipelineMetricsRegistered = true
}
