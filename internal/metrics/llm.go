package metrics

import "github.com/prometheus/client_golang/prometheus"

// Language model Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of language model completions",
		},
		[]string{"provider", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model completion duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"provider", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers Prometheus language model metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	llmMetricsRegistered = true
}
