package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hybridchat"

// Language model and search Prometheus metrics.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of language model requests",
		},
		[]string{"provider", "model", "kind", "status"}, // kind: complete | chat
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model", "kind"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: prompt | completion | total
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "Total language model errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of web search requests",
		},
		[]string{"provider", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_request_duration_seconds",
			Help:      "Web search request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	RouteDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Query routing decisions",
		},
		[]string{"route", "defaulted"},
	)

	AgentIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_iterations",
			Help:      "Agent loop iterations per run",
			Buckets:   []float64{1, 2, 3, 5, 10},
		},
	)

	FallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Web agent failures answered by the direct model path",
		},
	)
)

var registerOnce sync.Once

// RegisterLLMMetrics registers Prometheus model, search and routing metrics. Safe to call more than once.
func RegisterLLMMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(LLMRequestsTotal)
		prometheus.MustRegister(LLMRequestDuration)
		prometheus.MustRegister(LLMTokensTotal)
		prometheus.MustRegister(LLMErrorsTotal)
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchRequestDuration)
		prometheus.MustRegister(RouteDecisionsTotal)
		prometheus.MustRegister(AgentIterations)
		prometheus.MustRegister(FallbacksTotal)
	})
}
