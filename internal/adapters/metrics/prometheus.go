package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompttune_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prompttune_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompttune_llm_requests_total",
		Help: "Total completion provider requests",
	}, []string{"provider", "kind", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prompttune_llm_request_duration_seconds",
		Help:    "Completion provider request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"provider", "kind"})

	TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompttune_tokens_total",
		Help: "Tokens reported by the completion provider, per operation",
	}, []string{"operation"})

	RoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prompttune_rounds_total",
		Help: "Tuning rounds by kind and outcome",
	}, []string{"kind", "outcome"})

	CandidatesPerRound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prompttune_candidates_per_round",
		Help:    "Candidate instructions proposed per round",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})

	FanOutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "prompttune_answer_fanout_duration_seconds",
		Help:    "Time to fetch every answer of a round",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "prompttune_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
)

// Round outcomes
const (
	OutcomeEvolved = "evolved"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
)
