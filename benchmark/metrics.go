package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_benchmark_interactions_total",
		Help: "Model interactions by model and outcome",
	}, []string{"model", "outcome"})

	responseSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyramid_benchmark_response_seconds",
		Help:    "Model response latency",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"model"})

	tokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyramid_benchmark_tokens_total",
		Help: "Tokens consumed by model and kind",
	}, []string{"model", "kind"})
)
