package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Idea generation metrics
	GenerationRequests prometheus.Counter
	GenerationLatency  prometheus.Histogram
	GenerationErrors   *prometheus.CounterVec
	IdeasGenerated     prometheus.Counter
	IdeasDiscarded     prometheus.Counter

	// Acceptance metrics
	IdeasAccepted prometheus.Counter

	// Topic metrics
	TopicsCreated prometheus.Counter
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics. Call once from main;
// services tolerate a nil global so tests can skip registration.
func InitMetrics() *Metrics {
	metrics := &Metrics{
		GenerationRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentdeck_generation_requests_total",
			Help: "Total number of idea generation requests processed",
		}),

		GenerationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "contentdeck_generation_duration_seconds",
			Help:    "Idea generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120}, // up to 2 minutes for LLM responses
		}),

		GenerationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contentdeck_generation_errors_total",
			Help: "Total number of idea generation errors by type",
		}, []string{"error_type"}), // "not_configured", "upstream", "parse"

		IdeasGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentdeck_ideas_generated_total",
			Help: "Total number of generated ideas persisted",
		}),

		IdeasDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentdeck_ideas_discarded_total",
			Help: "Total number of candidates discarded for unknown platform or category",
		}),

		IdeasAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentdeck_ideas_accepted_total",
			Help: "Total number of generated ideas accepted into topics",
		}),

		TopicsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contentdeck_topics_created_total",
			Help: "Total number of topics created",
		}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (nil until InitMetrics)
func GetMetrics() *Metrics {
	return globalMetrics
}
