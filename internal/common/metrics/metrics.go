// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RecommendationCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_cache_requests_total",
			Help: "Recommendation cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationSlateSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_slate_size",
			Help:    "Number of schools returned per ranked slate",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"balanced"},
	)

	LLMGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_generation_duration_seconds",
			Help:    "Duration of LLM narrative generation calls",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		},
	)
)
