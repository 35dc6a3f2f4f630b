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

	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matcher_requests_total",
			Help: "Matching sessions by entry point and cache outcome",
		},
		[]string{"source", "cache"},
	)

	MatchResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matcher_result_size",
			Help:    "Number of programs returned per matching session",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 10},
		},
	)

	CatalogPrograms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_programs_loaded",
			Help: "Programs currently held by the catalog",
		},
	)

	LeadsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_submitted_total",
			Help: "Lead submissions by outcome",
		},
		[]string{"status"},
	)

	LeadSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_sink_failures_total",
			Help: "Failed writes per lead sink",
		},
		[]string{"sink"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP request latency",
		},
		[]string{"method", "route", "status"},
	)
)
