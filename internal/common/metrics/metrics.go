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

	ResponsesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_responses_generated_total",
			Help: "Generated response records by service and flavor",
		},
		[]string{"service", "flavor"},
	)

	AuthorizeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_authorize_outcomes_total",
			Help: "Simulated authorization requests by terminal state and outcome",
		},
		[]string{"state", "outcome"},
	)

	PlaceholdersUnresolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_placeholders_unresolved_total",
			Help: "Function placeholders left verbatim in rendered output",
		},
		[]string{"reason"},
	)

	StoreDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_documents",
			Help: "Documents held per collection",
		},
		[]string{"collection"},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mock_catalog_reloads_total",
			Help: "Service catalog reload attempts",
		},
		[]string{"result"},
	)
)
