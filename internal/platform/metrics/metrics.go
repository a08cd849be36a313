// Package metrics defines the Prometheus instrumentation for the
// service. All collectors are registered with the default registry via
// promauto and exposed on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KEGGRequestsTotal counts HTTP requests made against the KEGG
	// REST API, by response status code.
	KEGGRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kegg_requests_total",
			Help: "Total number of requests sent to the KEGG REST API.",
		},
		[]string{"code"},
	)

	// KEGGRetriesTotal counts failed KEGG request attempts that were
	// (or would have been) retried.
	KEGGRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegg_request_retries_total",
			Help: "Total number of failed KEGG request attempts.",
		},
	)

	// JobsTotal counts processing jobs by terminal status
	// (complete/error).
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processing_jobs_total",
			Help: "Total number of organism processing jobs by outcome.",
		},
		[]string{"status"},
	)

	// GenesProcessedTotal counts genes run through ortholog resolution,
	// by result outcome.
	GenesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genes_processed_total",
			Help: "Total number of genes processed, by resolution outcome.",
		},
		[]string{"outcome"},
	)

	// JobDurationSeconds observes end-to-end processing time per job.
	JobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "processing_job_duration_seconds",
			Help:    "Duration of organism processing jobs in seconds.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
)
