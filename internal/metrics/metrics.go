package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	// HttpRequestsTotal counts requests served by the view server
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_http_requests_total",
			Help: "Total number of http requests handled by the view server.",
		},
		[]string{"path", "method", "code"},
	)

	// JobMutationsTotal counts add/update/delete calls by outcome
	JobMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_job_mutations_total",
			Help: "Total number of job mutations sent to the backend.",
		},
		[]string{"operation", "status"},
	)

	// FetchDuration observes settled fetch hook requests
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobboard_fetch_duration_seconds",
			Help:    "Duration of settled read requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// CachedJobs is the size of the session job collection
	CachedJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jobboard_cached_jobs",
			Help: "Number of jobs held in the session cache.",
		},
	)

	// SeededJobsTotal counts jobs handled by the seed importer
	SeededJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_seeded_jobs_total",
			Help: "Jobs processed by the seed importer.",
		},
		[]string{"result"},
	)
)

// Outcome maps an error to the status label.
func Outcome(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSuccess
}
