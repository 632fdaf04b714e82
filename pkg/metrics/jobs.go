package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	JobResultSuccess = "success"
	JobResultFailure = "failure"
)

// JobMetrics records scheduled maintenance job runs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	affected *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of maintenance jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Maintenance job executions by result.",
	}, []string{"job", "result"})
	affected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_rows_deleted_total",
		Help:      "Rows removed by maintenance jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, affected)
	return &JobMetrics{duration: duration, runs: runs, affected: affected}
}

// ObserveRun records one execution of job.
func (m *JobMetrics) ObserveRun(job string, elapsed time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	result := JobResultSuccess
	if err != nil {
		result = JobResultFailure
	}
	m.runs.WithLabelValues(job, result).Inc()
}

// AddDeleted counts rows a job removed.
func (m *JobMetrics) AddDeleted(job string, n int64) {
	if m == nil || m.affected == nil || n <= 0 {
		return
	}
	m.affected.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}
