package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "colonyforge"
	subsystem = "engine"
)

// JobMetrics tracks job lifecycle and reconciliation outcomes
type JobMetrics struct {
	jobsStarted       *prometheus.CounterVec
	jobsCompleted     *prometheus.CounterVec
	jobsCancelled     *prometheus.CounterVec
	startsRejected    *prometheus.CounterVec
	staleCancels      *prometheus.CounterVec
	completionRetries *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
	tickDuration      prometheus.Histogram
	runningJobs       prometheus.Gauge
}

// NewJobMetrics creates the engine's job lifecycle metrics
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		jobsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_started_total",
				Help:      "Total jobs started, by entity namespace",
			},
			[]string{"scope"},
		),
		jobsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_completed_total",
				Help:      "Total jobs confirmed complete by the server, by entity namespace",
			},
			[]string{"scope"},
		),
		jobsCancelled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_cancelled_total",
				Help:      "Total jobs cancelled, by entity namespace",
			},
			[]string{"scope"},
		),
		startsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "starts_rejected_total",
				Help:      "Total rejected start attempts, by rejection reason",
			},
			[]string{"reason"},
		),
		staleCancels: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stale_cancels_total",
				Help:      "Cancels that raced a server-side completion (JobNotRunning treated as cleanup)",
			},
			[]string{"scope"},
		),
		completionRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "completion_retries_total",
				Help:      "Completion attempts deferred for retry, by cause",
			},
			[]string{"cause"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Server-assigned job durations",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"scope"},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tick_duration_seconds",
				Help:      "Scheduler tick execution time",
				Buckets:   prometheus.DefBuckets,
			},
		),
		runningJobs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "running_jobs",
				Help:      "Jobs currently running or pending completion",
			},
		),
	}
}

// Register registers all metrics with the given registry
func (m *JobMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.jobsStarted,
		m.jobsCompleted,
		m.jobsCancelled,
		m.startsRejected,
		m.staleCancels,
		m.completionRetries,
		m.jobDuration,
		m.tickDuration,
		m.runningJobs,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *JobMetrics) JobStarted(scope string, durationSeconds float64) {
	m.jobsStarted.WithLabelValues(scope).Inc()
	m.jobDuration.WithLabelValues(scope).Observe(durationSeconds)
}

func (m *JobMetrics) JobCompleted(scope string) {
	m.jobsCompleted.WithLabelValues(scope).Inc()
}

func (m *JobMetrics) JobCancelled(scope string) {
	m.jobsCancelled.WithLabelValues(scope).Inc()
}

func (m *JobMetrics) StartRejected(reason string) {
	m.startsRejected.WithLabelValues(reason).Inc()
}

func (m *JobMetrics) StaleCancel(scope string) {
	m.staleCancels.WithLabelValues(scope).Inc()
}

func (m *JobMetrics) CompletionRetry(cause string) {
	m.completionRetries.WithLabelValues(cause).Inc()
}

func (m *JobMetrics) ObserveTick(seconds float64) {
	m.tickDuration.Observe(seconds)
}

func (m *JobMetrics) SetRunningJobs(count int) {
	m.runningJobs.Set(float64(count))
}
