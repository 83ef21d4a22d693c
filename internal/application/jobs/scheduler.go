package jobs

import (
	"context"
	"time"

	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/job"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// SchedulerConfig tunes the loop cadence
type SchedulerConfig struct {
	// ActiveInterval is the tick cadence while any job exists
	ActiveInterval time.Duration

	// IdleInterval is the tick cadence with no jobs. The loop never stops:
	// jobs restored from storage or started elsewhere must still be noticed.
	IdleInterval time.Duration
}

// DefaultSchedulerConfig returns the production cadence
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ActiveInterval: 250 * time.Millisecond,
		IdleInterval:   5 * time.Second,
	}
}

// Scheduler drives the reconciliation loop: per tick it publishes progress
// snapshots, moves due jobs into the completion queue and drains the queue
// against the server. Jobs deferred by a backoff gate re-enter the queue on
// a later tick once their gate elapses, so no completion is ever abandoned.
type Scheduler struct {
	store   *Store
	queue   *job.CompletionQueue
	clock   shared.Clock
	metrics *metrics.JobMetrics
	cfg     SchedulerConfig

	// onProgress, when set, receives the per-tick progress snapshots
	// (the presentation surface)
	onProgress func([]ProgressSnapshot)
}

// NewScheduler creates the reconciliation loop for one store
func NewScheduler(store *Store, jobMetrics *metrics.JobMetrics, cfg SchedulerConfig) *Scheduler {
	if jobMetrics == nil {
		jobMetrics = metrics.NewJobMetrics()
	}
	return &Scheduler{
		store:   store,
		queue:   job.NewCompletionQueue(),
		clock:   store.Clock(),
		metrics: jobMetrics,
		cfg:     cfg,
	}
}

// OnProgress installs the progress callback. Must be set before Run.
func (s *Scheduler) OnProgress(fn func([]ProgressSnapshot)) {
	s.onProgress = fn
}

// Tick runs one scheduler pass and returns the delay until the next one.
// Exposed so tests can drive the loop deterministically with a mock clock.
func (s *Scheduler) Tick(ctx context.Context) time.Duration {
	started := s.clock.Now()

	if s.onProgress != nil {
		if snapshots := s.store.Progress(started); len(snapshots) > 0 {
			s.onProgress(snapshots)
		}
	}

	for _, target := range s.store.DueTargets(started) {
		s.queue.Enqueue(target.String())
	}

	for _, key := range s.queue.Drain() {
		target, err := shared.ParseEntityID(key)
		if err != nil {
			// Cannot happen for keys produced by the store; drop defensively
			continue
		}
		if _, err := s.store.Complete(ctx, target); err != nil {
			common.LoggerFromContext(ctx).Log(common.LogLevelError, "completion attempt failed",
				map[string]interface{}{"target": key, "error": err.Error()})
		}
	}

	s.metrics.ObserveTick(s.clock.Now().Sub(started).Seconds())
	s.metrics.SetRunningJobs(s.store.Count())

	if s.store.Count() == 0 {
		return s.cfg.IdleInterval
	}
	return s.cfg.ActiveInterval
}

// Run executes the loop until the context is cancelled. The first tick acts
// as catch-up: jobs restored from storage whose end time passed while the
// process was down complete immediately.
func (s *Scheduler) Run(ctx context.Context) {
	logger := common.LoggerFromContext(ctx)
	logger.Log(common.LogLevelInfo, "scheduler started", map[string]interface{}{
		"activeInterval": s.cfg.ActiveInterval.String(),
		"idleInterval":   s.cfg.IdleInterval.String(),
	})

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log(common.LogLevelInfo, "scheduler stopped", nil)
			return
		case <-timer.C:
			timer.Reset(s.Tick(ctx))
		}
	}
}
