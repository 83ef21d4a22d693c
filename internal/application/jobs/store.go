package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/job"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// StoreConfig tunes the store's reconciliation timing
type StoreConfig struct {
	// CompletionGrace delays the first completion attempt past endTs so
	// NotFinishedYet responses stay rare under small clock skew
	CompletionGrace time.Duration

	// NotFinishedYetDelay is the short retry delay after the server reports
	// a job still running
	NotFinishedYetDelay time.Duration

	// FailureBackoffBase/Max bound the retry cadence for generic completion
	// failures. Doubles per attempt, capped at Max, never abandoned.
	FailureBackoffBase time.Duration
	FailureBackoffMax  time.Duration
}

// DefaultStoreConfig returns the production timing
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		CompletionGrace:     time.Second,
		NotFinishedYetDelay: 2 * time.Second,
		FailureBackoffBase:  5 * time.Second,
		FailureBackoffMax:   60 * time.Second,
	}
}

// CompleteOutcome classifies one completion attempt
type CompleteOutcome string

const (
	// OutcomeCompleted means the server confirmed and the job was removed
	OutcomeCompleted CompleteOutcome = "COMPLETED"

	// OutcomeNoJob means no job exists for the target (idempotent no-op)
	OutcomeNoJob CompleteOutcome = "NO_JOB"

	// OutcomeRetry means the server reported NotFinishedYet; the job stays
	// with a short backoff gate
	OutcomeRetry CompleteOutcome = "RETRY"

	// OutcomeBackoff means a transient failure; the job stays with a longer
	// bounded backoff gate
	OutcomeBackoff CompleteOutcome = "BACKOFF"

	// OutcomeStaleCleanup means the server no longer knows the job; it was
	// removed locally and any reported yield applied
	OutcomeStaleCleanup CompleteOutcome = "STALE_CLEANUP"
)

// ProgressSnapshot is the per-target progress surface for presentation
type ProgressSnapshot struct {
	TargetID         string
	Fraction         float64
	RemainingSeconds int
	State            job.State
}

// Store owns the job collection exclusively: all transitions (start, cancel,
// complete, backoff updates) go through it, and no other component mutates a
// Job. The mutex serializes state mutation the way the browser event loop
// serialized the original engine; network calls happen outside the lock.
type Store struct {
	mu            sync.Mutex
	jobs          map[string]*job.Job
	pendingStarts map[string]struct{}

	playerID shared.PlayerID
	token    string
	client   common.AuthorityClient
	repo     common.JobRepository
	state    *common.GameState
	clock    shared.Clock
	metrics  *metrics.JobMetrics
	cfg      StoreConfig
}

// NewStore creates a job store for one player. A nil clock selects the real
// clock; nil metrics are replaced with an unregistered collector set.
func NewStore(
	playerID shared.PlayerID,
	token string,
	client common.AuthorityClient,
	repo common.JobRepository,
	state *common.GameState,
	clock shared.Clock,
	jobMetrics *metrics.JobMetrics,
	cfg StoreConfig,
) *Store {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if jobMetrics == nil {
		jobMetrics = metrics.NewJobMetrics()
	}
	return &Store{
		jobs:          make(map[string]*job.Job),
		pendingStarts: make(map[string]struct{}),
		playerID:      playerID,
		token:         token,
		client:        client,
		repo:          repo,
		state:         state,
		clock:         clock,
		metrics:       jobMetrics,
		cfg:           cfg,
	}
}

// Start begins a timed job for the target definition. Rejections (duplicate
// submission, already owned, server refusal, missing job id) are hard
// failures surfaced to the user and never retried.
//
// The cost is escrowed locally the moment the server accepts, then corrected
// against the server-reported locked costs in the same call, so local
// inventory converges on the server's view immediately.
func (s *Store) Start(ctx context.Context, def *catalog.LeveledDefinition) (*job.Job, error) {
	logger := common.LoggerFromContext(ctx)
	target := def.ID
	key := target.String()

	s.mu.Lock()
	if _, exists := s.jobs[key]; exists {
		s.mu.Unlock()
		s.metrics.StartRejected("duplicate_job")
		return nil, shared.NewRejectedStartError(key, "a job is already running for this target")
	}
	if _, pending := s.pendingStarts[key]; pending {
		s.mu.Unlock()
		s.metrics.StartRejected("duplicate_submission")
		return nil, shared.NewRejectedStartError(key, "a start request is already in flight")
	}
	if s.state.OwnedLevel(target.FamilyKey()) >= target.Level() {
		s.mu.Unlock()
		s.metrics.StartRejected("already_owned")
		return nil, shared.NewRejectedStartError(key, "target level is already owned")
	}
	s.pendingStarts[key] = struct{}{}
	s.mu.Unlock()

	req := common.StartJobRequest{
		TargetID:        key,
		Scope:           string(target.Namespace()),
		CorrelationID:   uuid.NewString(),
		DurationSeconds: def.DurationSeconds,
	}
	resp, err := s.client.StartJob(ctx, s.token, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, stillPending := s.pendingStarts[key]; !stillPending {
		// The start was aborted while the request was in flight; the
		// response must not apply escrow or create a job.
		logger.Log(common.LogLevelWarn, "start response discarded: request aborted",
			map[string]interface{}{"target": key})
		return nil, nil
	}
	delete(s.pendingStarts, key)

	if err != nil {
		s.metrics.StartRejected("server_refusal")
		return nil, shared.NewRejectedStartError(key, err.Error())
	}
	if resp == nil || resp.JobID == "" {
		s.metrics.StartRejected("missing_job_id")
		return nil, shared.NewRejectedStartError(key, "server did not return a job id")
	}

	startTs, err := shared.ParseUTCTimestamp(resp.StartUTC)
	if err != nil {
		s.metrics.StartRejected("bad_timestamps")
		return nil, shared.NewRejectedStartError(key, fmt.Sprintf("bad start timestamp: %v", err))
	}
	endTs, err := shared.ParseUTCTimestamp(resp.EndUTC)
	if err != nil {
		s.metrics.StartRejected("bad_timestamps")
		return nil, shared.NewRejectedStartError(key, fmt.Sprintf("bad end timestamp: %v", err))
	}

	// Optimistic escrow of the catalog cost, corrected below by whatever
	// the server actually locked.
	s.state.Ledger().ApplyDelta(def.Cost.Negate())

	locked := common.CostLinesToDelta(resp.LockedCosts)
	lockedCosts := def.Cost
	if len(locked) > 0 {
		s.state.Ledger().ApplyDelta(escrowCorrection(def.Cost, locked))
		lockedCosts = inventory.Normalize(locked)
	}

	j := &job.Job{
		TargetID:      target,
		JobID:         resp.JobID,
		CorrelationID: req.CorrelationID,
		StartTs:       startTs,
		EndTs:         endTs,
		LockedCosts:   lockedCosts,
	}
	s.jobs[key] = j
	s.persistLocked(ctx, j)

	s.metrics.JobStarted(req.Scope, endTs.Sub(startTs).Seconds())
	logger.Log(common.LogLevelInfo, "job started", map[string]interface{}{
		"target": key, "jobId": j.JobID, "endTs": shared.FormatUTCTimestamp(endTs),
	})
	return j, nil
}

// escrowCorrection computes the delta that turns a naive escrow of the
// catalog cost into the server's authoritative locked amount: refund lines
// the server did not lock, adjust lines it locked differently.
func escrowCorrection(catalogCost inventory.PriceMap, locked map[string]float64) map[string]float64 {
	correction := make(map[string]float64)
	for id, amount := range locked {
		correction[id] += catalogCost[id].Amount - amount
	}
	for id, line := range catalogCost {
		if _, ok := locked[id]; !ok {
			correction[id] += line.Amount
		}
	}
	return correction
}

// AbortStart withdraws an in-flight start so its response is discarded
// without side effects (the user navigated away or cancelled immediately).
func (s *Store) AbortStart(targetID shared.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingStarts, targetID.String())
}

// Cancel asks the server to cancel the target's running job. The server is
// authoritative on the refund. A JobNotRunning/JobNotFound response means the
// job already completed server-side; that is cleanup, not an error: the local
// job is removed silently and any reported yield still applied.
func (s *Store) Cancel(ctx context.Context, target shared.EntityID) error {
	logger := common.LoggerFromContext(ctx)
	key := target.String()
	scope := string(target.Namespace())

	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return shared.NewDomainError(fmt.Sprintf("no running job for %s", key))
	}
	jobID := j.JobID
	s.mu.Unlock()

	resp, err := s.client.CancelJob(ctx, s.token, key, jobID, scope)
	if err != nil {
		if stale, isStale := staleJob(err); isStale {
			// The cancel raced a server-side completion. Flagged distinctly
			// (metric + warn) but never surfaced as a user error.
			s.removeJob(ctx, key)
			if len(stale.Yield) > 0 {
				s.state.Ledger().ApplyDelta(stale.Yield)
			}
			s.metrics.StaleCancel(scope)
			logger.Log(common.LogLevelWarn, "cancel raced server-side completion",
				map[string]interface{}{"target": key, "jobId": jobID})
			return nil
		}
		return fmt.Errorf("failed to cancel job for %s: %w", key, err)
	}

	s.removeJob(ctx, key)
	if refund := common.CostLinesToDelta(resp.LockedCosts); len(refund) > 0 {
		s.state.Ledger().ApplyDelta(refund)
	}
	if yield := common.CostLinesToDelta(resp.YieldSummary); len(yield) > 0 {
		s.state.Ledger().ApplyDelta(yield)
	}

	s.metrics.JobCancelled(scope)
	logger.Log(common.LogLevelInfo, "job cancelled", map[string]interface{}{
		"target": key, "jobId": jobID,
	})
	return nil
}

// Complete reconciles one finished job with the server. Invoked by the
// scheduler, not the UI. Completing a target with no job is a no-op, which
// makes duplicate completion attempts idempotent: the job is deleted the
// moment the server confirms, so a delta can never apply twice.
func (s *Store) Complete(ctx context.Context, target shared.EntityID) (CompleteOutcome, error) {
	logger := common.LoggerFromContext(ctx)
	key := target.String()
	scope := string(target.Namespace())
	now := s.clock.Now()

	s.mu.Lock()
	j, ok := s.jobs[key]
	if !ok {
		s.mu.Unlock()
		return OutcomeNoJob, nil
	}
	jobID := j.JobID
	s.mu.Unlock()

	resp, err := s.client.CompleteJob(ctx, s.token, key, jobID, scope)
	switch {
	case err == nil:
		s.removeJob(ctx, key)
		if applyErr := s.state.ApplyStateDelta(resp.StateDelta); applyErr != nil {
			logger.Log(common.LogLevelError, "failed to apply completion delta",
				map[string]interface{}{"target": key, "error": applyErr.Error()})
		}
		if yield := common.CostLinesToDelta(resp.YieldSummary); len(yield) > 0 {
			s.state.Ledger().ApplyDelta(yield)
		}
		s.metrics.JobCompleted(scope)
		logger.Log(common.LogLevelInfo, "job completed", map[string]interface{}{
			"target": key, "jobId": jobID,
		})
		return OutcomeCompleted, nil

	case shared.IsNotFinishedYet(err):
		// Clock skew: the server still considers the job running. Keep the
		// job, retry shortly.
		s.deferCompletion(ctx, key, now.Add(s.cfg.NotFinishedYetDelay))
		s.metrics.CompletionRetry("not_finished_yet")
		return OutcomeRetry, nil

	default:
		if stale, isStale := staleJob(err); isStale {
			// The server no longer knows the job at all: cleanup, apply any
			// reported yield, never an error.
			s.removeJob(ctx, key)
			if len(stale.Yield) > 0 {
				s.state.Ledger().ApplyDelta(stale.Yield)
			}
			logger.Log(common.LogLevelWarn, "completion found job already gone server-side",
				map[string]interface{}{"target": key, "jobId": jobID})
			return OutcomeStaleCleanup, nil
		}

		// Transient failure: bounded exponential backoff, job kept. A lost
		// completion must never silently disappear before the server confirms.
		s.mu.Lock()
		attempts := 0
		if j, ok := s.jobs[key]; ok {
			attempts = j.Attempts
		}
		s.mu.Unlock()

		backoff := s.cfg.FailureBackoffBase << uint(attempts)
		if backoff > s.cfg.FailureBackoffMax || backoff <= 0 {
			backoff = s.cfg.FailureBackoffMax
		}
		s.deferCompletion(ctx, key, now.Add(backoff))
		s.metrics.CompletionRetry("failure")
		logger.Log(common.LogLevelWarn, "completion deferred", map[string]interface{}{
			"target": key, "jobId": jobID, "retryIn": backoff.String(), "error": err.Error(),
		})
		return OutcomeBackoff, nil
	}
}

func staleJob(err error) (*shared.StaleJobError, bool) {
	var stale *shared.StaleJobError
	if errors.As(err, &stale) {
		return stale, true
	}
	return nil, false
}

// removeJob deletes a job from memory and durable storage
func (s *Store) removeJob(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.jobs, key)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteJob(ctx, s.playerID, key); err != nil {
			common.LoggerFromContext(ctx).Log(common.LogLevelWarn, "failed to delete persisted job",
				map[string]interface{}{"target": key, "error": err.Error()})
		}
	}
}

// deferCompletion pushes a job's backoff gate forward and persists it
func (s *Store) deferCompletion(ctx context.Context, key string, nextCheck time.Time) {
	s.mu.Lock()
	j, ok := s.jobs[key]
	if ok {
		j.Attempts++
		j.NextCheckTs = nextCheck
		s.persistLocked(ctx, j)
	}
	s.mu.Unlock()
}

// persistLocked writes a job to durable storage. Callers hold s.mu.
// Persistence failures are logged, never fatal: the in-memory job remains
// authoritative for this session.
func (s *Store) persistLocked(ctx context.Context, j *job.Job) {
	if s.repo == nil {
		return
	}
	record := common.JobRecord{
		TargetID:      j.TargetID.String(),
		JobID:         j.JobID,
		CorrelationID: j.CorrelationID,
		StartTs:       j.StartTs,
		EndTs:         j.EndTs,
		NextCheckTs:   j.NextCheckTs,
		Attempts:      j.Attempts,
		LockedCosts:   j.LockedCosts.Amounts(),
	}
	if err := s.repo.SaveJob(ctx, s.playerID, record); err != nil {
		common.LoggerFromContext(ctx).Log(common.LogLevelWarn, "failed to persist job",
			map[string]interface{}{"target": record.TargetID, "error": err.Error()})
	}
}

// Restore loads persisted jobs on process start. Records failing shape
// validation are ghost jobs: discarded from memory and storage, never
// surfaced. Jobs whose end time has already passed will be picked up by the
// scheduler's first tick (catch-up).
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	logger := common.LoggerFromContext(ctx)

	records, err := s.repo.ListJobs(ctx, s.playerID)
	if err != nil {
		return fmt.Errorf("failed to load persisted jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		restored, err := jobFromRecord(record)
		if err == nil {
			err = restored.Validate()
		}
		if err != nil {
			logger.Log(common.LogLevelWarn, "discarding ghost job", map[string]interface{}{
				"target": record.TargetID, "error": err.Error(),
			})
			if delErr := s.repo.DeleteJob(ctx, s.playerID, record.TargetID); delErr != nil {
				logger.Log(common.LogLevelWarn, "failed to delete ghost job",
					map[string]interface{}{"target": record.TargetID, "error": delErr.Error()})
			}
			continue
		}
		s.jobs[restored.TargetID.String()] = restored
	}
	return nil
}

func jobFromRecord(record common.JobRecord) (*job.Job, error) {
	target, err := shared.ParseEntityID(record.TargetID)
	if err != nil {
		return nil, shared.NewMalformedJobError(record.TargetID, err.Error())
	}
	return &job.Job{
		TargetID:      target,
		JobID:         record.JobID,
		CorrelationID: record.CorrelationID,
		StartTs:       record.StartTs,
		EndTs:         record.EndTs,
		NextCheckTs:   record.NextCheckTs,
		Attempts:      record.Attempts,
		LockedCosts:   inventory.Normalize(record.LockedCosts),
	}, nil
}

// Get returns a copy of the job for a target, if one exists
func (s *Store) Get(target shared.EntityID) (job.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[target.String()]
	if !ok {
		return job.Job{}, false
	}
	return *j, true
}

// List returns copies of all jobs
func (s *Store) List() []job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// Count returns the number of jobs (running or pending completion)
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// DueTargets returns the targets whose completion should be attempted now:
// past endTs plus grace, with any backoff gate elapsed
func (s *Store) DueTargets(now time.Time) []shared.EntityID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []shared.EntityID
	for _, j := range s.jobs {
		if j.DueForCompletion(now, s.cfg.CompletionGrace) {
			due = append(due, j.TargetID)
		}
	}
	return due
}

// Progress returns presentation snapshots for all jobs at the given instant
func (s *Store) Progress(now time.Time) []ProgressSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ProgressSnapshot, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, ProgressSnapshot{
			TargetID:         j.TargetID.String(),
			Fraction:         j.Progress(now),
			RemainingSeconds: j.RemainingSeconds(now),
			State:            j.State(now),
		})
	}
	return out
}

// GameState exposes the player state the store reconciles against
func (s *Store) GameState() *common.GameState {
	return s.state
}

// Clock exposes the store's clock (shared with the scheduler)
func (s *Store) Clock() shared.Clock {
	return s.clock
}
