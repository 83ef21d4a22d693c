package job

import (
	"time"

	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// State is the lifecycle position of a job for its target entity
type State string

const (
	// StateRunning means the job exists and its end time has not passed
	StateRunning State = "RUNNING"

	// StatePendingCompletion means local wall-clock end has passed but the
	// server has not confirmed completion yet
	StatePendingCompletion State = "PENDING_COMPLETION"
)

// Job is one running timed job against a target entity. Created by the
// store's start transition; the scheduler may push NextCheckTs forward on
// retry; complete/cancel delete it. At most one Job exists per target id.
type Job struct {
	TargetID      shared.EntityID
	JobID         string
	CorrelationID string
	StartTs       time.Time
	EndTs         time.Time

	// NextCheckTs gates completion attempts while the job is in backoff.
	// Zero means "no gate".
	NextCheckTs time.Time

	// Attempts counts failed completion attempts, driving backoff growth
	Attempts int

	// LockedCosts is the server-reported escrowed cost for this job,
	// authoritative for refund display while the job runs
	LockedCosts inventory.PriceMap
}

// State returns the job's lifecycle state at the given instant
func (j *Job) State(now time.Time) State {
	if now.Before(j.EndTs) {
		return StateRunning
	}
	return StatePendingCompletion
}

// Progress returns the completion fraction clamped to [0, 1]
func (j *Job) Progress(now time.Time) float64 {
	total := j.EndTs.Sub(j.StartTs)
	if total <= 0 {
		return 1
	}
	fraction := float64(now.Sub(j.StartTs)) / float64(total)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// RemainingSeconds returns whole seconds until the job's end, minimum 0
func (j *Job) RemainingSeconds(now time.Time) int {
	remaining := j.EndTs.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// DueForCompletion reports whether a completion attempt should be made:
// the end time plus grace has passed and any backoff gate has elapsed.
func (j *Job) DueForCompletion(now time.Time, grace time.Duration) bool {
	if now.Before(j.EndTs.Add(grace)) {
		return false
	}
	if !j.NextCheckTs.IsZero() && now.Before(j.NextCheckTs) {
		return false
	}
	return true
}

// Validate checks the shape invariants a persisted record must satisfy.
// Records failing this check are ghost jobs and are discarded on load.
func (j *Job) Validate() error {
	if j.TargetID.IsZero() {
		return shared.NewMalformedJobError("", "missing target id")
	}
	if j.JobID == "" {
		return shared.NewMalformedJobError(j.TargetID.String(), "missing server job id")
	}
	if j.StartTs.IsZero() || j.EndTs.IsZero() {
		return shared.NewMalformedJobError(j.TargetID.String(), "missing timestamps")
	}
	if !j.EndTs.After(j.StartTs) {
		return shared.NewMalformedJobError(j.TargetID.String(), "end time not after start time")
	}
	return nil
}
