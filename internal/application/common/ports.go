package common

import (
	"context"
	"time"

	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// CostLine mirrors one locked-cost or yield row from the backend
type CostLine struct {
	Resource string
	Amount   float64
}

// CostLinesToDelta collapses cost lines into a resource → amount map
func CostLinesToDelta(lines []CostLine) map[string]float64 {
	delta := make(map[string]float64, len(lines))
	for _, line := range lines {
		delta[line.Resource] += line.Amount
	}
	return delta
}

// StartJobRequest asks the backend to begin a timed job
type StartJobRequest struct {
	TargetID        string
	Scope           string
	CorrelationID   string
	DurationSeconds int
}

// StartJobResponse carries the server-issued job identity. Start and end are
// ISO8601 UTC wall-clock timestamps, never client-relative offsets.
type StartJobResponse struct {
	JobID       string
	StartUTC    string
	EndUTC      string
	LockedCosts []CostLine
}

// StateDelta is the server's authoritative state change on completion:
// an ownership increment plus commutative resource/capacity credits.
type StateDelta struct {
	OwnedEntityID  string
	Resources      map[string]float64
	CapacityDeltas map[string]float64
}

// CompleteJobResponse is the server's confirmation of a finished job
type CompleteJobResponse struct {
	StateDelta   StateDelta
	YieldSummary []CostLine
}

// CancelJobResponse reports the locked costs the server refunds. The server
// is authoritative on the refund amount; partial-consumption rules may apply.
type CancelJobResponse struct {
	LockedCosts  []CostLine
	YieldSummary []CostLine
}

// AuthorityClient is the reconciliation contract to the backend's job
// endpoints. Implementations surface backend refusals as the shared error
// taxonomy: StaleJobError, NotFinishedYetError, RejectedStartError.
type AuthorityClient interface {
	StartJob(ctx context.Context, token string, req StartJobRequest) (*StartJobResponse, error)
	CompleteJob(ctx context.Context, token, targetID, jobID, scope string) (*CompleteJobResponse, error)
	CancelJob(ctx context.Context, token, targetID, jobID, scope string) (*CancelJobResponse, error)
}

// JobRecord is the persistence-agnostic shape of one durable job entry
type JobRecord struct {
	TargetID      string
	JobID         string
	CorrelationID string
	StartTs       time.Time
	EndTs         time.Time
	NextCheckTs   time.Time
	Attempts      int
	LockedCosts   map[string]float64
}

// JobRepository persists running jobs per player so they survive a reload.
// Written after every start/cancel/complete and after any backoff update.
type JobRepository interface {
	SaveJob(ctx context.Context, playerID shared.PlayerID, record JobRecord) error
	DeleteJob(ctx context.Context, playerID shared.PlayerID, targetID string) error
	ListJobs(ctx context.Context, playerID shared.PlayerID) ([]JobRecord, error)
}
