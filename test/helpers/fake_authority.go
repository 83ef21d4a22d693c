package helpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// FakeAuthority is an in-memory stand-in for the game backend: it issues job
// ids, tracks which jobs it considers running and answers complete/cancel the
// way the real server does (including JobNotRunning for unknown jobs).
type FakeAuthority struct {
	mu      sync.Mutex
	clock   shared.Clock
	nextID  int
	running map[string]fakeJob // jobID → job

	// CompleteDelta, when set, is returned for every successful completion
	CompleteDelta func(targetID string) common.CompleteJobResponse

	// Skew shifts the server's notion of a job's end time forward,
	// simulating a server clock lagging the client's
	Skew time.Duration

	StartCalls    int
	CompleteCalls int
	CancelCalls   int
}

type fakeJob struct {
	targetID    string
	endTs       time.Time
	lockedCosts []common.CostLine
}

// NewFakeAuthority creates a fake backend sharing the engine's clock
func NewFakeAuthority(clock shared.Clock) *FakeAuthority {
	return &FakeAuthority{
		clock:   clock,
		running: make(map[string]fakeJob),
	}
}

// StartJob issues a job id and remembers the job as running
func (f *FakeAuthority) StartJob(ctx context.Context, token string, req common.StartJobRequest) (*common.StartJobResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StartCalls++

	f.nextID++
	jobID := fmt.Sprintf("job-%d", f.nextID)
	start := f.clock.Now()
	end := start.Add(time.Duration(req.DurationSeconds) * time.Second)

	f.running[jobID] = fakeJob{targetID: req.TargetID, endTs: end}

	return &common.StartJobResponse{
		JobID:    jobID,
		StartUTC: shared.FormatUTCTimestamp(start),
		EndUTC:   shared.FormatUTCTimestamp(end),
	}, nil
}

// CompleteJob confirms a finished job, refuses one still running, and reports
// unknown jobs as stale
func (f *FakeAuthority) CompleteJob(ctx context.Context, token, targetID, jobID, scope string) (*common.CompleteJobResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CompleteCalls++

	j, ok := f.running[jobID]
	if !ok {
		return nil, shared.NewStaleJobError(targetID, jobID, nil)
	}
	if f.clock.Now().Before(j.endTs.Add(f.Skew)) {
		return nil, shared.NewNotFinishedYetError(targetID, jobID)
	}

	delete(f.running, jobID)
	if f.CompleteDelta != nil {
		resp := f.CompleteDelta(targetID)
		return &resp, nil
	}
	return &common.CompleteJobResponse{
		StateDelta: common.StateDelta{OwnedEntityID: targetID},
	}, nil
}

// CancelJob refunds a running job's locked costs; unknown jobs are stale
func (f *FakeAuthority) CancelJob(ctx context.Context, token, targetID, jobID, scope string) (*common.CancelJobResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CancelCalls++

	j, ok := f.running[jobID]
	if !ok {
		return nil, shared.NewStaleJobError(targetID, jobID, nil)
	}

	delete(f.running, jobID)
	return &common.CancelJobResponse{LockedCosts: j.lockedCosts}, nil
}

// SetLockedCosts records the refundable escrow for a running job
func (f *FakeAuthority) SetLockedCosts(jobID string, costs []common.CostLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.running[jobID]; ok {
		j.lockedCosts = costs
		f.running[jobID] = j
	}
}

// ForgetJob drops a job server-side, simulating a completion the client has
// not observed yet
func (f *FakeAuthority) ForgetJob(jobID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, jobID)
}
