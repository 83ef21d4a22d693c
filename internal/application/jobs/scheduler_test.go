package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func newTestScheduler(store *Store) *Scheduler {
	return NewScheduler(store, nil, DefaultSchedulerConfig())
}

func TestScheduler_TickCompletesDueJobs(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := &fakeAuthority{
		startFn: acceptingStart("job-1", clock, time.Minute),
		completeFn: func(targetID, jobID string) (*common.CompleteJobResponse, error) {
			return &common.CompleteJobResponse{
				StateDelta: common.StateDelta{OwnedEntityID: targetID},
			}, nil
		},
	}
	state := newTestState()
	store := newTestStore(authority, newMemoryJobRepo(), state, clock)
	scheduler := newTestScheduler(store)

	_, err := store.Start(context.Background(), barnDefinition())
	require.NoError(t, err)

	// Not due yet: nothing reaches the server
	scheduler.Tick(context.Background())
	assert.Zero(t, authority.completeCalls)

	clock.Advance(2 * time.Minute)
	scheduler.Tick(context.Background())

	assert.Equal(t, 1, authority.completeCalls)
	assert.Zero(t, store.Count())
	assert.Equal(t, 1, state.OwnedLevel("building.barn"))
}

func TestScheduler_TickRespectsCompletionGrace(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := &fakeAuthority{
		startFn: acceptingStart("job-1", clock, time.Minute),
		completeFn: func(targetID, jobID string) (*common.CompleteJobResponse, error) {
			return &common.CompleteJobResponse{}, nil
		},
	}
	store := newTestStore(authority, newMemoryJobRepo(), newTestState(), clock)
	scheduler := newTestScheduler(store)

	_, err := store.Start(context.Background(), barnDefinition())
	require.NoError(t, err)

	// End reached but grace not yet elapsed
	clock.Advance(time.Minute + 500*time.Millisecond)
	scheduler.Tick(context.Background())
	assert.Zero(t, authority.completeCalls)

	clock.Advance(time.Second)
	scheduler.Tick(context.Background())
	assert.Equal(t, 1, authority.completeCalls)
}

func TestScheduler_AdaptiveInterval(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := &fakeAuthority{startFn: acceptingStart("job-1", clock, time.Hour)}
	store := newTestStore(authority, newMemoryJobRepo(), newTestState(), clock)
	scheduler := newTestScheduler(store)

	assert.Equal(t, 5*time.Second, scheduler.Tick(context.Background()), "idle cadence with no jobs")

	_, err := store.Start(context.Background(), barnDefinition())
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, scheduler.Tick(context.Background()), "active cadence with a job")
}

func TestScheduler_RetriesKeepJobUntilServerConfirms(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	finished := false
	authority := &fakeAuthority{
		startFn: acceptingStart("job-1", clock, time.Minute),
		completeFn: func(targetID, jobID string) (*common.CompleteJobResponse, error) {
			if !finished {
				return nil, shared.NewNotFinishedYetError(targetID, jobID)
			}
			return &common.CompleteJobResponse{}, nil
		},
	}
	store := newTestStore(authority, newMemoryJobRepo(), newTestState(), clock)
	scheduler := newTestScheduler(store)

	_, err := store.Start(context.Background(), barnDefinition())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	scheduler.Tick(context.Background())
	assert.Equal(t, 1, authority.completeCalls)
	assert.Equal(t, 1, store.Count(), "NotFinishedYet keeps the job")

	// The short gate suppresses the immediate next tick
	scheduler.Tick(context.Background())
	assert.Equal(t, 1, authority.completeCalls)

	finished = true
	clock.Advance(3 * time.Second)
	scheduler.Tick(context.Background())
	assert.Equal(t, 2, authority.completeCalls)
	assert.Zero(t, store.Count())
}

func TestScheduler_CatchUpCompletesOverdueRestoredJobs(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := &fakeAuthority{
		completeFn: func(targetID, jobID string) (*common.CompleteJobResponse, error) {
			return &common.CompleteJobResponse{
				StateDelta: common.StateDelta{OwnedEntityID: targetID},
			}, nil
		},
	}
	repo := newMemoryJobRepo()
	now := clock.Now()
	repo.records["building.barn.l1"] = common.JobRecord{
		TargetID: "building.barn.l1",
		JobID:    "job-1",
		StartTs:  now.Add(-time.Hour),
		EndTs:    now.Add(-30 * time.Minute),
	}
	state := newTestState()
	store := newTestStore(authority, repo, state, clock)
	require.NoError(t, store.Restore(context.Background()))
	scheduler := newTestScheduler(store)

	scheduler.Tick(context.Background())

	assert.Equal(t, 1, authority.completeCalls, "overdue job completes on the first tick")
	assert.Equal(t, 1, state.OwnedLevel("building.barn"))
	assert.Zero(t, store.Count())
}

func TestScheduler_PublishesProgressSnapshots(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	authority := &fakeAuthority{startFn: acceptingStart("job-1", clock, time.Minute)}
	store := newTestStore(authority, newMemoryJobRepo(), newTestState(), clock)
	scheduler := newTestScheduler(store)

	var seen []ProgressSnapshot
	scheduler.OnProgress(func(snapshots []ProgressSnapshot) {
		seen = snapshots
	})

	_, err := store.Start(context.Background(), barnDefinition())
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	scheduler.Tick(context.Background())

	require.Len(t, seen, 1)
	assert.Equal(t, "building.barn.l1", seen[0].TargetID)
	assert.InDelta(t, 0.5, seen[0].Fraction, 0.01)
	assert.Equal(t, 30, seen[0].RemainingSeconds)
}
