package job_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/colonyforge/internal/domain/job"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func testJob(start, end time.Time) *job.Job {
	return &job.Job{
		TargetID: shared.MustParseEntityID("building.barn.l1"),
		JobID:    "job-123",
		StartTs:  start,
		EndTs:    end,
	}
}

func TestJob_StateTransitionsWithTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Second)
	j := testJob(start, end)

	assert.Equal(t, job.StateRunning, j.State(start.Add(10*time.Second)))
	assert.Equal(t, job.StatePendingCompletion, j.State(end))
	assert.Equal(t, job.StatePendingCompletion, j.State(end.Add(time.Minute)))
}

func TestJob_ProgressClamped(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(100 * time.Second)
	j := testJob(start, end)

	assert.Equal(t, 0.0, j.Progress(start.Add(-5*time.Second)))
	assert.Equal(t, 0.5, j.Progress(start.Add(50*time.Second)))
	assert.Equal(t, 1.0, j.Progress(end.Add(time.Hour)))
}

func TestJob_RemainingSeconds(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	j := testJob(start, start.Add(30*time.Second))

	assert.Equal(t, 20, j.RemainingSeconds(start.Add(10*time.Second)))
	assert.Equal(t, 0, j.RemainingSeconds(start.Add(time.Minute)))
}

func TestJob_DueForCompletion(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Second)
	grace := time.Second
	j := testJob(start, end)

	// Not due before end+grace
	assert.False(t, j.DueForCompletion(end, grace))
	assert.True(t, j.DueForCompletion(end.Add(grace), grace))

	// Backoff gate skips the job until NextCheckTs elapses
	j.NextCheckTs = end.Add(10 * time.Second)
	assert.False(t, j.DueForCompletion(end.Add(5*time.Second), grace))
	assert.True(t, j.DueForCompletion(end.Add(10*time.Second), grace))
}

func TestJob_ValidateGhostShapes(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	valid := testJob(start, start.Add(time.Minute))
	assert.NoError(t, valid.Validate())

	missingJobID := testJob(start, start.Add(time.Minute))
	missingJobID.JobID = ""
	assert.Error(t, missingJobID.Validate())

	missingTimes := testJob(time.Time{}, time.Time{})
	assert.Error(t, missingTimes.Validate())

	inverted := testJob(start, start.Add(-time.Minute))
	assert.Error(t, inverted.Validate())

	noTarget := &job.Job{JobID: "job-1", StartTs: start, EndTs: start.Add(time.Minute)}
	assert.Error(t, noTarget.Validate())
}

func TestCompletionQueue_Dedupe(t *testing.T) {
	q := job.NewCompletionQueue()

	q.Enqueue("building.barn.l1")
	q.Enqueue("building.well.l2")
	q.Enqueue("building.barn.l1") // duplicate, ignored

	assert.Equal(t, 2, q.Len())
	assert.True(t, q.Contains("building.barn.l1"))

	drained := q.Drain()
	assert.Equal(t, []string{"building.barn.l1", "building.well.l2"}, drained)
	assert.Equal(t, 0, q.Len())
	assert.False(t, q.Contains("building.barn.l1"))
}
