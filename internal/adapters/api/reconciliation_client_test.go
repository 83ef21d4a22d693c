package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func newTestClient(serverURL string) *ReconciliationClient {
	return NewReconciliationClientWithConfig(serverURL, 2, time.Millisecond, shared.NewMockClock(time.Time{}))
}

func TestReconciliationClient_StartJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/start", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{
			"jobId":"job-1",
			"startedAt":"2026-03-01T12:00:00Z",
			"finishAt":"2026-03-01T12:02:00+00:00",
			"lockedCosts":[{"id":"wood","amount":40}]
		}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.StartJob(context.Background(), "token-1", common.StartJobRequest{
		TargetID:        "building.barn.l1",
		Scope:           "building",
		CorrelationID:   "corr-1",
		DurationSeconds: 120,
	})

	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.StartUTC)
	require.Len(t, resp.LockedCosts, 1)
	assert.Equal(t, "wood", resp.LockedCosts[0].Resource)
	assert.Equal(t, float64(40), resp.LockedCosts[0].Amount)

	// Both ISO8601 UTC suffix forms parse
	_, err = shared.ParseUTCTimestamp(resp.StartUTC)
	assert.NoError(t, err)
	_, err = shared.ParseUTCTimestamp(resp.EndUTC)
	assert.NoError(t, err)
}

func TestReconciliationClient_CompleteJobMapsNotFinishedYet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"NOT_FINISHED_YET","message":"job still running"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CompleteJob(context.Background(), "token-1", "building.barn.l1", "job-1", "building")

	assert.True(t, shared.IsNotFinishedYet(err))
}

func TestReconciliationClient_CancelJobMapsJobNotRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/job-1/cancel", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"JOB_NOT_RUNNING","message":"gone","data":{"yield":{"milk":5}}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CancelJob(context.Background(), "token-1", "building.barn.l1", "job-1", "building")

	require.True(t, shared.IsStaleJob(err))
	stale, ok := staleFromErr(err)
	require.True(t, ok)
	assert.Equal(t, float64(5), stale.Yield["milk"])
}

func staleFromErr(err error) (*shared.StaleJobError, bool) {
	var stale *shared.StaleJobError
	if e, ok := err.(*shared.StaleJobError); ok {
		stale = e
	}
	return stale, stale != nil
}

func TestReconciliationClient_StartJobMapsRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"INSUFFICIENT_RESOURCES","message":"not enough wood"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.StartJob(context.Background(), "token-1", common.StartJobRequest{TargetID: "building.barn.l1"})

	assert.True(t, shared.IsRejectedStart(err))
	assert.Contains(t, err.Error(), "not enough wood")
}

func TestReconciliationClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":{"jobId":"job-1","startedAt":"2026-03-01T12:00:00Z","finishAt":"2026-03-01T12:01:00Z"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.StartJob(context.Background(), "token-1", common.StartJobRequest{TargetID: "building.barn.l1"})

	require.NoError(t, err)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReconciliationClient_GivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.StartJob(context.Background(), "token-1", common.StartJobRequest{TargetID: "building.barn.l1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestAddJitter_StaysWithinBounds(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := addJitter(time.Second)
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}
}
