package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/job"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// JobProgressQuery asks for the current progress of one target's job
type JobProgressQuery struct {
	TargetID string
}

// JobProgressResponse is the progress snapshot; Found is false when the
// target has no job
type JobProgressResponse struct {
	Found            bool
	State            job.State
	Fraction         float64
	RemainingSeconds int
}

// JobProgressHandler reads the job store
type JobProgressHandler struct {
	store *jobs.Store
}

// NewJobProgressHandler creates a job progress handler
func NewJobProgressHandler(store *jobs.Store) *JobProgressHandler {
	return &JobProgressHandler{store: store}
}

// Handle processes the job progress query
func (h *JobProgressHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*JobProgressQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	target, err := shared.ParseEntityID(query.TargetID)
	if err != nil {
		return nil, err
	}

	j, found := h.store.Get(target)
	if !found {
		return &JobProgressResponse{Found: false}, nil
	}

	now := h.store.Clock().Now()
	return &JobProgressResponse{
		Found:            true,
		State:            j.State(now),
		Fraction:         j.Progress(now),
		RemainingSeconds: j.RemainingSeconds(now),
	}, nil
}
