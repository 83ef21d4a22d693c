package queries

import (
	"context"
	"fmt"
	"sort"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/job"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// ListJobsQuery returns all running and pending-completion jobs
type ListJobsQuery struct{}

// JobView is one job row for presentation
type JobView struct {
	TargetID         string
	JobID            string
	State            job.State
	Fraction         float64
	RemainingSeconds int
	EndUTC           string
}

// ListJobsResponse carries the job rows ordered by target id
type ListJobsResponse struct {
	Jobs []JobView
}

// ListJobsHandler reads the job store
type ListJobsHandler struct {
	store *jobs.Store
}

// NewListJobsHandler creates a list jobs handler
func NewListJobsHandler(store *jobs.Store) *ListJobsHandler {
	return &ListJobsHandler{store: store}
}

// Handle processes the list jobs query
func (h *ListJobsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	if _, ok := request.(*ListJobsQuery); !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	now := h.store.Clock().Now()
	all := h.store.List()

	views := make([]JobView, 0, len(all))
	for i := range all {
		j := all[i]
		views = append(views, JobView{
			TargetID:         j.TargetID.String(),
			JobID:            j.JobID,
			State:            j.State(now),
			Fraction:         j.Progress(now),
			RemainingSeconds: j.RemainingSeconds(now),
			EndUTC:           shared.FormatUTCTimestamp(j.EndTs),
		})
	}
	sort.Slice(views, func(i, k int) bool { return views[i].TargetID < views[k].TargetID })

	return &ListJobsResponse{Jobs: views}, nil
}
