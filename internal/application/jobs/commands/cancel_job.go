package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// CancelJobCommand cancels the running job for a target. The refund amount
// is whatever the server reports, not the locally remembered escrow.
type CancelJobCommand struct {
	TargetID string
}

// CancelJobResponse confirms the cancellation
type CancelJobResponse struct {
	TargetID string
}

// CancelJobHandler delegates to the job store
type CancelJobHandler struct {
	store *jobs.Store
}

// NewCancelJobHandler creates a cancel job handler
func NewCancelJobHandler(store *jobs.Store) *CancelJobHandler {
	return &CancelJobHandler{store: store}
}

// Handle processes the cancel job command
func (h *CancelJobHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*CancelJobCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	target, err := shared.ParseEntityID(cmd.TargetID)
	if err != nil {
		return nil, err
	}

	if err := h.store.Cancel(ctx, target); err != nil {
		return nil, err
	}
	return &CancelJobResponse{TargetID: cmd.TargetID}, nil
}
