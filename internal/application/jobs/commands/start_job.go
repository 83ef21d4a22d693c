package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/requirement"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// StartJobCommand starts a timed job against an exact catalog target.
//
// The handler gates the start on every non-price axis (prerequisites,
// capacity, stage) plus affordability before anything reaches the server,
// so an ineligible click is rejected locally and cheaply. The store then
// enforces the structural rules: one job per target, no double submission,
// no building what is already owned.
type StartJobCommand struct {
	TargetID string // Exact entity id (e.g., "building.barn.l2")
}

// StartJobResponse reports the accepted job
type StartJobResponse struct {
	TargetID         string
	JobID            string
	EndUTC           string
	RemainingSeconds int
	LockedCosts      map[string]float64
}

// StartJobHandler validates eligibility and delegates to the job store
type StartJobHandler struct {
	store   *jobs.Store
	catalog *catalog.Catalog
}

// NewStartJobHandler creates a start job handler
func NewStartJobHandler(store *jobs.Store, cat *catalog.Catalog) *StartJobHandler {
	return &StartJobHandler{store: store, catalog: cat}
}

// Handle processes the start job command
func (h *StartJobHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*StartJobCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	target, err := shared.ParseEntityID(cmd.TargetID)
	if err != nil {
		return nil, shared.NewRejectedStartError(cmd.TargetID, err.Error())
	}

	def, found := h.catalog.Get(target)
	if !found {
		return nil, shared.NewRejectedStartError(cmd.TargetID, "unknown catalog entry")
	}

	state := h.store.GameState()
	if def.StageRequired > state.Stage() {
		return nil, shared.NewRejectedStartError(cmd.TargetID,
			fmt.Sprintf("requires stage %d", def.StageRequired))
	}

	verdict := requirement.Evaluate(def, state.View())
	if !verdict.AllOk() {
		return nil, shared.NewRejectedStartError(cmd.TargetID, strings.Join(verdict.Reasons, "; "))
	}

	if affordable, shortfalls := state.Ledger().CanAfford(def.Cost); !affordable {
		return nil, shared.NewRejectedStartError(cmd.TargetID,
			fmt.Sprintf("insufficient resources: %s", strings.Join(shortfalls, ", ")))
	}

	j, err := h.store.Start(ctx, def)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, shared.NewRejectedStartError(cmd.TargetID, "start was aborted")
	}

	now := h.store.Clock().Now()
	return &StartJobResponse{
		TargetID:         j.TargetID.String(),
		JobID:            j.JobID,
		EndUTC:           shared.FormatUTCTimestamp(j.EndTs),
		RemainingSeconds: j.RemainingSeconds(now),
		LockedCosts:      j.LockedCosts.Amounts(),
	}, nil
}
