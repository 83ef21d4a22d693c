package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/application/jobs"
	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/requirement"
)

// ResolveTargetQuery asks which definition a family currently offers and
// whether it is actionable. This is the read model behind every entity card:
// one target per series, with the price, prerequisite and capacity axes
// reported independently so the presentation can explain what is missing.
type ResolveTargetQuery struct {
	FamilyKey string // e.g., "building.barn"
}

// ResolveTargetResponse carries the resolved target and its gate states
type ResolveTargetResponse struct {
	Resolution catalog.Resolution

	// Populated only when Resolution is OFFERED
	TargetID        string
	Level           int
	OwnedLevel      int
	IsUpgrade       bool
	StageOk         bool
	Cost            map[string]float64
	DurationSeconds int
	CanAfford       bool
	Shortfalls      []string
	PrerequisitesOk bool
	CapacityOk      bool
	BlockedReasons  []string
	JobRunning      bool
}

// Actionable reports whether a start attempt would pass every local gate
func (r *ResolveTargetResponse) Actionable() bool {
	return r.Resolution == catalog.ResolutionOffered &&
		r.StageOk && r.CanAfford && r.PrerequisitesOk && r.CapacityOk && !r.JobRunning
}

// ResolveTargetHandler resolves series targets against current ownership
type ResolveTargetHandler struct {
	store   *jobs.Store
	catalog *catalog.Catalog
}

// NewResolveTargetHandler creates a resolve target handler
func NewResolveTargetHandler(store *jobs.Store, cat *catalog.Catalog) *ResolveTargetHandler {
	return &ResolveTargetHandler{store: store, catalog: cat}
}

// Handle processes the resolve target query
func (h *ResolveTargetHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*ResolveTargetQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	state := h.store.GameState()
	series := h.catalog.Series(query.FamilyKey)
	target, resolution := catalog.ResolveTarget(series, state.OwnedLevel(query.FamilyKey), state.Stage())
	if resolution != catalog.ResolutionOffered {
		return &ResolveTargetResponse{Resolution: resolution}, nil
	}

	def := target.Definition
	verdict := requirement.Evaluate(def, state.View())
	affordable, shortfalls := state.Ledger().CanAfford(def.Cost)
	_, jobRunning := h.store.Get(def.ID)

	return &ResolveTargetResponse{
		Resolution:      resolution,
		TargetID:        def.ID.String(),
		Level:           target.Level,
		OwnedLevel:      target.OwnedLevel,
		IsUpgrade:       target.IsUpgrade,
		StageOk:         target.StageOk,
		Cost:            def.Cost.Amounts(),
		DurationSeconds: def.DurationSeconds,
		CanAfford:       affordable,
		Shortfalls:      shortfalls,
		PrerequisitesOk: verdict.PrerequisitesOk,
		CapacityOk:      verdict.CapacityOk,
		BlockedReasons:  verdict.Reasons,
		JobRunning:      jobRunning,
	}, nil
}
