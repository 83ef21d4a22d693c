package catalog

import (
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// LeveledDefinition is one immutable game-content entry: a single level of a
// leveled entity series, keyed by family and level. Supplied externally and
// never mutated by the engine.
type LeveledDefinition struct {
	ID              shared.EntityID
	Cost            inventory.PriceMap
	Prerequisites   []shared.EntityID
	DurationSeconds int
	StageRequired   int

	// CapacityDeltas is signed per capacity counter: negative consumes
	// capacity (footprint, animal slots), positive grants it.
	CapacityDeltas map[string]float64
}

// Family returns the series base name
func (d *LeveledDefinition) Family() string {
	return d.ID.Family()
}

// Level returns this definition's level within the series
func (d *LeveledDefinition) Level() int {
	return d.ID.Level()
}

// FamilyKey returns the ownership key shared by the whole series
func (d *LeveledDefinition) FamilyKey() string {
	return d.ID.FamilyKey()
}
