package requirement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/requirement"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func testView() requirement.OwnershipView {
	return requirement.OwnershipView{
		OwnedLevels: map[string]int{
			"building.barn":   2,
			"addon.silo":      1,
			"building.market": 0,
		},
		Research: requirement.NewResearchSetFromKeys([]string{
			"research.carpentry.l1",
			"research.carpentry.l2",
			"research.irrigation.l1",
		}),
		Ledger: inventory.NewLedger(inventory.Snapshot{
			CapacityTotal: map[string]float64{"footprint": 10},
			CapacityUsed:  map[string]float64{"footprint": 8},
		}),
	}
}

func defWith(prereqs []string, capacity map[string]float64) *catalog.LeveledDefinition {
	ids := make([]shared.EntityID, 0, len(prereqs))
	for _, p := range prereqs {
		ids = append(ids, shared.MustParseEntityID(p))
	}
	return &catalog.LeveledDefinition{
		ID:             shared.MustParseEntityID("building.bakery.l1"),
		Prerequisites:  ids,
		CapacityDeltas: capacity,
	}
}

func TestEvaluate_AllSatisfied(t *testing.T) {
	def := defWith([]string{"building.barn.l2", "addon.silo.l1", "research.carpentry.l2"}, nil)

	verdict := requirement.Evaluate(def, testView())

	assert.True(t, verdict.PrerequisitesOk)
	assert.True(t, verdict.CapacityOk)
	assert.True(t, verdict.AllOk())
	assert.Empty(t, verdict.Reasons)
}

func TestEvaluate_MissingBuildingLevel(t *testing.T) {
	def := defWith([]string{"building.barn.l3"}, nil)

	verdict := requirement.Evaluate(def, testView())

	assert.False(t, verdict.PrerequisitesOk)
	assert.Contains(t, verdict.Reasons[0], "building.barn")
}

func TestEvaluate_MissingResearch(t *testing.T) {
	def := defWith([]string{"research.carpentry.l3"}, nil)

	verdict := requirement.Evaluate(def, testView())

	assert.False(t, verdict.PrerequisitesOk)
}

func TestEvaluate_AllEntriesReported(t *testing.T) {
	// Logical AND over all entries; every unsatisfied entry gets a reason
	def := defWith([]string{"building.barn.l5", "research.genetics.l1"}, nil)

	verdict := requirement.Evaluate(def, testView())

	assert.False(t, verdict.PrerequisitesOk)
	assert.Len(t, verdict.Reasons, 2)
}

func TestEvaluate_CapacityConsumption(t *testing.T) {
	// 2 footprint available (10 total - 8 used)
	ok := defWith(nil, map[string]float64{"footprint": -2})
	verdict := requirement.Evaluate(ok, testView())
	assert.True(t, verdict.CapacityOk)

	tooBig := defWith(nil, map[string]float64{"footprint": -3})
	verdict = requirement.Evaluate(tooBig, testView())
	assert.False(t, verdict.CapacityOk)
	assert.NotEmpty(t, verdict.Reasons)
}

func TestEvaluate_PositiveCapacityDeltaNeverFails(t *testing.T) {
	def := defWith(nil, map[string]float64{"footprint": 50})

	verdict := requirement.Evaluate(def, testView())

	assert.True(t, verdict.CapacityOk)
}

func TestEvaluate_PriceNeverConsulted(t *testing.T) {
	// A definition with an unaffordable cost still evaluates clean:
	// price is a separate axis combined by the caller
	def := defWith(nil, nil)
	def.Cost = inventory.Normalize(map[string]float64{"gold": 1000000})

	verdict := requirement.Evaluate(def, testView())

	assert.True(t, verdict.AllOk())
}

func TestResearchSet_LegacyFlatMap(t *testing.T) {
	set := requirement.NewResearchSetFromLegacy(map[string]interface{}{
		"research.carpentry.l2": true,
		"research.masonry.l1":   1.0,
		"research.ignored.l1":   false,
		"building.barn.l1":      true, // wrong namespace, skipped
	})

	assert.True(t, set.Satisfies("research.carpentry", 1))
	assert.True(t, set.Satisfies("research.carpentry", 2))
	assert.True(t, set.Satisfies("research.masonry", 1))
	assert.False(t, set.Satisfies("research.ignored", 1))
	assert.False(t, set.Satisfies("building.barn", 1))
}

func TestResearchSet_StructuredCollection(t *testing.T) {
	set := requirement.NewResearchSetFromLegacy(map[string]interface{}{
		"completed": []interface{}{"research.carpentry.l1", "research.irrigation.l2"},
	})

	assert.True(t, set.Satisfies("research.carpentry", 1))
	assert.True(t, set.Satisfies("research.irrigation", 2))
	assert.False(t, set.Satisfies("research.irrigation", 3))
}
