package catalog_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func barnDef(level, stage int) *catalog.LeveledDefinition {
	return &catalog.LeveledDefinition{
		ID:            shared.MustParseEntityID(fmt.Sprintf("building.barn.l%d", level)),
		StageRequired: stage,
	}
}

func TestResolveTarget_NothingOwned(t *testing.T) {
	defs := []*catalog.LeveledDefinition{barnDef(1, 0), barnDef(2, 0), barnDef(3, 0)}

	target, res := catalog.ResolveTarget(defs, 0, 1)

	require.Equal(t, catalog.ResolutionOffered, res)
	assert.Equal(t, 1, target.Level)
	assert.Equal(t, 0, target.OwnedLevel)
	assert.False(t, target.IsUpgrade)
	assert.True(t, target.StageOk)
}

func TestResolveTarget_LowestLevelWhenFirstAbsent(t *testing.T) {
	// Content may skip level 1
	defs := []*catalog.LeveledDefinition{barnDef(3, 0), barnDef(2, 0)}

	target, res := catalog.ResolveTarget(defs, 0, 1)

	require.Equal(t, catalog.ResolutionOffered, res)
	assert.Equal(t, 2, target.Level)
}

func TestResolveTarget_UpgradeToNextLevel(t *testing.T) {
	defs := []*catalog.LeveledDefinition{
		barnDef(1, 0), barnDef(2, 0), barnDef(3, 0), barnDef(4, 0), barnDef(5, 0),
	}

	target, res := catalog.ResolveTarget(defs, 2, 1)

	require.Equal(t, catalog.ResolutionOffered, res)
	assert.Equal(t, 3, target.Level)
	assert.True(t, target.IsUpgrade)
}

func TestResolveTarget_DeterministicAcrossOrderings(t *testing.T) {
	defs := []*catalog.LeveledDefinition{
		barnDef(1, 0), barnDef(2, 0), barnDef(3, 0), barnDef(4, 0), barnDef(5, 0),
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]*catalog.LeveledDefinition, len(defs))
		copy(shuffled, defs)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		target, res := catalog.ResolveTarget(shuffled, 2, 1)
		require.Equal(t, catalog.ResolutionOffered, res)
		assert.Equal(t, 3, target.Level)
	}
}

func TestResolveTarget_Capped(t *testing.T) {
	defs := []*catalog.LeveledDefinition{barnDef(1, 0), barnDef(2, 0)}

	target, res := catalog.ResolveTarget(defs, 2, 1)

	assert.Nil(t, target)
	assert.Equal(t, catalog.ResolutionCapped, res)
}

func TestResolveTarget_StageLockVisibility(t *testing.T) {
	// Unowned family with a stage-locked first level is hidden entirely
	defs := []*catalog.LeveledDefinition{barnDef(1, 3), barnDef(2, 3)}
	target, res := catalog.ResolveTarget(defs, 0, 1)
	assert.Nil(t, target)
	assert.Equal(t, catalog.ResolutionHidden, res)

	// Owned family with a stage-locked next level stays visible, not actionable
	defs = []*catalog.LeveledDefinition{barnDef(1, 0), barnDef(2, 3)}
	target, res = catalog.ResolveTarget(defs, 1, 1)
	require.Equal(t, catalog.ResolutionOffered, res)
	assert.Equal(t, 2, target.Level)
	assert.False(t, target.StageOk)
}

func TestResolveTarget_DuplicateLevelInsertionOrderWins(t *testing.T) {
	first := barnDef(2, 0)
	second := barnDef(2, 1) // same level, different stage: data error
	defs := []*catalog.LeveledDefinition{barnDef(1, 0), first, second}

	target, res := catalog.ResolveTarget(defs, 1, 1)

	require.Equal(t, catalog.ResolutionOffered, res)
	assert.Same(t, first, target.Definition)
}

func TestResolveTarget_EmptySeries(t *testing.T) {
	target, res := catalog.ResolveTarget(nil, 0, 1)
	assert.Nil(t, target)
	assert.Equal(t, catalog.ResolutionCapped, res)
}

func TestCatalogLoad(t *testing.T) {
	raw := `[
		{"id": "building.barn.l1", "cost": {"wood": 50}, "durationSeconds": 30, "stageRequired": 0},
		{"id": "building.barn.l2", "cost": [{"id": "wood", "amount": 120}], "durationSeconds": 60,
		 "prerequisites": ["research.carpentry.l1"], "capacityDeltas": {"footprint": -2}}
	]`

	cat, err := catalog.Load(strings.NewReader(raw))
	require.NoError(t, err)

	l1, ok := cat.Get(shared.MustParseEntityID("building.barn.l1"))
	require.True(t, ok)
	assert.Equal(t, 50.0, l1.Cost["wood"].Amount)

	l2, ok := cat.Get(shared.MustParseEntityID("building.barn.l2"))
	require.True(t, ok)
	assert.Equal(t, 120.0, l2.Cost["wood"].Amount)
	require.Len(t, l2.Prerequisites, 1)
	assert.Equal(t, "research.carpentry", l2.Prerequisites[0].FamilyKey())
	assert.Equal(t, -2.0, l2.CapacityDeltas["footprint"])

	series := cat.Series("building.barn")
	assert.Len(t, series, 2)
}

func TestCatalogLoad_RejectsBadIDs(t *testing.T) {
	_, err := catalog.Load(strings.NewReader(`[{"id": "nonsense"}]`))
	assert.Error(t, err)

	_, err = catalog.Load(strings.NewReader(`[{"id": "building.barn.l1", "prerequisites": ["bad"]}]`))
	assert.Error(t, err)
}

func TestCatalog_DuplicateLevelWarning(t *testing.T) {
	cat := catalog.NewCatalog([]*catalog.LeveledDefinition{
		barnDef(1, 0),
		{ID: shared.MustParseEntityID("building.barn.l1"), StageRequired: 1},
	})

	assert.NotEmpty(t, cat.Warnings())
}
