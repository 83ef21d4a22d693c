package requirement_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/domain/requirement"
)

func TestNewResearchSetFromLegacy_CanonicalListFromJSON(t *testing.T) {
	// Arrange: the canonical key list as a snapshot file delivers it
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`["research.carpentry.l2", "research.irrigation.l1"]`), &raw))

	// Act
	set := requirement.NewResearchSetFromLegacy(raw)

	// Assert
	assert.True(t, set.Satisfies("research.carpentry", 2))
	assert.True(t, set.Satisfies("research.irrigation", 1))
	assert.False(t, set.Satisfies("research.carpentry", 3))
}

func TestNewResearchSetFromLegacy_FlatMapMarkers(t *testing.T) {
	// Arrange: every marker shape the old saves used
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"research.carpentry.l1": true,
		"research.carpentry.l2": 1,
		"research.irrigation.l1": 0,
		"research.masonry.l1": false,
		"research.pottery.l1": null,
		"research.weaving.l1": ""
	}`), &raw))

	// Act
	set := requirement.NewResearchSetFromLegacy(raw)

	// Assert: only true and non-zero markers count as completed
	assert.True(t, set.Satisfies("research.carpentry", 2))
	assert.False(t, set.Satisfies("research.irrigation", 1))
	assert.False(t, set.Satisfies("research.masonry", 1))
	assert.False(t, set.Satisfies("research.pottery", 1))
	assert.False(t, set.Satisfies("research.weaving", 1))
}

func TestNewResearchSetFromLegacy_StructuredCollection(t *testing.T) {
	// Arrange
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"completed": ["research.carpentry.l1", "research.carpentry.l3"]}`), &raw))

	// Act
	set := requirement.NewResearchSetFromLegacy(raw)

	// Assert: highest completed level wins
	assert.True(t, set.Satisfies("research.carpentry", 3))
	assert.False(t, set.Satisfies("research.irrigation", 1))
}

func TestNewResearchSetFromLegacy_SkipsNonResearchAndMalformedKeys(t *testing.T) {
	// Arrange
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(`["building.barn.l1", "not an id", "research.carpentry.l1"]`), &raw))

	// Act
	set := requirement.NewResearchSetFromLegacy(raw)

	// Assert
	assert.True(t, set.Satisfies("research.carpentry", 1))
	assert.False(t, set.Satisfies("building.barn", 1))
}

func TestNewResearchSetFromLegacy_UnknownShapeYieldsEmptySet(t *testing.T) {
	// Act
	set := requirement.NewResearchSetFromLegacy(42)

	// Assert
	assert.False(t, set.Satisfies("research.carpentry", 1))
}
