package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

func TestParseEntityID_Simple(t *testing.T) {
	// Act
	id, err := shared.ParseEntityID("building.barn.l2")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, shared.NamespaceBuilding, id.Namespace())
	assert.Equal(t, "barn", id.Family())
	assert.Equal(t, 2, id.Level())
	assert.Equal(t, "building.barn", id.FamilyKey())
	assert.Equal(t, "building.barn.l2", id.String())
}

func TestParseEntityID_SubFamily(t *testing.T) {
	// Sub-family segments stay part of the family
	id, err := shared.ParseEntityID("recipe.bakery.bread.l3")

	require.NoError(t, err)
	assert.Equal(t, shared.NamespaceRecipe, id.Namespace())
	assert.Equal(t, "bakery.bread", id.Family())
	assert.Equal(t, 3, id.Level())
	assert.Equal(t, "recipe.bakery.bread", id.FamilyKey())
}

func TestParseEntityID_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"missing level", "building.barn"},
		{"unknown namespace", "vehicle.truck.l1"},
		{"bad level segment", "building.barn.lx"},
		{"zero level", "building.barn.l0"},
		{"level without l prefix", "building.barn.2"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := shared.ParseEntityID(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestHighestOwnedLevels(t *testing.T) {
	owned := shared.HighestOwnedLevels([]string{
		"building.barn.l1",
		"building.barn.l3",
		"building.barn.l2",
		"addon.silo.l1",
		"not-an-entity-key",
	})

	assert.Equal(t, 3, owned["building.barn"])
	assert.Equal(t, 1, owned["addon.silo"])
	assert.NotContains(t, owned, "not-an-entity-key")
}

func TestParseUTCTimestamp(t *testing.T) {
	// Both suffix forms must parse to the same UTC instant
	zulu, err := shared.ParseUTCTimestamp("2024-01-01T12:00:00Z")
	require.NoError(t, err)

	offset, err := shared.ParseUTCTimestamp("2024-01-01T12:00:00+00:00")
	require.NoError(t, err)

	assert.True(t, zulu.Equal(offset))
	assert.Equal(t, "UTC", zulu.Location().String())

	_, err = shared.ParseUTCTimestamp("")
	assert.Error(t, err)

	_, err = shared.ParseUTCTimestamp("not-a-timestamp")
	assert.Error(t, err)
}
