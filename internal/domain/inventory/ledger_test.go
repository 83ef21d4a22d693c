package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
)

func newTestLedger() *inventory.Ledger {
	return inventory.NewLedger(inventory.Snapshot{
		Solid:         map[string]float64{"wood": 60, "stone": 5},
		Liquid:        map[string]float64{"water": 100},
		Livestock:     map[string]float64{"cow": 3},
		CapacityTotal: map[string]float64{"footprint": 20},
		CapacityUsed:  map[string]float64{"footprint": 15},
	})
}

func TestLedger_HaveLooksThroughBuckets(t *testing.T) {
	ledger := newTestLedger()

	assert.Equal(t, 60.0, ledger.Have("wood"))
	assert.Equal(t, 100.0, ledger.Have("water"))
	assert.Equal(t, 3.0, ledger.Have("cow"))
	assert.Equal(t, 0.0, ledger.Have("gold"))
}

func TestLedger_CanAfford(t *testing.T) {
	ledger := newTestLedger()

	ok, shortfalls := ledger.CanAfford(inventory.Normalize(map[string]float64{
		"wood": 50, "water": 10,
	}))
	assert.True(t, ok)
	assert.Empty(t, shortfalls)

	ok, shortfalls = ledger.CanAfford(inventory.Normalize(map[string]float64{
		"wood": 50, "stone": 10, "gold": 1,
	}))
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"stone", "gold"}, shortfalls)
}

func TestLedger_ApplyDelta_BucketAffinity(t *testing.T) {
	ledger := newTestLedger()

	ledger.ApplyDelta(map[string]float64{
		"wood":  -50, // debit solid
		"water": 10,  // credit liquid, stays liquid
		"cow":   1,   // credit livestock, stays livestock
		"gold":  5,   // new resource defaults to solid
	})

	assert.Equal(t, 10.0, ledger.Have("wood"))
	assert.Equal(t, 110.0, ledger.Have("water"))
	assert.Equal(t, 4.0, ledger.Have("cow"))
	assert.Equal(t, 5.0, ledger.Have("gold"))
}

func TestLedger_DeltasAreCommutative(t *testing.T) {
	a := newTestLedger()
	b := newTestLedger()

	first := map[string]float64{"wood": -20, "gold": 5}
	second := map[string]float64{"wood": 10, "gold": -2}

	a.ApplyDelta(first)
	a.ApplyDelta(second)
	b.ApplyDelta(second)
	b.ApplyDelta(first)

	assert.Equal(t, a.Amounts(), b.Amounts())
}

func TestLedger_Capacity(t *testing.T) {
	ledger := newTestLedger()

	assert.Equal(t, 5.0, ledger.CapacityAvailable("footprint"))
	assert.Equal(t, 0.0, ledger.CapacityAvailable("animals"))

	// Consuming capacity grows used; granting grows total
	ledger.ApplyCapacityDelta("footprint", -2)
	assert.Equal(t, 3.0, ledger.CapacityAvailable("footprint"))

	ledger.ApplyCapacityDelta("footprint", 10)
	assert.Equal(t, 13.0, ledger.CapacityAvailable("footprint"))
}
