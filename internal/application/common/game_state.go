package common

import (
	"sync"

	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/requirement"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// GameState is the engine's view of the player's world: the inventory
// ledger, derived ownership levels, current stage and completed research.
// Server-confirmed deltas are applied here through one typed entry point
// instead of walking a state tree for matching keys.
type GameState struct {
	mu          sync.RWMutex
	ledger      *inventory.Ledger
	ownedLevels map[string]int
	stage       int
	research    *requirement.ResearchSet
}

// GameStateSnapshot is the externally supplied load shape
type GameStateSnapshot struct {
	Inventory inventory.Snapshot
	OwnedKeys []string
	Stage     int

	// Research accepts the canonical key list or any legacy save shape;
	// translation happens once, here.
	ResearchKeys   []string
	LegacyResearch interface{}
}

// NewGameState builds game state from an ownership snapshot
func NewGameState(snap GameStateSnapshot) *GameState {
	research := requirement.NewResearchSetFromKeys(snap.ResearchKeys)
	if snap.LegacyResearch != nil {
		research = requirement.NewResearchSetFromLegacy(snap.LegacyResearch)
	}
	return &GameState{
		ledger:      inventory.NewLedger(snap.Inventory),
		ownedLevels: shared.HighestOwnedLevels(snap.OwnedKeys),
		stage:       snap.Stage,
		research:    research,
	}
}

// Ledger returns the shared inventory ledger
func (g *GameState) Ledger() *inventory.Ledger {
	return g.ledger
}

// OwnedLevel returns the highest owned level for a family key (0 = unowned)
func (g *GameState) OwnedLevel(familyKey string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ownedLevels[familyKey]
}

// Stage returns the player's current unlocked stage
func (g *GameState) Stage() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stage
}

// SetStage records a stage unlock
func (g *GameState) SetStage(stage int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stage = stage
}

// View returns the read-only ownership view the requirement evaluator uses
func (g *GameState) View() requirement.OwnershipView {
	g.mu.RLock()
	owned := make(map[string]int, len(g.ownedLevels))
	for k, v := range g.ownedLevels {
		owned[k] = v
	}
	g.mu.RUnlock()

	return requirement.OwnershipView{
		OwnedLevels: owned,
		Research:    g.research,
		Ledger:      g.ledger,
	}
}

// ApplyStateDelta applies a server-confirmed delta: ownership increment,
// resource credits and capacity grants. Resource deltas are commutative;
// the ownership level only ever moves up.
func (g *GameState) ApplyStateDelta(delta StateDelta) error {
	if delta.OwnedEntityID != "" {
		id, err := shared.ParseEntityID(delta.OwnedEntityID)
		if err != nil {
			return err
		}

		g.mu.Lock()
		if id.Level() > g.ownedLevels[id.FamilyKey()] {
			g.ownedLevels[id.FamilyKey()] = id.Level()
		}
		if id.Namespace() == shared.NamespaceResearch {
			g.research.Add(id)
		}
		g.mu.Unlock()
	}

	if len(delta.Resources) > 0 {
		g.ledger.ApplyDelta(delta.Resources)
	}
	for kind, amount := range delta.CapacityDeltas {
		g.ledger.ApplyCapacityDelta(kind, amount)
	}
	return nil
}
