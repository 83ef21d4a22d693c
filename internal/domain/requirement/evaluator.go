package requirement

import (
	"fmt"

	"github.com/andrescamacho/colonyforge/internal/domain/catalog"
	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// OwnershipView is what the evaluator reads: owned levels per family key,
// the canonical completed-research set, and the capacity counters held by
// the ledger. The evaluator never mutates any of it.
type OwnershipView struct {
	OwnedLevels map[string]int
	Research    *ResearchSet
	Ledger      *inventory.Ledger
}

// Verdict is the outcome of evaluating a definition's non-price gates
type Verdict struct {
	PrerequisitesOk bool
	CapacityOk      bool
	Reasons         []string
}

// AllOk reports whether both axes are satisfied
func (v Verdict) AllOk() bool {
	return v.PrerequisitesOk && v.CapacityOk
}

// Evaluate decides whether a definition's prerequisites and capacity cost
// are currently satisfiable, independent of price. Price is a separate axis
// the caller combines as priceOk && prerequisitesOk && capacityOk.
//
// Every prerequisite is evaluated so the reasons list is complete for
// presentation; the boolean result is the AND of all entries.
func Evaluate(def *catalog.LeveledDefinition, view OwnershipView) Verdict {
	verdict := Verdict{PrerequisitesOk: true, CapacityOk: true}

	for _, prereq := range def.Prerequisites {
		if satisfied(prereq, view) {
			continue
		}
		verdict.PrerequisitesOk = false
		verdict.Reasons = append(verdict.Reasons,
			fmt.Sprintf("requires %s at level %d", prereq.FamilyKey(), prereq.Level()))
	}

	for kind, delta := range def.CapacityDeltas {
		if delta >= 0 {
			// Positive deltas are a grant, not a cost
			continue
		}
		need := -delta
		available := view.Ledger.CapacityAvailable(kind)
		if available < need {
			verdict.CapacityOk = false
			verdict.Reasons = append(verdict.Reasons,
				fmt.Sprintf("insufficient %s: need %g, have %g", kind, need, available))
		}
	}

	return verdict
}

func satisfied(prereq shared.EntityID, view OwnershipView) bool {
	switch prereq.Namespace() {
	case shared.NamespaceResearch:
		if view.Research == nil {
			return false
		}
		return view.Research.Satisfies(prereq.FamilyKey(), prereq.Level())
	default:
		// building, addon, recipe: owned level gate
		return view.OwnedLevels[prereq.FamilyKey()] >= prereq.Level()
	}
}
