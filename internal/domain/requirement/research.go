package requirement

import (
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// ResearchSet is the canonical completed-research representation: for every
// research family, the highest completed level. Save data historically
// carried three different shapes; they are all translated here, at one
// boundary, so the evaluator performs a single membership test.
type ResearchSet struct {
	completed map[string]int // family key → max completed level
}

// NewResearchSet builds an empty set
func NewResearchSet() *ResearchSet {
	return &ResearchSet{completed: make(map[string]int)}
}

// NewResearchSetFromKeys builds the set from a list of completed research
// entity ids ("research.carpentry.l2"). Unparseable keys are skipped.
func NewResearchSetFromKeys(keys []string) *ResearchSet {
	set := NewResearchSet()
	for _, key := range keys {
		id, err := shared.ParseEntityID(key)
		if err != nil || id.Namespace() != shared.NamespaceResearch {
			continue
		}
		set.Add(id)
	}
	return set
}

// NewResearchSetFromLegacy translates every save format seen in the wild:
//
//   - the canonical key list (as decoded from JSON, a []interface{} of
//     strings)
//   - a flat map of research key → truthy marker
//   - a structured collection {"completed": [keys...]}
//
// All collapse into the same canonical set.
func NewResearchSetFromLegacy(raw interface{}) *ResearchSet {
	switch v := raw.(type) {
	case map[string]interface{}:
		if completed, ok := v["completed"].([]interface{}); ok {
			return NewResearchSetFromKeys(stringKeys(completed))
		}

		set := NewResearchSet()
		for key, marker := range v {
			if !truthy(marker) {
				continue
			}
			id, err := shared.ParseEntityID(key)
			if err != nil || id.Namespace() != shared.NamespaceResearch {
				continue
			}
			set.Add(id)
		}
		return set

	case []interface{}:
		return NewResearchSetFromKeys(stringKeys(v))

	case []string:
		return NewResearchSetFromKeys(v)
	}

	return NewResearchSet()
}

func stringKeys(entries []interface{}) []string {
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if key, ok := entry.(string); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// truthy mirrors the source data's loose completion markers: false, zero,
// empty string and nil all mean "not completed".
func truthy(marker interface{}) bool {
	switch m := marker.(type) {
	case nil:
		return false
	case bool:
		return m
	case float64:
		return m != 0
	case int:
		return m != 0
	case string:
		return m != ""
	}
	return true
}

// Add records a completed research level
func (s *ResearchSet) Add(id shared.EntityID) {
	if id.Level() > s.completed[id.FamilyKey()] {
		s.completed[id.FamilyKey()] = id.Level()
	}
}

// Satisfies reports whether research is completed at or above the required level
func (s *ResearchSet) Satisfies(familyKey string, level int) bool {
	return s.completed[familyKey] >= level
}
