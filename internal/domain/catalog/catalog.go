package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andrescamacho/colonyforge/internal/domain/inventory"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

// Catalog is the read-only definitions store, keyed by namespace+family+level.
// Per-family insertion order is preserved: when two entries carry the same
// level (a content data error) the first one encountered wins downstream.
type Catalog struct {
	byID     map[string]*LeveledDefinition
	byFamily map[string][]*LeveledDefinition
	warnings []string
}

// NewCatalog builds a catalog from definitions in insertion order
func NewCatalog(defs []*LeveledDefinition) *Catalog {
	c := &Catalog{
		byID:     make(map[string]*LeveledDefinition, len(defs)),
		byFamily: make(map[string][]*LeveledDefinition),
	}
	for _, def := range defs {
		key := def.ID.String()
		if _, exists := c.byID[key]; exists {
			c.warnings = append(c.warnings, fmt.Sprintf("duplicate definition %s ignored", key))
			continue
		}
		c.byID[key] = def
		familyKey := def.FamilyKey()
		for _, existing := range c.byFamily[familyKey] {
			if existing.Level() == def.Level() {
				c.warnings = append(c.warnings, fmt.Sprintf("duplicate level in series %s: %s", familyKey, key))
			}
		}
		c.byFamily[familyKey] = append(c.byFamily[familyKey], def)
	}
	return c
}

// Get returns the definition for an exact entity id
func (c *Catalog) Get(id shared.EntityID) (*LeveledDefinition, bool) {
	def, ok := c.byID[id.String()]
	return def, ok
}

// Series returns all definitions sharing a family key, in insertion order
func (c *Catalog) Series(familyKey string) []*LeveledDefinition {
	return c.byFamily[familyKey]
}

// FamilyKeys returns every known series key
func (c *Catalog) FamilyKeys() []string {
	keys := make([]string, 0, len(c.byFamily))
	for key := range c.byFamily {
		keys = append(keys, key)
	}
	return keys
}

// Warnings returns content data problems detected at load time
func (c *Catalog) Warnings() []string {
	return c.warnings
}

// definitionRecord is the on-disk JSON shape of one catalog entry.
// Cost is left raw: content files carry all three historical cost shapes
// and the normalizer canonicalizes them at this single boundary.
type definitionRecord struct {
	ID              string             `json:"id"`
	Cost            json.RawMessage    `json:"cost"`
	Prerequisites   []string           `json:"prerequisites"`
	DurationSeconds int                `json:"durationSeconds"`
	StageRequired   int                `json:"stageRequired"`
	CapacityDeltas  map[string]float64 `json:"capacityDeltas"`
}

// Load reads a definitions catalog from a JSON stream: a flat array of
// definition records. Records with unparseable ids or prerequisites are
// rejected: content errors should fail loudly at load, not at resolve time.
func Load(r io.Reader) (*Catalog, error) {
	var records []definitionRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	defs := make([]*LeveledDefinition, 0, len(records))
	for _, rec := range records {
		id, err := shared.ParseEntityID(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", rec.ID, err)
		}

		prereqs := make([]shared.EntityID, 0, len(rec.Prerequisites))
		for _, raw := range rec.Prerequisites {
			prereq, err := shared.ParseEntityID(raw)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %q prerequisite %q: %w", rec.ID, raw, err)
			}
			prereqs = append(prereqs, prereq)
		}

		var rawCost interface{}
		if len(rec.Cost) > 0 {
			if err := json.Unmarshal(rec.Cost, &rawCost); err != nil {
				return nil, fmt.Errorf("catalog entry %q cost: %w", rec.ID, err)
			}
		}

		if rec.DurationSeconds < 0 {
			return nil, fmt.Errorf("catalog entry %q: negative duration", rec.ID)
		}

		defs = append(defs, &LeveledDefinition{
			ID:              id,
			Cost:            inventory.Normalize(rawCost),
			Prerequisites:   prereqs,
			DurationSeconds: rec.DurationSeconds,
			StageRequired:   rec.StageRequired,
			CapacityDeltas:  rec.CapacityDeltas,
		})
	}

	return NewCatalog(defs), nil
}

// LoadFile reads a definitions catalog from a JSON file on disk
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
