package shared

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace classifies a leveled entity series
type Namespace string

const (
	NamespaceBuilding Namespace = "building"
	NamespaceAddon    Namespace = "addon"
	NamespaceResearch Namespace = "research"
	NamespaceRecipe   Namespace = "recipe"
)

// IsValid reports whether the namespace is one of the known entity namespaces
func (n Namespace) IsValid() bool {
	switch n {
	case NamespaceBuilding, NamespaceAddon, NamespaceResearch, NamespaceRecipe:
		return true
	}
	return false
}

// EntityID is an immutable value object for identifiers of the form
// <namespace>.<family>[.<sub>]*.l<level> (e.g. "building.barn.l2").
// It is parsed once at the boundary so that namespace/level extraction
// is never repeated with ad-hoc string handling at call sites.
type EntityID struct {
	raw       string
	namespace Namespace
	family    string
	level     int
}

// ParseEntityID parses a raw identifier into an EntityID value object.
//
// The family portion may itself contain dots (sub-families); the level is
// always the trailing "l<n>" segment.
func ParseEntityID(raw string) (EntityID, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 3 {
		return EntityID{}, fmt.Errorf("invalid entity id %q: expected <namespace>.<family>.l<level>", raw)
	}

	ns := Namespace(parts[0])
	if !ns.IsValid() {
		return EntityID{}, fmt.Errorf("invalid entity id %q: unknown namespace %q", raw, parts[0])
	}

	levelPart := parts[len(parts)-1]
	if !strings.HasPrefix(levelPart, "l") {
		return EntityID{}, fmt.Errorf("invalid entity id %q: missing level segment", raw)
	}
	level, err := strconv.Atoi(levelPart[1:])
	if err != nil || level < 1 {
		return EntityID{}, fmt.Errorf("invalid entity id %q: bad level segment %q", raw, levelPart)
	}

	family := strings.Join(parts[1:len(parts)-1], ".")
	if family == "" {
		return EntityID{}, fmt.Errorf("invalid entity id %q: empty family", raw)
	}

	return EntityID{
		raw:       raw,
		namespace: ns,
		family:    family,
		level:     level,
	}, nil
}

// MustParseEntityID parses a raw identifier and panics on error.
// Intended for tests and static content tables.
func MustParseEntityID(raw string) EntityID {
	id, err := ParseEntityID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// Namespace returns the entity namespace (building, addon, research, recipe)
func (id EntityID) Namespace() Namespace {
	return id.namespace
}

// Family returns the series base name, including any sub-family segments
func (id EntityID) Family() string {
	return id.family
}

// Level returns the level encoded in the trailing "l<n>" segment
func (id EntityID) Level() int {
	return id.level
}

// FamilyKey returns "<namespace>.<family>", the key under which ownership
// state is tracked for the whole series
func (id EntityID) FamilyKey() string {
	return string(id.namespace) + "." + id.family
}

// IsZero reports whether the id is the zero value (never produced by Parse)
func (id EntityID) IsZero() bool {
	return id.raw == ""
}

func (id EntityID) String() string {
	return id.raw
}

// HighestOwnedLevels derives the ownership state from a set of owned entity
// keys: for every family the maximum owned level. Keys that fail to parse
// are skipped (ownership snapshots can carry non-leveled keys).
func HighestOwnedLevels(ownedKeys []string) map[string]int {
	owned := make(map[string]int)
	for _, key := range ownedKeys {
		id, err := ParseEntityID(key)
		if err != nil {
			continue
		}
		if id.Level() > owned[id.FamilyKey()] {
			owned[id.FamilyKey()] = id.Level()
		}
	}
	return owned
}
