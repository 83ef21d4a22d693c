package catalog

import "sort"

// Resolution classifies the outcome of resolving a series
type Resolution string

const (
	// ResolutionOffered means a target definition should be shown/acted on
	ResolutionOffered Resolution = "OFFERED"

	// ResolutionCapped means the series is owned at its maximum level
	ResolutionCapped Resolution = "CAPPED"

	// ResolutionHidden means the entity should not be shown at all:
	// nothing is owned yet and the first level is stage-locked
	ResolutionHidden Resolution = "HIDDEN"
)

// Target is the single definition a series currently offers
type Target struct {
	Definition *LeveledDefinition
	Level      int
	OwnedLevel int
	IsUpgrade  bool
	StageOk    bool
}

// ResolveTarget selects the one definition a family should display next.
//
// With nothing owned the target is level 1 (or the lowest available level
// when the content skips level 1). With level O owned the target is O+1;
// a missing O+1 means the series is capped. A stage-locked target is still
// returned so the lock can be shown, except for wholly unowned families,
// which are hidden entirely.
//
// The outcome is deterministic regardless of the input ordering of defs:
// the series is stably sorted by level first, so duplicate levels keep
// their insertion-order precedence (defensive fallback for content errors).
func ResolveTarget(defs []*LeveledDefinition, ownedLevel, currentStage int) (*Target, Resolution) {
	if len(defs) == 0 {
		return nil, ResolutionCapped
	}

	series := make([]*LeveledDefinition, len(defs))
	copy(series, defs)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Level() < series[j].Level()
	})

	var target *LeveledDefinition
	if ownedLevel == 0 {
		// Lowest available level; level 1 when present
		target = series[0]
	} else {
		for _, def := range series {
			if def.Level() == ownedLevel+1 {
				target = def
				break
			}
		}
		if target == nil {
			return nil, ResolutionCapped
		}
	}

	stageOk := target.StageRequired <= currentStage
	if ownedLevel == 0 && !stageOk {
		// Nothing to own yet, nothing to show
		return nil, ResolutionHidden
	}

	return &Target{
		Definition: target,
		Level:      target.Level(),
		OwnedLevel: ownedLevel,
		IsUpgrade:  ownedLevel > 0,
		StageOk:    stageOk,
	}, ResolutionOffered
}
