package components

import "github.com/pthm-cable/life-simulator/speciesdef"

// ActionKind enumerates the canonical planner action kinds (spec.md §4.7).
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionIdle
	ActionWander
	ActionMoveTo
	ActionDrinkWater
	ActionGraze
	ActionForage
	ActionHunt
	ActionFlee
	ActionMate
	ActionJoinGroup
	ActionSleep
	ActionEat
)

func (k ActionKind) String() string {
	switch k {
	case ActionIdle:
		return "Idle"
	case ActionWander:
		return "Wander"
	case ActionMoveTo:
		return "MoveTo"
	case ActionDrinkWater:
		return "DrinkWater"
	case ActionGraze:
		return "Graze"
	case ActionForage:
		return "Forage"
	case ActionHunt:
		return "Hunt"
	case ActionFlee:
		return "Flee"
	case ActionMate:
		return "Mate"
	case ActionJoinGroup:
		return "JoinGroup"
	case ActionSleep:
		return "Sleep"
	case ActionEat:
		return "Eat"
	default:
		return "None"
	}
}

// ActionPhase is the lifecycle phase of an in-progress action (spec.md §4.8).
type ActionPhase uint8

const (
	PhaseNone ActionPhase = iota
	PhasePending
	PhaseActive
	PhaseComplete
	PhaseFailed
)

// ActionState is the per-entity action-state machine slot. At most one
// action is tracked at a time, matching spec.md §3 Action state.
type ActionState struct {
	Kind      ActionKind
	Phase     ActionPhase
	Target    TargetRef
	Bid       float32
	StartedAt int64
	Progress  int32 // generic step counter, e.g. path index or bite count
}

// TargetRef is a tagged union identifying an action's target: a tile, an
// entity, or nothing. Only one of Tile/EntityID is meaningful, selected by
// Kind.
type TargetRef struct {
	Kind     TargetKind
	Tile     Position
	EntityID uint32
}

type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetTile
	TargetEntity
)

// Organism bundles per-entity identity and cooldown state that doesn't fit
// cleanly under Vitals/Age/Sex.
type Organism struct {
	ID           uint32
	MateCooldown int32 // ticks until eligible to re-enter the mate matcher
	HuntCooldown int32 // ticks a predator must wait after a failed/completed hunt
}

// Profile returns static per-species parameters for convenience call sites
// that already hold a SpeciesTag.
func (t SpeciesTag) Profile() speciesdef.SpeciesProfile {
	return speciesdef.Profile(t.Species)
}
