// Package planner implements the utility-AI planner (C7): species bid
// tables scored against the current entity/world state, triggered by
// events rather than polled every tick, replacing the active action only
// when a candidate beats it by the hysteresis margin H.
package planner

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/perception"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

// HysteresisMargin is H (spec.md GLOSSARY): the minimum score excess a
// candidate action needs over the currently active action's bid to
// replace it.
const HysteresisMargin = 5.0

// PreyCandidate is the nearest huntable prey in range, supplied by the
// matching phase's predator-side search (spec.md §4.9 phase 6 runs
// alongside planning as a specialized system; here it is precomputed and
// handed to the planner as an event input).
type PreyCandidate struct {
	Entity   ecs.Entity
	Distance int32
	Species  speciesdef.Species
}

// ForageCandidate is the best nearby vegetation cell, from vegetation.RadiusSearch.
type ForageCandidate struct {
	Tile     components.Position
	Distance int32
	Biomass  float32
}

// WaterCandidate is the nearest water-source tile.
type WaterCandidate struct {
	Tile     components.Position
	Distance int32
}

// CarcassCandidate is a nearby unconsumed carcass.
type CarcassCandidate struct {
	Entity   ecs.Entity
	Distance int32
	Food     float32
}

// Context is everything one entity's bid table needs this tick.
type Context struct {
	Self     ecs.Entity
	Species  speciesdef.Species
	Position components.Position
	Vitals   components.Vitals
	IsJuvenile bool
	InGroup    bool

	Signals perception.Signals

	NearestPrey    *PreyCandidate
	BestForage     *ForageCandidate
	NearestWater   *WaterCandidate
	NearestCarcass *CarcassCandidate

	Current components.ActionState // the currently active/pending action, zero value if none
}

// Candidate is one scored bid table entry.
type Candidate struct {
	Kind   components.ActionKind
	Score  float32
	Target components.TargetRef
}

// Plan scores the species bid table against ctx and returns the action
// that should become pending, or false if the current action should be
// kept (spec.md §4.7). Flee takes hard priority over every other
// candidate for any entity with a FearResponse-derived Threat signal
// within flee_threshold, cancelling any active action immediately
// (spec.md §4.7, §9 universal flee decision).
func Plan(ctx Context, fleeThreshold int32) (components.ActionState, bool) {
	if ctx.Signals.Threat != nil && ctx.Signals.Threat.Distance <= fleeThreshold {
		return components.ActionState{
			Kind:   components.ActionFlee,
			Phase:  components.PhasePending,
			Target: components.TargetRef{Kind: components.TargetEntity, EntityID: ctx.Signals.Threat.Nearest.ID()},
			Bid:    1000, // Flee is never beaten by hysteresis; it is an override, not a bid.
		}, true
	}
	if ctx.Current.Kind == components.ActionFlee {
		// The threat that forced Flee is gone; fall through to normal
		// scoring so the entity resumes a deliberate action next tick.
	}

	candidates := score(ctx)
	if len(candidates) == 0 {
		return components.ActionState{Kind: components.ActionIdle, Phase: components.PhasePending}, true
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score || (c.Score == best.Score && c.Kind < best.Kind) {
			best = c
		}
	}

	if ctx.Current.Phase != components.PhaseNone && ctx.Current.Kind != components.ActionNone {
		if best.Score <= ctx.Current.Bid+HysteresisMargin {
			return components.ActionState{}, false
		}
	}

	return components.ActionState{
		Kind:   best.Kind,
		Phase:  components.PhasePending,
		Target: best.Target,
		Bid:    best.Score,
	}, true
}

// score builds every candidate this species' bid table permits, in
// canonical ActionKind order so equal-score ties resolve to the lower
// index deterministically (spec.md §4.7: "Tie-break by lower action
// index").
func score(ctx Context) []Candidate {
	profile := speciesdef.Profile(ctx.Species)
	var out []Candidate

	out = append(out, Candidate{Kind: components.ActionIdle, Score: 1})
	out = append(out, Candidate{Kind: components.ActionWander, Score: 2})

	if ctx.NearestWater != nil && ctx.Vitals.Thirst > profile.ThirstTrigger {
		urgency := (ctx.Vitals.Thirst - profile.ThirstTrigger) / (100 - profile.ThirstTrigger) * 100
		urgency -= float32(ctx.NearestWater.Distance) * 0.5
		out = append(out, Candidate{
			Kind:   components.ActionDrinkWater,
			Score:  urgency,
			Target: components.TargetRef{Kind: components.TargetTile, Tile: ctx.NearestWater.Tile},
		})
	}

	if profile.CanGraze && ctx.BestForage != nil && ctx.Vitals.Hunger > profile.HungerTrigger {
		urgency := (ctx.Vitals.Hunger - profile.HungerTrigger) / (100 - profile.HungerTrigger) * 100
		urgency -= float32(ctx.BestForage.Distance) * 0.5
		if ctx.BestForage.Biomass <= 0 {
			urgency = -1
		}
		out = append(out, Candidate{
			Kind:   components.ActionGraze,
			Score:  urgency,
			Target: components.TargetRef{Kind: components.TargetTile, Tile: ctx.BestForage.Tile},
		})
	}

	if profile.CanForage && ctx.BestForage != nil && ctx.Vitals.Hunger > profile.HungerTrigger {
		urgency := (ctx.Vitals.Hunger-profile.HungerTrigger)/(100-profile.HungerTrigger)*100*0.8
		urgency -= float32(ctx.BestForage.Distance) * 0.5
		out = append(out, Candidate{
			Kind:   components.ActionForage,
			Score:  urgency,
			Target: components.TargetRef{Kind: components.TargetTile, Tile: ctx.BestForage.Tile},
		})
	}

	if profile.CanHunt && ctx.NearestPrey != nil && ctx.Vitals.Hunger > profile.HungerTrigger*0.7 {
		urgency := (ctx.Vitals.Hunger - profile.HungerTrigger*0.7) / (100 - profile.HungerTrigger*0.7) * 100
		urgency -= float32(ctx.NearestPrey.Distance) * 0.8
		out = append(out, Candidate{
			Kind:   components.ActionHunt,
			Score:  urgency,
			Target: components.TargetRef{Kind: components.TargetEntity, EntityID: ctx.NearestPrey.Entity.ID()},
		})
	}

	if ctx.NearestCarcass != nil && ctx.Vitals.Hunger > profile.HungerTrigger*0.5 {
		urgency := ctx.Vitals.Hunger - float32(ctx.NearestCarcass.Distance)*0.5
		out = append(out, Candidate{
			Kind:   components.ActionEat,
			Score:  urgency,
			Target: components.TargetRef{Kind: components.TargetEntity, EntityID: ctx.NearestCarcass.Entity.ID()},
		})
	}

	if !ctx.IsJuvenile && len(ctx.Signals.Mate.Entities) > 0 &&
		ctx.Vitals.Hunger < profile.HungerTrigger*0.9 && ctx.Vitals.Energy < profile.EnergyTrigger {
		partner := ctx.Signals.Mate.Entities[0]
		out = append(out, Candidate{
			Kind:   components.ActionMate,
			Score:  60,
			Target: components.TargetRef{Kind: components.TargetEntity, EntityID: partner.ID()},
		})
	}

	if !ctx.InGroup && profile.Group.Type != speciesdef.GroupNone && len(ctx.Signals.Kin.Entities) >= profile.Group.MinSize-1 {
		leader := ctx.Signals.Kin.Entities[0]
		out = append(out, Candidate{
			Kind:   components.ActionJoinGroup,
			Score:  40,
			Target: components.TargetRef{Kind: components.TargetEntity, EntityID: leader.ID()},
		})
	}

	if ctx.Vitals.Energy > profile.EnergyTrigger {
		urgency := (ctx.Vitals.Energy - profile.EnergyTrigger) / (100 - profile.EnergyTrigger) * 100
		out = append(out, Candidate{Kind: components.ActionSleep, Score: urgency})
	}

	return out
}
