// Package perception implements threat, kin, and mate discovery (C6):
// for each entity carrying a FearResponse or Social component, query the
// spatial index within its perception radius and emit the corresponding
// signal. Signals are inputs to the planner (C7); this package never
// mutates vitals, positions, or relationships.
package perception

import (
	"github.com/mlange-42/ark/ecs"
	"golang.org/x/exp/slices"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/relations"
	"github.com/pthm-cable/life-simulator/spatial"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

// Threat is the nearest sighted predator-role entity within perception
// range (spec.md §4.6).
type Threat struct {
	Nearest  ecs.Entity
	Distance int32
	Species  speciesdef.Species
}

// NearbyKin lists kin (same-species adjacency-graph relatives) within
// perception range, nearest first.
type NearbyKin struct {
	Entities []ecs.Entity
}

// NearbyMate lists eligible, unpaired opposite-sex same-species adults
// within perception range, nearest first.
type NearbyMate struct {
	Entities []ecs.Entity
}

// Signals bundles one tick's perception output for one entity. At most
// one Threat is recorded, matching spec.md's "nearest" wording.
type Signals struct {
	Threat     *Threat
	Kin        NearbyKin
	Mate       NearbyMate
}

// WorldView is the read-only slice of world state perception needs,
// narrow by design so this package cannot accidentally mutate anything
// during what must be a read-only phase (spec.md §4.9 phase 4).
type WorldView struct {
	Index     *spatial.Index
	Graphs    *relations.Graphs
	PositionOf func(ecs.Entity) (components.Position, bool)
	SpeciesOf  func(ecs.Entity) (speciesdef.Species, bool)
	SexOf      func(ecs.Entity) (components.Sex, bool)
	IsJuvenileOf func(ecs.Entity) bool
	IsAliveOf  func(ecs.Entity) bool
}

// Perceive computes Signals for entity e at position pos, given its
// FearResponse (nil if it has none) and whether it is social.
func Perceive(world WorldView, e ecs.Entity, pos components.Position, fear *components.FearResponse, social bool) Signals {
	var out Signals

	if fear != nil {
		out.Threat = findThreat(world, e, pos, fear)
	}

	if social {
		out.Kin = findKin(world, e, pos)
		out.Mate = findMates(world, e, pos)
	}

	return out
}

func findThreat(world WorldView, e ecs.Entity, pos components.Position, fear *components.FearResponse) *Threat {
	candidates := world.Index.QueryRadius(pos, fear.PerceptionRadius, spatial.MaskPredator, world.PositionOf)

	var nearest *Threat
	for _, cand := range candidates {
		if cand == e || !world.IsAliveOf(cand) {
			continue
		}
		candPos, ok := world.PositionOf(cand)
		if !ok {
			continue
		}
		candSpecies, ok := world.SpeciesOf(cand)
		if !ok {
			continue
		}
		dist := pos.ChebyshevDist(candPos)
		if nearest == nil || dist < nearest.Distance {
			nearest = &Threat{Nearest: cand, Distance: dist, Species: candSpecies}
		}
	}
	return nearest
}

func findKin(world WorldView, e ecs.Entity, pos components.Position) NearbyKin {
	mySpecies, ok := world.SpeciesOf(e)
	if !ok {
		return NearbyKin{}
	}
	profile := speciesdef.Profile(mySpecies)
	if profile.PerceptionRadius <= 0 {
		return NearbyKin{}
	}

	candidates := world.Index.QueryRadius(pos, profile.PerceptionRadius, spatial.AllRoles, world.PositionOf)
	var kin []ecs.Entity
	for _, cand := range candidates {
		if cand == e || !world.IsAliveOf(cand) {
			continue
		}
		if sp, ok := world.SpeciesOf(cand); !ok || sp != mySpecies {
			continue
		}
		if isKinOf(world.Graphs, e, cand) {
			kin = append(kin, cand)
		}
	}
	sortByDistance(kin, pos, world.PositionOf)
	return NearbyKin{Entities: kin}
}

func isKinOf(graphs *relations.Graphs, a, b ecs.Entity) bool {
	aParent, aOK := graphs.ParentChild.ParentOf(a.ID())
	bParent, bOK := graphs.ParentChild.ParentOf(b.ID())
	if aOK && aParent == b.ID() {
		return true
	}
	if bOK && bParent == a.ID() {
		return true
	}
	if aOK && bOK && aParent == bParent {
		return true // siblings
	}
	return false
}

func findMates(world WorldView, e ecs.Entity, pos components.Position) NearbyMate {
	mySpecies, ok := world.SpeciesOf(e)
	if !ok {
		return NearbyMate{}
	}
	mySex, ok := world.SexOf(e)
	if !ok {
		return NearbyMate{}
	}
	profile := speciesdef.Profile(mySpecies)
	radius := profile.PerceptionRadius
	if radius <= 0 {
		radius = profile.Group.CohesionRadius
	}

	candidates := world.Index.QueryRadius(pos, radius, spatial.AllRoles, world.PositionOf)
	var mates []ecs.Entity
	for _, cand := range candidates {
		if cand == e || !world.IsAliveOf(cand) {
			continue
		}
		if sp, ok := world.SpeciesOf(cand); !ok || sp != mySpecies {
			continue
		}
		if sex, ok := world.SexOf(cand); !ok || sex == mySex {
			continue
		}
		if world.IsJuvenileOf(cand) {
			continue
		}
		mates = append(mates, cand)
	}
	sortByDistance(mates, pos, world.PositionOf)
	return NearbyMate{Entities: mates}
}

func sortByDistance(entities []ecs.Entity, origin components.Position, posOf func(ecs.Entity) (components.Position, bool)) {
	slices.SortFunc(entities, func(a, b ecs.Entity) int {
		pa, _ := posOf(a)
		pb, _ := posOf(b)
		da, db := origin.ChebyshevDist(pa), origin.ChebyshevDist(pb)
		switch {
		case da != db:
			return int(da - db)
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
}
