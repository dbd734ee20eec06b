// Package worldstore wraps the archetype entity store (C4): the ark ECS
// world, typed component maps/filters for every live animal, and a
// deferred command buffer for structural mutations (spawn, despawn,
// add/remove optional component). Structural mutations are illegal
// mid-query in ark, same as most archetype ECS libraries, so every
// phase that discovers a spawn or despawn queues it here instead of
// calling the world directly; Flush applies the queue at the single
// sync point the scheduler defines (spec.md §4.9 phase 9, §4.4).
package worldstore

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

// CoreMap bundles the seven components every live animal entity carries.
type CoreMap = ecs.Map7[
	components.Position,
	components.SpeciesTag,
	components.Identity,
	components.Vitals,
	components.Age,
	components.ActionState,
	components.Organism,
]

// CoreFilter iterates every live animal entity.
type CoreFilter = ecs.Filter7[
	components.Position,
	components.SpeciesTag,
	components.Identity,
	components.Vitals,
	components.Age,
	components.ActionState,
	components.Organism,
]

// Store is the entity store: the ark world plus every typed accessor the
// rest of the simulation needs. Optional components (FearResponse,
// Social, DespawnRequested, Carcass) are added and removed per entity
// rather than being part of the core archetype, since not every species
// carries them (spec.md §4.6: FearResponse is per-species).
type Store struct {
	World *ecs.World

	Core       *CoreMap
	CoreFilter *CoreFilter

	Fear     *ecs.Map1[components.FearResponse]
	Social   *ecs.Map1[components.Social]
	Despawn  *ecs.Map1[components.DespawnRequested]
	Carcass  *ecs.Map1[components.Carcass]

	DespawnFilter *ecs.Filter1[components.DespawnRequested]
	CarcassFilter *ecs.Filter1[components.Carcass]

	buffer commandBuffer
}

// New constructs a Store over a fresh ark world.
func New() *Store {
	world := ecs.NewWorld()
	return &Store{
		World:      world,
		Core:       ecs.NewMap7[components.Position, components.SpeciesTag, components.Identity, components.Vitals, components.Age, components.ActionState, components.Organism](world),
		CoreFilter: ecs.NewFilter7[components.Position, components.SpeciesTag, components.Identity, components.Vitals, components.Age, components.ActionState, components.Organism](world),
		Fear:       ecs.NewMap1[components.FearResponse](world),
		Social:     ecs.NewMap1[components.Social](world),
		Despawn:    ecs.NewMap1[components.DespawnRequested](world),
		Carcass:    ecs.NewMap1[components.Carcass](world),

		DespawnFilter: ecs.NewFilter1[components.DespawnRequested](world),
		CarcassFilter: ecs.NewFilter1[components.Carcass](world),
	}
}

// SpawnSpec describes a new animal entity, collected into the command
// buffer by planners/resolvers and realized at Flush.
type SpawnSpec struct {
	Position  components.Position
	Species   speciesdef.Species
	Sex       components.Sex
	BirthTick int64
	Vitals    components.Vitals
}

// QueueSpawn enqueues a new animal for creation at the next Flush.
func (s *Store) QueueSpawn(spec SpawnSpec) {
	s.buffer.spawns = append(s.buffer.spawns, spec)
}

// QueueDespawn enqueues an entity for removal at the next Flush.
func (s *Store) QueueDespawn(e ecs.Entity, reason components.DeathReason) {
	s.buffer.despawns = append(s.buffer.despawns, despawnCmd{entity: e, reason: reason})
}

// QueueCarcass enqueues turning a just-died entity into a carcass instead
// of despawning it outright, so prey bodies remain as food for one tick
// or until consumed (spec.md §3 Lifecycle).
func (s *Store) QueueCarcass(e ecs.Entity, species speciesdef.Species, foodRemaining float32, diedAtTick int64) {
	s.buffer.carcasses = append(s.buffer.carcasses, carcassCmd{entity: e, species: species, food: foodRemaining, tick: diedAtTick})
}

type despawnCmd struct {
	entity ecs.Entity
	reason components.DeathReason
}

type carcassCmd struct {
	entity  ecs.Entity
	species speciesdef.Species
	food    float32
	tick    int64
}

type commandBuffer struct {
	spawns    []SpawnSpec
	despawns  []despawnCmd
	carcasses []carcassCmd
}

func (b *commandBuffer) reset() {
	b.spawns = b.spawns[:0]
	b.despawns = b.despawns[:0]
	b.carcasses = b.carcasses[:0]
}

// FlushResult reports what a Flush realized, for lifecycle logging
// (spec.md §6 "Spawned <Species> #<id> ... " log lines).
type FlushResult struct {
	Spawned  []ecs.Entity
	Despawned []ecs.Entity
}

// Flush applies every queued structural mutation: carcass conversions,
// then despawns, then spawns (spec.md §5(b): deaths before consumption
// of their effects, and new entities never observe their own spawn tick's
// earlier phases). Must only be called at the resolve/lifecycle sync
// point (phase 9/11), never mid-query.
func (s *Store) Flush(tick int64) FlushResult {
	var result FlushResult

	for _, cc := range s.buffer.carcasses {
		s.Carcass.Add(cc.entity, &components.Carcass{
			SpeciesAtDeath: cc.species,
			FoodRemaining:  cc.food,
			DiedAtTick:     cc.tick,
		})
	}

	for _, dc := range s.buffer.despawns {
		s.Core.Remove(dc.entity)
		result.Despawned = append(result.Despawned, dc.entity)
	}

	for _, spec := range s.buffer.spawns {
		org := components.Organism{}
		identity := components.Identity{Sex: spec.Sex, BirthTick: spec.BirthTick}
		age := components.Age{BirthTick: spec.BirthTick}
		action := components.ActionState{}
		speciesTag := components.SpeciesTag{Species: spec.Species}
		pos := spec.Position
		vit := spec.Vitals

		e := s.Core.NewEntity(&pos, &speciesTag, &identity, &vit, &age, &action, &org)
		_, _, _, _, _, _, orgPtr := s.Core.Get(e)
		orgPtr.ID = e.ID()

		profile := speciesdef.Profile(spec.Species)
		if profile.HasFearResponse() {
			s.Fear.Add(e, &components.FearResponse{
				PerceptionRadius: profile.PerceptionRadius,
				FleeThreshold:    profile.FleeThreshold,
			})
		}
		if profile.Group.Type != speciesdef.GroupNone {
			s.Social.Add(e, &components.Social{})
		}

		result.Spawned = append(result.Spawned, e)
	}

	s.buffer.reset()
	return result
}
