package perception

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/relations"
	"github.com/pthm-cable/life-simulator/spatial"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

type fixture struct {
	world    *ecs.World
	posMap   *ecs.Map1[components.Position]
	index    *spatial.Index
	graphs   *relations.Graphs
	speciesOf map[uint32]speciesdef.Species
	sexOf     map[uint32]components.Sex
}

func newFixture() *fixture {
	world := ecs.NewWorld()
	return &fixture{
		world:     world,
		posMap:    ecs.NewMap1[components.Position](world),
		index:     spatial.NewIndex(),
		graphs:    relations.New(),
		speciesOf: make(map[uint32]speciesdef.Species),
		sexOf:     make(map[uint32]components.Sex),
	}
}

func (f *fixture) spawn(x, y int32, role speciesdef.Role, sp speciesdef.Species, sex components.Sex) ecs.Entity {
	e := f.posMap.NewEntity(&components.Position{X: x, Y: y})
	f.index.Insert(e, role, components.Position{X: x, Y: y})
	f.speciesOf[e.ID()] = sp
	f.sexOf[e.ID()] = sex
	return e
}

func (f *fixture) view() WorldView {
	return WorldView{
		Index:  f.index,
		Graphs: f.graphs,
		PositionOf: func(e ecs.Entity) (components.Position, bool) {
			p := f.posMap.Get(e)
			if p == nil {
				return components.Position{}, false
			}
			return *p, true
		},
		SpeciesOf: func(e ecs.Entity) (speciesdef.Species, bool) {
			sp, ok := f.speciesOf[e.ID()]
			return sp, ok
		},
		SexOf: func(e ecs.Entity) (components.Sex, bool) {
			sex, ok := f.sexOf[e.ID()]
			return sex, ok
		},
		IsJuvenileOf: func(ecs.Entity) bool { return false },
		IsAliveOf:    func(ecs.Entity) bool { return true },
	}
}

func TestPerceiveFindsNearestThreat(t *testing.T) {
	f := newFixture()
	rabbit := f.spawn(0, 0, speciesdef.Herbivore, speciesdef.Rabbit, components.Female)
	f.spawn(3, 0, speciesdef.Predator, speciesdef.Wolf, components.Male)
	f.spawn(8, 0, speciesdef.Predator, speciesdef.Fox, components.Male)

	fear := &components.FearResponse{PerceptionRadius: 10, FleeThreshold: 6}
	signals := Perceive(f.view(), rabbit, components.Position{X: 0, Y: 0}, fear, false)

	if signals.Threat == nil {
		t.Fatal("expected a threat signal")
	}
	if signals.Threat.Species != speciesdef.Wolf {
		t.Fatalf("expected nearest threat to be the wolf, got %v", signals.Threat.Species)
	}
	if signals.Threat.Distance != 3 {
		t.Fatalf("expected distance 3, got %d", signals.Threat.Distance)
	}
}

func TestPerceiveNoThreatOutsideRadius(t *testing.T) {
	f := newFixture()
	rabbit := f.spawn(0, 0, speciesdef.Herbivore, speciesdef.Rabbit, components.Female)
	f.spawn(50, 0, speciesdef.Predator, speciesdef.Wolf, components.Male)

	fear := &components.FearResponse{PerceptionRadius: 10, FleeThreshold: 6}
	signals := Perceive(f.view(), rabbit, components.Position{X: 0, Y: 0}, fear, false)

	if signals.Threat != nil {
		t.Fatalf("expected no threat, got %+v", signals.Threat)
	}
}

func TestFindMatesExcludesSameSex(t *testing.T) {
	f := newFixture()
	deer := f.spawn(10, 10, speciesdef.Herbivore, speciesdef.Deer, components.Male)
	mate := f.spawn(10, 12, speciesdef.Herbivore, speciesdef.Deer, components.Female)
	f.spawn(10, 13, speciesdef.Herbivore, speciesdef.Deer, components.Male) // same sex

	signals := Perceive(f.view(), deer, components.Position{X: 10, Y: 10}, nil, true)
	if len(signals.Mate.Entities) != 1 || signals.Mate.Entities[0] != mate {
		t.Fatalf("expected exactly the opposite-sex deer as a mate candidate, got %v", signals.Mate.Entities)
	}
}
