package spatial

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

// newTestEntities spawns n real ark entities tagged with components.Position
// so spatial.Index can be exercised without a full worldstore.
func newTestEntities(t *testing.T, n int) (*ecs.World, *ecs.Map1[components.Position], []ecs.Entity) {
	t.Helper()
	world := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](world)
	entities := make([]ecs.Entity, n)
	for i := 0; i < n; i++ {
		entities[i] = posMap.NewEntity(&components.Position{})
	}
	return world, posMap, entities
}

func TestIndexInsertAndQueryRadius(t *testing.T) {
	_, posMap, ents := newTestEntities(t, 3)

	positions := []components.Position{
		{X: 0, Y: 0},
		{X: 3, Y: 0},
		{X: 100, Y: 100},
	}

	idx := NewIndex()
	for i, e := range ents {
		posMap.Get(e).X, posMap.Get(e).Y = positions[i].X, positions[i].Y
		idx.Insert(e, speciesdef.Herbivore, positions[i])
	}

	lookup := func(e ecs.Entity) (components.Position, bool) {
		p := posMap.Get(e)
		if p == nil {
			return components.Position{}, false
		}
		return *p, true
	}

	found := idx.QueryRadius(components.Position{X: 0, Y: 0}, 5, AllRoles, lookup)
	if len(found) != 2 {
		t.Fatalf("expected 2 entities within radius 5, got %d", len(found))
	}
	if found[0].ID() >= found[1].ID() {
		// SortFunc should give ascending entity-id order.
		t.Fatalf("expected ascending entity ID order, got %v", found)
	}
}

func TestIndexUpdateOnlyRewiresOnChunkCrossing(t *testing.T) {
	_, _, ents := newTestEntities(t, 1)
	e := ents[0]

	idx := NewIndex()
	idx.Insert(e, speciesdef.Predator, components.Position{X: 0, Y: 0})

	key, _ := idx.ChunkOf(e)
	idx.Update(e, components.Position{X: 0, Y: 0}, components.Position{X: 1, Y: 1})
	afterKey, _ := idx.ChunkOf(e)
	if key != afterKey {
		t.Fatalf("expected same chunk after in-chunk move, got %+v -> %+v", key, afterKey)
	}

	idx.Update(e, components.Position{X: 1, Y: 1}, components.Position{X: 20, Y: 1})
	crossedKey, _ := idx.ChunkOf(e)
	if crossedKey == afterKey {
		t.Fatal("expected chunk change after crossing a chunk boundary")
	}
	if !idx.Contains(e, crossedKey) {
		t.Fatal("expected entity to be present in its new chunk bucket")
	}
}

func TestIndexRemove(t *testing.T) {
	_, _, ents := newTestEntities(t, 1)
	e := ents[0]

	idx := NewIndex()
	idx.Insert(e, speciesdef.Herbivore, components.Position{X: 5, Y: 5})
	idx.Remove(e)

	if idx.Count() != 0 {
		t.Fatalf("expected 0 entities after remove, got %d", idx.Count())
	}
	if _, ok := idx.ChunkOf(e); ok {
		t.Fatal("expected removed entity to no longer be indexed")
	}
}

func TestRoleMaskFiltering(t *testing.T) {
	_, posMap, ents := newTestEntities(t, 2)
	idx := NewIndex()

	posMap.Get(ents[0]).X, posMap.Get(ents[0]).Y = 0, 0
	posMap.Get(ents[1]).X, posMap.Get(ents[1]).Y = 1, 0
	idx.Insert(ents[0], speciesdef.Herbivore, components.Position{X: 0, Y: 0})
	idx.Insert(ents[1], speciesdef.Predator, components.Position{X: 1, Y: 0})

	lookup := func(e ecs.Entity) (components.Position, bool) {
		p := posMap.Get(e)
		if p == nil {
			return components.Position{}, false
		}
		return *p, true
	}

	predatorsOnly := idx.QueryRadius(components.Position{X: 0, Y: 0}, 5, MaskPredator, lookup)
	if len(predatorsOnly) != 1 || predatorsOnly[0] != ents[1] {
		t.Fatalf("expected only the predator entity, got %v", predatorsOnly)
	}
}
