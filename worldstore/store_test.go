package worldstore

import (
	"testing"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

func TestQueueSpawnRealizedOnFlush(t *testing.T) {
	s := New()
	s.QueueSpawn(SpawnSpec{
		Position:  components.Position{X: 1, Y: 2},
		Species:   speciesdef.Rabbit,
		Sex:       components.Female,
		BirthTick: 10,
		Vitals:    components.Vitals{Hunger: 10, Thirst: 10, Energy: 90, Health: 100},
	})

	result := s.Flush(10)
	if len(result.Spawned) != 1 {
		t.Fatalf("expected 1 spawned entity, got %d", len(result.Spawned))
	}

	e := result.Spawned[0]
	pos, species, _, _, _, _, org := s.Core.Get(e)
	if pos.X != 1 || pos.Y != 2 {
		t.Fatalf("expected spawned position (1,2), got %+v", pos)
	}
	if species.Species != speciesdef.Rabbit {
		t.Fatalf("expected rabbit species tag, got %v", species.Species)
	}
	if org.ID != e.ID() {
		t.Fatalf("expected organism ID to mirror entity ID, got %d vs %d", org.ID, e.ID())
	}
	if !s.Fear.Has(e) {
		t.Fatal("expected rabbit to carry a FearResponse component")
	}
}

func TestQueueDespawnRemovesEntity(t *testing.T) {
	s := New()
	s.QueueSpawn(SpawnSpec{Position: components.Position{}, Species: speciesdef.Wolf, Sex: components.Male, BirthTick: 0})
	spawned := s.Flush(0)
	e := spawned.Spawned[0]

	s.QueueDespawn(e, components.DeathOldAge)
	removed := s.Flush(100)

	if len(removed.Despawned) != 1 || removed.Despawned[0] != e {
		t.Fatalf("expected the queued entity to be despawned, got %v", removed.Despawned)
	}
}

func TestQueueCarcassAddsComponent(t *testing.T) {
	s := New()
	s.QueueSpawn(SpawnSpec{Position: components.Position{}, Species: speciesdef.Rabbit, Sex: components.Male, BirthTick: 0})
	spawned := s.Flush(0)
	e := spawned.Spawned[0]

	s.QueueCarcass(e, speciesdef.Rabbit, 25, 50)
	s.Flush(50)

	if !s.Carcass.Has(e) {
		t.Fatal("expected carcass component to be added")
	}
	carcass := s.Carcass.Get(e)
	if carcass.FoodRemaining != 25 || carcass.DiedAtTick != 50 {
		t.Fatalf("unexpected carcass data: %+v", carcass)
	}
}
