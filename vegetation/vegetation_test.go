package vegetation

import (
	"testing"

	"github.com/pthm-cable/life-simulator/tileworld"
)

func populateFullChunk(capacity, rate float32) func() map[LocalPos]*Cell {
	return func() map[LocalPos]*Cell {
		cells := make(map[LocalPos]*Cell, tileworld.ChunkSize*tileworld.ChunkSize)
		for y := int32(0); y < tileworld.ChunkSize; y++ {
			for x := int32(0); x < tileworld.ChunkSize; x++ {
				cells[LocalPos{X: x, Y: y}] = &Cell{Biomass: capacity, Capacity: capacity, RegrowthRate: rate}
			}
		}
		return cells
	}
}

func TestConsumeGrantsNoMoreThanBiomass(t *testing.T) {
	g := NewGrid(DefaultConfig())
	key := tileworld.ChunkOf(5, 5)
	g.EnsureChunk(key, 0, populateFullChunk(10, 0.01))

	granted := g.Consume(5, 5, 40, 100)
	if granted != 10 {
		t.Fatalf("expected grant capped at biomass (10), got %f", granted)
	}
	biomass, ok := g.Biomass(5, 5, 100)
	if !ok || biomass != 0 {
		t.Fatalf("expected biomass 0 after full consumption, got %f (ok=%v)", biomass, ok)
	}
}

func TestLogisticRegrowthApproachesCapacity(t *testing.T) {
	g := NewGrid(Config{HotWindowTicks: 1000, WarmWindowTicks: 0, WarmBatchTicks: 1})
	key := tileworld.ChunkOf(5, 5)
	g.EnsureChunk(key, 0, populateFullChunk(100, 0.02))

	g.Consume(5, 5, 40, 100) // biomass drops to 60
	biomass, _ := g.Biomass(5, 5, 200)
	if biomass <= 60 || biomass > 100 {
		t.Fatalf("expected regrowth to move biomass toward capacity, got %f", biomass)
	}

	// Long enough catch-up should approach capacity closely.
	biomassLater, _ := g.Biomass(5, 5, 100200)
	if biomassLater < 95 {
		t.Fatalf("expected near-full regrowth after many ticks, got %f", biomassLater)
	}
}

func TestColdChunkCatchesUpLazily(t *testing.T) {
	cfg := Config{HotWindowTicks: 5, WarmWindowTicks: 10, WarmBatchTicks: 5}
	g := NewGrid(cfg)
	key := tileworld.ChunkOf(1, 1)
	g.EnsureChunk(key, 0, populateFullChunk(50, 0.05))
	g.Consume(1, 1, 20, 0)

	// Far beyond hot+warm windows: chunk goes cold and is caught up lazily.
	biomass, ok := g.Biomass(1, 1, 1000)
	if !ok {
		t.Fatal("expected cell to resolve")
	}
	if biomass <= 30 {
		t.Fatalf("expected lazily-applied regrowth on read, got %f", biomass)
	}
	c, _ := g.Chunk(key)
	if c.LOD != Cold {
		t.Fatalf("expected chunk to classify as cold at tick 1000, got %v", c.LOD)
	}
}

func TestRadiusSearchRespectsChebyshevDistance(t *testing.T) {
	g := NewGrid(DefaultConfig())
	key := tileworld.ChunkOf(0, 0)
	g.EnsureChunk(key, 0, populateFullChunk(10, 0.01))

	candidates := g.RadiusSearch(0, 0, 2, 0)
	for _, c := range candidates {
		if chebyshev(c.X, c.Y) > 2 {
			t.Fatalf("candidate %+v outside requested radius", c)
		}
	}
	if len(candidates) == 0 {
		t.Fatal("expected at least one candidate within radius")
	}
}
