package tileworld

import "testing"

type staticSource struct {
	kind TerrainKind
}

func (s staticSource) LoadChunk(key ChunkKey) (*Chunk, bool) {
	c := &Chunk{Key: key}
	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			c.Tiles[y][x] = Tile{Kind: s.kind, Walkable: Walkable(s.kind)}
		}
	}
	return c, true
}

func TestWorldLoaderUnknownOnMissingChunk(t *testing.T) {
	loader := NewWorldLoader(missingSource{})
	tile := loader.TileAt(5, 5)
	if tile.Kind != Unknown || tile.Walkable {
		t.Fatalf("expected Unknown/non-walkable, got %+v", tile)
	}
}

type missingSource struct{}

func (missingSource) LoadChunk(ChunkKey) (*Chunk, bool) { return nil, false }

func TestWorldLoaderCachesChunks(t *testing.T) {
	src := &countingSource{kind: Grass}
	loader := NewWorldLoader(src)

	loader.TileAt(0, 0)
	loader.TileAt(1, 1)
	loader.TileAt(15, 15)

	if src.loads != 1 {
		t.Fatalf("expected 1 chunk load for tiles in the same chunk, got %d", src.loads)
	}
	if loader.LoadedChunkCount() != 1 {
		t.Fatalf("expected 1 loaded chunk, got %d", loader.LoadedChunkCount())
	}
}

type countingSource struct {
	kind  TerrainKind
	loads int
}

func (s *countingSource) LoadChunk(key ChunkKey) (*Chunk, bool) {
	s.loads++
	c := &Chunk{Key: key}
	for y := 0; y < ChunkSize; y++ {
		for x := 0; x < ChunkSize; x++ {
			c.Tiles[y][x] = Tile{Kind: s.kind, Walkable: Walkable(s.kind)}
		}
	}
	return c, true
}

func TestChunkOfNegativeCoordinates(t *testing.T) {
	cases := []struct {
		x, y   int32
		cx, cy int32
	}{
		{0, 0, 0, 0},
		{15, 15, 0, 0},
		{16, 0, 1, 0},
		{-1, -1, -1, -1},
		{-16, -16, -1, -1},
		{-17, 0, -2, 0},
	}
	for _, c := range cases {
		key := ChunkOf(c.x, c.y)
		if key.CX != c.cx || key.CY != c.cy {
			t.Errorf("ChunkOf(%d,%d) = %+v, want {%d,%d}", c.x, c.y, key, c.cx, c.cy)
		}
	}
}

func TestWalkability(t *testing.T) {
	if Walkable(DeepWater) || Walkable(Mountain) || Walkable(Unknown) {
		t.Fatal("water/mountain/unknown must not be walkable")
	}
	if !Walkable(Grass) || !Walkable(Sand) {
		t.Fatal("grass/sand must be walkable")
	}
}
