// Package tileworld implements the tile terrain lookup contract (C1):
// given a tile coordinate, classify its terrain, walkability, and whether
// it is a water source. Chunks are loaded on demand and cached; an
// unloaded or out-of-range chunk never blocks the caller, it returns the
// Unknown terrain kind instead.
package tileworld

import "sync"

// TerrainKind classifies a tile's terrain.
type TerrainKind uint8

const (
	Unknown TerrainKind = iota
	DeepWater
	ShallowWater
	Sand
	Grass
	Forest
	Desert
	Dirt
	Mountain
	Snow
	Stone
	Swamp
)

func (k TerrainKind) String() string {
	switch k {
	case DeepWater:
		return "deep_water"
	case ShallowWater:
		return "shallow_water"
	case Sand:
		return "sand"
	case Grass:
		return "grass"
	case Forest:
		return "forest"
	case Desert:
		return "desert"
	case Dirt:
		return "dirt"
	case Mountain:
		return "mountain"
	case Snow:
		return "snow"
	case Stone:
		return "stone"
	case Swamp:
		return "swamp"
	default:
		return "unknown"
	}
}

// walkableKinds is the static walkability table; every kind not listed is
// non-walkable (water, mountain, stone, unknown).
var walkableKinds = map[TerrainKind]bool{
	Sand: true, Grass: true, Forest: true, Desert: true,
	Dirt: true, Snow: true, Swamp: true,
}

// Walkable reports whether an entity may stand on a tile of kind k.
func Walkable(k TerrainKind) bool {
	return walkableKinds[k]
}

// Tile is the resolved terrain state at one coordinate.
type Tile struct {
	Kind          TerrainKind
	Walkable      bool
	IsWaterSource bool
}

// UnknownTile is returned for any coordinate the loader cannot resolve.
var UnknownTile = Tile{Kind: Unknown, Walkable: false}

// ChunkSize is the tile width/height of one chunk (spec.md §4.1 Chunks).
const ChunkSize = 16

// ChunkKey addresses a 16x16 chunk by its chunk-space coordinate.
type ChunkKey struct {
	CX, CY int32
}

// ChunkOf returns the chunk key containing tile (x, y).
func ChunkOf(x, y int32) ChunkKey {
	return ChunkKey{CX: floorDiv(x, ChunkSize), CY: floorDiv(y, ChunkSize)}
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// Chunk holds the resolved terrain for one 16x16 tile region.
type Chunk struct {
	Key   ChunkKey
	Tiles [ChunkSize][ChunkSize]Tile // indexed [local_y][local_x]
}

// TileAt returns the tile at world coordinate (x, y), given the chunk's key.
func (c *Chunk) TileAt(x, y int32) Tile {
	lx := floorMod(x, ChunkSize)
	ly := floorMod(y, ChunkSize)
	return c.Tiles[ly][lx]
}

// ChunkSource generates or loads a chunk's terrain on first access. It is
// the only extension point the core depends on (spec.md §1: the core
// consumes a WorldLoader through a narrow interface); map persistence and
// terrain generation live outside the core.
type ChunkSource interface {
	LoadChunk(key ChunkKey) (*Chunk, bool)
}

// WorldLoader is a cache-resident, load-on-demand terrain lookup backed by
// a ChunkSource. It is the core's only dependency on terrain data.
type WorldLoader struct {
	source ChunkSource

	mu     sync.RWMutex
	chunks map[ChunkKey]*Chunk
}

// NewWorldLoader constructs a loader over source. Chunks are cached
// forever once loaded; the tile world has no eviction policy because the
// simulated population stays within a bounded region in practice.
func NewWorldLoader(source ChunkSource) *WorldLoader {
	return &WorldLoader{source: source, chunks: make(map[ChunkKey]*Chunk)}
}

// TileAt resolves the tile at (x, y). An unloaded or unloadable chunk
// yields UnknownTile, never an error and never a block (spec.md §4.1
// failure mode, §7 "Unloaded tile lookup").
func (w *WorldLoader) TileAt(x, y int32) Tile {
	key := ChunkOf(x, y)

	w.mu.RLock()
	chunk, ok := w.chunks[key]
	w.mu.RUnlock()
	if ok {
		return chunk.TileAt(x, y)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if chunk, ok = w.chunks[key]; ok {
		return chunk.TileAt(x, y)
	}
	chunk, loaded := w.source.LoadChunk(key)
	if !loaded || chunk == nil {
		return UnknownTile
	}
	w.chunks[key] = chunk
	return chunk.TileAt(x, y)
}

// Chunk returns the cached chunk at key if loaded, triggering a load if
// not. Used by the spatial/vegetation systems and the chunk snapshot
// endpoint, which need the whole 16x16 block rather than one tile.
func (w *WorldLoader) Chunk(key ChunkKey) (*Chunk, bool) {
	w.mu.RLock()
	chunk, ok := w.chunks[key]
	w.mu.RUnlock()
	if ok {
		return chunk, true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if chunk, ok = w.chunks[key]; ok {
		return chunk, true
	}
	chunk, loaded := w.source.LoadChunk(key)
	if !loaded || chunk == nil {
		return nil, false
	}
	w.chunks[key] = chunk
	return chunk, true
}

// LoadedChunkCount reports how many chunks are currently cache-resident,
// surfaced by the world_info endpoint.
func (w *WorldLoader) LoadedChunkCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}
