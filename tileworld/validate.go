package tileworld

import "fmt"

// ValidateMap checks the ground rules a generated map must obey (spec.md
// §4.1): the perimeter is DeepWater, ShallowWater always separates
// DeepWater from land, the outer coastline has at least one Sand tile
// before land, and internal lakes need no Sand ring. The engine assumes a
// loaded map already satisfies these; this is the validator map_generator
// and the persistence loader run before a map becomes selectable
// (spec.md §7 "Map load malformed").
func ValidateMap(source ChunkSource, minX, minY, maxX, maxY int32) error {
	at := func(x, y int32) TerrainKind {
		key := ChunkOf(x, y)
		chunk, ok := source.LoadChunk(key)
		if !ok || chunk == nil {
			return Unknown
		}
		return chunk.TileAt(x, y).Kind
	}

	for x := minX; x <= maxX; x++ {
		if at(x, minY) != DeepWater || at(x, maxY) != DeepWater {
			return fmt.Errorf("tileworld: perimeter tile (%d,%d) or (%d,%d) is not deep water", x, minY, x, maxY)
		}
	}
	for y := minY; y <= maxY; y++ {
		if at(minX, y) != DeepWater || at(maxX, y) != DeepWater {
			return fmt.Errorf("tileworld: perimeter tile (%d,%d) or (%d,%d) is not deep water", minX, y, maxX, y)
		}
	}

	for y := minY + 1; y < maxY; y++ {
		for x := minX + 1; x < maxX; x++ {
			kind := at(x, y)
			if kind != DeepWater {
				continue
			}
			if !hasAdjacentOuterCoastline(at, x, y, minX, minY, maxX, maxY) {
				continue
			}
			if !hasAdjacentShallowThenSand(at, x, y) {
				return fmt.Errorf("tileworld: outer coastline near (%d,%d) has no shallow water / sand buffer before land", x, y)
			}
		}
	}
	return nil
}

func hasAdjacentOuterCoastline(at func(x, y int32) TerrainKind, x, y, minX, minY, maxX, maxY int32) bool {
	// Conservative: only tiles within 3 rings of the perimeter are treated
	// as "outer coastline" for the sand-buffer rule; deeper interior water
	// bodies are internal lakes and exempt.
	const ring = 3
	return x-minX <= ring || maxX-x <= ring || y-minY <= ring || maxY-y <= ring
}

func hasAdjacentShallowThenSand(at func(x, y int32) TerrainKind, x, y int32) bool {
	dirs := [4][2]int32{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	for _, d := range dirs {
		sx, sy := x+d[0], y+d[1]
		if at(sx, sy) != ShallowWater {
			continue
		}
		lx, ly := sx+d[0], sy+d[1]
		if at(lx, ly) == Sand || at(lx, ly) == ShallowWater || at(lx, ly) == DeepWater {
			return true
		}
	}
	return false
}
