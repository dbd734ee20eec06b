// Package spatial implements the chunked entity index (C2): a chunk-keyed
// hash from tile-chunk to the (Entity, Role) pairs resident in it, with
// radius queries filtered by role. The chunk grid is the same 16x16 unit
// the tile world uses (spec.md GLOSSARY: "Chunk").
package spatial

import (
	"github.com/mlange-42/ark/ecs"
	"golang.org/x/exp/slices"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/speciesdef"
	"github.com/pthm-cable/life-simulator/tileworld"
)

// RoleMask filters queries by one or more roles.
type RoleMask uint8

const (
	MaskHerbivore RoleMask = 1 << iota
	MaskPredator
	MaskOmnivore
)

// AllRoles matches every role.
const AllRoles RoleMask = MaskHerbivore | MaskPredator | MaskOmnivore

func maskOf(r speciesdef.Role) RoleMask {
	switch r {
	case speciesdef.Herbivore:
		return MaskHerbivore
	case speciesdef.Predator:
		return MaskPredator
	case speciesdef.Omnivore:
		return MaskOmnivore
	default:
		return 0
	}
}

type entry struct {
	entity ecs.Entity
	role   speciesdef.Role
}

// Index is the chunked spatial index over live entity positions. It is
// not safe for concurrent writers; callers serialize mutation through the
// single index-update phase (spec.md §4.9 phase 10).
type Index struct {
	chunks  map[tileworld.ChunkKey][]entry
	current map[uint32]tileworld.ChunkKey
	roles   map[uint32]speciesdef.Role
}

// NewIndex constructs an empty index.
func NewIndex() *Index {
	return &Index{
		chunks:  make(map[tileworld.ChunkKey][]entry),
		current: make(map[uint32]tileworld.ChunkKey),
		roles:   make(map[uint32]speciesdef.Role),
	}
}

// Insert adds a newly spawned entity at pos. Calling Insert twice for the
// same entity without a Remove is a programmer error; it is not guarded
// against, mirroring the "deferred structural mutation" contract of C4
// where spawn and index insertion happen together in the resolver.
func (idx *Index) Insert(e ecs.Entity, role speciesdef.Role, pos components.Position) {
	key := tileworld.ChunkOf(pos.X, pos.Y)
	idx.chunks[key] = append(idx.chunks[key], entry{entity: e, role: role})
	idx.current[e.ID()] = key
	idx.roles[e.ID()] = role
}

// Remove drops e from the index, e.g. on despawn.
func (idx *Index) Remove(e ecs.Entity) {
	key, ok := idx.current[e.ID()]
	if !ok {
		return
	}
	idx.removeFromChunk(key, e)
	delete(idx.current, e.ID())
	delete(idx.roles, e.ID())
}

func (idx *Index) removeFromChunk(key tileworld.ChunkKey, e ecs.Entity) {
	bucket := idx.chunks[key]
	for i, ent := range bucket {
		if ent.entity == e {
			bucket[i] = bucket[len(bucket)-1]
			idx.chunks[key] = bucket[:len(bucket)-1]
			return
		}
	}
}

// Update reconciles e's bucket after a position change. Only rewires
// buckets when old and new tiles fall in different chunks (spec.md §4.2:
// "only rewires buckets on chunk crossing").
func (idx *Index) Update(e ecs.Entity, oldPos, newPos components.Position) {
	oldKey := tileworld.ChunkOf(oldPos.X, oldPos.Y)
	newKey := tileworld.ChunkOf(newPos.X, newPos.Y)
	if oldKey == newKey {
		return
	}
	idx.removeFromChunk(oldKey, e)
	idx.chunks[newKey] = append(idx.chunks[newKey], entry{entity: e, role: idx.roles[e.ID()]})
	idx.current[e.ID()] = newKey
}

// ChunkOf reports the chunk an entity is currently indexed under, and
// whether it is indexed at all.
func (idx *Index) ChunkOf(e ecs.Entity) (tileworld.ChunkKey, bool) {
	key, ok := idx.current[e.ID()]
	return key, ok
}

// Count returns the number of entities the index believes are live.
func (idx *Index) Count() int {
	return len(idx.current)
}

// Contains reports whether e is indexed at chunk key (invariant check,
// spec.md §8: "spatial_index.chunk_of(position_of(e)) contains e").
func (idx *Index) Contains(e ecs.Entity, key tileworld.ChunkKey) bool {
	for _, ent := range idx.chunks[key] {
		if ent.entity == e {
			return true
		}
	}
	return false
}

// QueryRadius returns every indexed entity within Chebyshev radius r of
// center whose role matches mask, in ascending entity-ID order (spec.md
// §5 ordering guarantees). It scans ceil(r/16) chunk rings around
// center's chunk and filters precisely within those chunks by exact
// tile distance; pos is used only for the final distance check, since
// the index itself does not store positions.
func (idx *Index) QueryRadius(center components.Position, r int32, mask RoleMask, pos func(ecs.Entity) (components.Position, bool)) []ecs.Entity {
	if r < 0 {
		return nil
	}
	centerKey := tileworld.ChunkOf(center.X, center.Y)
	chunkRadius := (r + tileworld.ChunkSize - 1) / tileworld.ChunkSize

	var out []ecs.Entity
	for dcy := -chunkRadius; dcy <= chunkRadius; dcy++ {
		for dcx := -chunkRadius; dcx <= chunkRadius; dcx++ {
			key := tileworld.ChunkKey{CX: centerKey.CX + dcx, CY: centerKey.CY + dcy}
			bucket, ok := idx.chunks[key]
			if !ok {
				continue
			}
			for _, ent := range bucket {
				if maskOf(ent.role)&mask == 0 {
					continue
				}
				p, ok := pos(ent.entity)
				if !ok {
					continue
				}
				if center.ChebyshevDist(p) > r {
					continue
				}
				out = append(out, ent.entity)
			}
		}
	}

	slices.SortFunc(out, func(a, b ecs.Entity) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		default:
			return 0
		}
	})
	return out
}

// Rebuild clears and reinserts every entity from a full scan, used to
// validate that incremental updates match a from-scratch build (spec.md
// §8 "Spatial index rebuild equals incremental updates").
func Rebuild(entities []ecs.Entity, roleOf func(ecs.Entity) speciesdef.Role, posOf func(ecs.Entity) components.Position) *Index {
	idx := NewIndex()
	for _, e := range entities {
		idx.Insert(e, roleOf(e), posOf(e))
	}
	return idx
}
