package components

import "github.com/pthm-cable/life-simulator/speciesdef"

// Age tracks the tick of birth and exposes juvenile classification against
// the species' maturation age (spec.md §3 Age).
type Age struct {
	BirthTick int64
}

// IsJuvenile reports whether the entity is below its species' maturation
// age at the given tick.
func (a Age) IsJuvenile(sp speciesdef.Species, currentTick int64) bool {
	return currentTick-a.BirthTick < int64(speciesdef.Profile(sp).MaturationAgeTicks)
}

// Ticks returns the entity's age in ticks at currentTick.
func (a Age) Ticks(currentTick int64) int64 {
	return currentTick - a.BirthTick
}
