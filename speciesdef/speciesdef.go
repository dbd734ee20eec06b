// Package speciesdef holds the static, per-species configuration tables
// that drive vitals decay, movement, reproduction, and the planner's bid
// table restrictions. None of it is mutated at runtime; it is the
// equivalent of a compiled-in species catalogue.
package speciesdef

// Species is the immutable species marker. Order matters only for the
// /api/species listing; it is not used as a priority.
type Species uint8

const (
	Rabbit Species = iota
	Deer
	Wolf
	Fox
	Bear
	Raccoon
	Human

	numSpecies
)

// All returns every species in declaration order, for iteration by the
// snapshot and config layers.
func All() []Species {
	out := make([]Species, 0, numSpecies)
	for s := Species(0); s < numSpecies; s++ {
		out = append(out, s)
	}
	return out
}

func (s Species) String() string {
	if p, ok := profiles[s]; ok {
		return p.Name
	}
	return "unknown"
}

// Role is the coarse predator/prey/omnivore tag used by the spatial index
// (spec.md §4.2) to filter proximity queries.
type Role uint8

const (
	Herbivore Role = iota
	Predator
	Omnivore
)

func (r Role) String() string {
	switch r {
	case Herbivore:
		return "herbivore"
	case Predator:
		return "predator"
	case Omnivore:
		return "omnivore"
	default:
		return "unknown"
	}
}

// GroupType classifies a formed group's cohesion/formation config
// (spec.md §3 Relationships, §4.5).
type GroupType uint8

const (
	GroupNone GroupType = iota
	GroupPack
	GroupHerd
	GroupWarren
	GroupFamily
)

func (g GroupType) String() string {
	switch g {
	case GroupPack:
		return "pack"
	case GroupHerd:
		return "herd"
	case GroupWarren:
		return "warren"
	case GroupFamily:
		return "family"
	default:
		return "none"
	}
}

// GroupFormationConfig bounds how a species' groups form and hold
// together (spec.md §3 Relationships).
type GroupFormationConfig struct {
	Type             GroupType
	MinSize          int
	CohesionRadius   int32
	FormationRadius  int32
	FormationTicks   int32
}

// SpeciesProfile is the full static parameter set for one species.
type SpeciesProfile struct {
	Species     Species
	Name        string
	NamePlural  string
	Emoji       string
	Role        Role
	Group       GroupFormationConfig

	// MovementSpeed is how many tiles the entity may advance per move step
	// (spec.md §3 Position: one tile per step for every current species,
	// but kept data-driven for future tuning).
	MovementSpeed int32

	// Decay rates applied per tick to Vitals (spec.md §4.9 phase 2).
	HungerDecayPerTick float32
	ThirstDecayPerTick float32
	EnergyDecayPerTick float32

	// Thresholds above which the planner treats a vital as a trigger
	// (spec.md §3 Vital stats).
	HungerTrigger float32
	ThirstTrigger float32
	EnergyTrigger float32

	// MaturationAgeTicks is the age at which is_juvenile becomes false.
	MaturationAgeTicks int32
	JuvenileScale      float32

	// ReproMinAgeTicks/ReproMaxAgeTicks bound the species' reproductive
	// window; outside of it the mate matcher skips the entity.
	ReproMinAgeTicks int32
	ReproMaxAgeTicks int32
	MaxOffspring     int

	// LifespanMeanTicks/LifespanStdTicks parameterize the old-age death
	// roll (spec.md §3 Lifecycle).
	LifespanMeanTicks int64
	LifespanStdTicks  int64

	// Bid table restrictions (spec.md §4.7): species that cannot perform
	// an action kind never have it scored.
	CanGraze bool
	CanForage bool
	CanHunt   bool

	// Diet lists the species this species may Hunt or scavenge as Carcass
	// food; empty for pure grazers.
	Diet []Species

	// FearResponse parameters; zero PerceptionRadius means the species
	// carries no FearResponse component at all.
	PerceptionRadius int32
	FleeThreshold    int32
}

var profiles map[Species]SpeciesProfile

func init() {
	profiles = map[Species]SpeciesProfile{
		Rabbit: {
			Species: Rabbit, Name: "Rabbit", NamePlural: "Rabbits", Emoji: "🐇",
			Role:               Herbivore,
			Group:              GroupFormationConfig{Type: GroupWarren, MinSize: 3, CohesionRadius: 6, FormationRadius: 8, FormationTicks: 30},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.18, ThirstDecayPerTick: 0.22, EnergyDecayPerTick: 0.10,
			HungerTrigger: 55, ThirstTrigger: 55, EnergyTrigger: 70,
			MaturationAgeTicks: 2000, JuvenileScale: 0.55,
			ReproMinAgeTicks: 2000, ReproMaxAgeTicks: 40000, MaxOffspring: 4,
			LifespanMeanTicks: 60000, LifespanStdTicks: 8000,
			CanGraze: true, CanForage: true, CanHunt: false,
			PerceptionRadius: 10, FleeThreshold: 6,
		},
		Deer: {
			Species: Deer, Name: "Deer", NamePlural: "Deer", Emoji: "🦌",
			Role:               Herbivore,
			Group:              GroupFormationConfig{Type: GroupHerd, MinSize: 3, CohesionRadius: 8, FormationRadius: 10, FormationTicks: 40},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.12, ThirstDecayPerTick: 0.16, EnergyDecayPerTick: 0.08,
			HungerTrigger: 55, ThirstTrigger: 55, EnergyTrigger: 65,
			MaturationAgeTicks: 4000, JuvenileScale: 0.6,
			ReproMinAgeTicks: 4000, ReproMaxAgeTicks: 80000, MaxOffspring: 2,
			LifespanMeanTicks: 120000, LifespanStdTicks: 15000,
			CanGraze: true, CanForage: true, CanHunt: false,
			PerceptionRadius: 12, FleeThreshold: 8,
		},
		Wolf: {
			Species: Wolf, Name: "Wolf", NamePlural: "Wolves", Emoji: "🐺",
			Role:               Predator,
			Group:              GroupFormationConfig{Type: GroupPack, MinSize: 3, CohesionRadius: 8, FormationRadius: 10, FormationTicks: 40},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.10, ThirstDecayPerTick: 0.14, EnergyDecayPerTick: 0.12,
			HungerTrigger: 50, ThirstTrigger: 55, EnergyTrigger: 60,
			MaturationAgeTicks: 6000, JuvenileScale: 0.55,
			ReproMinAgeTicks: 6000, ReproMaxAgeTicks: 100000, MaxOffspring: 4,
			LifespanMeanTicks: 140000, LifespanStdTicks: 18000,
			CanGraze: false, CanForage: false, CanHunt: true,
			Diet: []Species{Rabbit, Deer, Fox, Raccoon},
		},
		Fox: {
			Species: Fox, Name: "Fox", NamePlural: "Foxes", Emoji: "🦊",
			Role:               Predator,
			Group:              GroupFormationConfig{Type: GroupFamily, MinSize: 2, CohesionRadius: 5, FormationRadius: 6, FormationTicks: 25},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.14, ThirstDecayPerTick: 0.18, EnergyDecayPerTick: 0.10,
			HungerTrigger: 50, ThirstTrigger: 55, EnergyTrigger: 60,
			MaturationAgeTicks: 3000, JuvenileScale: 0.5,
			ReproMinAgeTicks: 3000, ReproMaxAgeTicks: 60000, MaxOffspring: 3,
			LifespanMeanTicks: 80000, LifespanStdTicks: 10000,
			CanGraze: false, CanForage: true, CanHunt: true,
			Diet:             []Species{Rabbit},
			PerceptionRadius: 8, FleeThreshold: 5,
		},
		Bear: {
			Species: Bear, Name: "Bear", NamePlural: "Bears", Emoji: "🐻",
			Role:               Omnivore,
			Group:              GroupFormationConfig{Type: GroupNone},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.08, ThirstDecayPerTick: 0.12, EnergyDecayPerTick: 0.07,
			HungerTrigger: 55, ThirstTrigger: 55, EnergyTrigger: 60,
			MaturationAgeTicks: 8000, JuvenileScale: 0.5,
			ReproMinAgeTicks: 8000, ReproMaxAgeTicks: 120000, MaxOffspring: 2,
			LifespanMeanTicks: 180000, LifespanStdTicks: 20000,
			CanGraze: true, CanForage: true, CanHunt: true,
			Diet: []Species{Rabbit, Deer, Fox, Raccoon},
		},
		Raccoon: {
			Species: Raccoon, Name: "Raccoon", NamePlural: "Raccoons", Emoji: "🦝",
			Role:               Omnivore,
			Group:              GroupFormationConfig{Type: GroupFamily, MinSize: 2, CohesionRadius: 5, FormationRadius: 6, FormationTicks: 25},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.16, ThirstDecayPerTick: 0.2, EnergyDecayPerTick: 0.1,
			HungerTrigger: 50, ThirstTrigger: 55, EnergyTrigger: 65,
			MaturationAgeTicks: 2500, JuvenileScale: 0.5,
			ReproMinAgeTicks: 2500, ReproMaxAgeTicks: 50000, MaxOffspring: 4,
			LifespanMeanTicks: 50000, LifespanStdTicks: 7000,
			CanGraze: false, CanForage: true, CanHunt: true,
			Diet:             []Species{Rabbit},
			PerceptionRadius: 8, FleeThreshold: 5,
		},
		Human: {
			Species: Human, Name: "Human", NamePlural: "Humans", Emoji: "🧑",
			Role:               Omnivore,
			Group:              GroupFormationConfig{Type: GroupFamily, MinSize: 2, CohesionRadius: 10, FormationRadius: 12, FormationTicks: 50},
			MovementSpeed:      1,
			HungerDecayPerTick: 0.1, ThirstDecayPerTick: 0.14, EnergyDecayPerTick: 0.08,
			HungerTrigger: 55, ThirstTrigger: 55, EnergyTrigger: 60,
			MaturationAgeTicks: 10000, JuvenileScale: 0.6,
			ReproMinAgeTicks: 10000, ReproMaxAgeTicks: 160000, MaxOffspring: 1,
			LifespanMeanTicks: 260000, LifespanStdTicks: 25000,
			CanGraze: false, CanForage: true, CanHunt: true,
			Diet: []Species{Rabbit, Deer},
		},
	}
}

// Profile returns the static configuration for sp. Callers should treat
// the returned value as read-only; it is shared across every entity of
// that species.
func Profile(sp Species) SpeciesProfile {
	return profiles[sp]
}

// Hunts reports whether predator may hunt prey per its diet list.
func (p SpeciesProfile) Hunts(prey Species) bool {
	for _, d := range p.Diet {
		if d == prey {
			return true
		}
	}
	return false
}

// HasFearResponse reports whether the species carries a FearResponse
// component (spec.md §9: universal flee for any entity with one).
func (p SpeciesProfile) HasFearResponse() bool {
	return p.PerceptionRadius > 0
}
