// Package relations implements the four relationship graphs (C5):
// parent-child, mate pairs, groups, and hunter-prey. Each graph is a
// plain adjacency map keyed by entity ID with a write-side API that
// maintains bidirectional invariants atomically; a Cleanup pass run at
// the end of every tick prunes stale links and enforces the invariants
// of spec.md §3.
package relations

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pthm-cable/life-simulator/speciesdef"
)

// EntityID is the ark entity ID used as the graph key throughout this
// package, so relations do not need to import ecs.Entity (generation is
// irrelevant once an entity despawns, its ID simply stops appearing).
type EntityID = uint32

// ParentChild tracks one mother per child, and each parent's children.
type ParentChild struct {
	parentOf map[EntityID][]EntityID
	childOf  map[EntityID]EntityID
}

func NewParentChild() *ParentChild {
	return &ParentChild{parentOf: make(map[EntityID][]EntityID), childOf: make(map[EntityID]EntityID)}
}

// Link records that parent bore child. A child has exactly one parent
// link; calling Link twice for the same child replaces the previous one.
func (g *ParentChild) Link(parent, child EntityID) {
	if oldParent, ok := g.childOf[child]; ok {
		g.removeChildFrom(oldParent, child)
	}
	g.childOf[child] = parent
	g.parentOf[parent] = append(g.parentOf[parent], child)
}

func (g *ParentChild) removeChildFrom(parent, child EntityID) {
	children := g.parentOf[parent]
	idx := slices.Index(children, child)
	if idx < 0 {
		return
	}
	children = append(children[:idx], children[idx+1:]...)
	if len(children) == 0 {
		delete(g.parentOf, parent)
	} else {
		g.parentOf[parent] = children
	}
}

// Children returns parent's children in ascending entity-ID order.
func (g *ParentChild) Children(parent EntityID) []EntityID {
	out := append([]EntityID(nil), g.parentOf[parent]...)
	slices.Sort(out)
	return out
}

// ParentOf returns child's parent, if any.
func (g *ParentChild) ParentOf(child EntityID) (EntityID, bool) {
	p, ok := g.childOf[child]
	return p, ok
}

// PruneDead removes edges touching any entity in dead.
func (g *ParentChild) PruneDead(dead map[EntityID]bool) {
	for child, parent := range g.childOf {
		if dead[child] || dead[parent] {
			delete(g.childOf, child)
			g.removeChildFrom(parent, child)
		}
	}
}

// MatePairs tracks the exclusive symmetric MateActive relationship.
type MatePairs struct {
	partner map[EntityID]EntityID
	ttl     map[EntityID]int64 // ticks remaining before auto-expiry
}

func NewMatePairs() *MatePairs {
	return &MatePairs{partner: make(map[EntityID]EntityID), ttl: make(map[EntityID]int64)}
}

// Pair establishes MateActive(a,b) and MateActive(b,a) atomically. Either
// side's prior pairing, if any, is dissolved first (spec.md §3 invariant
// 2: neither participant may already have another active mate).
func (g *MatePairs) Pair(a, b EntityID, ttlTicks int64) {
	g.Clear(a)
	g.Clear(b)
	g.partner[a] = b
	g.partner[b] = a
	g.ttl[a] = ttlTicks
	g.ttl[b] = ttlTicks
}

// Clear dissolves e's mate pairing, if any, on both sides.
func (g *MatePairs) Clear(e EntityID) {
	partner, ok := g.partner[e]
	if !ok {
		return
	}
	delete(g.partner, e)
	delete(g.partner, partner)
	delete(g.ttl, e)
	delete(g.ttl, partner)
}

// PartnerOf returns e's active mate, if any.
func (g *MatePairs) PartnerOf(e EntityID) (EntityID, bool) {
	p, ok := g.partner[e]
	return p, ok
}

// Tick decrements every pairing's TTL by one and dissolves any that
// expire (spec.md §5: "Matching relationships ... carry TTLs in ticks;
// expiry is enforced in cleanup").
func (g *MatePairs) Tick() {
	expired := make([]EntityID, 0)
	for e, remaining := range g.ttl {
		remaining--
		if remaining <= 0 {
			expired = append(expired, e)
			continue
		}
		g.ttl[e] = remaining
	}
	for _, e := range expired {
		g.Clear(e)
	}
}

// PruneDead dissolves pairings where either side is dead.
func (g *MatePairs) PruneDead(dead map[EntityID]bool) {
	for e := range g.partner {
		if dead[e] {
			g.Clear(e)
		}
	}
}

// Group is a formed leader+members cluster.
type Group struct {
	ID      EntityID // uses the leader's entity ID as a stable group handle until promotion
	Leader  EntityID
	Members map[EntityID]bool
	Type    speciesdef.GroupType
	Config  speciesdef.GroupFormationConfig
}

// Groups tracks GroupLeader/GroupMember membership, one leader per group.
type Groups struct {
	byLeader map[EntityID]*Group
	leaderOf map[EntityID]EntityID // member -> leader
}

func NewGroups() *Groups {
	return &Groups{byLeader: make(map[EntityID]*Group), leaderOf: make(map[EntityID]EntityID)}
}

// Form creates a new group with leader and the given members (leader is
// not included in members).
func (g *Groups) Form(leader EntityID, members []EntityID, gtype speciesdef.GroupType, cfg speciesdef.GroupFormationConfig) *Group {
	grp := &Group{ID: leader, Leader: leader, Members: make(map[EntityID]bool, len(members)), Type: gtype, Config: cfg}
	g.byLeader[leader] = grp
	g.leaderOf[leader] = leader
	for _, m := range members {
		grp.Members[m] = true
		g.leaderOf[m] = leader
	}
	return grp
}

// LeaderOf returns the leader of the group e belongs to (leader or
// member), if any.
func (g *Groups) LeaderOf(e EntityID) (EntityID, bool) {
	l, ok := g.leaderOf[e]
	return l, ok
}

// GroupOf returns the group e belongs to, if any.
func (g *Groups) GroupOf(e EntityID) (*Group, bool) {
	leader, ok := g.leaderOf[e]
	if !ok {
		return nil, false
	}
	grp, ok := g.byLeader[leader]
	return grp, ok
}

// Disband dissolves a group entirely.
func (g *Groups) Disband(leader EntityID) {
	grp, ok := g.byLeader[leader]
	if !ok {
		return
	}
	delete(g.leaderOf, leader)
	for m := range grp.Members {
		delete(g.leaderOf, m)
	}
	delete(g.byLeader, leader)
}

// PromoteOldest replaces a dead leader with the oldest remaining member,
// identified by the caller via ageOf (spec.md §4.5: "Dissolution on
// leader death promotes the oldest member; if below min_size, the group
// disbands"). Returns the new leader and whether promotion occurred;
// false means the group was disbanded instead because it fell below its
// minimum size or had no surviving members.
func (g *Groups) PromoteOldest(oldLeader EntityID, ageOf func(EntityID) int64) (EntityID, bool) {
	grp, ok := g.byLeader[oldLeader]
	if !ok {
		return 0, false
	}
	if len(grp.Members) < grp.Config.MinSize {
		g.Disband(oldLeader)
		return 0, false
	}

	members := maps.Keys(grp.Members)
	slices.Sort(members)
	var oldest EntityID
	var oldestAge int64 = -1
	for _, m := range members {
		age := ageOf(m)
		if age > oldestAge {
			oldest, oldestAge = m, age
		}
	}

	delete(grp.Members, oldest)
	grp.Leader = oldest
	grp.ID = oldest

	delete(g.byLeader, oldLeader)
	delete(g.leaderOf, oldLeader)
	g.byLeader[oldest] = grp
	for m := range grp.Members {
		g.leaderOf[m] = oldest
	}
	g.leaderOf[oldest] = oldest

	if len(grp.Members)+1 < grp.Config.MinSize {
		g.Disband(oldest)
		return 0, false
	}
	return oldest, true
}

// HunterPrey tracks the directed predator -> prey hunting edge.
type HunterPrey struct {
	preyOf   map[EntityID]EntityID // hunter -> prey
	hunterOf map[EntityID][]EntityID
	ttl      map[EntityID]int64 // keyed by hunter
}

func NewHunterPrey() *HunterPrey {
	return &HunterPrey{preyOf: make(map[EntityID]EntityID), hunterOf: make(map[EntityID][]EntityID), ttl: make(map[EntityID]int64)}
}

// Assign records hunter -> prey, replacing any prior target of hunter.
func (g *HunterPrey) Assign(hunter, prey EntityID, ttlTicks int64) {
	g.Clear(hunter)
	g.preyOf[hunter] = prey
	g.hunterOf[prey] = append(g.hunterOf[prey], hunter)
	g.ttl[hunter] = ttlTicks
}

// Clear removes hunter's current target, if any.
func (g *HunterPrey) Clear(hunter EntityID) {
	prey, ok := g.preyOf[hunter]
	if !ok {
		return
	}
	delete(g.preyOf, hunter)
	delete(g.ttl, hunter)
	hunters := g.hunterOf[prey]
	idx := slices.Index(hunters, hunter)
	if idx >= 0 {
		hunters = append(hunters[:idx], hunters[idx+1:]...)
	}
	if len(hunters) == 0 {
		delete(g.hunterOf, prey)
	} else {
		g.hunterOf[prey] = hunters
	}
}

// PreyOf returns hunter's current target, if any.
func (g *HunterPrey) PreyOf(hunter EntityID) (EntityID, bool) {
	p, ok := g.preyOf[hunter]
	return p, ok
}

// HuntersOf returns every hunter currently targeting prey.
func (g *HunterPrey) HuntersOf(prey EntityID) []EntityID {
	out := append([]EntityID(nil), g.hunterOf[prey]...)
	slices.Sort(out)
	return out
}

// Tick decrements TTLs and clears expired hunter-prey edges (spec.md
// §4.5: "cleared on kill, loss of sight for N ticks, or either-side
// death").
func (g *HunterPrey) Tick() {
	var expired []EntityID
	for hunter, remaining := range g.ttl {
		remaining--
		if remaining <= 0 {
			expired = append(expired, hunter)
			continue
		}
		g.ttl[hunter] = remaining
	}
	for _, h := range expired {
		g.Clear(h)
	}
}

// PruneDead clears hunter-prey edges where either side is dead.
func (g *HunterPrey) PruneDead(dead map[EntityID]bool) {
	for hunter, prey := range g.preyOf {
		if dead[hunter] || dead[prey] {
			g.Clear(hunter)
		}
	}
}

// Graphs bundles all four relationship graphs for convenient passing
// through the scheduler.
type Graphs struct {
	ParentChild *ParentChild
	Mates       *MatePairs
	Groups      *Groups
	Hunts       *HunterPrey
}

// New constructs an empty set of relationship graphs.
func New() *Graphs {
	return &Graphs{
		ParentChild: NewParentChild(),
		Mates:       NewMatePairs(),
		Groups:      NewGroups(),
		Hunts:       NewHunterPrey(),
	}
}

// Cleanup runs the end-of-tick pass (spec.md §4.5): prune edges touching
// dead entities, tick TTLs. Pruning is idempotent: a second call with the
// same dead set prunes nothing further, though each call ticks the mate and
// hunt TTLs once more (spec.md §8).
func (g *Graphs) Cleanup(dead map[EntityID]bool) {
	g.ParentChild.PruneDead(dead)
	g.Mates.PruneDead(dead)
	g.Hunts.PruneDead(dead)
	g.Mates.Tick()
	g.Hunts.Tick()
}
