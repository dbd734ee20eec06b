package relations

import (
	"testing"

	"github.com/pthm-cable/life-simulator/speciesdef"
)

func TestMatePairsAreSymmetricAndExclusive(t *testing.T) {
	m := NewMatePairs()
	m.Pair(1, 2, 100)

	if p, ok := m.PartnerOf(1); !ok || p != 2 {
		t.Fatalf("expected 1's partner to be 2, got %v ok=%v", p, ok)
	}
	if p, ok := m.PartnerOf(2); !ok || p != 1 {
		t.Fatalf("expected 2's partner to be 1, got %v ok=%v", p, ok)
	}

	// Re-pairing 1 with a third entity dissolves the old pair on both sides.
	m.Pair(1, 3, 100)
	if _, ok := m.PartnerOf(2); ok {
		t.Fatal("expected entity 2's pairing to be cleared after 1 re-paired")
	}
	if p, _ := m.PartnerOf(3); p != 1 {
		t.Fatalf("expected 3 paired with 1, got %v", p)
	}
}

func TestMatePairsTTLExpiry(t *testing.T) {
	m := NewMatePairs()
	m.Pair(1, 2, 2)
	m.Tick()
	if _, ok := m.PartnerOf(1); !ok {
		t.Fatal("pairing should survive first tick")
	}
	m.Tick()
	if _, ok := m.PartnerOf(1); ok {
		t.Fatal("pairing should expire after TTL ticks elapse")
	}
}

func TestParentChildSingleParentPerChild(t *testing.T) {
	pc := NewParentChild()
	pc.Link(10, 100)
	pc.Link(20, 100) // re-parent

	parent, ok := pc.ParentOf(100)
	if !ok || parent != 20 {
		t.Fatalf("expected child 100's parent to be 20, got %v", parent)
	}
	if children := pc.Children(10); len(children) != 0 {
		t.Fatalf("expected old parent to have no children after reparent, got %v", children)
	}
	if children := pc.Children(20); len(children) != 1 || children[0] != 100 {
		t.Fatalf("expected new parent to have child 100, got %v", children)
	}
}

func TestGroupPromoteOldestOnLeaderDeath(t *testing.T) {
	g := NewGroups()
	cfg := speciesdef.GroupFormationConfig{Type: speciesdef.GroupPack, MinSize: 2}
	g.Form(1, []EntityID{2, 3}, speciesdef.GroupPack, cfg)

	ages := map[EntityID]int64{2: 500, 3: 900}
	newLeader, ok := g.PromoteOldest(1, func(e EntityID) int64 { return ages[e] })
	if !ok || newLeader != 3 {
		t.Fatalf("expected entity 3 (oldest) to be promoted, got %v ok=%v", newLeader, ok)
	}
	leader, _ := g.LeaderOf(2)
	if leader != 3 {
		t.Fatalf("expected member 2 to now follow leader 3, got %v", leader)
	}
}

func TestGroupDisbandsBelowMinSize(t *testing.T) {
	g := NewGroups()
	cfg := speciesdef.GroupFormationConfig{Type: speciesdef.GroupWarren, MinSize: 3}
	g.Form(1, []EntityID{2}, speciesdef.GroupWarren, cfg)

	_, ok := g.PromoteOldest(1, func(EntityID) int64 { return 0 })
	if ok {
		t.Fatal("expected group below min_size to disband rather than promote")
	}
	if _, ok := g.GroupOf(2); ok {
		t.Fatal("expected disbanded group's member to have no group")
	}
}

func TestHunterPreyClearedOnExpiry(t *testing.T) {
	hp := NewHunterPrey()
	hp.Assign(1, 2, 1)
	hp.Tick()
	if _, ok := hp.PreyOf(1); ok {
		t.Fatal("expected hunter-prey edge to expire after TTL")
	}
}

func TestCleanupPrunesDeadAndIsIdempotent(t *testing.T) {
	graphs := New()
	graphs.Mates.Pair(1, 2, 1000)
	graphs.Hunts.Assign(3, 1, 1000)

	dead := map[EntityID]bool{1: true}
	graphs.Cleanup(dead)
	if _, ok := graphs.Mates.PartnerOf(2); ok {
		t.Fatal("expected mate pairing with dead entity to be pruned")
	}
	if _, ok := graphs.Hunts.PreyOf(3); ok {
		t.Fatal("expected hunter-prey edge targeting dead entity to be pruned")
	}

	// Running cleanup again with the same dead set changes nothing further.
	graphs.Cleanup(dead)
	if _, ok := graphs.Mates.PartnerOf(2); ok {
		t.Fatal("cleanup should remain idempotent")
	}
}
