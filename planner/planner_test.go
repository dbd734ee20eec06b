package planner

import (
	"testing"

	"github.com/pthm-cable/life-simulator/components"
	"github.com/pthm-cable/life-simulator/perception"
	"github.com/pthm-cable/life-simulator/speciesdef"
)

func TestFleeOverridesEveryOtherCandidate(t *testing.T) {
	ctx := Context{
		Species: speciesdef.Rabbit,
		Vitals:  components.Vitals{Hunger: 90, Thirst: 90, Energy: 10},
		Signals: perception.Signals{
			Threat: &perception.Threat{Distance: 3, Species: speciesdef.Wolf},
		},
	}
	action, changed := Plan(ctx, 6)
	if !changed {
		t.Fatal("expected flee to force a change")
	}
	if action.Kind != components.ActionFlee {
		t.Fatalf("expected Flee, got %v", action.Kind)
	}
}

func TestNoThreatOutsideFleeThresholdFallsThroughToScoring(t *testing.T) {
	ctx := Context{
		Species: speciesdef.Rabbit,
		Vitals:  components.Vitals{Hunger: 10, Thirst: 10, Energy: 90},
		Signals: perception.Signals{
			Threat: &perception.Threat{Distance: 20, Species: speciesdef.Wolf},
		},
	}
	action, changed := Plan(ctx, 6)
	if !changed {
		t.Fatal("expected a baseline action to be planned")
	}
	if action.Kind == components.ActionFlee {
		t.Fatal("threat beyond flee_threshold must not force Flee")
	}
}

func TestHungerAboveTriggerPicksGrazeOverIdleForHerbivore(t *testing.T) {
	ctx := Context{
		Species: speciesdef.Deer,
		Vitals:  components.Vitals{Hunger: 90, Thirst: 10, Energy: 50},
		BestForage: &ForageCandidate{
			Tile:     components.Position{X: 2, Y: 0},
			Distance: 2,
			Biomass:  40,
		},
	}
	action, changed := Plan(ctx, 8)
	if !changed || action.Kind != components.ActionGraze {
		t.Fatalf("expected Graze to win, got %v changed=%v", action.Kind, changed)
	}
}

func TestWolfNeverScoresGraze(t *testing.T) {
	ctx := Context{
		Species: speciesdef.Wolf,
		Vitals:  components.Vitals{Hunger: 90, Thirst: 10, Energy: 50},
		BestForage: &ForageCandidate{
			Tile:     components.Position{X: 1, Y: 0},
			Distance: 1,
			Biomass:  90,
		},
	}
	for _, c := range score(ctx) {
		if c.Kind == components.ActionGraze || c.Kind == components.ActionForage {
			t.Fatalf("wolf bid table must never include %v", c.Kind)
		}
	}
}

func TestHysteresisKeepsCurrentActionUntilMarginExceeded(t *testing.T) {
	ctx := Context{
		Species: speciesdef.Deer,
		Vitals:  components.Vitals{Hunger: 60, Thirst: 10, Energy: 50},
		BestForage: &ForageCandidate{
			Tile:     components.Position{X: 1, Y: 0},
			Distance: 1,
			Biomass:  40,
		},
		Current: components.ActionState{
			Kind:  components.ActionGraze,
			Phase: components.PhaseActive,
			Bid:   1000, // artificially high so nothing can beat it by H
		},
	}
	_, changed := Plan(ctx, 8)
	if changed {
		t.Fatal("expected hysteresis to keep the current action")
	}
}
