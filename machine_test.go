package main

import (
	"math"
	"testing"
)

func TestMachineCatalog(t *testing.T) {
	if len(MachineCatalogMap) != len(MachineCatalog) {
		t.Error("catalog ids must be unique")
	}
	for _, m := range MachineCatalog {
		if MachineCatalogMap[m.ID] == nil {
			t.Errorf("missing catalog entry %q", m.ID)
		}
		if len(m.Muzzles) == 0 {
			t.Errorf("machine %q has no muzzles", m.ID)
		}
	}
	if MachineCatalogMap["bogus"] != nil {
		t.Error("unknown id should not resolve")
	}
}

func TestMuzzleWorldUnrotated(t *testing.T) {
	m := MachineCatalogMap["sentry"]
	w := m.MuzzleWorld(0, 0, 0)
	local := m.Muzzles[0]

	want := Vec3{X: local.X, Y: m.PivotHeight + local.Y, Z: local.Z}
	if w != want {
		t.Errorf("expected %v, got %v", want, w)
	}
}

func TestMuzzleWorldYawRotation(t *testing.T) {
	m := MachineCatalogMap["tempest"]
	w := m.MuzzleWorld(0, math.Pi/2, 0)

	// Forward offset swings onto +X at a quarter turn.
	if math.Abs(w.X-m.Muzzles[0].Z) > 1e-9 {
		t.Errorf("expected barrel reach on +X, got %v", w)
	}
	if math.Abs(w.Z) > 1e-9 {
		t.Errorf("expected no forward component at quarter turn, got %v", w)
	}
}

func TestMuzzleWorldPitchLift(t *testing.T) {
	m := MachineCatalogMap["tempest"]
	flat := m.MuzzleWorld(0, 0, 0)
	up := m.MuzzleWorld(0, 0, 0.4)
	if up.Y <= flat.Y {
		t.Error("raising pitch should lift the barrel tip")
	}
}

func TestMuzzleIndexWraps(t *testing.T) {
	m := MachineCatalogMap["sentry"]
	if m.MuzzleWorld(0, 0.3, 0.1) != m.MuzzleWorld(len(m.Muzzles), 0.3, 0.1) {
		t.Error("muzzle index should wrap around the barrel list")
	}
}
