package main

import "testing"

func TestRollPowerUpRate(t *testing.T) {
	const n = 100000
	drops := 0
	kinds := map[PowerKind]int{}
	for i := 0; i < n; i++ {
		if p := RollPowerUp(Vec3{}); p != nil {
			drops++
			kinds[p.Kind]++
		}
	}
	// p = 0.22, sigma ~ 131 over 100k rolls.
	if drops < 21450 || drops > 22550 {
		t.Errorf("drop rate off: %d of %d", drops, n)
	}
	for _, k := range []PowerKind{PowerRapidFire, PowerShield, PowerExplosive} {
		if kinds[k] < drops/5 {
			t.Errorf("kind %d under-represented: %d of %d drops", k, kinds[k], drops)
		}
	}
}

func TestRollPowerUpFields(t *testing.T) {
	pos := Vec3{X: 12, Y: 3, Z: -7}
	for i := 0; i < 1000; i++ {
		p := RollPowerUp(pos)
		if p == nil {
			continue
		}
		if p.Pos != pos {
			t.Fatal("drop should appear where the enemy died")
		}
		if p.TTL != PowerLifetime {
			t.Fatalf("expected TTL %f, got %f", PowerLifetime, p.TTL)
		}
		if !p.Alive {
			t.Fatal("fresh drop should be alive")
		}
		return
	}
	t.Fatal("no drop in 1000 rolls")
}

func TestPowerUpExpires(t *testing.T) {
	p := &PowerUp{TTL: 0.1, Alive: true}
	p.Update(0.05)
	if !p.Alive {
		t.Error("should still be alive mid-TTL")
	}
	p.Update(0.06)
	if p.Alive {
		t.Error("should expire when TTL runs out")
	}
}

func TestPowerUpPickupRange(t *testing.T) {
	near := &PowerUp{Pos: Vec3{X: 29.9}, Alive: true}
	if !near.InPickupRange(Vec3{}) {
		t.Error("29.9 units should be collectible")
	}
	far := &PowerUp{Pos: Vec3{X: 30.1}, Alive: true}
	if far.InPickupRange(Vec3{}) {
		t.Error("30.1 units should be out of range")
	}
}
