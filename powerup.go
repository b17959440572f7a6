package main

import "math/rand"

// PowerKind identifies a power-up effect
type PowerKind int

const (
	PowerRapidFire PowerKind = 0
	PowerShield    PowerKind = 1
	PowerExplosive PowerKind = 2
)

const (
	PowerDropChance   = 0.22
	PowerLifetime     = 12.0 // seconds before an unclaimed drop expires
	PowerPickupRadius = 30.0 // distance from the pickup point
	PowerSpinRate     = 2.4  // cosmetic
	RapidFireDuration = 8.0
	ExplosiveDuration = 10.0
	MaxShieldCharges  = 3
)

// PowerUp is a timed drop left behind by a dying enemy
type PowerUp struct {
	Pos    Vec3
	Kind   PowerKind
	TTL    float64
	Spin   float64 // cosmetic rotation, not behavioral
	Handle RenderHandle
	Alive  bool
}

// RollPowerUp returns a power-up at the given position with probability
// PowerDropChance, choosing uniformly among the three kinds. Returns nil
// when the roll fails.
func RollPowerUp(pos Vec3) *PowerUp {
	if rand.Float64() >= PowerDropChance {
		return nil
	}
	return &PowerUp{
		Pos:   pos,
		Kind:  PowerKind(rand.Intn(3)),
		TTL:   PowerLifetime,
		Alive: true,
	}
}

// Update ticks down the TTL and advances the cosmetic spin
func (p *PowerUp) Update(dt float64) {
	if !p.Alive {
		return
	}
	p.TTL -= dt
	p.Spin += PowerSpinRate * dt
	if p.TTL <= 0 {
		p.Alive = false
	}
}

// InPickupRange reports whether the drop is close enough to the fixed
// pickup point to be collected.
func (p *PowerUp) InPickupRange(point Vec3) bool {
	return HorizontalDistSq(p.Pos, point) < PowerPickupRadius*PowerPickupRadius
}

// ToState converts to protocol state
func (p *PowerUp) ToState() PowerUpState {
	return PowerUpState{
		X:    round1(p.Pos.X),
		Y:    round1(p.Pos.Y),
		Z:    round1(p.Pos.Z),
		Kind: int(p.Kind),
	}
}
