package main

import (
	"math"
	"math/rand"
)

const (
	EnemySpawnRadius  = 90.0 // ring distance from the core
	EnemyTargetRadius = 6.0  // breach distance
	EnemyBaseY        = 3.0  // hover height of the enemy base point
	EnemyRadius       = 2.0
	EnemyHalfHeight   = 1.5
	EnemySteerRate    = 3.6 // exponential smoothing rate toward the core
	BobAmplitude      = 0.6 // cosmetic vertical bob, never used in collision
)

// Enemy is one attacker closing on the core. BaseY, Radius and HalfHeight
// drive collision; IdlePhase, BobRate and LeanBias are cosmetic only.
type Enemy struct {
	Pos        Vec3 // Pos.Y is the collision base height
	Vel        Vec3
	Health     int
	Speed      float64
	Radius     float64
	HalfHeight float64
	IdlePhase  float64
	BobRate    float64
	LeanBias   float64
	Handle     RenderHandle
	Alive      bool
}

// SpawnEnemy places an enemy on a ring around the origin, aimed inward.
// Speed and health take the wave tuning with small random variation.
func SpawnEnemy(tuning WaveTuning) *Enemy {
	angle := rand.Float64() * 2 * math.Pi
	radius := EnemySpawnRadius + rand.Float64()*15
	pos := Vec3{
		X: math.Cos(angle) * radius,
		Y: EnemyBaseY,
		Z: math.Sin(angle) * radius,
	}

	speed := tuning.BaseSpeed + (rand.Float64()-0.5)*0.25*tuning.BaseSpeed

	health := tuning.BaseHealth
	if rand.Float64() < 0.2 {
		health++ // bonus health roll
	}

	toward := Vec3{X: -pos.X, Z: -pos.Z}.Normalized()
	return &Enemy{
		Pos:        pos,
		Vel:        toward.Scale(speed),
		Health:     health,
		Speed:      speed,
		Radius:     EnemyRadius,
		HalfHeight: EnemyHalfHeight,
		IdlePhase:  rand.Float64() * 2 * math.Pi,
		BobRate:    1.5 + rand.Float64(),
		LeanBias:   (rand.Float64() - 0.5) * 0.3,
		Alive:      true,
	}
}

// Update steers the enemy toward the origin and advances the cosmetic bob.
// Returns true if the enemy reached the breach radius this tick.
func (e *Enemy) Update(dt float64) bool {
	if !e.Alive {
		return false
	}

	// Exponential smoothing of horizontal velocity toward an
	// origin-pointing vector of magnitude Speed.
	target := Vec3{X: -e.Pos.X, Z: -e.Pos.Z}.Normalized().Scale(e.Speed)
	t := EnemySteerRate * dt
	if t > 1 {
		t = 1
	}
	e.Vel.X += (target.X - e.Vel.X) * t
	e.Vel.Z += (target.Z - e.Vel.Z) * t

	e.Pos.X += e.Vel.X * dt
	e.Pos.Z += e.Vel.Z * dt

	// Bob is display-only: BaseY stays fixed, the phase drives the
	// renderer's vertical offset.
	e.IdlePhase += e.BobRate * dt

	return e.Pos.HorizontalLength() <= EnemyTargetRadius
}

// DisplayY returns the render height including the cosmetic bob
func (e *Enemy) DisplayY() float64 {
	return e.Pos.Y + math.Sin(e.IdlePhase)*BobAmplitude
}

// TakeDamage reduces health and returns true if the enemy died
func (e *Enemy) TakeDamage(dmg int) bool {
	if !e.Alive {
		return false
	}
	e.Health -= dmg
	if e.Health <= 0 {
		e.Health = 0
		e.Alive = false
		return true
	}
	return false
}

// ToState converts to protocol state
func (e *Enemy) ToState() EnemyState {
	return EnemyState{
		X:  round1(e.Pos.X),
		Y:  round1(e.DisplayY()),
		Z:  round1(e.Pos.Z),
		HP: e.Health,
	}
}
