package main

const (
	BulletSpeed    = 120.0 // units/s
	BulletLifetime = 2.5   // seconds
)

// Bullet is a turret projectile. It has no identity beyond slice
// membership; the store owns it exclusively.
type Bullet struct {
	Pos    Vec3
	Vel    Vec3
	Life   float64
	Handle RenderHandle
	Alive  bool
}

// NewBullet creates a bullet at a muzzle point heading along the fire direction
func NewBullet(muzzle, dir Vec3) *Bullet {
	return &Bullet{
		Pos:   muzzle,
		Vel:   dir.Scale(BulletSpeed),
		Life:  BulletLifetime,
		Alive: true,
	}
}

// Update integrates position and decrements lifetime
func (b *Bullet) Update(dt float64) {
	if !b.Alive {
		return
	}
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	b.Life -= dt
	if b.Life <= 0 {
		b.Alive = false
	}
}

// ToState converts to protocol state
func (b *Bullet) ToState() BulletState {
	return BulletState{
		X: round1(b.Pos.X),
		Y: round1(b.Pos.Y),
		Z: round1(b.Pos.Z),
	}
}
