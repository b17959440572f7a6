package main

import "math"

const (
	AimPlaneHeight   = 2.0  // fixed horizontal aim plane
	MinAimDistance   = 8.0  // aim target clamp, horizontal units from origin
	MaxAimDistance   = 85.0
	KeyboardAimSpeed = 55.0 // units/s of aim travel while a key is held
	PitchMin         = -0.9 // radians
	PitchMax         = 0.5
	neutralAimRange  = 40.0 // forward pose distance after reset
)

// Camera describes the fixed viewpoint the pointer ray originates from
type Camera struct {
	Position Vec3
	LookAt   Vec3
	FOVY     float64 // vertical field of view, radians
	Aspect   float64
}

// DefaultCamera matches the client's over-the-shoulder framing
func DefaultCamera() Camera {
	return Camera{
		Position: Vec3{X: 0, Y: 26, Z: -34},
		LookAt:   Vec3{X: 0, Y: 4, Z: 20},
		FOVY:     60 * math.Pi / 180,
		Aspect:   16.0 / 9.0,
	}
}

// Ray returns the world-space ray through normalized device coordinates
// (nx, ny in [-1, 1], ny up).
func (c Camera) Ray(nx, ny float64) (origin, dir Vec3) {
	forward := c.LookAt.Sub(c.Position).Normalized()
	right := forward.Cross(Vec3{Y: 1}).Normalized()
	up := right.Cross(forward)

	halfH := math.Tan(c.FOVY / 2)
	halfW := halfH * c.Aspect

	dir = forward.
		Add(right.Scale(nx * halfW)).
		Add(up.Scale(ny * halfH)).
		Normalized()
	return c.Position, dir
}

// KeyState tracks which aim keys are currently held
type KeyState struct {
	Up, Down, Left, Right bool
}

// AimState is the clamped aim target with the derived turret orientation
// and fire direction.
type AimState struct {
	Target  Vec3
	FireDir Vec3
	Yaw     float64
	Pitch   float64
}

// AimController converts pointer and keyboard input into the aim state
type AimController struct {
	Camera Camera
	Keys   KeyState
	State  AimState
	Pivot  Vec3 // turret pivot the orientation is measured from
}

// NewAimController creates a controller in the neutral forward pose
func NewAimController(cam Camera, pivot Vec3) *AimController {
	a := &AimController{Camera: cam, Pivot: pivot}
	a.Reset()
	return a
}

// Reset returns the turret to the neutral forward pose
func (a *AimController) Reset() {
	a.Keys = KeyState{}
	a.State.Target = Vec3{X: 0, Y: AimPlaneHeight, Z: neutralAimRange}
	a.orient()
}

// SetTargetFromPointer intersects the pointer ray with the aim plane and
// takes the intersection as the new target. Rays parallel to or pointing
// away from the plane are ignored.
func (a *AimController) SetTargetFromPointer(nx, ny float64) {
	origin, dir := a.Camera.Ray(nx, ny)
	if math.Abs(dir.Y) < 1e-9 {
		return
	}
	t := (AimPlaneHeight - origin.Y) / dir.Y
	if t <= 0 {
		return
	}
	a.State.Target = origin.Add(dir.Scale(t))
	a.clampTarget()
	a.orient()
}

// UpdateKeyboard nudges the target by the held direction keys. No-op when
// nothing is held.
func (a *AimController) UpdateKeyboard(dt float64) {
	var dx, dz float64
	if a.Keys.Left {
		dx -= 1
	}
	if a.Keys.Right {
		dx += 1
	}
	if a.Keys.Up {
		dz += 1
	}
	if a.Keys.Down {
		dz -= 1
	}
	if dx == 0 && dz == 0 {
		return
	}

	l := math.Sqrt(dx*dx + dz*dz)
	step := KeyboardAimSpeed * dt / l
	a.State.Target.X += dx * step
	a.State.Target.Z += dz * step
	a.clampTarget()
	a.orient()
}

// clampTarget keeps the horizontal distance from origin inside
// [MinAimDistance, MaxAimDistance], preserving direction.
func (a *AimController) clampTarget() {
	a.State.Target.Y = AimPlaneHeight
	d := a.State.Target.HorizontalLength()
	if d < 1e-6 {
		a.State.Target = Vec3{X: 0, Y: AimPlaneHeight, Z: MinAimDistance}
		return
	}
	clamped := Clamp(d, MinAimDistance, MaxAimDistance)
	if clamped != d {
		s := clamped / d
		a.State.Target.X *= s
		a.State.Target.Z *= s
	}
}

// orient recomputes yaw, pitch and the fire direction from the target.
// The fire direction comes from the clamped yaw/pitch, not from the raw
// target vector: pitch clamping deliberately alters it.
func (a *AimController) orient() {
	to := a.State.Target.Sub(a.Pivot)
	hlen := to.HorizontalLength()

	a.State.Yaw = math.Atan2(to.X, to.Z)
	a.State.Pitch = Clamp(math.Atan2(to.Y, hlen), PitchMin, PitchMax)

	cosP := math.Cos(a.State.Pitch)
	a.State.FireDir = Vec3{
		X: math.Sin(a.State.Yaw) * cosP,
		Y: math.Sin(a.State.Pitch),
		Z: math.Cos(a.State.Yaw) * cosP,
	}
}
