package main

import "math"

// MachineDef describes one defense-platform variant. The catalog is a
// fixed closed set; selection is by string id.
type MachineDef struct {
	ID          string
	Name        string
	PivotHeight float64 // turret pivot above the ground plane
	Muzzles     []Vec3  // fire origins relative to the pivot, unrotated (+Z forward)
	Description string
}

// MachineCatalog is the full list of selectable platforms
var MachineCatalog = []MachineDef{
	{
		ID:          "sentry",
		Name:        "Sentry MK-I",
		PivotHeight: 4.0,
		Muzzles: []Vec3{
			{X: -0.8, Y: 0.4, Z: 2.6},
			{X: 0.8, Y: 0.4, Z: 2.6},
		},
		Description: "Twin-barrel baseline platform",
	},
	{
		ID:          "vulcan",
		Name:        "Vulcan Array",
		PivotHeight: 3.4,
		Muzzles: []Vec3{
			{X: -1.2, Y: 0.2, Z: 2.2},
			{X: -0.4, Y: 0.5, Z: 2.8},
			{X: 0.4, Y: 0.5, Z: 2.8},
			{X: 1.2, Y: 0.2, Z: 2.2},
		},
		Description: "Quad rotary cannon cluster",
	},
	{
		ID:          "tempest",
		Name:        "Tempest Lance",
		PivotHeight: 5.2,
		Muzzles: []Vec3{
			{X: 0, Y: 0.6, Z: 3.4},
		},
		Description: "Single elevated long barrel",
	},
}

// MachineCatalogMap provides O(1) lookup by machine id
var MachineCatalogMap map[string]*MachineDef

func init() {
	MachineCatalogMap = make(map[string]*MachineDef, len(MachineCatalog))
	for i := range MachineCatalog {
		MachineCatalogMap[MachineCatalog[i].ID] = &MachineCatalog[i]
	}
}

// MuzzleWorld returns the world position of muzzle idx for the given
// turret orientation. Local offsets rotate with yaw around the pivot; the
// barrel reach follows the pitched fire direction.
func (m *MachineDef) MuzzleWorld(idx int, yaw, pitch float64) Vec3 {
	local := m.Muzzles[idx%len(m.Muzzles)]

	sinY, cosY := math.Sin(yaw), math.Cos(yaw)
	rotated := Vec3{
		X: local.X*cosY + local.Z*sinY,
		Y: local.Y,
		Z: -local.X*sinY + local.Z*cosY,
	}

	pivot := Vec3{Y: m.PivotHeight}
	world := pivot.Add(rotated)
	// Pitch lifts or drops the barrel tip.
	world.Y += math.Sin(pitch) * local.Z
	return world
}
