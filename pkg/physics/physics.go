// Package physics is a small fixed-timestep rigid body simulation of
// rolling balls inside a static arena.
//
// A World belongs to one game session. Dynamic bodies are spheres,
// static bodies are planes, oriented boxes and upright cylinders.
package physics

import "github.com/go-gl/mathgl/mgl64"

const (
	TimeStep    = 1.0 / 60
	MaxSubSteps = 10

	PlayerMass     = 5.0
	PlayerRadius   = 0.5
	LinearDamping  = 0.4
	AngularDamping = 0.4

	KingZoneRadius = 3.0

	PushForce  = 40.0
	PushRadius = 3.0

	// below this approach speed contacts do not bounce
	restingSpeed = 0.5
)

var (
	Gravity        = mgl64.Vec3{0, -9.81, 0}
	KingZoneCenter = mgl64.Vec3{0, 0.35, 0}
	up             = mgl64.Vec3{0, 1, 0}
)

// Material describes a surface.
type Material struct {
	Name        string
	Friction    float64
	Restitution float64
}

var (
	PlayerMaterial = Material{Name: "player", Friction: 0.2, Restitution: 0.4}
	GroundMaterial = Material{Name: "ground", Friction: 0.4, Restitution: 0.1}
	IceMaterial    = Material{Name: "ice", Friction: 0.05, Restitution: 0.1}
	StickyMaterial = Material{Name: "sticky", Friction: 0.8, Restitution: 0.05}
	WallMaterial   = Material{Name: "wall", Friction: 0.3, Restitution: 0.4}
	RampMaterial   = Material{Name: "ramp", Friction: 0.3, Restitution: 0.2}
)

// ContactMaterial is the friction and restitution of a player touching a surface.
type ContactMaterial struct {
	Friction    float64
	Restitution float64
}

// PlayerContacts overrides the combined surface values for player contacts.
var PlayerContacts = map[string]ContactMaterial{
	GroundMaterial.Name: {Friction: 0.4, Restitution: 0.3},
	IceMaterial.Name:    {Friction: 0.05, Restitution: 0.1},
	StickyMaterial.Name: {Friction: 0.8, Restitution: 0.05},
	WallMaterial.Name:   {Friction: 0.3, Restitution: 0.6},
	RampMaterial.Name:   {Friction: 0.3, Restitution: 0.2},
}

// combine is used for pairs without an explicit contact material.
func combine(a, b Material) ContactMaterial {
	return ContactMaterial{Friction: a.Friction * b.Friction, Restitution: a.Restitution * b.Restitution}
}

// Zone is a vertical cylinder trigger of infinite height.
type Zone struct {
	Center mgl64.Vec3
	Radius float64
}

// Contains compares the planar distance to the zone center.
func (z Zone) Contains(p mgl64.Vec3) bool {
	dx, dz := p.X()-z.Center.X(), p.Z()-z.Center.Z()
	return dx*dx+dz*dz <= z.Radius*z.Radius
}

var KingZone = Zone{Center: KingZoneCenter, Radius: KingZoneRadius}

func InKingZone(p mgl64.Vec3) bool { return KingZone.Contains(p) }
