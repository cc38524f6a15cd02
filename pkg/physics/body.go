package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is a player ball.
// Kinematic bodies are moved only by SetPosition, they push dynamic
// bodies around but never react to contacts or impulses.
type Body struct {
	Id              string
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Rotation        mgl64.Quat
	Radius          float64
	Mass            float64
	Kinematic       bool

	force mgl64.Vec3
}

func newBody(id string, pos mgl64.Vec3, kinematic bool) *Body {
	return &Body{
		Id:        id,
		Position:  pos,
		Rotation:  mgl64.QuatIdent(),
		Radius:    PlayerRadius,
		Mass:      PlayerMass,
		Kinematic: kinematic,
	}
}

func (b *Body) invMass() float64 {
	if b.Kinematic || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// inertia of a solid sphere
func (b *Body) inertia() float64 { return 2.0 / 5 * b.Mass * b.Radius * b.Radius }

// impulse changes the momentum, an off-center point also adds spin.
func (b *Body) impulse(j mgl64.Vec3, at *mgl64.Vec3) {
	im := b.invMass()
	if im == 0 {
		return
	}
	b.Velocity = b.Velocity.Add(j.Mul(im))
	if at != nil {
		r := at.Sub(b.Position)
		b.AngularVelocity = b.AngularVelocity.Add(r.Cross(j).Mul(1 / b.inertia()))
	}
}

func (b *Body) integrate(h float64) {
	if b.Kinematic {
		return
	}
	a := Gravity.Add(b.force.Mul(b.invMass()))
	b.Velocity = b.Velocity.Add(a.Mul(h)).Mul(math.Pow(1-LinearDamping, h))
	b.AngularVelocity = b.AngularVelocity.Mul(math.Pow(1-AngularDamping, h))
	b.Position = b.Position.Add(b.Velocity.Mul(h))

	w := mgl64.Quat{W: 0, V: b.AngularVelocity}
	b.Rotation = b.Rotation.Add(w.Mul(b.Rotation).Scale(h / 2)).Normalize()
}

// State is a snapshot of a body.
type State struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Rotation        mgl64.Quat
}

func (b *Body) state() State {
	return State{Position: b.Position, Velocity: b.Velocity, AngularVelocity: b.AngularVelocity, Rotation: b.Rotation}
}
