package session

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kingball/kingball/pkg/physics"
)

const (
	MovementImpulse = 25.0
	JumpImpulse     = 20.0
	// only a ball close to the floor may jump
	JumpHeight = 0.7
)

// controller turns intents into impulses on the local ball.
type controller struct {
	jumpCooldown time.Duration
	lastJump     time.Time
}

// move returns true when a jump impulse was applied.
func (c *controller) move(w *physics.World, id string, in Intent, dt float64, now time.Time) (jumped bool) {
	step := MovementImpulse * dt
	var j mgl64.Vec3
	if in.Forward {
		j[2] -= step
	}
	if in.Backward {
		j[2] += step
	}
	if in.Left {
		j[0] -= step
	}
	if in.Right {
		j[0] += step
	}
	if j != (mgl64.Vec3{}) {
		w.ApplyImpulse(id, j, nil)
	}

	if !in.Jump || (!c.lastJump.IsZero() && now.Sub(c.lastJump) < c.jumpCooldown) {
		return
	}
	// a jump press uses the cooldown even in the air
	c.lastJump = now
	pos, err := w.Position(id)
	if err != nil || pos.Y() >= JumpHeight {
		return
	}
	w.ApplyImpulse(id, mgl64.Vec3{0, JumpImpulse, 0}, nil)
	return true
}
