package physics

import (
	"errors"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/kingball/kingball/pkg/logger"
)

var ErrNoBody = errors.New("no such body")

// ZoneEvent tells that a body entered or left the king zone.
type ZoneEvent struct {
	Id      string
	Entered bool
}

// PushHit is a body affected by a push.
type PushHit struct {
	Id      string
	Impulse mgl64.Vec3
}

// World is the simulation of one session.
type World struct {
	mu sync.Mutex

	bodies map[string]*Body
	order  []string
	planes []*Static
	tree   *rtreego.Rtree

	acc    float64
	steps  uint64
	zone   map[string]struct{}
	closed bool

	log *logger.Logger
}

// NewWorld makes a world with the arena in it.
func NewWorld(log *logger.Logger) *World {
	w := &World{
		bodies: map[string]*Body{},
		zone:   map[string]struct{}{},
		tree:   rtreego.NewTree(3, 2, 8),
		log:    log.Extend(log.With().Str("m", "physics")),
	}
	for _, s := range Arena() {
		w.AddStatic(s)
	}
	return w
}

func (w *World) AddStatic(s *Static) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s.unbounded() {
		w.planes = append(w.planes, s)
		return
	}
	w.tree.Insert(s)
}

// AddPlayer adds a ball or returns the one with the same id.
func (w *World) AddPlayer(id string, pos mgl64.Vec3, kinematic bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.log.Warn().Str("id", id).Msg("add to a closed world")
		return
	}
	if b, ok := w.bodies[id]; ok {
		b.Kinematic = kinematic
		return
	}
	w.bodies[id] = newBody(id, pos, kinematic)
	w.order = append(w.order, id)
	w.log.Debug().Str("id", id).Bool("kinematic", kinematic).Msg("body added")
}

func (w *World) RemoveBody(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	delete(w.zone, id)
	for i, o := range w.order {
		if o == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *World) Has(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.bodies[id]
	return ok
}

// Body returns a snapshot of the body state.
func (w *World) Body(id string) (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok {
		return State{}, ErrNoBody
	}
	return b.state(), nil
}

func (w *World) Position(id string) (mgl64.Vec3, error) {
	s, err := w.Body(id)
	return s.Position, err
}

func (w *World) Velocity(id string) (mgl64.Vec3, error) {
	s, err := w.Body(id)
	return s.Velocity, err
}

func (w *World) Rotation(id string) (mgl64.Quat, error) {
	s, err := w.Body(id)
	return s.Rotation, err
}

// with runs fn on an existing body, missing bodies are a logged no-op.
func (w *World) with(id string, op string, fn func(b *Body)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[id]
	if !ok || w.closed {
		w.log.Debug().Str("id", id).Str("op", op).Msg("no body")
		return
	}
	fn(b)
}

// ApplyImpulse changes the momentum of a body.
// A nil point applies at the center.
func (w *World) ApplyImpulse(id string, j mgl64.Vec3, at *mgl64.Vec3) {
	w.with(id, "impulse", func(b *Body) { b.impulse(j, at) })
}

// ApplyForce acts during the next internal step.
func (w *World) ApplyForce(id string, f mgl64.Vec3) {
	w.with(id, "force", func(b *Body) { b.force = b.force.Add(f) })
}

func (w *World) SetPosition(id string, p mgl64.Vec3) {
	w.with(id, "position", func(b *Body) { b.Position = p })
}

func (w *World) SetRotation(id string, q mgl64.Quat) {
	w.with(id, "rotation", func(b *Body) { b.Rotation = q.Normalize() })
}

func (w *World) SetVelocity(id string, v mgl64.Vec3) {
	w.with(id, "velocity", func(b *Body) { b.Velocity = v })
}

// Step advances the world by dt using fixed internal steps.
// Time beyond the substep limit is dropped.
func (w *World) Step(dt float64) []ZoneEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || dt <= 0 {
		return nil
	}
	w.acc += dt
	n := 0
	for w.acc >= TimeStep && n < MaxSubSteps {
		w.substep(TimeStep)
		w.acc -= TimeStep
		n++
	}
	if w.acc >= TimeStep {
		w.acc = math.Mod(w.acc, TimeStep)
	}
	return w.checkZone()
}

// Steps is the number of internal steps done.
func (w *World) Steps() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

func (w *World) substep(h float64) {
	w.steps++
	for _, id := range w.order {
		b := w.bodies[id]
		b.integrate(h)
		b.force = mgl64.Vec3{}
	}
	for _, id := range w.order {
		b := w.bodies[id]
		if b.Kinematic {
			continue
		}
		for _, p := range w.planes {
			resolveStatic(b, p)
		}
		near := w.tree.SearchIntersect(box(b.Position, mgl64.Vec3{b.Radius, b.Radius, b.Radius}))
		for _, s := range near {
			resolveStatic(b, s.(*Static))
		}
	}
	for i := 0; i < len(w.order); i++ {
		for j := i + 1; j < len(w.order); j++ {
			resolvePair(w.bodies[w.order[i]], w.bodies[w.order[j]])
		}
	}
}

func (w *World) checkZone() (events []ZoneEvent) {
	for _, id := range w.order {
		_, was := w.zone[id]
		is := InKingZone(w.bodies[id].Position)
		switch {
		case is && !was:
			w.zone[id] = struct{}{}
			events = append(events, ZoneEvent{Id: id, Entered: true})
		case !is && was:
			delete(w.zone, id)
			events = append(events, ZoneEvent{Id: id})
		}
	}
	return
}

// Occupants returns the bodies in the king zone in the order they were added.
func (w *World) Occupants() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ids []string
	for _, id := range w.order {
		if InKingZone(w.bodies[id].Position) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ApplyPushEffect shoves every body around origin except the pusher.
// The strength falls off linearly to zero at PushRadius, the direction
// blends the push facing with the direction away from the origin.
func (w *World) ApplyPushEffect(origin, facing mgl64.Vec3, exclude string) []PushHit {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	f := normalize(facing)
	var hits []PushHit
	for _, id := range w.order {
		if id == exclude {
			continue
		}
		b := w.bodies[id]
		d := b.Position.Sub(origin)
		dist := d.Len()
		if dist > PushRadius {
			continue
		}
		mag := PushForce * (1 - dist/PushRadius)
		dir := normalize(f.Mul(0.7).Add(normalize(d).Mul(0.3)))
		j := dir.Mul(mag)
		at := b.Position
		b.impulse(j, &at)
		hits = append(hits, PushHit{Id: id, Impulse: j})
	}
	return hits
}

// Close drops all bodies, the world ignores calls afterwards.
func (w *World) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.bodies = map[string]*Body{}
	w.order = nil
	w.zone = map[string]struct{}{}
}

func normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}
