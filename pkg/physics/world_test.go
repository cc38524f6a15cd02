package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kingball/kingball/pkg/logger"
)

func newTestWorld() *World { return NewWorld(logger.Nop()) }

func near(a, b mgl64.Vec3) bool { return a.Sub(b).Len() < 1e-9 }

func run(w *World, seconds float64) {
	for i := 0; i < int(seconds*60); i++ {
		w.Step(TimeStep)
	}
}

func TestPushFalloff(t *testing.T) {
	w := newTestWorld()
	origin := mgl64.Vec3{0, 10, 0}
	w.AddPlayer("pusher", origin, false)
	w.AddPlayer("center", origin, false)
	w.AddPlayer("half", mgl64.Vec3{1.5, 10, 0}, false)
	w.AddPlayer("edge", mgl64.Vec3{0, 10, PushRadius}, false)
	w.AddPlayer("far", mgl64.Vec3{0, 10, 3.5}, false)

	hits := w.ApplyPushEffect(origin, mgl64.Vec3{0, 0, -2}, "pusher")
	got := map[string]mgl64.Vec3{}
	for _, h := range hits {
		got[h.Id] = h.Impulse
	}

	tests := []struct {
		id  string
		hit bool
		mag float64
	}{
		{id: "pusher"},
		{id: "center", hit: true, mag: PushForce},
		{id: "half", hit: true, mag: PushForce / 2},
		{id: "edge", hit: true, mag: 0},
		{id: "far"},
	}
	for _, test := range tests {
		t.Run(test.id, func(t *testing.T) {
			j, ok := got[test.id]
			if ok != test.hit {
				t.Fatalf("hit %v, want %v", ok, test.hit)
			}
			if ok && math.Abs(j.Len()-test.mag) > 1e-9 {
				t.Errorf("impulse %v, want %v", j.Len(), test.mag)
			}
		})
	}

	if j := got["center"]; !near(j, mgl64.Vec3{0, 0, -PushForce}) {
		t.Errorf("push at the origin should follow the facing, got %v", j)
	}
	want := normalize(mgl64.Vec3{0.3, 0, -0.7}).Mul(PushForce / 2)
	if j := got["half"]; !near(j, want) {
		t.Errorf("blended direction %v, want %v", j, want)
	}
	s, _ := w.Body("center")
	if !near(s.Velocity, mgl64.Vec3{0, 0, -PushForce / PlayerMass}) {
		t.Errorf("velocity %v", s.Velocity)
	}
}

func TestBallRestsOnGround(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("a", mgl64.Vec3{6, 2, -6}, false)
	run(w, 3)
	s, err := w.Body("a")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.Position.Y()-PlayerRadius) > 0.01 {
		t.Errorf("ball height %v, want %v", s.Position.Y(), PlayerRadius)
	}
	if s.Velocity.Len() > 0.05 {
		t.Errorf("ball still moves %v", s.Velocity)
	}
}

func TestBallOnPlatform(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("king", mgl64.Vec3{0, 2, 0}, false)
	run(w, 2)
	s, _ := w.Body("king")
	if math.Abs(s.Position.Y()-1.1) > 0.01 {
		t.Errorf("ball height %v, want 1.1", s.Position.Y())
	}
	if occ := w.Occupants(); len(occ) != 1 || occ[0] != "king" {
		t.Errorf("occupants %v", occ)
	}
}

func TestZoneEvents(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("a", mgl64.Vec3{0, 5, 0}, false)

	ev := w.Step(TimeStep)
	if len(ev) != 1 || ev[0] != (ZoneEvent{Id: "a", Entered: true}) {
		t.Fatalf("enter events %v", ev)
	}
	if ev = w.Step(TimeStep); len(ev) != 0 {
		t.Fatalf("no events expected, got %v", ev)
	}
	w.SetPosition("a", mgl64.Vec3{0, 5, 8})
	if ev = w.Step(TimeStep); len(ev) != 1 || ev[0] != (ZoneEvent{Id: "a"}) {
		t.Fatalf("leave events %v", ev)
	}
}

func TestStepSubsteps(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("a", mgl64.Vec3{0, 20, 0}, false)

	w.Step(0.205)
	if w.Steps() != MaxSubSteps {
		t.Fatalf("steps %v, want %v", w.Steps(), MaxSubSteps)
	}
	w.Step(0.005)
	if w.Steps() != MaxSubSteps {
		t.Fatalf("steps %v, want %v", w.Steps(), MaxSubSteps)
	}
	w.Step(0.01)
	if w.Steps() != MaxSubSteps+1 {
		t.Fatalf("steps %v, want %v", w.Steps(), MaxSubSteps+1)
	}
	if w.Step(0) != nil || w.Step(-1) != nil {
		t.Errorf("non positive steps should do nothing")
	}
}

func TestKinematicBody(t *testing.T) {
	w := newTestWorld()
	pos := mgl64.Vec3{4, 3, 4}
	w.AddPlayer("remote", pos, true)
	w.ApplyImpulse("remote", mgl64.Vec3{10, 0, 0}, nil)
	run(w, 0.5)
	s, _ := w.Body("remote")
	if s.Position != pos || s.Velocity != (mgl64.Vec3{}) {
		t.Errorf("kinematic body moved %+v", s)
	}
}

func TestPairContact(t *testing.T) {
	a := newBody("a", mgl64.Vec3{0, 0, 0}, false)
	b := newBody("b", mgl64.Vec3{0.6, 0, 0}, true)
	a.Velocity = mgl64.Vec3{1, 0, 0}

	if !resolvePair(a, b) {
		t.Fatal("balls should touch")
	}
	if b.Position != (mgl64.Vec3{0.6, 0, 0}) {
		t.Errorf("kinematic ball moved to %v", b.Position)
	}
	if !near(a.Position, mgl64.Vec3{-0.4, 0, 0}) {
		t.Errorf("ball not separated %v", a.Position)
	}
	if a.Velocity.X() >= 0 {
		t.Errorf("ball should bounce back, velocity %v", a.Velocity)
	}
}

func TestShapeContact(t *testing.T) {
	tests := []struct {
		name  string
		s     *Static
		at    mgl64.Vec3
		n     mgl64.Vec3
		depth float64
		ok    bool
	}{
		{name: "box top", s: NewStatic("b", Box{Half: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, mgl64.QuatIdent(), WallMaterial),
			at: mgl64.Vec3{0, 1.3, 0}, n: mgl64.Vec3{0, 1, 0}, depth: 0.2, ok: true},
		{name: "box inside", s: NewStatic("b", Box{Half: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, mgl64.QuatIdent(), WallMaterial),
			at: mgl64.Vec3{0.9, 0, 0}, n: mgl64.Vec3{1, 0, 0}, depth: 0.6, ok: true},
		{name: "box miss", s: NewStatic("b", Box{Half: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{}, mgl64.QuatIdent(), WallMaterial),
			at: mgl64.Vec3{0, 1.6, 0}},
		{name: "platform top", s: NewStatic("p", Cylinder{Radius: 3, Height: 0.6}, mgl64.Vec3{0, 0.3, 0}, mgl64.QuatIdent(), GroundMaterial),
			at: mgl64.Vec3{0, 0.7, 0}, n: mgl64.Vec3{0, 1, 0}, depth: 0.4, ok: true},
		{name: "platform side", s: NewStatic("p", Cylinder{Radius: 3, Height: 0.6}, mgl64.Vec3{0, 0.3, 0}, mgl64.QuatIdent(), GroundMaterial),
			at: mgl64.Vec3{3.3, 0.3, 0}, n: mgl64.Vec3{1, 0, 0}, depth: 0.2, ok: true},
		{name: "ground", s: NewStatic("g", Plane{}, mgl64.Vec3{}, mgl64.QuatIdent(), GroundMaterial),
			at: mgl64.Vec3{5, 0.4, 5}, n: mgl64.Vec3{0, 1, 0}, depth: 0.1, ok: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n, depth, ok := test.s.contact(test.at, PlayerRadius)
			if ok != test.ok {
				t.Fatalf("contact %v, want %v", ok, test.ok)
			}
			if !ok {
				return
			}
			if !near(n, test.n) || math.Abs(depth-test.depth) > 1e-9 {
				t.Errorf("got %v %v, want %v %v", n, depth, test.n, test.depth)
			}
		})
	}
}

func TestRampNormal(t *testing.T) {
	ramp := NewStatic("ramp", Box{Half: mgl64.Vec3{2.5, 0.1, 2.5}}, mgl64.Vec3{},
		mgl64.QuatRotate(math.Pi/12, mgl64.Vec3{1, 0, 0}), RampMaterial)
	n, _, ok := ramp.contact(mgl64.Vec3{0, 0.5, 0}, PlayerRadius)
	if !ok {
		t.Fatal("ball should touch the ramp")
	}
	want := mgl64.Vec3{0, math.Cos(math.Pi / 12), math.Sin(math.Pi / 12)}
	if !near(n, want) {
		t.Errorf("normal %v, want %v", n, want)
	}
}

func TestMissingBody(t *testing.T) {
	w := newTestWorld()
	w.ApplyImpulse("ghost", mgl64.Vec3{1, 0, 0}, nil)
	w.SetPosition("ghost", mgl64.Vec3{})
	if _, err := w.Body("ghost"); !errors.Is(err, ErrNoBody) {
		t.Errorf("err %v", err)
	}
	w.AddPlayer("a", mgl64.Vec3{0, 1, 0}, false)
	w.RemoveBody("a")
	w.RemoveBody("a")
	if w.Has("a") {
		t.Errorf("body not removed")
	}
}

func TestClosedWorld(t *testing.T) {
	w := newTestWorld()
	w.AddPlayer("a", mgl64.Vec3{0, 1, 0}, false)
	w.Close()
	if w.Has("a") {
		t.Errorf("closed world keeps bodies")
	}
	w.AddPlayer("b", mgl64.Vec3{0, 1, 0}, false)
	if w.Has("b") || w.Step(1) != nil {
		t.Errorf("closed world is still running")
	}
}

func TestArena(t *testing.T) {
	statics := Arena()
	if len(statics) != 9+Obstacles {
		t.Fatalf("statics %v", len(statics))
	}
	for _, s := range statics {
		if s.Name == "wall-north" && s.Position.Z() != -15.5 {
			t.Errorf("north wall at %v", s.Position)
		}
	}
}
