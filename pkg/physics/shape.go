package physics

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"
)

// Shape is a static collision shape in its local frame.
type Shape interface {
	// contact returns the push-out normal and the penetration depth of a sphere
	// at the local point c.
	contact(c mgl64.Vec3, r float64) (n mgl64.Vec3, depth float64, ok bool)
	// extent is the local half size for bounds.
	extent() mgl64.Vec3
}

// Plane is the y=0 plane facing up.
type Plane struct{}

// Box is a box with half extents.
type Box struct{ Half mgl64.Vec3 }

// Cylinder is an upright (y axis) cylinder.
type Cylinder struct {
	Radius float64
	Height float64
}

func (Plane) contact(c mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	if c.Y() >= r {
		return mgl64.Vec3{}, 0, false
	}
	return up, r - c.Y(), true
}

func (Plane) extent() mgl64.Vec3 { return mgl64.Vec3{math.Inf(1), 0, math.Inf(1)} }

func (b Box) contact(c mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	h := b.Half
	q := mgl64.Vec3{clamp(c.X(), -h.X(), h.X()), clamp(c.Y(), -h.Y(), h.Y()), clamp(c.Z(), -h.Z(), h.Z())}
	if q != c {
		return outside(c, q, r)
	}
	// center inside, leave through the nearest face
	best, n := math.Inf(1), mgl64.Vec3{}
	for i := 0; i < 3; i++ {
		for _, s := range []float64{-1, 1} {
			if d := h[i] - s*c[i]; d < best {
				best, n = d, mgl64.Vec3{}
				n[i] = s
			}
		}
	}
	return n, r + best, true
}

func (b Box) extent() mgl64.Vec3 { return b.Half }

func (cy Cylinder) contact(c mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	hh := cy.Height / 2
	radial := mgl64.Vec2{c.X(), c.Z()}
	rl := radial.Len()
	q := mgl64.Vec3{c.X(), clamp(c.Y(), -hh, hh), c.Z()}
	if rl > cy.Radius {
		s := cy.Radius / rl
		q[0], q[2] = c.X()*s, c.Z()*s
	}
	if q != c {
		return outside(c, q, r)
	}
	side, top := cy.Radius-rl, hh-math.Abs(c.Y())
	if top <= side {
		return mgl64.Vec3{0, math.Copysign(1, c.Y()), 0}, r + top, true
	}
	if rl == 0 {
		return mgl64.Vec3{1, 0, 0}, r + side, true
	}
	return mgl64.Vec3{c.X() / rl, 0, c.Z() / rl}, r + side, true
}

func (cy Cylinder) extent() mgl64.Vec3 { return mgl64.Vec3{cy.Radius, cy.Height / 2, cy.Radius} }

func outside(c, q mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	d := c.Sub(q)
	l := d.Len()
	if l >= r || l == 0 {
		return mgl64.Vec3{}, 0, false
	}
	return d.Mul(1 / l), r - l, true
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// Static is an immovable body of the arena.
type Static struct {
	Name     string
	Shape    Shape
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Material Material

	inv    mgl64.Quat
	bounds rtreego.Rect
}

func NewStatic(name string, shape Shape, pos mgl64.Vec3, rot mgl64.Quat, m Material) *Static {
	s := &Static{Name: name, Shape: shape, Position: pos, Rotation: rot.Normalize(), Material: m}
	s.inv = s.Rotation.Conjugate()
	s.bounds = s.aabb()
	return s
}

// Bounds makes statics usable in an R-tree.
func (s *Static) Bounds() rtreego.Rect { return s.bounds }

func (s *Static) unbounded() bool { _, ok := s.Shape.(Plane); return ok }

// aabb is the world bounding box of the rotated shape.
func (s *Static) aabb() rtreego.Rect {
	if s.unbounded() {
		return rtreego.Rect{}
	}
	e := s.Shape.extent()
	m := s.Rotation.Mat4()
	var half mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			half[i] += math.Abs(m.At(i, j)) * e[j]
		}
	}
	return box(s.Position, half)
}

// contact checks a sphere at the world point c.
func (s *Static) contact(c mgl64.Vec3, r float64) (mgl64.Vec3, float64, bool) {
	local := s.inv.Rotate(c.Sub(s.Position))
	n, depth, ok := s.Shape.contact(local, r)
	if !ok {
		return n, depth, ok
	}
	return s.Rotation.Rotate(n), depth, true
}

func box(center, half mgl64.Vec3) rtreego.Rect {
	lo := center.Sub(half)
	size := half.Mul(2)
	for i := range size {
		if size[i] <= 0 {
			size[i] = 1e-6
		}
	}
	rect, _ := rtreego.NewRect(rtreego.Point{lo.X(), lo.Y(), lo.Z()}, []float64{size.X(), size.Y(), size.Z()})
	return rect
}
