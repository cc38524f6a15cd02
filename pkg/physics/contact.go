package physics

import "math"

// resolveStatic pushes a ball out of a static and applies bounce and friction.
func resolveStatic(b *Body, s *Static) bool {
	n, depth, ok := s.contact(b.Position, b.Radius)
	if !ok {
		return false
	}
	b.Position = b.Position.Add(n.Mul(depth))

	vn := b.Velocity.Dot(n)
	if vn >= 0 {
		return true
	}
	cm, ok := PlayerContacts[s.Material.Name]
	if !ok {
		cm = combine(PlayerMaterial, s.Material)
	}
	e := cm.Restitution
	if -vn < restingSpeed {
		e = 0
	}
	jn := -(1 + e) * vn * b.Mass
	b.Velocity = b.Velocity.Add(n.Mul(-(1 + e) * vn))

	// slip of the contact point
	r := n.Mul(-b.Radius)
	vt := b.Velocity.Sub(n.Mul(b.Velocity.Dot(n)))
	slip := vt.Add(b.AngularVelocity.Cross(r))
	speed := slip.Len()
	if speed < 1e-9 {
		return true
	}
	// a solid sphere has 2/7 of its mass effective at the contact
	jt := math.Min(2.0/7*b.Mass*speed, cm.Friction*jn)
	j := slip.Mul(-jt / speed)
	b.Velocity = b.Velocity.Add(j.Mul(1 / b.Mass))
	b.AngularVelocity = b.AngularVelocity.Add(r.Cross(j).Mul(1 / b.inertia()))
	return true
}

// resolvePair separates two touching balls.
func resolvePair(a, b *Body) bool {
	d := a.Position.Sub(b.Position)
	dist := d.Len()
	sum := a.Radius + b.Radius
	if dist >= sum {
		return false
	}
	n := up
	if dist > 1e-9 {
		n = d.Mul(1 / dist)
	}
	ia, ib := a.invMass(), b.invMass()
	total := ia + ib
	if total == 0 {
		return true
	}
	depth := sum - dist
	a.Position = a.Position.Add(n.Mul(depth * ia / total))
	b.Position = b.Position.Sub(n.Mul(depth * ib / total))

	rel := a.Velocity.Sub(b.Velocity).Dot(n)
	if rel >= 0 {
		return true
	}
	e := combine(PlayerMaterial, PlayerMaterial).Restitution
	j := -(1 + e) * rel / total
	a.Velocity = a.Velocity.Add(n.Mul(j * ia))
	b.Velocity = b.Velocity.Sub(n.Mul(j * ib))
	return true
}
