package geom

import v3 "github.com/deadsy/sdfx/vec/v3"

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// NewRay normalizes dir. A degenerate direction yields a ray that never
// advances.
func NewRay(origin, dir v3.Vec) Ray {
	return Ray{Origin: origin, Direction: Unit(dir)}
}

// Segment returns the ray from a towards b and the distance between them.
func Segment(a, b v3.Vec) (Ray, float64) {
	return NewRay(a, b.Sub(a)), Distance(a, b)
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}
