// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var (
	_ kernel.Kernel = (*SdfxKernel)(nil)
	_ sdf.SDF3      = (*posedSDF3)(nil)
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Distance evaluates the signed distance field at p.
func (s *sdfxSolid) Distance(p v3.Vec) float64 {
	return s.s.Evaluate(p)
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid. Solids from
// another kernel are adapted through their distance function.
func unwrap(s kernel.Solid) sdf.SDF3 {
	if w, ok := s.(*sdfxSolid); ok {
		return w.s
	}
	return foreignSDF3{s}
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with the given dimensions centered on the origin.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("sdfx: box %gx%gx%g: dimensions must be positive", x, y, z)
	}
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box %gx%gx%g: %w", x, y, z, err)
	}
	return wrap(s), nil
}

// Cylinder creates a cylinder along Z centered on the origin.
func (k *SdfxKernel) Cylinder(height, radius float64) (kernel.Solid, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("sdfx: cylinder h=%g r=%g: dimensions must be positive", height, radius)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder h=%g r=%g: %w", height, radius, err)
	}
	return wrap(s), nil
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sdfx: sphere r=%g: radius must be positive", radius)
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere r=%g: %w", radius, err)
	}
	return wrap(s), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Place moves a solid from a body's local space into world space.
func (k *SdfxKernel) Place(s kernel.Solid, pose geom.Pose) kernel.Solid {
	return wrap(&posedSDF3{sdf: unwrap(s), pose: pose})
}

// ---------------------------------------------------------------------------
// Pose placement
// ---------------------------------------------------------------------------

// posedSDF3 evaluates a local-space SDF at world points mapped through the
// inverse of a rigid pose. Rigid transforms preserve distances, so the
// field stays exact.
type posedSDF3 struct {
	sdf  sdf.SDF3
	pose geom.Pose
}

// Evaluate returns the signed distance at world point p.
func (s *posedSDF3) Evaluate(p v3.Vec) float64 {
	return s.sdf.Evaluate(s.pose.InverseTransformPoint(p))
}

// BoundingBox returns the world-space box enclosing the eight transformed
// corners of the local box.
func (s *posedSDF3) BoundingBox() sdf.Box3 {
	bb := s.sdf.BoundingBox()
	lo := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < 8; i++ {
		c := bb.Min
		if i&1 != 0 {
			c.X = bb.Max.X
		}
		if i&2 != 0 {
			c.Y = bb.Max.Y
		}
		if i&4 != 0 {
			c.Z = bb.Max.Z
		}
		w := s.pose.TransformPoint(c)
		lo = v3.Vec{X: math.Min(lo.X, w.X), Y: math.Min(lo.Y, w.Y), Z: math.Min(lo.Z, w.Z)}
		hi = v3.Vec{X: math.Max(hi.X, w.X), Y: math.Max(hi.Y, w.Y), Z: math.Max(hi.Z, w.Z)}
	}
	return sdf.Box3{Min: lo, Max: hi}
}

// foreignSDF3 adapts a kernel.Solid from another backend to sdf.SDF3.
type foreignSDF3 struct {
	s kernel.Solid
}

func (f foreignSDF3) Evaluate(p v3.Vec) float64 { return f.s.Distance(p) }

func (f foreignSDF3) BoundingBox() sdf.Box3 {
	min, max := f.s.BoundingBox()
	return sdf.Box3{
		Min: v3.Vec{X: min[0], Y: min[1], Z: min[2]},
		Max: v3.Vec{X: max[0], Y: max[1], Z: max[2]},
	}
}
