// Package kernel defines the abstract solid kernel used to describe the
// regions a tool tip can touch. Solids are signed distance fields: negative
// inside, positive outside, zero on the boundary. The sdfx package provides
// the implementation; the abstraction keeps the scene independent of it.
package kernel

import (
	"github.com/chazu/gimlet/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
	// Distance returns the signed distance from p to the solid's surface.
	Distance(p v3.Vec) float64
}

// Kernel is the abstract solid kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error) // axis along Z
	Sphere(radius float64) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	Place(s Solid, pose geom.Pose) Solid
}

// Contains reports whether p lies inside or on the boundary of s.
func Contains(s Solid, p v3.Vec) bool {
	return s.Distance(p) <= 0
}

// Center returns the center of the solid's bounding box.
func Center(s Solid) v3.Vec {
	min, max := s.BoundingBox()
	return v3.Vec{
		X: (min[0] + max[0]) / 2,
		Y: (min[1] + max[1]) / 2,
		Z: (min[2] + max[2]) / 2,
	}
}

// Size returns the extent of the solid's bounding box along each axis.
func Size(s Solid) v3.Vec {
	min, max := s.BoundingBox()
	return v3.Vec{X: max[0] - min[0], Y: max[1] - min[1], Z: max[2] - min[2]}
}
