package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// epsilon below which a vector length is treated as zero.
const epsilon = 1e-9

// Canonical axes. The world is Y-up; tools point along +Z.
var (
	AxisX   = v3.Vec{X: 1}
	AxisY   = v3.Vec{Y: 1}
	AxisZ   = v3.Vec{Z: 1}
	WorldUp = AxisY
)

// Unit returns v scaled to length 1, or the zero vector when v is degenerate.
func Unit(v v3.Vec) v3.Vec {
	l := v.Length()
	if l < epsilon {
		return v3.Vec{}
	}
	return v.MulScalar(1 / l)
}

// IsZero reports whether v is shorter than the package epsilon.
func IsZero(v v3.Vec) bool {
	return v.Length() < epsilon
}

// Distance returns |a - b|.
func Distance(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}

// Lerp interpolates between a and b.
func Lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}

// AxisDeviation measures how far point has strayed from the ray that starts
// at origin and runs along axis. projection is the signed length of
// (point - origin) along axis. A point behind the origin (projection < 0)
// reports its full distance from origin as the deviation.
func AxisDeviation(point, origin, axis v3.Vec) (deviation, projection float64) {
	axis = Unit(axis)
	rel := point.Sub(origin)
	projection = rel.Dot(axis)
	if projection < 0 {
		return rel.Length(), projection
	}
	closest := origin.Add(axis.MulScalar(projection))
	return Distance(point, closest), projection
}

// ProjectOnPlane removes the component of v along the plane normal n.
// A degenerate normal leaves v unchanged.
func ProjectOnPlane(v, n v3.Vec) v3.Vec {
	n = Unit(n)
	if IsZero(n) {
		return v
	}
	return v.Sub(n.MulScalar(v.Dot(n)))
}

// Angle returns the unsigned angle between a and b in degrees, or 0 when
// either vector is degenerate.
func Angle(a, b v3.Vec) float64 {
	la, lb := a.Length(), b.Length()
	if la < epsilon || lb < epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c) * 180 / math.Pi
}

// SignedAngle returns the angle in degrees that rotates from onto to,
// signed positive when the rotation is counter-clockwise about axis.
func SignedAngle(from, to, axis v3.Vec) float64 {
	a := Angle(from, to)
	if axis.Dot(from.Cross(to)) < 0 {
		return -a
	}
	return a
}

// DeltaAngle returns the shortest difference b - a in degrees, in (-180, 180].
func DeltaAngle(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// Clamp01 clamps x into [0, 1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ApproxEqual compares two vectors component-wise within tol.
func ApproxEqual(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}
