package drill

import (
	"fmt"

	"github.com/chazu/gimlet/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Hole is an immutable drilled artifact.
type Hole struct {
	EnterPoint v3.Vec  `json:"enterPoint"`
	EndPoint   v3.Vec  `json:"endPoint"`
	Width      float64 `json:"width"`
}

// Tolerances bound how far a hole may be from a target and still match.
type Tolerances struct {
	Enter float64 `json:"enter"`
	End   float64 `json:"end"`
	Width float64 `json:"width"`
}

// NewHole returns a hole from enter to end.
func NewHole(enter, end v3.Vec, width float64) Hole {
	return Hole{EnterPoint: enter, EndPoint: end, Width: width}
}

// Depth is the distance from enter to end.
func (h Hole) Depth() float64 {
	return geom.Distance(h.EnterPoint, h.EndPoint)
}

// Axis is the unit direction from enter to end, or zero for an empty hole.
func (h Hole) Axis() v3.Vec {
	return geom.Unit(h.EndPoint.Sub(h.EnterPoint))
}

// ToWorld maps a hole stored in p's local space into world space.
func (h Hole) ToWorld(p geom.Pose) Hole {
	return Hole{
		EnterPoint: p.TransformPoint(h.EnterPoint),
		EndPoint:   p.TransformPoint(h.EndPoint),
		Width:      h.Width,
	}
}

// ToLocal maps a world-space hole into p's local space.
func (h Hole) ToLocal(p geom.Pose) Hole {
	return Hole{
		EnterPoint: p.InverseTransformPoint(h.EnterPoint),
		EndPoint:   p.InverseTransformPoint(h.EndPoint),
		Width:      h.Width,
	}
}

// Matches reports whether h is within tol of the target. The width check is
// one-sided: a hole narrower than the target always passes, and only a hole
// wider than the target by more than tol.Width fails. Authored conditions
// rely on this.
func (h Hole) Matches(target Hole, tol Tolerances) bool {
	return geom.Distance(h.EnterPoint, target.EnterPoint) <= tol.Enter &&
		geom.Distance(h.EndPoint, target.EndPoint) <= tol.End &&
		h.Width-target.Width <= tol.Width
}

func (h Hole) String() string {
	return fmt.Sprintf("hole(%.4f,%.4f,%.4f -> %.4f,%.4f,%.4f w=%.4f)",
		h.EnterPoint.X, h.EnterPoint.Y, h.EnterPoint.Z,
		h.EndPoint.X, h.EndPoint.Y, h.EndPoint.Z, h.Width)
}
