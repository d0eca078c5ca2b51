package scene

import (
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel"
)

const (
	// hitEpsilon is the distance at which a marching ray counts as touching.
	hitEpsilon = 1e-6
	// maxMarchSteps bounds the work spent on a single region.
	maxMarchSteps = 512
)

// march sphere-traces ray against s and returns the distance to the first
// surface crossing within maxDist. A ray that starts inside the solid does
// not enter it and reports no hit.
func march(s kernel.Solid, ray geom.Ray, maxDist float64) (float64, bool) {
	if geom.IsZero(ray.Direction) {
		return 0, false
	}
	if s.Distance(ray.Origin) <= 0 {
		return 0, false
	}
	t := 0.0
	for i := 0; i < maxMarchSteps && t <= maxDist; i++ {
		d := s.Distance(ray.At(t))
		if d < hitEpsilon {
			return t, true
		}
		t += d
	}
	return 0, false
}
