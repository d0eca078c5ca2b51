// Package scene keeps the set of touchable regions and answers the spatial
// queries the sessions need: ray casts against region surfaces and "which
// regions contain this point". An R-tree over region bounding boxes is the
// broad phase; the narrow phase sphere-traces each region's distance field.
package scene

import (
	"fmt"

	"github.com/chazu/gimlet/pkg/kernel"
	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
)

// boundsPad grows every R-tree rectangle so that boundary contacts and
// axis-aligned rays still overlap in the broad phase.
const boundsPad = 1e-6

// Region is a world-space solid registered with an Index. Owner is the
// entity the region belongs to (for example a drillable surface).
type Region struct {
	ID    string
	Solid kernel.Solid
	Owner any

	rect rtreego.Rect
	seq  int
}

// NewRegion creates a region around a world-space solid. An empty id is
// replaced with a random one.
func NewRegion(id string, solid kernel.Solid, owner any) (*Region, error) {
	if solid == nil {
		return nil, fmt.Errorf("scene: region %q: nil solid", id)
	}
	if id == "" {
		id = uuid.NewString()
	}
	min, max := solid.BoundingBox()
	rect, err := boxRect(min, max)
	if err != nil {
		return nil, fmt.Errorf("scene: region %q: %w", id, err)
	}
	return &Region{ID: id, Solid: solid, Owner: owner, rect: rect}, nil
}

// Bounds implements rtreego.Spatial.
func (r *Region) Bounds() rtreego.Rect {
	return r.rect
}

func (r *Region) String() string {
	return fmt.Sprintf("region(%s)", r.ID)
}

func boxRect(min, max [3]float64) (rtreego.Rect, error) {
	lengths := make([]float64, 3)
	corner := make(rtreego.Point, 3)
	for i := range lengths {
		corner[i] = min[i] - boundsPad
		lengths[i] = max[i] - min[i] + 2*boundsPad
	}
	return rtreego.NewRect(corner, lengths)
}
