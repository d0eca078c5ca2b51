package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/gimlet/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/dhconnelly/rtreego"
	"github.com/samber/lo"
)

// Hit is a ray intersection with a region's surface.
type Hit struct {
	Region   *Region
	Point    v3.Vec
	Distance float64
}

// Index is a spatial registry of regions. It is not safe for concurrent
// use; the host drives it from the simulation thread.
type Index struct {
	tree    *rtreego.Rtree
	regions map[string]*Region
	nextSeq int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		tree:    rtreego.NewTree(3, 2, 8),
		regions: make(map[string]*Region),
	}
}

// Add registers a region. Region IDs must be unique within the index.
func (ix *Index) Add(r *Region) error {
	if r == nil {
		return fmt.Errorf("scene: add: nil region")
	}
	if _, exists := ix.regions[r.ID]; exists {
		return fmt.Errorf("scene: add: duplicate region id %q", r.ID)
	}
	r.seq = ix.nextSeq
	ix.nextSeq++
	ix.regions[r.ID] = r
	ix.tree.Insert(r)
	return nil
}

// Remove unregisters a region and reports whether it was present.
func (ix *Index) Remove(r *Region) bool {
	if r == nil {
		return false
	}
	if cur, ok := ix.regions[r.ID]; !ok || cur != r {
		return false
	}
	delete(ix.regions, r.ID)
	return ix.tree.Delete(r)
}

// Lookup returns the region registered under id.
func (ix *Index) Lookup(id string) *Region {
	return ix.regions[id]
}

// Len returns the number of registered regions.
func (ix *Index) Len() int {
	return len(ix.regions)
}

// Regions returns all registered regions in registration order.
func (ix *Index) Regions() []*Region {
	out := lo.Values(ix.regions)
	sortBySeq(out)
	return out
}

// RaycastAll returns every region surface the ray enters within maxDist,
// nearest first. Regions containing the ray origin are not reported.
func (ix *Index) RaycastAll(ray geom.Ray, maxDist float64) []Hit {
	if maxDist <= 0 || geom.IsZero(ray.Direction) {
		return nil
	}
	query, err := segmentRect(ray.Origin, ray.At(maxDist))
	if err != nil {
		return nil
	}

	var hits []Hit
	for _, sp := range ix.tree.SearchIntersect(query) {
		r := sp.(*Region)
		t, ok := march(r.Solid, ray, maxDist)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Region: r, Point: ray.At(t), Distance: t})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Region.seq < hits[j].Region.seq
	})
	return hits
}

// Raycast returns the nearest hit along the ray.
func (ix *Index) Raycast(ray geom.Ray, maxDist float64) (Hit, bool) {
	hits := ix.RaycastAll(ray, maxDist)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// Containing returns the regions whose solid contains p, in registration
// order.
func (ix *Index) Containing(p v3.Vec) []*Region {
	query, err := segmentRect(p, p)
	if err != nil {
		return nil
	}
	var out []*Region
	for _, sp := range ix.tree.SearchIntersect(query) {
		r := sp.(*Region)
		if r.Solid.Distance(p) <= 0 {
			out = append(out, r)
		}
	}
	sortBySeq(out)
	return out
}

func sortBySeq(rs []*Region) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].seq < rs[j].seq })
}

func segmentRect(a, b v3.Vec) (rtreego.Rect, error) {
	min := [3]float64{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
	max := [3]float64{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
	return boxRect(min, max)
}
