package scene

import (
	"math"
	"testing"

	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel"
	"github.com/chazu/gimlet/pkg/kernel/sdfx"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// slab returns a thin horizontal plate whose top face sits at height y.
func slab(t *testing.T, y float64) kernel.Solid {
	t.Helper()
	k := sdfx.New()
	s, err := k.Box(1, 0.1, 1)
	if err != nil {
		t.Fatalf("Box() failed: %v", err)
	}
	return k.Translate(s, 0, y-0.05, 0)
}

func mustRegion(t *testing.T, ix *Index, id string, s kernel.Solid, owner any) *Region {
	t.Helper()
	r, err := NewRegion(id, s, owner)
	if err != nil {
		t.Fatalf("NewRegion(%q) failed: %v", id, err)
	}
	if err := ix.Add(r); err != nil {
		t.Fatalf("Add(%q) failed: %v", id, err)
	}
	return r
}

func TestRaycastAllSortedNearestFirst(t *testing.T) {
	ix := NewIndex()
	mustRegion(t, ix, "low", slab(t, 0), nil)
	mustRegion(t, ix, "high", slab(t, 0.5), nil)

	ray := geom.NewRay(v3.Vec{Y: 1}, v3.Vec{Y: -1})
	hits := ix.RaycastAll(ray, 2)
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].Region.ID != "high" || hits[1].Region.ID != "low" {
		t.Errorf("hit order = %s, %s; want high, low", hits[0].Region.ID, hits[1].Region.ID)
	}
	if math.Abs(hits[0].Distance-0.5) > 1e-5 {
		t.Errorf("hits[0].Distance = %v, want 0.5", hits[0].Distance)
	}
	if !geom.ApproxEqual(hits[1].Point, v3.Vec{}, 1e-5) {
		t.Errorf("hits[1].Point = %v, want origin", hits[1].Point)
	}
}

func TestRaycastRespectsMaxDistance(t *testing.T) {
	ix := NewIndex()
	mustRegion(t, ix, "low", slab(t, 0), nil)

	ray := geom.NewRay(v3.Vec{Y: 1}, v3.Vec{Y: -1})
	if _, ok := ix.Raycast(ray, 0.9); ok {
		t.Error("Raycast() hit a surface beyond maxDist")
	}
	if _, ok := ix.Raycast(ray, 1.1); !ok {
		t.Error("Raycast() missed a surface within maxDist")
	}
}

func TestRaycastFromInsideReportsNoHit(t *testing.T) {
	ix := NewIndex()
	mustRegion(t, ix, "low", slab(t, 0), nil)

	ray := geom.NewRay(v3.Vec{Y: -0.05}, v3.Vec{Y: -1})
	if hits := ix.RaycastAll(ray, 1); len(hits) != 0 {
		t.Errorf("RaycastAll() from inside = %d hits, want 0", len(hits))
	}
}

func TestRaycastDegenerate(t *testing.T) {
	ix := NewIndex()
	mustRegion(t, ix, "low", slab(t, 0), nil)
	if hits := ix.RaycastAll(geom.NewRay(v3.Vec{Y: 1}, v3.Vec{}), 2); hits != nil {
		t.Errorf("zero direction: got %d hits, want none", len(hits))
	}
	if hits := ix.RaycastAll(geom.NewRay(v3.Vec{Y: 1}, v3.Vec{Y: -1}), 0); hits != nil {
		t.Errorf("zero distance: got %d hits, want none", len(hits))
	}
}

func TestContaining(t *testing.T) {
	ix := NewIndex()
	owner := "board"
	low := mustRegion(t, ix, "low", slab(t, 0), owner)
	mustRegion(t, ix, "high", slab(t, 0.5), owner)

	got := ix.Containing(v3.Vec{Y: -0.02})
	if len(got) != 1 || got[0] != low {
		t.Fatalf("Containing() = %v, want [low]", got)
	}
	if got[0].Owner != owner {
		t.Errorf("Owner = %v, want %v", got[0].Owner, owner)
	}
	if got := ix.Containing(v3.Vec{Y: 0.25}); len(got) != 0 {
		t.Errorf("Containing(gap) = %v, want none", got)
	}
}

func TestAddRemove(t *testing.T) {
	ix := NewIndex()
	r := mustRegion(t, ix, "a", slab(t, 0), nil)

	dup, err := NewRegion("a", slab(t, 1), nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	if err := ix.Add(dup); err == nil {
		t.Error("Add() with duplicate id: expected error")
	}
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ix.Len())
	}
	if !ix.Remove(r) {
		t.Fatal("Remove() = false, want true")
	}
	if ix.Remove(r) {
		t.Error("second Remove() = true, want false")
	}
	if got := ix.Containing(v3.Vec{Y: -0.05}); len(got) != 0 {
		t.Errorf("Containing() after remove = %v, want none", got)
	}
}

func TestNewRegionGeneratesID(t *testing.T) {
	r, err := NewRegion("", slab(t, 0), nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	if r.ID == "" {
		t.Error("expected a generated id")
	}
	if _, err := NewRegion("x", nil, nil); err == nil {
		t.Error("NewRegion(nil solid): expected error")
	}
}

func TestRegionsInRegistrationOrder(t *testing.T) {
	ix := NewIndex()
	for _, id := range []string{"c", "a", "b"} {
		mustRegion(t, ix, id, slab(t, 0), nil)
	}
	got := ix.Regions()
	want := []string{"c", "a", "b"}
	for i, r := range got {
		if r.ID != want[i] {
			t.Fatalf("Regions()[%d] = %s, want %s", i, r.ID, want[i])
		}
	}
}
