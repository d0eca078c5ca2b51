package drill

import (
	"testing"

	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel/sdfx"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// board builds a surface whose single region is a 1 x 1 x 0.2 plate with
// its top face on the plane z = top, registered in ix.
func board(t *testing.T, ix *scene.Index, name string, top float64) (*Surface, *scene.Region) {
	t.Helper()
	k := sdfx.New()
	plate, err := k.Box(1, 1, 0.2)
	if err != nil {
		t.Fatalf("Box() failed: %v", err)
	}
	surface := NewSurface(name, geom.NewPose(v3.Vec{}), nil)
	region, err := scene.NewRegion(name, k.Translate(plate, 0, 0, top-0.1), nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	if err := ix.Add(region); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	surface.Attach(region)
	return surface, region
}

// shelf is a horizontal plate with its top face at height y.
func shelf(t *testing.T, ix *scene.Index, name string, y float64) *Surface {
	t.Helper()
	k := sdfx.New()
	plate, err := k.Box(1, 0.1, 1)
	if err != nil {
		t.Fatalf("Box() failed: %v", err)
	}
	surface := NewSurface(name, geom.NewPose(v3.Vec{}), nil)
	region, err := scene.NewRegion(name, k.Translate(plate, 0, y-0.05, 0), nil)
	if err != nil {
		t.Fatalf("NewRegion() failed: %v", err)
	}
	if err := ix.Add(region); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	surface.Attach(region)
	return surface
}

// aim places the bit base at pos pointing along dir.
func aim(b *Bit, pos, dir v3.Vec) {
	b.Place(geom.PoseLookAt(pos, dir, geom.WorldUp))
}

func newSession(t *testing.T, b *Bit, opts Options) *Session {
	t.Helper()
	s, err := NewSession(b, opts)
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	return s
}
