package sim

import (
	"fmt"

	"github.com/chazu/gimlet/pkg/drill"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/path"
	"github.com/chazu/gimlet/pkg/scenario"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// socketEntry pairs a socket with the surface it is checked against. An
// empty surface name means any surface.
type socketEntry struct {
	socket  *drill.Socket
	surface string
}

// pathEntry is one reference trajectory and the session tracking it.
type pathEntry struct {
	ref     *path.Reference
	session *path.Session
	failing bool
}

// world is the live scene built from a script.
type world struct {
	index    *scene.Index
	surfaces []*drill.Surface
	sockets  []socketEntry
	paths    []*pathEntry

	bit   *drill.Bit
	drill *drill.Session

	forward v3.Vec
	up      v3.Vec
	inside  map[*scene.Region]bool
}

// buildWorld walks the script and registers every surface, socket, path
// and trigger. Shapes are rotated, then translated, then placed with
// their owner's pose.
func buildWorld(s *scenario.Script, k kernel.Kernel, opts Options, log *logger.Logger) (*world, error) {
	w := &world{
		index:   scene.NewIndex(),
		forward: DefaultForward,
		up:      DefaultUp,
		inside:  make(map[*scene.Region]bool),
	}

	for _, sf := range s.Surfaces {
		pose := geom.PoseFromEuler(sf.At, sf.Rotate)
		surface := drill.NewSurface(sf.Name, pose, log)
		surface.SetLocked(sf.Locked)
		for i, sh := range sf.Shapes {
			region, err := w.addRegion(k, fmt.Sprintf("surface/%s/%d", sf.Name, i+1), sh, pose)
			if err != nil {
				return nil, fmt.Errorf("sim: surface %q: %w", sf.Name, err)
			}
			surface.Attach(region)
		}
		w.surfaces = append(w.surfaces, surface)
	}

	for _, sk := range s.Sockets {
		socketOpts := []drill.SocketOption{
			drill.WithWidth(sk.Width),
			drill.WithTolerances(sk.Tolerances),
			drill.WithAutoPlace(sk.AutoPlace),
		}
		anchor := geom.PoseFromEuler(sk.Enter, sk.Rotate)
		if sk.End != nil {
			socketOpts = append(socketOpts, drill.WithEndPoint(*sk.End))
		}
		w.sockets = append(w.sockets, socketEntry{
			socket:  drill.NewSocket(sk.Name, anchor, w.index, socketOpts...),
			surface: sk.Surface,
		})
	}

	for _, p := range s.Paths {
		pose := geom.PoseFromEuler(p.At, p.Rotate)
		ref, err := path.NewReference(p.Name, p.Knots, pose, path.ReferenceOptions{
			Resolution: opts.Resolution,
			Iterations: opts.Iterations,
			Logger:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("sim: path %q: %w", p.Name, err)
		}
		ref.SetLocked(p.Locked)
		for i, sh := range p.Triggers {
			region, err := w.addRegion(k, fmt.Sprintf("path/%s/%d", p.Name, i+1), sh, pose)
			if err != nil {
				return nil, fmt.Errorf("sim: path %q: trigger: %w", p.Name, err)
			}
			ref.Attach(region)
		}
		sess, err := path.NewSession(ref, path.Options{
			Mode:             p.Mode,
			Bounds:           p.Bounds,
			Angles:           p.Angles,
			Fail:             p.Fail,
			IgnoreAngles:     p.IgnoreAngles,
			ResetOnDeviation: p.Reset,
			Logger:           log,
		})
		if err != nil {
			return nil, fmt.Errorf("sim: path %q: %w", p.Name, err)
		}
		w.paths = append(w.paths, &pathEntry{ref: ref, session: sess})
	}

	w.bit = drill.NewBit(s.Bit.Width, s.Bit.Length)
	sess, err := drill.NewSession(w.bit, drill.Options{
		MaxDeviation: s.Bit.MaxDeviation,
		Scene:        w.index,
		Logger:       log,
	})
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	w.drill = sess

	w.place(v3.Vec{}, geom.LookRotation(w.forward, w.up))
	for _, r := range w.index.Containing(w.tip()) {
		w.inside[r] = true
	}
	return w, nil
}

// addRegion builds the solid for sh, places it with owner and registers it.
func (w *world) addRegion(k kernel.Kernel, id string, sh scenario.Shape, owner geom.Pose) (*scene.Region, error) {
	solid, err := shapeSolid(k, sh)
	if err != nil {
		return nil, err
	}
	region, err := scene.NewRegion(id, k.Place(solid, owner), nil)
	if err != nil {
		return nil, err
	}
	if err := w.index.Add(region); err != nil {
		return nil, err
	}
	return region, nil
}

// shapeSolid creates the local-space solid for a shape. Rotation is
// applied first, then translation.
func shapeSolid(k kernel.Kernel, sh scenario.Shape) (kernel.Solid, error) {
	var (
		solid kernel.Solid
		err   error
	)
	switch sh.Kind {
	case scenario.ShapeBox:
		solid, err = k.Box(sh.Size.X, sh.Size.Y, sh.Size.Z)
	case scenario.ShapeCylinder:
		solid, err = k.Cylinder(sh.Height, sh.Radius)
	case scenario.ShapeSphere:
		solid, err = k.Sphere(sh.Radius)
	default:
		return nil, fmt.Errorf("unsupported shape kind %s", sh.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sh.Kind, err)
	}

	if r := sh.Rotate; r.X != 0 || r.Y != 0 || r.Z != 0 {
		solid = k.Rotate(solid, r.X, r.Y, r.Z)
	}
	if t := sh.At; t.X != 0 || t.Y != 0 || t.Z != 0 {
		solid = k.Translate(solid, t.X, t.Y, t.Z)
	}
	return solid, nil
}

// place moves the tool so its tip sits at tip with the given orientation.
func (w *world) place(tip v3.Vec, rotation mgl64.Quat) {
	base := geom.Pose{Position: tip, Rotation: rotation}
	base.Position = tip.Sub(base.Forward().MulScalar(w.bit.Length))
	w.bit.Place(base)
}

// tip returns the world position of the tool tip.
func (w *world) tip() v3.Vec { return w.bit.TipPosition() }

func (w *world) surface(name string) *drill.Surface {
	for _, s := range w.surfaces {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func (w *world) path(name string) *pathEntry {
	for _, p := range w.paths {
		if p.ref.Name() == name {
			return p
		}
	}
	return nil
}

// entered updates the set of regions containing the tip and returns the
// ones that were not containing it on the previous call, in registration
// order.
func (w *world) entered() []*scene.Region {
	current := w.index.Containing(w.tip())
	next := make(map[*scene.Region]bool, len(current))
	var fresh []*scene.Region
	for _, r := range current {
		next[r] = true
		if !w.inside[r] {
			fresh = append(fresh, r)
		}
	}
	w.inside = next
	return fresh
}

// close tears down every session.
func (w *world) close() {
	w.drill.Close()
	for _, p := range w.paths {
		p.session.Close()
	}
}
