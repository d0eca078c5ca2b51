package path

import (
	"fmt"
	"math"
	"sort"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

const (
	// DefaultResolution and DefaultIterations control the nearest-point
	// search: the coarse pass samples max(8, segments*resolution*4)
	// points, each iteration refines around the best one.
	DefaultResolution = 4
	DefaultIterations = 2

	samplesPerSegment = 32
	minLength         = 1e-9
)

// ReferenceOptions configures a Reference.
type ReferenceOptions struct {
	Resolution int
	Iterations int
	Logger     *logger.Logger
}

// Reference is an authored curve placed in the world.
type Reference struct {
	name  string
	knots []v3.Vec
	pose  geom.Pose

	resolution int
	iterations int

	// cumulative arc length at every table sample, local space.
	table  []float64
	length float64

	locked  bool
	regions []*scene.Region
	log     *logger.Logger
}

// NewReference builds a curve through knots, given in the reference's
// local space.
func NewReference(name string, knots []v3.Vec, pose geom.Pose, opts ReferenceOptions) (*Reference, error) {
	if len(knots) < 2 {
		err := gimleterrors.NewSetupError("path", fmt.Sprintf("reference %q needs at least 2 knots, got %d", name, len(knots)), nil)
		opts.Logger.Error(err, "path setup failed")
		return nil, err
	}
	if opts.Resolution <= 0 {
		opts.Resolution = DefaultResolution
	}
	if opts.Iterations < 0 {
		opts.Iterations = 0
	} else if opts.Iterations == 0 {
		opts.Iterations = DefaultIterations
	}

	r := &Reference{
		name:       name,
		knots:      append([]v3.Vec(nil), knots...),
		pose:       pose,
		resolution: opts.Resolution,
		iterations: opts.Iterations,
		log:        opts.Logger.With("path", name),
	}
	r.buildTable()
	r.log.WithFields(map[string]any{
		"start":  r.Start(),
		"end":    r.End(),
		"length": r.length,
	}).Debug("path reference ready")
	return r, nil
}

// Name returns the reference's name.
func (r *Reference) Name() string { return r.name }

// Knots returns a copy of the local-space knots.
func (r *Reference) Knots() []v3.Vec { return append([]v3.Vec(nil), r.knots...) }

// Pose returns the reference's placement.
func (r *Reference) Pose() geom.Pose { return r.pose }

// SetPose moves the curve. Arc length is unaffected.
func (r *Reference) SetPose(p geom.Pose) { r.pose = p }

// Length returns the curve's arc length.
func (r *Reference) Length() float64 { return r.length }

// Valid reports whether the curve has non-zero length.
func (r *Reference) Valid() bool { return r.length > minLength }

// Locked reports whether tools are currently refused.
func (r *Reference) Locked() bool { return r.locked }

// SetLocked enables or disables attaching tools.
func (r *Reference) SetLocked(locked bool) { r.locked = locked }

// Attach registers a trigger region whose contact attaches a tool.
func (r *Reference) Attach(region *scene.Region) {
	if region == nil || r.Owns(region) {
		return
	}
	region.Owner = r
	r.regions = append(r.regions, region)
}

// Owns reports whether region was attached to this reference.
func (r *Reference) Owns(region *scene.Region) bool {
	return lo.Contains(r.regions, region)
}

// Regions returns the attached trigger regions.
func (r *Reference) Regions() []*scene.Region {
	return append([]*scene.Region(nil), r.regions...)
}

// Evaluate returns the local-space point at normalized arc length t.
func (r *Reference) Evaluate(t float64) v3.Vec {
	seg, u := r.locate(t)
	p0, p1, p2, p3 := r.controls(seg)
	return catmullRom(p0, p1, p2, p3, u)
}

// PositionAt returns the world-space point at t.
func (r *Reference) PositionAt(t float64) v3.Vec {
	return r.pose.TransformPoint(r.Evaluate(t))
}

// TangentAt returns the unit world-space tangent at t. Where the curve
// has no derivative the start-to-end chord is used.
func (r *Reference) TangentAt(t float64) v3.Vec {
	seg, u := r.locate(t)
	p0, p1, p2, p3 := r.controls(seg)
	d := geom.Unit(catmullRomDerivative(p0, p1, p2, p3, u))
	if geom.IsZero(d) {
		d = geom.Unit(r.knots[len(r.knots)-1].Sub(r.knots[0]))
	}
	return geom.Unit(r.pose.TransformDirection(d))
}

// Start returns the world-space first point.
func (r *Reference) Start() v3.Vec { return r.PositionAt(0) }

// End returns the world-space last point.
func (r *Reference) End() v3.Vec { return r.PositionAt(1) }

// Nearest returns the world-space point on the curve closest to p and its
// normalized parameter.
func (r *Reference) Nearest(p v3.Vec) (v3.Vec, float64) {
	local := r.pose.InverseTransformPoint(p)
	count := max(8, r.segments()*r.resolution*4)

	from, to := 0.0, 1.0
	best := 0.0
	for pass := 0; pass <= r.iterations; pass++ {
		best = r.nearestIn(local, from, to, count)
		step := (to - from) / float64(count)
		from = math.Max(0, best-step)
		to = math.Min(1, best+step)
	}
	return r.PositionAt(best), best
}

// nearestIn samples [from, to] as a polyline of count edges and returns
// the parameter of the closest point on it.
func (r *Reference) nearestIn(p v3.Vec, from, to float64, count int) float64 {
	bestT := from
	bestDist := math.Inf(1)
	prevT := from
	prev := r.Evaluate(from)
	for i := 1; i <= count; i++ {
		t := from + (to-from)*float64(i)/float64(count)
		cur := r.Evaluate(t)
		edge := cur.Sub(prev)
		f := 0.0
		if l2 := edge.Dot(edge); l2 > 0 {
			f = geom.Clamp01(p.Sub(prev).Dot(edge) / l2)
		}
		if d := geom.Distance(p, prev.Add(edge.MulScalar(f))); d < bestDist {
			bestDist = d
			bestT = prevT + (t-prevT)*f
		}
		prevT, prev = t, cur
	}
	return bestT
}

func (r *Reference) segments() int { return len(r.knots) - 1 }

// controls returns the four Catmull-Rom control points of segment i,
// reflecting the missing neighbours at either end.
func (r *Reference) controls(i int) (p0, p1, p2, p3 v3.Vec) {
	k := r.knots
	p1, p2 = k[i], k[i+1]
	if i > 0 {
		p0 = k[i-1]
	} else {
		p0 = p1.MulScalar(2).Sub(p2)
	}
	if i+2 < len(k) {
		p3 = k[i+2]
	} else {
		p3 = p2.MulScalar(2).Sub(p1)
	}
	return p0, p1, p2, p3
}

func (r *Reference) buildTable() {
	segs := r.segments()
	r.table = make([]float64, 0, segs*samplesPerSegment+1)
	r.table = append(r.table, 0)
	total := 0.0
	for i := 0; i < segs; i++ {
		p0, p1, p2, p3 := r.controls(i)
		prev := p1
		for j := 1; j <= samplesPerSegment; j++ {
			cur := catmullRom(p0, p1, p2, p3, float64(j)/samplesPerSegment)
			total += geom.Distance(prev, cur)
			r.table = append(r.table, total)
			prev = cur
		}
	}
	r.length = total
}

// locate maps normalized arc length to a segment and its local parameter.
func (r *Reference) locate(t float64) (int, float64) {
	segs := r.segments()
	t = geom.Clamp01(t)
	if r.length <= minLength {
		return min(int(t*float64(segs)), segs-1), 0
	}

	s := t * r.length
	idx := sort.SearchFloat64s(r.table, s)
	var g float64
	switch {
	case idx == 0:
		g = 0
	case idx >= len(r.table):
		g = float64(segs)
	default:
		a, b := r.table[idx-1], r.table[idx]
		frac := 0.0
		if b > a {
			frac = (s - a) / (b - a)
		}
		g = (float64(idx-1) + frac) / samplesPerSegment
	}

	seg := int(g)
	if seg >= segs {
		return segs - 1, 1
	}
	return seg, g - float64(seg)
}

func catmullRom(p0, p1, p2, p3 v3.Vec, u float64) v3.Vec {
	u2 := u * u
	u3 := u2 * u
	a := p1.MulScalar(2)
	b := p2.Sub(p0).MulScalar(u)
	c := p0.MulScalar(2).Sub(p1.MulScalar(5)).Add(p2.MulScalar(4)).Sub(p3).MulScalar(u2)
	d := p1.MulScalar(3).Sub(p0).Sub(p2.MulScalar(3)).Add(p3).MulScalar(u3)
	return a.Add(b).Add(c).Add(d).MulScalar(0.5)
}

func catmullRomDerivative(p0, p1, p2, p3 v3.Vec, u float64) v3.Vec {
	b := p2.Sub(p0)
	c := p0.MulScalar(2).Sub(p1.MulScalar(5)).Add(p2.MulScalar(4)).Sub(p3).MulScalar(2 * u)
	d := p1.MulScalar(3).Sub(p0).Sub(p2.MulScalar(3)).Add(p3).MulScalar(3 * u * u)
	return b.Add(c).Add(d).MulScalar(0.5)
}
