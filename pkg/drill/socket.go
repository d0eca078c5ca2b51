package drill

import (
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Socket defaults.
const (
	DefaultSocketWidth    = 0.01
	DefaultEnterTolerance = 0.02
	DefaultEndTolerance   = 0.04
	DefaultWidthTolerance = 0.01
)

// endMarkerOffset is where the end marker is created, in the anchor's
// local space, when nothing else has placed it.
var endMarkerOffset = v3.Vec{Y: -0.1}

// Raycaster finds the region surfaces a ray enters, nearest first.
// *scene.Index implements it.
type Raycaster interface {
	RaycastAll(ray geom.Ray, maxDist float64) []scene.Hit
}

// Socket is a tolerance-bounded description of the hole an author wants
// drilled. It is used for verification only; sessions never read it.
type Socket struct {
	name      string
	anchor    geom.Pose
	endMarker *v3.Vec
	width     float64
	tol       Tolerances
	autoPlace bool
	scene     Raycaster
}

// SocketOption customizes a socket at construction.
type SocketOption func(*Socket)

// WithWidth sets the target width.
func WithWidth(w float64) SocketOption {
	return func(s *Socket) { s.width = w }
}

// WithTolerances sets the enter, end and width tolerances.
func WithTolerances(t Tolerances) SocketOption {
	return func(s *Socket) { s.tol = t }
}

// WithAutoPlace toggles snapping the enter point onto the nearest surface.
func WithAutoPlace(on bool) SocketOption {
	return func(s *Socket) { s.autoPlace = on }
}

// WithEndPoint places the end marker at a world position.
func WithEndPoint(world v3.Vec) SocketOption {
	return func(s *Socket) { s.setEndPoint(world) }
}

// NewSocket returns a socket anchored at anchor. sc resolves auto-placed
// enter points and may be nil, in which case the anchor is always used.
func NewSocket(name string, anchor geom.Pose, sc Raycaster, opts ...SocketOption) *Socket {
	s := &Socket{
		name:   name,
		anchor: anchor,
		width:  DefaultSocketWidth,
		tol: Tolerances{
			Enter: DefaultEnterTolerance,
			End:   DefaultEndTolerance,
			Width: DefaultWidthTolerance,
		},
		autoPlace: true,
		scene:     sc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the socket name.
func (s *Socket) Name() string { return s.name }

// Anchor returns the socket's anchor pose.
func (s *Socket) Anchor() geom.Pose { return s.anchor }

// SetAnchor moves the anchor. The end marker keeps its offset from it.
func (s *Socket) SetAnchor(p geom.Pose) { s.anchor = p }

// Width returns the target hole width.
func (s *Socket) Width() float64 { return s.width }

// EnterTolerance returns the allowed enter point distance.
func (s *Socket) EnterTolerance() float64 { return s.tol.Enter }

// EndTolerance returns the allowed end point distance.
func (s *Socket) EndTolerance() float64 { return s.tol.End }

// WidthTolerance returns the allowed excess width.
func (s *Socket) WidthTolerance() float64 { return s.tol.Width }

// Tolerances returns all three tolerances.
func (s *Socket) Tolerances() Tolerances { return s.tol }

// AutoPlace reports whether the enter point snaps to a surface.
func (s *Socket) AutoPlace() bool { return s.autoPlace }

// EnterPoint returns where the hole should start. With auto-placement on,
// this is the closest point where the ray from the anchor towards the end
// point enters a drillable surface; otherwise, or when nothing is hit, it
// is the anchor position.
func (s *Socket) EnterPoint() v3.Vec {
	anchor := s.anchor.Position
	if !s.autoPlace || s.scene == nil {
		return anchor
	}
	ray, dist := geom.Segment(anchor, s.EndPoint())
	if dist <= 0 {
		return anchor
	}
	hits := lo.Filter(s.scene.RaycastAll(ray, dist), func(h scene.Hit, _ int) bool {
		_, ok := h.Region.Owner.(*Surface)
		return ok
	})
	if len(hits) == 0 {
		return anchor
	}
	closest := lo.MinBy(hits, func(a, b scene.Hit) bool { return a.Distance < b.Distance })
	return closest.Point
}

// EndPoint returns the world position of the end marker, creating the
// marker below the anchor the first time it is needed.
func (s *Socket) EndPoint() v3.Vec {
	if s.endMarker == nil {
		offset := endMarkerOffset
		s.endMarker = &offset
	}
	return s.anchor.TransformPoint(*s.endMarker)
}

// Target returns the hole the socket describes.
func (s *Socket) Target() Hole {
	return NewHole(s.EnterPoint(), s.EndPoint(), s.width)
}

// Configure retargets the socket at h: the anchor moves to h's enter point,
// the end marker to h's end point, and width, tolerances and auto-placement
// are all replaced.
func (s *Socket) Configure(h Hole, enterTol, endTol, widthTol float64, autoPlace bool) {
	s.anchor.Position = h.EnterPoint
	s.setEndPoint(h.EndPoint)
	s.width = h.Width
	s.tol = Tolerances{Enter: enterTol, End: endTol, Width: widthTol}
	s.autoPlace = autoPlace
}

// SatisfiedBy reports whether surface holds a hole matching the socket.
func (s *Socket) SatisfiedBy(surface *Surface) bool {
	if surface == nil {
		return false
	}
	return surface.HasHoleMatching(s.Target(), s.tol)
}

func (s *Socket) setEndPoint(world v3.Vec) {
	local := s.anchor.InverseTransformPoint(world)
	s.endMarker = &local
}
