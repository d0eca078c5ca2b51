package drill

import (
	"github.com/chazu/gimlet/pkg/event"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// HoleEvent is published when a hole is added to a surface. Hole is in
// world space.
type HoleEvent struct {
	Surface *Surface
	Hole    Hole
}

// Surface is a drillable body. Holes are stored in the surface's local
// space, so moving the surface moves its holes with it. The hole list only
// grows.
type Surface struct {
	name    string
	pose    geom.Pose
	holes   []Hole
	regions []*scene.Region
	locked  bool
	tracker *Session

	holeCreated event.Feed[HoleEvent]
	log         *logger.Logger
}

// NewSurface returns an empty, unlocked surface. log may be nil.
func NewSurface(name string, pose geom.Pose, log *logger.Logger) *Surface {
	return &Surface{
		name: name,
		pose: pose,
		log:  log.With("surface", name),
	}
}

// Name returns the surface name.
func (s *Surface) Name() string { return s.name }

// Pose returns the surface's world pose.
func (s *Surface) Pose() geom.Pose { return s.pose }

// SetPose moves the surface. Stored holes move with it.
func (s *Surface) SetPose(p geom.Pose) { s.pose = p }

// Locked reports whether the surface refuses new drilling contacts.
func (s *Surface) Locked() bool { return s.locked }

// SetLocked toggles the lock flag. The lock gates contact start only;
// CreateHole still succeeds on a locked surface.
func (s *Surface) SetLocked(locked bool) { s.locked = locked }

// Attach makes r one of the surface's touchable regions.
func (s *Surface) Attach(r *scene.Region) {
	if r == nil || s.Owns(r) {
		return
	}
	r.Owner = s
	s.regions = append(s.regions, r)
}

// Owns reports whether r is one of the surface's regions.
func (s *Surface) Owns(r *scene.Region) bool {
	return lo.Contains(s.regions, r)
}

// Regions returns the surface's regions.
func (s *Surface) Regions() []*scene.Region {
	return append([]*scene.Region(nil), s.regions...)
}

// CreateHole records a hole given in world space and returns it.
func (s *Surface) CreateHole(enter, end v3.Vec, width float64) Hole {
	world := NewHole(enter, end, width)
	s.holes = append(s.holes, world.ToLocal(s.pose))
	s.log.Debug("hole created")
	s.holeCreated.Publish(HoleEvent{Surface: s, Hole: world})
	return world
}

// CreateHoleFrom records a world-space hole.
func (s *Surface) CreateHoleFrom(h Hole) Hole {
	return s.CreateHole(h.EnterPoint, h.EndPoint, h.Width)
}

// HasHole reports whether any stored hole matches the world-space target
// within the given tolerances. See Hole.Matches for the width rule.
func (s *Surface) HasHole(enter, end v3.Vec, width, enterTol, endTol, widthTol float64) bool {
	return s.HasHoleMatching(NewHole(enter, end, width), Tolerances{Enter: enterTol, End: endTol, Width: widthTol})
}

// HasHoleMatching is HasHole with the target and tolerances bundled.
func (s *Surface) HasHoleMatching(target Hole, tol Tolerances) bool {
	return lo.SomeBy(s.holes, func(h Hole) bool {
		return h.ToWorld(s.pose).Matches(target, tol)
	})
}

// Holes returns the stored holes in world space, oldest first.
func (s *Surface) Holes() []Hole {
	return lo.Map(s.holes, func(h Hole, _ int) Hole { return h.ToWorld(s.pose) })
}

// LocalHoles returns the stored holes in the surface's local space.
func (s *Surface) LocalHoles() []Hole {
	return append([]Hole(nil), s.holes...)
}

// HoleCount returns the number of stored holes.
func (s *Surface) HoleCount() int { return len(s.holes) }

// OnHoleCreated registers h for hole creation notifications.
func (s *Surface) OnHoleCreated(h event.Handler[HoleEvent]) event.Subscription {
	return s.holeCreated.Subscribe(h)
}

// Tracker returns the session currently drilling the surface, if any.
func (s *Surface) Tracker() *Session { return s.tracker }

func (s *Surface) claim(sess *Session) bool {
	if s.tracker != nil && s.tracker != sess {
		return false
	}
	s.tracker = sess
	return true
}

func (s *Surface) release(sess *Session) {
	if s.tracker == sess {
		s.tracker = nil
	}
}
