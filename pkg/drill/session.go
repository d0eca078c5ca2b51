package drill

import (
	"fmt"
	"math"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
	"github.com/chazu/gimlet/pkg/event"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultMaxDeviation is the lateral distance from the drilling axis at
// which tracking is aborted.
const DefaultMaxDeviation = 0.05

// State is a drill session's interaction state.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateTracking:
		return "tracking"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event describes a drilling start or stop. Depth and Aborted are only
// meaningful on stop.
type Event struct {
	Surface    *Surface
	EnterPoint v3.Vec
	Axis       v3.Vec
	Width      float64
	Depth      float64
	Aborted    bool
}

// Options configures a Session.
type Options struct {
	// MaxDeviation defaults to DefaultMaxDeviation when zero.
	MaxDeviation float64
	// Scene refines the contact point; without it the raw tip is used.
	Scene  Raycaster
	Logger *logger.Logger
}

// Session is the per-tool drilling state machine.
type Session struct {
	bit          *Bit
	maxDeviation float64
	scene        Raycaster
	log          *logger.Logger

	state   State
	surface *Surface
	start   v3.Vec
	axis    v3.Vec
	depth   float64

	started event.Feed[Event]
	stopped event.Feed[Event]
}

// NewSession creates a session for bit. A missing bit or tip is reported
// once, here, as a SetupError.
func NewSession(bit *Bit, opts Options) (*Session, error) {
	var err error
	switch {
	case bit == nil:
		err = gimleterrors.NewSetupError("drill", "cannot work without a drill bit", nil)
	case bit.Base == nil || bit.Tip == nil:
		err = gimleterrors.NewSetupError("drill", "drill bit has no base or tip", nil)
	case bit.Width <= 0:
		err = gimleterrors.NewSetupError("drill", fmt.Sprintf("drill bit width must be positive, got %g", bit.Width), nil)
	case opts.MaxDeviation < 0:
		err = gimleterrors.NewSetupError("drill", fmt.Sprintf("max deviation must not be negative, got %g", opts.MaxDeviation), nil)
	}
	if err != nil {
		opts.Logger.Error(err, "drill setup failed")
		return nil, err
	}

	maxDev := opts.MaxDeviation
	if maxDev == 0 {
		maxDev = DefaultMaxDeviation
	}
	return &Session{
		bit:          bit,
		maxDeviation: maxDev,
		scene:        opts.Scene,
		log:          opts.Logger,
	}, nil
}

// State returns the current interaction state.
func (s *Session) State() State { return s.state }

// Depth returns the depth reached since tracking started.
func (s *Session) Depth() float64 { return s.depth }

// StartPoint returns the contact point fixed when tracking started.
func (s *Session) StartPoint() v3.Vec { return s.start }

// Axis returns the drilling axis fixed when tracking started.
func (s *Session) Axis() v3.Vec { return s.axis }

// Surface returns the surface being drilled, or nil.
func (s *Session) Surface() *Surface { return s.surface }

// MaxDeviation returns the abort threshold.
func (s *Session) MaxDeviation() float64 { return s.maxDeviation }

// Bit returns the session's drill bit.
func (s *Session) Bit() *Bit { return s.bit }

// OnStarted registers h for drilling-started notifications.
func (s *Session) OnStarted(h event.Handler[Event]) event.Subscription {
	return s.started.Subscribe(h)
}

// OnStopped registers h for drilling-stopped notifications.
func (s *Session) OnStopped(h event.Handler[Event]) event.Subscription {
	return s.stopped.Subscribe(h)
}

// Arm engages the tool's use control.
func (s *Session) Arm() {
	if s.state == StateIdle {
		s.state = StateArmed
	}
}

// Disarm releases the use control, committing the hole if tracking.
func (s *Session) Disarm() {
	if s.state == StateTracking {
		s.stop(false)
	}
	s.state = StateIdle
}

// Contact delivers a tip-entered-region event and reports whether tracking
// started. Contacts are ignored unless the session is armed, the region
// belongs to an unlocked surface and no other session is drilling it.
// region may be nil when the host only knows the surface.
func (s *Session) Contact(surface *Surface, region *scene.Region) bool {
	if s.state != StateArmed || surface == nil {
		return false
	}
	if surface.Locked() {
		return false
	}
	if region != nil && !surface.Owns(region) {
		return false
	}
	if !surface.claim(s) {
		return false
	}

	s.surface = surface
	s.start = s.contactPoint(surface, region)
	s.axis = s.bit.Forward()
	s.depth = 0
	s.state = StateTracking

	s.log.WithFields(map[string]any{
		"surface": surface.Name(),
		"enter":   s.start,
	}).Debug("drilling started")
	s.started.Publish(Event{
		Surface:    surface,
		EnterPoint: s.start,
		Axis:       s.axis,
		Width:      s.bit.Width,
	})
	return true
}

// Tick updates depth from the current tip position and aborts when the tip
// strays too far from the axis.
func (s *Session) Tick() {
	if s.state != StateTracking {
		return
	}
	tip := s.bit.TipPosition()
	deviation, projection := geom.AxisDeviation(tip, s.start, s.axis)
	if deviation > s.maxDeviation {
		s.log.WithFields(map[string]any{
			"deviation": deviation,
			"max":       s.maxDeviation,
		}).Warn("drilling aborted")
		s.stop(true)
		return
	}
	if projection > 0 {
		s.depth = math.Max(s.depth, geom.Distance(s.start, tip))
	}
}

// Close tears the session down, committing any hole in progress and
// dropping all subscribers.
func (s *Session) Close() {
	s.Disarm()
	s.started.Clear()
	s.stopped.Clear()
}

// contactPoint casts from the bit's base to its tip and returns where the
// ray enters the touched region, or the raw tip position.
func (s *Session) contactPoint(surface *Surface, region *scene.Region) v3.Vec {
	tip := s.bit.TipPosition()
	if s.scene == nil {
		return tip
	}
	ray, dist := geom.Segment(s.bit.Base.Position, tip)
	for _, hit := range s.scene.RaycastAll(ray, dist) {
		if region != nil && hit.Region == region {
			return hit.Point
		}
		if region == nil && surface.Owns(hit.Region) {
			return hit.Point
		}
	}
	return tip
}

func (s *Session) stop(aborted bool) {
	surface := s.surface
	end := s.start.Add(s.axis.MulScalar(s.depth))
	ev := Event{
		Surface:    surface,
		EnterPoint: s.start,
		Axis:       s.axis,
		Width:      s.bit.Width,
		Depth:      s.depth,
		Aborted:    aborted,
	}

	surface.CreateHole(s.start, end, s.bit.Width)
	surface.release(s)

	s.surface = nil
	s.depth = 0
	s.state = StateIdle

	s.log.WithFields(map[string]any{
		"surface": surface.Name(),
		"depth":   ev.Depth,
		"aborted": aborted,
	}).Debug("drilling stopped")
	s.stopped.Publish(ev)
}
