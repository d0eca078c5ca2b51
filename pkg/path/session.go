package path

import (
	"math"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
	"github.com/chazu/gimlet/pkg/event"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Options configures a Session. The zero value follows the curve with
// zero bounds and no fail modes; use DefaultOptions for authored defaults.
type Options struct {
	Mode         Mode
	Bounds       Bounds
	Angles       Angles
	Fail         FailModes
	IgnoreAngles bool
	// ResetOnDeviation drops progress to zero whenever a check fails.
	ResetOnDeviation bool
	Logger           *logger.Logger
}

// DefaultOptions returns follow-mode options with the default bounds and
// angles and every fail mode enabled.
func DefaultOptions() Options {
	return Options{
		Bounds: DefaultBounds(),
		Angles: DefaultAngles(),
		Fail:   AllFailModes(),
	}
}

// Sample is the outcome of one Tick. UpDown is positive above the curve,
// LeftRight positive to the left of the direction of travel.
type Sample struct {
	T         float64 `json:"t"`
	Nearest   v3.Vec  `json:"nearest"`
	Offset    v3.Vec  `json:"offset"`
	UpDown    float64 `json:"up_down"`
	LeftRight float64 `json:"left_right"`
	Roll      float64 `json:"roll"`
	Pitch     float64 `json:"pitch"`
	// Inside is false when a cut-mode tip is above the curve; no checks
	// ran and progress did not move.
	Inside bool      `json:"inside"`
	Failed FailModes `json:"failed"`
}

// FailEvent reports a tick on which at least one enabled check failed.
type FailEvent struct {
	Reference *Reference
	Sample    Sample
}

// CompletedEvent reports the first time progress reached the end. Forced
// is set when CompletePath caused it.
type CompletedEvent struct {
	Reference *Reference
	Forced    bool
}

// Session follows one attached tool tip along a Reference.
type Session struct {
	ref  *Reference
	opts Options
	log  *logger.Logger

	tip       *geom.Pose
	progress  float64
	completed bool
	last      Sample
	failures  int

	failed    event.Feed[FailEvent]
	completes event.Feed[CompletedEvent]
}

// NewSession creates a session tracking ref.
func NewSession(ref *Reference, opts Options) (*Session, error) {
	if ref == nil {
		err := gimleterrors.NewSetupError("path", "cannot track without a path reference", nil)
		opts.Logger.Error(err, "path setup failed")
		return nil, err
	}
	opts.Bounds = opts.Bounds.Normalize()
	return &Session{
		ref:  ref,
		opts: opts,
		log:  opts.Logger.With("path", ref.Name()),
	}, nil
}

// Reference returns the tracked curve.
func (s *Session) Reference() *Reference { return s.ref }

// Options returns the effective options, with bounds normalized.
func (s *Session) Options() Options { return s.opts }

// Attach makes tip the tracked object. It is refused when tip is nil, the
// reference is locked or another tip is already attached.
func (s *Session) Attach(tip *geom.Pose) bool {
	if tip == nil || s.tip != nil || s.ref.Locked() {
		return false
	}
	s.tip = tip
	s.log.Debug("tool attached")
	return true
}

// Contact attaches tip when region is one of the reference's triggers.
func (s *Session) Contact(region *scene.Region, tip *geom.Pose) bool {
	if region == nil || !s.ref.Owns(region) {
		return false
	}
	return s.Attach(tip)
}

// Detach stops tracking the current tip. Progress is kept.
func (s *Session) Detach() {
	if s.tip == nil {
		return
	}
	s.tip = nil
	s.log.Debug("tool detached")
}

// Attached reports whether a tip is being tracked.
func (s *Session) Attached() bool { return s.tip != nil }

// Progress returns the furthest normalized position reached.
func (s *Session) Progress() float64 { return s.progress }

// IsCompleted reports whether the end has been reached.
func (s *Session) IsCompleted() bool { return s.completed }

// LastSample returns the most recent evaluated sample.
func (s *Session) LastSample() Sample { return s.last }

// Failures counts ticks on which a check failed.
func (s *Session) Failures() int { return s.failures }

// OnFailed registers h for failure notifications.
func (s *Session) OnFailed(h event.Handler[FailEvent]) event.Subscription {
	return s.failed.Subscribe(h)
}

// OnCompleted registers h for completion notifications.
func (s *Session) OnCompleted(h event.Handler[CompletedEvent]) event.Subscription {
	return s.completes.Subscribe(h)
}

// CompletePath forces the path to its end.
func (s *Session) CompletePath() {
	s.progress = 1
	s.complete(true)
}

// Close detaches the tip and drops all subscribers.
func (s *Session) Close() {
	s.Detach()
	s.failed.Clear()
	s.completes.Clear()
}

// Tick evaluates the attached tip. ok is false when nothing was evaluated:
// no tip is attached or the curve has no length.
func (s *Session) Tick() (sample Sample, ok bool) {
	if s.tip == nil || !s.ref.Valid() {
		return Sample{}, false
	}

	tip := s.tip.Position
	nearest, t := s.ref.Nearest(tip)
	offset := tip.Sub(nearest)
	tangent, binormal, normal := s.frame(t)

	sample = Sample{
		T:         t,
		Nearest:   nearest,
		Offset:    offset,
		UpDown:    offset.Dot(normal),
		LeftRight: offset.Dot(binormal),
		Inside:    true,
	}
	if s.opts.Mode == ModeCut && sample.UpDown >= 0 {
		sample.Inside = false
		s.last = sample
		return sample, true
	}

	s.progress = math.Max(s.progress, geom.Clamp01(t))

	b := s.opts.Bounds
	fail := s.opts.Fail
	sample.Failed.Up = fail.Up && sample.UpDown > b.Up
	sample.Failed.Down = fail.Down && sample.UpDown < -b.Down
	sample.Failed.Left = fail.Left && sample.LeftRight > b.Left
	sample.Failed.Right = fail.Right && sample.LeftRight < -b.Right

	if !s.opts.IgnoreAngles {
		forward := s.tip.Forward()
		sample.Roll = s.roll(forward, tangent, normal)
		sample.Pitch = s.pitch(forward, tangent, binormal)
		a := s.opts.Angles
		sample.Failed.Roll = fail.Roll && math.Abs(geom.DeltaAngle(a.Roll, sample.Roll)) > a.RollTolerance
		sample.Failed.Pitch = fail.Pitch && math.Abs(geom.DeltaAngle(a.Pitch, sample.Pitch)) > a.PitchTolerance
	}

	if sample.Failed.Any() {
		s.failures++
		s.log.WithFields(map[string]any{
			"t":      t,
			"failed": sample.Failed.String(),
		}).Debug("path deviation")
		if s.opts.ResetOnDeviation {
			s.progress = 0
			s.completed = false
		}
		s.failed.Publish(FailEvent{Reference: s.ref, Sample: sample})
	}

	if s.progress >= 1 {
		s.complete(false)
	}
	s.last = sample
	return sample, true
}

// frame returns the curve's tangent, binormal (pointing left) and normal
// (pointing up) at t.
func (s *Session) frame(t float64) (tangent, binormal, normal v3.Vec) {
	tangent = s.ref.TangentAt(t)
	binormal = geom.Unit(tangent.Cross(geom.WorldUp))
	if geom.IsZero(binormal) {
		// Vertical tangent; may still be zero if the reference faces along it.
		binormal = geom.Unit(tangent.Cross(s.ref.Pose().Forward()))
	}
	normal = geom.Unit(binormal.Cross(tangent))
	return tangent, binormal, normal
}

// roll is the signed angle about the tangent from the normal to the tip's
// forward direction, both seen in the plane across the curve.
func (s *Session) roll(forward, tangent, normal v3.Vec) float64 {
	across := geom.ProjectOnPlane(forward, tangent)
	if geom.IsZero(across) {
		return 0
	}
	return geom.SignedAngle(normal, across, tangent)
}

// pitch is the signed angle about the binormal from the tangent to the
// tip's forward direction, both seen in the curve's vertical plane.
func (s *Session) pitch(forward, tangent, binormal v3.Vec) float64 {
	along := geom.ProjectOnPlane(forward, binormal)
	if geom.IsZero(along) {
		return 0
	}
	return geom.SignedAngle(tangent, along, binormal)
}

func (s *Session) complete(forced bool) {
	if s.completed {
		return
	}
	s.completed = true
	s.log.WithFields(map[string]any{"forced": forced}).Info("path completed")
	s.completes.Publish(CompletedEvent{Reference: s.ref, Forced: forced})
}
