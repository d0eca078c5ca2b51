// Package sim is the tick-driven host for a scenario. It builds the scene
// from a validated script, drives the tool through the script's steps and
// delivers interaction events to the drill and path sessions in a fixed
// order each tick:
//
//  1. the tool pose is updated,
//  2. regions that newly contain the tip are detected,
//  3. contacts are delivered to the drill session and path sessions,
//  4. the drill session ticks,
//  5. every path session ticks.
//
// Press, release, grab, drop, complete, lock and unlock steps take effect
// between ticks.
package sim

import (
	"context"
	"fmt"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
	"github.com/chazu/gimlet/pkg/drill"
	"github.com/chazu/gimlet/pkg/geom"
	"github.com/chazu/gimlet/pkg/kernel"
	"github.com/chazu/gimlet/pkg/kernel/sdfx"
	"github.com/chazu/gimlet/pkg/logger"
	"github.com/chazu/gimlet/pkg/path"
	"github.com/chazu/gimlet/pkg/scenario"
	"github.com/chazu/gimlet/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultMaxTicks bounds a run when Options.MaxTicks is zero.
const DefaultMaxTicks = 100000

// The tool starts at the origin pointing down.
var (
	DefaultForward = geom.WorldUp.MulScalar(-1)
	DefaultUp      = geom.AxisZ
)

// Options configures a Runner.
type Options struct {
	// Kernel builds region solids. Nil means the sdfx kernel.
	Kernel kernel.Kernel
	// MaxTicks rejects scripts that would run longer.
	MaxTicks int
	// Resolution and Iterations tune path nearest-point search; zero
	// values use the path package defaults.
	Resolution int
	Iterations int
	Logger     *logger.Logger
}

// Runner executes scripts. A Runner holds no per-run state and may be
// reused.
type Runner struct {
	kernel   kernel.Kernel
	maxTicks int
	opts     Options
	log      *logger.Logger
}

// NewRunner returns a runner with defaults filled in.
func NewRunner(opts Options) *Runner {
	r := &Runner{
		kernel:   opts.Kernel,
		maxTicks: opts.MaxTicks,
		opts:     opts,
		log:      opts.Logger,
	}
	if r.kernel == nil {
		r.kernel = sdfx.New()
	}
	if r.maxTicks <= 0 {
		r.maxTicks = DefaultMaxTicks
	}
	return r
}

// run is the state of one execution.
type run struct {
	w      *world
	log    *logger.Logger
	ticks  int
	events []Event
}

// Run validates s, simulates it and returns the report. Validation
// failures are returned as a ValidationError naming the first finding.
func (r *Runner) Run(ctx context.Context, s *scenario.Script) (*Report, error) {
	if s == nil {
		return nil, gimleterrors.NewSetupError("sim", "no script to run", nil)
	}
	result := scenario.Validate(s)
	if !result.OK() {
		first := result.Errors[0]
		return nil, gimleterrors.NewValidationError(first.Entity, first.Message, first)
	}
	if n := s.TickCount(); n > r.maxTicks {
		return nil, gimleterrors.NewSetupError("sim", fmt.Sprintf("script needs %d ticks, limit is %d", n, r.maxTicks), nil)
	}

	w, err := buildWorld(s, r.kernel, r.opts, r.log)
	if err != nil {
		r.log.Error(err, "scene setup failed")
		return nil, err
	}
	defer w.close()

	ru := &run{w: w, log: r.log}
	ru.subscribe()

	for i, st := range s.Steps {
		if err := ru.step(ctx, st); err != nil {
			return nil, fmt.Errorf("sim: step %d (%s): %w", i+1, st, err)
		}
	}

	r.log.WithFields(map[string]any{
		"ticks":  ru.ticks,
		"events": len(ru.events),
	}).Info("scenario finished")
	return ru.report(), nil
}

// subscribe records session notifications in the event log.
func (ru *run) subscribe() {
	w := ru.w
	w.drill.OnStarted(func(e drill.Event) {
		ru.record(EventDrillStarted, e.Surface.Name(), fmt.Sprintf("at %s", formatVec(e.EnterPoint)))
	})
	w.drill.OnStopped(func(e drill.Event) {
		kind := EventDrillStopped
		if e.Aborted {
			kind = EventDrillAborted
		}
		ru.record(kind, e.Surface.Name(), drill.FormatDepth(e.Depth))
	})
	for _, s := range w.surfaces {
		s.OnHoleCreated(func(e drill.HoleEvent) {
			ru.record(EventHoleCreated, e.Surface.Name(), e.Hole.String())
		})
	}
	for _, p := range w.paths {
		p := p
		p.session.OnFailed(func(e path.FailEvent) {
			if !p.failing {
				ru.record(EventPathDeviated, p.ref.Name(), e.Sample.Failed.String())
			}
			p.failing = true
		})
		p.session.OnCompleted(func(e path.CompletedEvent) {
			detail := "reached the end"
			if e.Forced {
				detail = "forced"
			}
			ru.record(EventPathCompleted, p.ref.Name(), detail)
		})
	}
}

func (ru *run) record(kind EventKind, subject, detail string) {
	ru.events = append(ru.events, Event{Tick: ru.ticks, Kind: kind, Subject: subject, Detail: detail})
}

// step applies one scripted action.
func (ru *run) step(ctx context.Context, st scenario.Step) error {
	w := ru.w
	switch st.Kind {
	case scenario.StepPress:
		w.drill.Arm()
	case scenario.StepRelease:
		w.drill.Disarm()
	case scenario.StepMove:
		return ru.move(ctx, st)
	case scenario.StepTick:
		for i := 0; i < st.Ticks; i++ {
			if err := ru.tick(ctx); err != nil {
				return err
			}
		}
	case scenario.StepGrab:
		p := w.path(st.Target)
		if p.session.Attach(w.bit.Tip) {
			ru.record(EventPathAttached, st.Target, "grabbed")
		}
	case scenario.StepDrop:
		for _, p := range w.paths {
			if p.session.Attached() {
				p.session.Detach()
				ru.record(EventPathDetached, p.ref.Name(), "dropped")
			}
		}
	case scenario.StepComplete:
		w.path(st.Target).session.CompletePath()
	case scenario.StepLock, scenario.StepUnlock:
		locked := st.Kind == scenario.StepLock
		if s := w.surface(st.Target); s != nil {
			s.SetLocked(locked)
		}
		if p := w.path(st.Target); p != nil {
			p.ref.SetLocked(locked)
		}
		ru.record(EventKind(st.Kind.String()), st.Target, "")
	default:
		return fmt.Errorf("unknown step kind %d", int(st.Kind))
	}
	return nil
}

// move interpolates the tool from its current pose to the step's target
// over st.Ticks ticks. With zero ticks the tool is moved without ticking.
func (ru *run) move(ctx context.Context, st scenario.Step) error {
	w := ru.w
	if st.Forward != nil {
		w.forward = *st.Forward
	}
	if st.Up != nil {
		w.up = *st.Up
	}
	from := w.tip()
	fromRot := w.bit.Base.Rotation
	toRot := geom.LookRotation(w.forward, w.up)

	if st.Ticks == 0 {
		w.place(st.Position, toRot)
		return nil
	}
	for i := 1; i <= st.Ticks; i++ {
		if i == st.Ticks {
			w.place(st.Position, toRot)
		} else {
			u := float64(i) / float64(st.Ticks)
			w.place(geom.Lerp(from, st.Position, u), mgl64.QuatSlerp(fromRot, toRot, u))
		}
		if err := ru.tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// tick runs one simulation step with the tool already in place.
func (ru *run) tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ru.ticks++
	w := ru.w

	for _, region := range w.entered() {
		ru.contact(region)
	}

	w.drill.Tick()

	for _, p := range w.paths {
		sample, ok := p.session.Tick()
		if ok && !sample.Failed.Any() {
			p.failing = false
		}
	}
	return nil
}

// contact routes a region the tip just entered to its owner.
func (ru *run) contact(region *scene.Region) {
	w := ru.w
	switch owner := region.Owner.(type) {
	case *drill.Surface:
		w.drill.Contact(owner, region)
	case *path.Reference:
		for _, p := range w.paths {
			if p.ref == owner && p.session.Contact(region, w.bit.Tip) {
				ru.record(EventPathAttached, owner.Name(), fmt.Sprintf("trigger %s", region.ID))
			}
		}
	default:
		ru.log.With("region", region.ID).Debug("contact with unowned region")
	}
}
