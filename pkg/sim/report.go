package sim

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/gimlet/pkg/drill"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// EventKind classifies an event log entry.
type EventKind string

const (
	EventDrillStarted  EventKind = "drill.started"
	EventDrillStopped  EventKind = "drill.stopped"
	EventDrillAborted  EventKind = "drill.aborted"
	EventHoleCreated   EventKind = "hole.created"
	EventPathAttached  EventKind = "path.attached"
	EventPathDetached  EventKind = "path.detached"
	EventPathDeviated  EventKind = "path.deviated"
	EventPathCompleted EventKind = "path.completed"
	EventLock          EventKind = "lock"
	EventUnlock        EventKind = "unlock"
)

// Event is one entry of the ordered event log. Tick is the number of
// ticks completed when it happened.
type Event struct {
	Tick    int       `json:"tick"`
	Kind    EventKind `json:"kind"`
	Subject string    `json:"subject"`
	Detail  string    `json:"detail,omitempty"`
}

// HoleReport is a drilled hole in world space.
type HoleReport struct {
	drill.Hole
	Depth     float64 `json:"depth"`
	DepthText string  `json:"depthText"`
}

// SurfaceReport lists the holes of one surface.
type SurfaceReport struct {
	Name   string       `json:"name"`
	Locked bool         `json:"locked"`
	Holes  []HoleReport `json:"holes"`
}

// SocketReport says whether a socket's target hole was drilled.
type SocketReport struct {
	Name      string     `json:"name"`
	Surface   string     `json:"surface,omitempty"`
	Target    drill.Hole `json:"target"`
	Satisfied bool       `json:"satisfied"`
}

// PathReport summarizes one path session.
type PathReport struct {
	Name      string  `json:"name"`
	Length    float64 `json:"length"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
	Failures  int     `json:"failures"`
	Attached  bool    `json:"attached"`
}

// Report is the outcome of a run.
type Report struct {
	Ticks    int             `json:"ticks"`
	Surfaces []SurfaceReport `json:"surfaces"`
	Sockets  []SocketReport  `json:"sockets"`
	Paths    []PathReport    `json:"paths"`
	Events   []Event         `json:"events"`
}

// SocketsSatisfied counts satisfied sockets.
func (r *Report) SocketsSatisfied() int {
	return lo.CountBy(r.Sockets, func(s SocketReport) bool { return s.Satisfied })
}

// PathsCompleted counts completed paths.
func (r *Report) PathsCompleted() int {
	return lo.CountBy(r.Paths, func(p PathReport) bool { return p.Completed })
}

// HoleCount is the number of holes on all surfaces.
func (r *Report) HoleCount() int {
	return lo.SumBy(r.Surfaces, func(s SurfaceReport) int { return len(s.Holes) })
}

// Surface returns the report for the named surface, or nil.
func (r *Report) Surface(name string) *SurfaceReport {
	s, ok := lo.Find(r.Surfaces, func(s SurfaceReport) bool { return s.Name == name })
	if !ok {
		return nil
	}
	return &s
}

// Path returns the report for the named path, or nil.
func (r *Report) Path(name string) *PathReport {
	p, ok := lo.Find(r.Paths, func(p PathReport) bool { return p.Name == name })
	if !ok {
		return nil
	}
	return &p
}

// Socket returns the report for the named socket, or nil.
func (r *Report) Socket(name string) *SocketReport {
	s, ok := lo.Find(r.Sockets, func(s SocketReport) bool { return s.Name == name })
	if !ok {
		return nil
	}
	return &s
}

// EventsOf returns the log entries of one kind.
func (r *Report) EventsOf(kind EventKind) []Event {
	return lo.Filter(r.Events, func(e Event, _ int) bool { return e.Kind == kind })
}

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "ticks: %d\n", r.Ticks)

	fmt.Fprintf(&b, "\nsurfaces (%d holes)\n", r.HoleCount())
	for _, s := range r.Surfaces {
		lock := ""
		if s.Locked {
			lock = " [locked]"
		}
		fmt.Fprintf(&b, "  %s%s: %d holes\n", s.Name, lock, len(s.Holes))
		for _, h := range s.Holes {
			fmt.Fprintf(&b, "    %s -> %s  width %g  depth %s\n",
				formatVec(h.EnterPoint), formatVec(h.EndPoint), h.Width, h.DepthText)
		}
	}

	if len(r.Sockets) > 0 {
		fmt.Fprintf(&b, "\nsockets (%d/%d satisfied)\n", r.SocketsSatisfied(), len(r.Sockets))
		for _, s := range r.Sockets {
			mark := "missing"
			if s.Satisfied {
				mark = "ok"
			}
			fmt.Fprintf(&b, "  %-7s %s\n", mark, s.Name)
		}
	}

	if len(r.Paths) > 0 {
		fmt.Fprintf(&b, "\npaths (%d/%d completed)\n", r.PathsCompleted(), len(r.Paths))
		for _, p := range r.Paths {
			fmt.Fprintf(&b, "  %s: progress %.0f%%  failures %d  completed %t\n",
				p.Name, p.Progress*100, p.Failures, p.Completed)
		}
	}

	if len(r.Events) > 0 {
		b.WriteString("\nevents\n")
		for _, e := range r.Events {
			fmt.Fprintf(&b, "  [%5d] %-15s %s", e.Tick, e.Kind, e.Subject)
			if e.Detail != "" {
				fmt.Fprintf(&b, ": %s", e.Detail)
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// report collects the final state of the world.
func (ru *run) report() *Report {
	w := ru.w
	rep := &Report{Ticks: ru.ticks, Events: ru.events}
	if rep.Events == nil {
		rep.Events = []Event{}
	}

	rep.Surfaces = lo.Map(w.surfaces, func(s *drill.Surface, _ int) SurfaceReport {
		return SurfaceReport{
			Name:   s.Name(),
			Locked: s.Locked(),
			Holes: lo.Map(s.Holes(), func(h drill.Hole, _ int) HoleReport {
				return HoleReport{Hole: h, Depth: h.Depth(), DepthText: drill.FormatDepth(h.Depth())}
			}),
		}
	})

	rep.Sockets = lo.Map(w.sockets, func(e socketEntry, _ int) SocketReport {
		var satisfied bool
		if e.surface != "" {
			satisfied = e.socket.SatisfiedBy(w.surface(e.surface))
		} else {
			satisfied = lo.SomeBy(w.surfaces, e.socket.SatisfiedBy)
		}
		return SocketReport{
			Name:      e.socket.Name(),
			Surface:   e.surface,
			Target:    e.socket.Target(),
			Satisfied: satisfied,
		}
	})

	rep.Paths = lo.Map(w.paths, func(p *pathEntry, _ int) PathReport {
		return PathReport{
			Name:      p.ref.Name(),
			Length:    p.ref.Length(),
			Progress:  p.session.Progress(),
			Completed: p.session.IsCompleted(),
			Failures:  p.session.Failures(),
			Attached:  p.session.Attached(),
		}
	})
	return rep
}

func formatVec(v v3.Vec) string {
	return fmt.Sprintf("(%.3f %.3f %.3f)", v.X, v.Y, v.Z)
}
