// Package scenario defines the scripted description of a training scene:
// the drillable surfaces, target sockets and reference paths it contains,
// the tool used, and the ordered steps that drive the tool through it.
//
// A Script is plain data produced by evaluating a scenario file. It is
// validated before simulation and never mutated by the simulator.
package scenario

import (
	"fmt"

	"github.com/chazu/gimlet/pkg/drill"
	"github.com/chazu/gimlet/pkg/path"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ShapeKind enumerates region primitives.
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCylinder
	ShapeSphere
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeCylinder:
		return "cylinder"
	case ShapeSphere:
		return "sphere"
	default:
		return "unknown"
	}
}

// Shape is a primitive volume placed relative to its owner.
type Shape struct {
	Kind   ShapeKind `json:"kind"`
	Size   v3.Vec    `json:"size,omitempty"` // box extents
	Height float64   `json:"height,omitempty"`
	Radius float64   `json:"radius,omitempty"` // cylinder and sphere
	At     v3.Vec    `json:"at"`
	Rotate v3.Vec    `json:"rotate"` // Euler angles in degrees
}

// Surface is a drillable object made of one or more shapes.
type Surface struct {
	Name   string  `json:"name"`
	At     v3.Vec  `json:"at"`
	Rotate v3.Vec  `json:"rotate"`
	Locked bool    `json:"locked,omitempty"`
	Shapes []Shape `json:"shapes"`
}

// Socket is a target hole. Without an explicit End the end point sits
// below the anchor.
type Socket struct {
	Name       string           `json:"name"`
	Surface    string           `json:"surface,omitempty"`
	Enter      v3.Vec           `json:"enter"`
	End        *v3.Vec          `json:"end,omitempty"`
	Rotate     v3.Vec           `json:"rotate"`
	Width      float64          `json:"width"`
	Tolerances drill.Tolerances `json:"tolerances"`
	AutoPlace  bool             `json:"auto_place"`
}

// Bit describes the drill bit and its abort threshold.
type Bit struct {
	Width        float64 `json:"width"`
	Length       float64 `json:"length"`
	MaxDeviation float64 `json:"max_deviation"`
}

// Path is a reference trajectory and its scoring options.
type Path struct {
	Name         string         `json:"name"`
	Knots        []v3.Vec       `json:"knots"`
	At           v3.Vec         `json:"at"`
	Rotate       v3.Vec         `json:"rotate"`
	Mode         path.Mode      `json:"mode"`
	Bounds       path.Bounds    `json:"bounds"`
	Angles       path.Angles    `json:"angles"`
	Fail         path.FailModes `json:"fail"`
	IgnoreAngles bool           `json:"ignore_angles,omitempty"`
	Reset        bool           `json:"reset,omitempty"`
	Locked       bool           `json:"locked,omitempty"`
	Triggers     []Shape        `json:"triggers,omitempty"`
}

// StepKind enumerates tool actions.
type StepKind int

const (
	StepPress    StepKind = iota // engage the use control
	StepRelease                  // release the use control
	StepMove                     // move the tool over a number of ticks
	StepTick                     // advance time without moving
	StepGrab                     // attach the tool to a path
	StepDrop                     // detach the tool from its path
	StepComplete                 // force a path to completion
	StepLock                     // lock a surface or path
	StepUnlock                   // unlock a surface or path
)

func (k StepKind) String() string {
	switch k {
	case StepPress:
		return "press"
	case StepRelease:
		return "release"
	case StepMove:
		return "move"
	case StepTick:
		return "tick"
	case StepGrab:
		return "grab"
	case StepDrop:
		return "drop"
	case StepComplete:
		return "complete"
	case StepLock:
		return "lock"
	case StepUnlock:
		return "unlock"
	default:
		return "unknown"
	}
}

// Step is one scripted action. Forward and Up are optional on moves; a
// nil value keeps the tool's current orientation.
type Step struct {
	Kind     StepKind `json:"kind"`
	Position v3.Vec   `json:"position,omitempty"`
	Forward  *v3.Vec  `json:"forward,omitempty"`
	Up       *v3.Vec  `json:"up,omitempty"`
	Ticks    int      `json:"ticks,omitempty"`
	Target   string   `json:"target,omitempty"`
}

func (s Step) String() string {
	switch s.Kind {
	case StepMove:
		return fmt.Sprintf("move (%g %g %g) over %d", s.Position.X, s.Position.Y, s.Position.Z, s.Ticks)
	case StepTick:
		return fmt.Sprintf("tick %d", s.Ticks)
	case StepGrab, StepComplete, StepLock, StepUnlock:
		return fmt.Sprintf("%s %q", s.Kind, s.Target)
	default:
		return s.Kind.String()
	}
}

// Script is the evaluated scenario.
type Script struct {
	Surfaces []Surface `json:"surfaces"`
	Sockets  []Socket  `json:"sockets"`
	Paths    []Path    `json:"paths"`
	Bit      Bit       `json:"bit"`
	Steps    []Step    `json:"steps"`
}

// New returns an empty script using the bit from presets.
func New(p Presets) *Script {
	return &Script{Bit: p.Bit}
}

// Surface returns the surface named name, or nil.
func (s *Script) Surface(name string) *Surface {
	for i := range s.Surfaces {
		if s.Surfaces[i].Name == name {
			return &s.Surfaces[i]
		}
	}
	return nil
}

// Path returns the path named name, or nil.
func (s *Script) Path(name string) *Path {
	for i := range s.Paths {
		if s.Paths[i].Name == name {
			return &s.Paths[i]
		}
	}
	return nil
}

// Socket returns the socket named name, or nil.
func (s *Script) Socket(name string) *Socket {
	for i := range s.Sockets {
		if s.Sockets[i].Name == name {
			return &s.Sockets[i]
		}
	}
	return nil
}

// TickCount is the number of simulation ticks the steps take.
func (s *Script) TickCount() int {
	n := 0
	for _, st := range s.Steps {
		if st.Kind == StepMove || st.Kind == StepTick {
			n += max(st.Ticks, 0)
		}
	}
	return n
}

// Presets are the defaults applied to forms that omit a value.
type Presets struct {
	Bit    Bit
	Socket SocketPreset
	Path   PathPreset
}

// SocketPreset holds socket defaults.
type SocketPreset struct {
	Width      float64
	Tolerances drill.Tolerances
	AutoPlace  bool
}

// PathPreset holds path scoring defaults.
type PathPreset struct {
	Bounds path.Bounds
	Angles path.Angles
	Fail   path.FailModes
	Reset  bool
}

// DefaultPresets returns the built-in defaults.
func DefaultPresets() Presets {
	return Presets{
		Bit: Bit{
			Width:        drill.DefaultBitWidth,
			Length:       drill.DefaultBitLength,
			MaxDeviation: drill.DefaultMaxDeviation,
		},
		Socket: SocketPreset{
			Width: drill.DefaultSocketWidth,
			Tolerances: drill.Tolerances{
				Enter: drill.DefaultEnterTolerance,
				End:   drill.DefaultEndTolerance,
				Width: drill.DefaultWidthTolerance,
			},
			AutoPlace: true,
		},
		Path: PathPreset{
			Bounds: path.DefaultBounds(),
			Angles: path.DefaultAngles(),
			Fail:   path.AllFailModes(),
		},
	}
}
