package path

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects how a Session decides whether the tip is engaged.
type Mode int

const (
	// ModeFollow checks the tip on every tick.
	ModeFollow Mode = iota
	// ModeCut only checks while the tip is below the curve.
	ModeCut
)

func (m Mode) String() string {
	switch m {
	case ModeFollow:
		return "follow"
	case ModeCut:
		return "cut"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "follow" or "cut", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "follow":
		return ModeFollow, nil
	case "cut":
		return ModeCut, nil
	}
	return ModeFollow, fmt.Errorf("unknown path mode %q", s)
}

// Bounds are the allowed offsets from the curve, measured in the curve's
// local frame. Up may be negative, which demands a minimum depth below the
// curve.
type Bounds struct {
	Up    float64 `json:"up"`
	Down  float64 `json:"down"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// DefaultBounds returns the bounds new trajectories are authored with.
func DefaultBounds() Bounds {
	return Bounds{Up: 0.02, Down: 0.02, Left: 0.01, Right: 0.01}
}

// Normalize keeps a negative Up from asking for more depth than Down
// allows.
func (b Bounds) Normalize() Bounds {
	if b.Up < 0 && math.Abs(b.Up) > b.Down {
		b.Up = -b.Down
	}
	return b
}

// Angles are target roll and pitch with their tolerances, in degrees.
type Angles struct {
	Roll           float64 `json:"roll"`
	Pitch          float64 `json:"pitch"`
	RollTolerance  float64 `json:"roll_tolerance"`
	PitchTolerance float64 `json:"pitch_tolerance"`
}

// DefaultAngles returns level targets with 5 degree tolerances.
func DefaultAngles() Angles {
	return Angles{RollTolerance: 5, PitchTolerance: 5}
}

// FailModes selects which deviations fail the path. In a Sample it
// records which ones fired.
type FailModes struct {
	Up    bool `json:"up,omitempty"`
	Down  bool `json:"down,omitempty"`
	Left  bool `json:"left,omitempty"`
	Right bool `json:"right,omitempty"`
	Roll  bool `json:"roll,omitempty"`
	Pitch bool `json:"pitch,omitempty"`
}

// AllFailModes enables every check.
func AllFailModes() FailModes {
	return FailModes{Up: true, Down: true, Left: true, Right: true, Roll: true, Pitch: true}
}

// Any reports whether at least one mode is set.
func (f FailModes) Any() bool {
	return f.Up || f.Down || f.Left || f.Right || f.Roll || f.Pitch
}

// Names lists the set modes in a fixed order.
func (f FailModes) Names() []string {
	var out []string
	for _, m := range []struct {
		on   bool
		name string
	}{
		{f.Up, "up"}, {f.Down, "down"}, {f.Left, "left"},
		{f.Right, "right"}, {f.Roll, "roll"}, {f.Pitch, "pitch"},
	} {
		if m.on {
			out = append(out, m.name)
		}
	}
	return out
}

// ParseFailModes turns mode names into a FailModes value.
func ParseFailModes(names []string) (FailModes, error) {
	var f FailModes
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "up":
			f.Up = true
		case "down":
			f.Down = true
		case "left":
			f.Left = true
		case "right":
			f.Right = true
		case "roll":
			f.Roll = true
		case "pitch":
			f.Pitch = true
		case "all":
			f = AllFailModes()
		default:
			return FailModes{}, fmt.Errorf("unknown fail mode %q", n)
		}
	}
	return f, nil
}

func (f FailModes) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}
