package config

import (
	"github.com/chazu/gimlet/pkg/drill"
	"github.com/chazu/gimlet/pkg/path"
	"github.com/chazu/gimlet/pkg/scenario"
)

// Presets returns the script defaults described by the configuration.
// Path bounds and angles are not configurable and keep their authoring
// defaults.
func (c *Config) Presets() scenario.Presets {
	p := scenario.DefaultPresets()
	if c == nil {
		return p
	}
	p.Bit = scenario.Bit{
		Width:        c.Bit.Width,
		Length:       c.Bit.Length,
		MaxDeviation: c.Drill.MaxDeviation,
	}
	p.Socket = scenario.SocketPreset{
		Width: c.Socket.Width,
		Tolerances: drill.Tolerances{
			Enter: c.Socket.EnterTolerance,
			End:   c.Socket.EndTolerance,
			Width: c.Socket.WidthTolerance,
		},
		AutoPlace: c.Socket.AutoPlace,
	}
	p.Path = scenario.PathPreset{
		Bounds: path.DefaultBounds(),
		Angles: path.DefaultAngles(),
		Fail:   path.AllFailModes(),
		Reset:  c.Path.ResetOnDeviation,
	}
	return p
}
