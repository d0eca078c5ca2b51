// Package config loads simulation settings from YAML. Every field has a
// default, so a file only needs the values it changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	gimleterrors "github.com/chazu/gimlet/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Config is the full set of tunables.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Bit    BitConfig    `yaml:"bit"`
	Drill  DrillConfig  `yaml:"drill"`
	Socket SocketConfig `yaml:"socket"`
	Path   PathConfig   `yaml:"path"`
	Engine EngineConfig `yaml:"engine"`
	Sim    SimConfig    `yaml:"sim"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Human bool   `yaml:"human"`
}

// BitConfig is the drill bit used when a script does not declare one.
type BitConfig struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Length float64 `yaml:"length" validate:"gt=0"`
}

// DrillConfig tunes drilling sessions.
type DrillConfig struct {
	MaxDeviation float64 `yaml:"max_deviation" validate:"gt=0"`
}

// SocketConfig holds socket defaults.
type SocketConfig struct {
	Width          float64 `yaml:"width" validate:"gt=0"`
	EnterTolerance float64 `yaml:"enter_tolerance" validate:"gte=0"`
	EndTolerance   float64 `yaml:"end_tolerance" validate:"gte=0"`
	WidthTolerance float64 `yaml:"width_tolerance" validate:"gte=0"`
	AutoPlace      bool    `yaml:"auto_place"`
}

// PathConfig tunes the nearest-point search and reset behaviour.
type PathConfig struct {
	Resolution       int  `yaml:"resolution" validate:"min=1,max=64"`
	Iterations       int  `yaml:"iterations" validate:"min=1,max=8"`
	ResetOnDeviation bool `yaml:"reset_on_deviation"`
}

// EngineConfig configures script evaluation.
type EngineConfig struct {
	Timeout string `yaml:"timeout" validate:"required,duration"`
}

// TimeoutDuration parses Timeout. Validate guarantees it parses.
func (e EngineConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// SimConfig bounds a simulation run.
type SimConfig struct {
	MaxTicks int `yaml:"max_ticks" validate:"min=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:   LogConfig{Level: "info"},
		Bit:   BitConfig{Width: 0.05, Length: 0.1},
		Drill: DrillConfig{MaxDeviation: 0.05},
		Socket: SocketConfig{
			Width:          0.01,
			EnterTolerance: 0.02,
			EndTolerance:   0.04,
			WidthTolerance: 0.01,
			AutoPlace:      true,
		},
		Path:   PathConfig{Resolution: 4, Iterations: 2},
		Engine: EngineConfig{Timeout: "5s"},
		Sim:    SimConfig{MaxTicks: 100000},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gimleterrors.NewParseError(path, 0, err)
	}
	return Parse(data, path)
}

// Parse decodes YAML over the defaults. source names the input in errors.
// Unknown keys are rejected.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, gimleterrors.NewParseError(source, extractLine(err), err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if cfg == nil {
		return gimleterrors.NewValidationError("config", "configuration is nil", nil)
	}
	if err := validatorInstance().Struct(cfg); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
