package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/meteorsim/internal/logging"
	"github.com/san-kum/meteorsim/internal/sim"
)

const (
	DefaultDt          = 0.016
	DefaultDuration    = 120.0
	DefaultTimeScale   = 1.0
	DefaultIntegrator  = "euler"
	DefaultSampleEvery = 10
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes one scenario: how to step and what to spawn.
type Config struct {
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Integrator  string         `yaml:"integrator" json:"integrator"`
	Dt          float64        `yaml:"dt" json:"dt"`
	Duration    float64        `yaml:"duration" json:"duration"`
	TimeScale   float64        `yaml:"time_scale" json:"time_scale"`
	Seed        int64          `yaml:"seed" json:"seed"`
	Vacuum      bool           `yaml:"vacuum" json:"vacuum"`
	Moon        bool           `yaml:"moon" json:"moon"`
	SampleEvery int            `yaml:"sample_every" json:"sample_every"`
	Bodies      []sim.BodySpec `yaml:"bodies,omitempty" json:"bodies,omitempty"`
	Shower      ShowerConfig   `yaml:"shower" json:"shower"`
	Log         logging.Config `yaml:"log" json:"-"`
}

// ShowerConfig spawns Count bodies at random points on a sphere Altitude
// scene units above the surface, heading inward with up to Spread radians
// of deviation from the radial direction.
type ShowerConfig struct {
	Count    int     `yaml:"count" json:"count"`
	Altitude float64 `yaml:"altitude" json:"altitude"` // scene units
	Speed    float64 `yaml:"speed" json:"speed"`       // m/s
	SizeMin  float64 `yaml:"size_min" json:"size_min"` // scene units
	SizeMax  float64 `yaml:"size_max" json:"size_max"`
	Spread   float64 `yaml:"spread" json:"spread"` // radians
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:  DefaultIntegrator,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		TimeScale:   DefaultTimeScale,
		SampleEvery: DefaultSampleEvery,
		Log: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a scenario file on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a scenario file on top of base, which is modified in place.
// Keys missing from the file keep the base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = append([]sim.BodySpec(nil), c.Bodies...)
	return &out
}

func (c *Config) Validate() error {
	if !positive(c.Dt) {
		return fmt.Errorf("dt %v: %w", c.Dt, ErrInvalidConfig)
	}
	if !positive(c.Duration) {
		return fmt.Errorf("duration %v: %w", c.Duration, ErrInvalidConfig)
	}
	if !positive(c.TimeScale) {
		return fmt.Errorf("time_scale %v: %w", c.TimeScale, ErrInvalidConfig)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample_every %d: %w", c.SampleEvery, ErrInvalidConfig)
	}
	for i, b := range c.Bodies {
		if !positive(b.Size) {
			return fmt.Errorf("bodies[%d].size %v: %w", i, b.Size, ErrInvalidConfig)
		}
	}
	if err := c.Shower.validate(); err != nil {
		return err
	}
	if len(c.Bodies) == 0 && c.Shower.Count == 0 {
		return fmt.Errorf("no bodies to spawn: %w", ErrInvalidConfig)
	}
	return nil
}

func (s ShowerConfig) validate() error {
	if s.Count < 0 {
		return fmt.Errorf("shower.count %d: %w", s.Count, ErrInvalidConfig)
	}
	if s.Count == 0 {
		return nil
	}
	if !positive(s.SizeMin) || s.SizeMax < s.SizeMin {
		return fmt.Errorf("shower size range [%v, %v]: %w", s.SizeMin, s.SizeMax, ErrInvalidConfig)
	}
	if s.Altitude < 0 || s.Speed < 0 || s.Spread < 0 {
		return fmt.Errorf("shower altitude, speed and spread must be non-negative: %w", ErrInvalidConfig)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
