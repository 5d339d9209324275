package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/integrators"
	"github.com/tarinyoom/scarf/internal/kernel"
	"github.com/tarinyoom/scarf/internal/neighbors"
	"github.com/tarinyoom/scarf/internal/scene"
	"github.com/tarinyoom/scarf/internal/sph"
)

const (
	DefaultDt          = 0.001
	DefaultDuration    = 1.0
	DefaultSampleEvery = 10
	DefaultSeed        = 42
)

type Config struct {
	Physics sph.Params `yaml:"physics"`
	Scene   scene.Spec `yaml:"scene"`
	Run     RunConfig  `yaml:"run"`
	Seed    int64      `yaml:"seed"`
}

type RunConfig struct {
	Integrator    string  `yaml:"integrator"`
	Kernel        string  `yaml:"kernel"`
	Search        string  `yaml:"search"`
	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	SampleEvery   int     `yaml:"sample_every"`
	Workers       int     `yaml:"workers"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() *Config {
	return &Config{
		Physics: sph.DefaultParams(),
		Scene: scene.Spec{
			Kind:             "block",
			Count:            scene.DefaultCount,
			Spacing:          scene.DefaultSpacing,
			Origin:           dynamo.Vec2{X: 0.5, Y: 0.5},
			ReferenceDensity: 1.0,
		},
		Run: RunConfig{
			Integrator:    "symplectic",
			Kernel:        "poly6",
			Search:        "grid",
			Dt:            DefaultDt,
			Duration:      DefaultDuration,
			SampleEvery:   DefaultSampleEvery,
			ValidateState: true,
		},
		Seed: DefaultSeed,
	}
}

// Load reads a YAML config, or a git-config style file when path ends in
// .gcfg or .ini. Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gcfg", ".ini":
		return loadGcfg(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params returns the physical constants for the solver.
func (c *Config) Params() sph.Params {
	return c.Physics
}

// Sim returns the run loop settings.
func (c *Config) Sim() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Run.Dt,
		Duration:      c.Run.Duration,
		SampleEvery:   c.Run.SampleEvery,
		ValidateState: c.Run.ValidateState,
	}
}

// State builds the initial state described by the scene section.
func (c *Config) State() (*dynamo.State, error) {
	return scene.Build(c.Scene, c.Seed)
}

// Solver assembles the accelerator and integrator named by the run section.
func (c *Config) Solver() (*sph.Solver, dynamo.Integrator, error) {
	k, err := kernel.ByName(c.Run.Kernel)
	if err != nil {
		return nil, nil, err
	}
	search, err := neighbors.ByName(c.Run.Search, c.Physics.SupportRadius)
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.ByName(c.Run.Integrator)
	if err != nil {
		return nil, nil, err
	}

	var opts []sph.Option
	if c.Run.Workers > 0 {
		opts = append(opts, sph.WithWorkers(c.Run.Workers))
	}
	solver, err := sph.New(c.Physics, k, search, opts...)
	if err != nil {
		return nil, nil, err
	}
	return solver, integ, nil
}

func (c *Config) Validate() error {
	if !(c.Run.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %g", c.Run.Dt)
	}
	if !(c.Run.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %g", c.Run.Duration)
	}
	if c.Run.SampleEvery < 0 {
		return fmt.Errorf("sample_every must not be negative, got %d", c.Run.SampleEvery)
	}
	if c.Run.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Run.Workers)
	}
	if _, _, err := c.Solver(); err != nil {
		return err
	}
	for _, k := range scene.Kinds() {
		if k == c.Scene.Kind {
			return nil
		}
	}
	return fmt.Errorf("unknown scene kind: %q", c.Scene.Kind)
}
