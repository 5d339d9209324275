package config

import (
	"sort"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/scene"
	"github.com/tarinyoom/scarf/internal/sph"
)

func box(w, h float64) dynamo.Boundary {
	return dynamo.Boundary{Max: dynamo.Vec2{X: w, Y: h}}
}

func preset(s scene.Spec, dt, duration float64) *Config {
	return &Config{
		Physics: sph.DefaultParams(),
		Scene:   s,
		Run: RunConfig{
			Integrator:    "symplectic",
			Kernel:        "poly6",
			Search:        "grid",
			Dt:            dt,
			Duration:      duration,
			SampleEvery:   DefaultSampleEvery,
			ValidateState: true,
		},
		Seed: DefaultSeed,
	}
}

var Presets = map[string]*Config{
	// two particles, one of them at height zero
	"pair": preset(scene.Spec{Kind: "pair", Spacing: 0.1, ReferenceDensity: 1}, 0.01, 0.01),

	"dam": preset(scene.Spec{
		Kind: "block", Count: 400, Spacing: 0.1, Jitter: 0.05,
		Origin: dynamo.Vec2{X: 0.6, Y: 0.6}, Boundary: box(6, 4), ReferenceDensity: 1,
	}, 0.0005, 0.5),

	"column": preset(scene.Spec{
		Kind: "column", Count: 200, Spacing: 0.1,
		Origin: dynamo.Vec2{X: 1.0, Y: 0.6}, Boundary: box(3, 4), ReferenceDensity: 1,
	}, 0.0005, 0.5),

	"rain": preset(scene.Spec{
		Kind: "random", Count: 300,
		Boundary: dynamo.Boundary{Min: dynamo.Vec2{X: 0, Y: 0.6}, Max: dynamo.Vec2{X: 4, Y: 3}}, ReferenceDensity: 1,
	}, 0.001, 1.0),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
