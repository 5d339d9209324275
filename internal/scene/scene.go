// Package scene builds initial particle configurations.
package scene

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

const (
	DefaultSpacing = 0.1
	DefaultCount   = 400
)

// Spec describes an initial configuration.
type Spec struct {
	Kind             string          `yaml:"kind"`
	Count            int             `yaml:"count"`
	Spacing          float64         `yaml:"spacing"`
	Jitter           float64         `yaml:"jitter"`
	Origin           dynamo.Vec2     `yaml:"origin"`
	Velocity         dynamo.Vec2     `yaml:"velocity"`
	Boundary         dynamo.Boundary `yaml:"boundary"`
	ReferenceDensity float64         `yaml:"reference_density"`
}

type builder func(s Spec, rng *rand.Rand) []dynamo.Vec2

var kinds = map[string]builder{
	"pair":   pair,
	"block":  block,
	"column": column,
	"random": random,
}

func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Build returns a fresh state for s. The same spec and seed always give the
// same state.
func Build(s Spec, seed int64) (*dynamo.State, error) {
	fn, ok := kinds[s.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown scene kind: %q (available: %v)", s.Kind, Kinds())
	}
	if s.Count <= 0 {
		s.Count = DefaultCount
	}
	if s.Spacing <= 0 {
		s.Spacing = DefaultSpacing
	}
	if s.ReferenceDensity == 0 {
		s.ReferenceDensity = 1.0
	}

	rng := rand.New(rand.NewSource(seed))
	positions := fn(s, rng)

	b := s.Boundary
	if b.Empty() {
		b = enclose(positions, s.Spacing)
	}

	x := dynamo.NewState(len(positions), b, s.ReferenceDensity)
	copy(x.Positions, positions)
	for i := range x.Velocities {
		x.Velocities[i] = s.Velocity
	}
	return x, nil
}

// pair is two particles stacked vertically, one spacing apart.
func pair(s Spec, _ *rand.Rand) []dynamo.Vec2 {
	return []dynamo.Vec2{
		s.Origin,
		s.Origin.Add(dynamo.Vec2{Y: s.Spacing}),
	}
}

// block is a dam-break lattice, as square as the count allows.
func block(s Spec, rng *rand.Rand) []dynamo.Vec2 {
	cols := int(math.Ceil(math.Sqrt(float64(s.Count))))
	return lattice(s, cols, rng)
}

// column is a lattice four particles wide.
func column(s Spec, rng *rand.Rand) []dynamo.Vec2 {
	return lattice(s, min(4, s.Count), rng)
}

func lattice(s Spec, cols int, rng *rand.Rand) []dynamo.Vec2 {
	ps := make([]dynamo.Vec2, s.Count)
	for i := range ps {
		r, c := i/cols, i%cols
		ps[i] = s.Origin.Add(dynamo.Vec2{
			X: float64(c)*s.Spacing + (rng.Float64()-0.5)*s.Jitter*s.Spacing,
			Y: float64(r)*s.Spacing + (rng.Float64()-0.5)*s.Jitter*s.Spacing,
		})
	}
	return ps
}

// random scatters particles uniformly over the boundary, or over a square
// of the block's size when no boundary is given.
func random(s Spec, rng *rand.Rand) []dynamo.Vec2 {
	b := s.Boundary
	if b.Empty() {
		side := math.Ceil(math.Sqrt(float64(s.Count))) * s.Spacing
		b = dynamo.Boundary{Min: s.Origin, Max: s.Origin.Add(dynamo.Vec2{X: side, Y: side})}
	}
	size := b.Size()
	ps := make([]dynamo.Vec2, s.Count)
	for i := range ps {
		ps[i] = b.Min.Add(dynamo.Vec2{X: rng.Float64() * size.X, Y: rng.Float64() * size.Y})
	}
	return ps
}

// enclose returns the bounding box of ps padded by margin on every side,
// never extending below y = 0 where the boundary wall sits.
func enclose(ps []dynamo.Vec2, margin float64) dynamo.Boundary {
	if len(ps) == 0 {
		return dynamo.Boundary{}
	}
	b := dynamo.Boundary{Min: ps[0], Max: ps[0]}
	for _, p := range ps[1:] {
		b.Min.X, b.Min.Y = math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y)
		b.Max.X, b.Max.Y = math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y)
	}
	b.Min = b.Min.Sub(dynamo.Vec2{X: margin, Y: margin})
	b.Max = b.Max.Add(dynamo.Vec2{X: margin, Y: margin})
	if b.Min.Y < 0 && ps[0].Y >= 0 {
		b.Min.Y = 0
	}
	return b
}
