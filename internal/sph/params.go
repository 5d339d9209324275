package sph

import (
	"fmt"
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

const (
	DefaultParticleMass      = 0.01
	DefaultSupportRadius     = 0.2
	DefaultKernelNorm        = 1.0
	DefaultStiffness         = 100000.0
	DefaultExponent          = 7.0
	DefaultBoundaryThreshold = 0.5
	DefaultBoundaryStrength  = 100.0
	DefaultBodyAccelY        = 10.0
)

// Params holds the physical constants of a simulation. It is passed by value
// and never modified by the solver.
type Params struct {
	ParticleMass      float64     `json:"particle_mass" yaml:"particle_mass"`
	SupportRadius     float64     `json:"support_radius" yaml:"support_radius"`
	KernelNorm        float64     `json:"kernel_norm" yaml:"kernel_norm"`
	Stiffness         float64     `json:"stiffness" yaml:"stiffness"`
	Exponent          float64     `json:"exponent" yaml:"exponent"`
	BoundaryThreshold float64     `json:"boundary_threshold" yaml:"boundary_threshold"`
	BoundaryStrength  float64     `json:"boundary_strength" yaml:"boundary_strength"`
	BodyAcceleration  dynamo.Vec2 `json:"body_acceleration" yaml:"body_acceleration"`
}

func DefaultParams() Params {
	return Params{
		ParticleMass:      DefaultParticleMass,
		SupportRadius:     DefaultSupportRadius,
		KernelNorm:        DefaultKernelNorm,
		Stiffness:         DefaultStiffness,
		Exponent:          DefaultExponent,
		BoundaryThreshold: DefaultBoundaryThreshold,
		BoundaryStrength:  DefaultBoundaryStrength,
		BodyAcceleration:  dynamo.Vec2{Y: DefaultBodyAccelY},
	}
}

func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"particle_mass", p.ParticleMass},
		{"support_radius", p.SupportRadius},
		{"kernel_norm", p.KernelNorm},
		{"exponent", p.Exponent},
		{"boundary_threshold", p.BoundaryThreshold},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", dynamo.ErrParameterBounds, f.name, f.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"stiffness", p.Stiffness},
		{"boundary_strength", p.BoundaryStrength},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be non-negative and finite, got %g", dynamo.ErrParameterBounds, f.name, f.v)
		}
	}
	if !p.BodyAcceleration.IsFinite() {
		return fmt.Errorf("%w: body_acceleration must be finite", dynamo.ErrParameterBounds)
	}
	return nil
}
