package config

import (
	"gopkg.in/gcfg.v1"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

const ExampleGcfgFile = `[Physics]
ParticleMass = 0.01
SupportRadius = 0.2
Stiffness = 100000
Exponent = 7
# BodyAccelerationY = 10

[Scene]
Kind = block
Count = 400
Spacing = 0.1
Jitter = 0.1
OriginX = 0.5
OriginY = 0.5
ReferenceDensity = 1

[Run]
Integrator = symplectic
Dt = 0.001
Duration = 1
SampleEvery = 10
Seed = 42`

// gcfg has no nested structs, so vectors are split into components.
type gcfgPhysics struct {
	ParticleMass      float64
	SupportRadius     float64
	KernelNorm        float64
	Stiffness         float64
	Exponent          float64
	BoundaryThreshold float64
	BoundaryStrength  float64
	BodyAccelerationX float64
	BodyAccelerationY float64
}

type gcfgScene struct {
	Kind             string
	Count            int
	Spacing          float64
	Jitter           float64
	OriginX          float64
	OriginY          float64
	VelocityX        float64
	VelocityY        float64
	MinX, MinY       float64
	MaxX, MaxY       float64
	ReferenceDensity float64
}

type gcfgRun struct {
	Integrator    string
	Kernel        string
	Search        string
	Dt            float64
	Duration      float64
	SampleEvery   int
	Workers       int
	ValidateState bool
	Seed          int64
}

type gcfgWrapper struct {
	Physics gcfgPhysics
	Scene   gcfgScene
	Run     gcfgRun
}

func wrap(c *Config) *gcfgWrapper {
	p, s, r := c.Physics, c.Scene, c.Run
	return &gcfgWrapper{
		Physics: gcfgPhysics{
			ParticleMass:      p.ParticleMass,
			SupportRadius:     p.SupportRadius,
			KernelNorm:        p.KernelNorm,
			Stiffness:         p.Stiffness,
			Exponent:          p.Exponent,
			BoundaryThreshold: p.BoundaryThreshold,
			BoundaryStrength:  p.BoundaryStrength,
			BodyAccelerationX: p.BodyAcceleration.X,
			BodyAccelerationY: p.BodyAcceleration.Y,
		},
		Scene: gcfgScene{
			Kind:             s.Kind,
			Count:            s.Count,
			Spacing:          s.Spacing,
			Jitter:           s.Jitter,
			OriginX:          s.Origin.X,
			OriginY:          s.Origin.Y,
			VelocityX:        s.Velocity.X,
			VelocityY:        s.Velocity.Y,
			MinX:             s.Boundary.Min.X,
			MinY:             s.Boundary.Min.Y,
			MaxX:             s.Boundary.Max.X,
			MaxY:             s.Boundary.Max.Y,
			ReferenceDensity: s.ReferenceDensity,
		},
		Run: gcfgRun{
			Integrator:    r.Integrator,
			Kernel:        r.Kernel,
			Search:        r.Search,
			Dt:            r.Dt,
			Duration:      r.Duration,
			SampleEvery:   r.SampleEvery,
			Workers:       r.Workers,
			ValidateState: r.ValidateState,
			Seed:          c.Seed,
		},
	}
}

func (w *gcfgWrapper) unwrap() *Config {
	p, s, r := w.Physics, w.Scene, w.Run
	c := &Config{Seed: r.Seed}

	c.Physics.ParticleMass = p.ParticleMass
	c.Physics.SupportRadius = p.SupportRadius
	c.Physics.KernelNorm = p.KernelNorm
	c.Physics.Stiffness = p.Stiffness
	c.Physics.Exponent = p.Exponent
	c.Physics.BoundaryThreshold = p.BoundaryThreshold
	c.Physics.BoundaryStrength = p.BoundaryStrength
	c.Physics.BodyAcceleration = dynamo.Vec2{X: p.BodyAccelerationX, Y: p.BodyAccelerationY}

	c.Scene.Kind = s.Kind
	c.Scene.Count = s.Count
	c.Scene.Spacing = s.Spacing
	c.Scene.Jitter = s.Jitter
	c.Scene.Origin = dynamo.Vec2{X: s.OriginX, Y: s.OriginY}
	c.Scene.Velocity = dynamo.Vec2{X: s.VelocityX, Y: s.VelocityY}
	c.Scene.Boundary = dynamo.Boundary{
		Min: dynamo.Vec2{X: s.MinX, Y: s.MinY},
		Max: dynamo.Vec2{X: s.MaxX, Y: s.MaxY},
	}
	c.Scene.ReferenceDensity = s.ReferenceDensity

	c.Run = RunConfig{
		Integrator:    r.Integrator,
		Kernel:        r.Kernel,
		Search:        r.Search,
		Dt:            r.Dt,
		Duration:      r.Duration,
		SampleEvery:   r.SampleEvery,
		Workers:       r.Workers,
		ValidateState: r.ValidateState,
	}
	return c
}

func loadGcfg(path string) (*Config, error) {
	w := wrap(DefaultConfig())
	if err := gcfg.ReadFileInto(w, path); err != nil {
		return nil, err
	}
	return w.unwrap(), nil
}
