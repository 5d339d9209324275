package metrics

import (
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Kinetic returns the total kinetic energy of x for equal particle masses.
func Kinetic(x *dynamo.State, mass float64) float64 {
	var sum float64
	for _, v := range x.Velocities {
		sum += v.Norm2()
	}
	return 0.5 * mass * sum
}

// KineticEnergy reports the mean total kinetic energy over observed states.
type KineticEnergy struct {
	name    string
	mass    float64
	samples int
	total   float64
}

func NewKineticEnergy(mass float64) *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
		mass: mass,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(x *dynamo.State, t float64) {
	e.total += Kinetic(x, e.mass)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// MaxSpeed reports the largest particle speed seen in any observed state.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(x *dynamo.State, t float64) {
	for _, v := range x.Velocities {
		if s := v.Norm(); s > m.max || math.IsNaN(s) {
			m.max = s
		}
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
