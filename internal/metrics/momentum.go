package metrics

import "github.com/tarinyoom/scarf/internal/dynamo"

// Total returns the summed linear momentum of x for equal particle masses.
func Total(x *dynamo.State, mass float64) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, v := range x.Velocities {
		p = p.Add(v)
	}
	return p.Scale(mass)
}

// Momentum reports the largest drift of total momentum from the first
// observed state. Body and boundary forces change momentum, so this is a
// measure of external forcing as much as of integration error.
type Momentum struct {
	name     string
	mass     float64
	initial  dynamo.Vec2
	maxDrift float64
	samples  int
}

func NewMomentum(mass float64) *Momentum {
	return &Momentum{
		name: "momentum_drift",
		mass: mass,
	}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(x *dynamo.State, t float64) {
	p := Total(x, m.mass)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	if drift := p.Sub(m.initial).Norm(); drift > m.maxDrift {
		m.maxDrift = drift
	}
}

func (m *Momentum) Value() float64 { return m.maxDrift }

func (m *Momentum) Reset() {
	m.initial = dynamo.Vec2{}
	m.maxDrift = 0
	m.samples = 0
}
