package metrics

import (
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Stability is the fraction of observed states whose positions and
// velocities are all finite and within threshold in every component.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x *dynamo.State, t float64) {
	s.samples++
	if !x.IsValid() || !s.bounded(x.Positions) || !s.bounded(x.Velocities) {
		s.violations++
	}
}

func (s *Stability) bounded(vs []dynamo.Vec2) bool {
	for _, v := range vs {
		if math.Abs(v.X) > s.threshold || math.Abs(v.Y) > s.threshold {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard returns the metric set attached to every command line run.
func Standard(mass, threshold float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewKineticEnergy(mass),
		NewMomentum(mass),
		NewMaxSpeed(),
		NewStability(threshold),
	}
}
