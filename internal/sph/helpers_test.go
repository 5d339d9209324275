package sph_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/gomega"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/kernel"
	"github.com/tarinyoom/scarf/internal/neighbors"
	"github.com/tarinyoom/scarf/internal/sph"
)

func newSolver(p sph.Params, opts ...sph.Option) *sph.Solver {
	s, err := sph.New(p, kernel.Poly6{}, neighbors.Grid{Radius: p.SupportRadius}, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

// lattice places n particles on a jittered square lattice with its lower
// left corner at origin.
func lattice(n int, spacing float64, origin dynamo.Vec2, seed int64) *dynamo.State {
	rng := rand.New(rand.NewSource(seed))
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	x := dynamo.NewState(n, dynamo.Boundary{
		Min: origin,
		Max: origin.Add(dynamo.Vec2{X: float64(cols) * spacing, Y: float64(cols) * spacing}),
	}, 1.0)
	for i := range x.Positions {
		x.Positions[i] = origin.Add(dynamo.Vec2{
			X: float64(i%cols)*spacing + (rng.Float64()-0.5)*0.3*spacing,
			Y: float64(i/cols)*spacing + (rng.Float64()-0.5)*0.3*spacing,
		})
		x.Velocities[i] = dynamo.Vec2{X: rng.NormFloat64(), Y: rng.NormFloat64()}
	}
	return x
}

// poly6 evaluates the 2-D poly6 kernel from its closed form.
func poly6(r, radius float64) float64 {
	if r >= radius {
		return 0
	}
	d := radius*radius - r*r
	return 4.0 / (math.Pi * math.Pow(radius, 8)) * d * d * d
}
