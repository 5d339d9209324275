package sph

import (
	"fmt"
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/integrators"
	"github.com/tarinyoom/scarf/internal/kernel"
	"github.com/tarinyoom/scarf/internal/neighbors"
)

// minChunk is the smallest range handed to a worker.
const minChunk = 256

// Solver evaluates SPH fields and advances states. It holds no per-step
// data and is safe for concurrent use.
type Solver struct {
	params  Params
	kernel  kernel.Kernel
	search  neighbors.Searcher
	workers int
}

type Option func(*Solver)

// WithWorkers sets how many goroutines share each pass. Values below 2 run
// serially.
func WithWorkers(n int) Option {
	return func(s *Solver) { s.workers = n }
}

func New(p Params, k kernel.Kernel, search neighbors.Searcher, opts ...Option) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if k == nil || search == nil {
		return nil, fmt.Errorf("sph: kernel and neighbor search are required")
	}
	s := &Solver{params: p, kernel: k, search: search, workers: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) Params() Params { return s.params }

// Fields holds the step-local quantities derived from one state.
type Fields struct {
	Densities     []float64
	Pressures     []float64
	Accelerations []dynamo.Vec2
	Pairs         int
}

// Evaluate runs the full pipeline for x: neighbor pairs, densities,
// pressures and accelerations.
func (s *Solver) Evaluate(x *dynamo.State) (*Fields, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	lookup := s.search.Map(x.Positions, x.Boundary)
	pairs, err := neighbors.Pairs(lookup, x.Len())
	if err != nil {
		return nil, err
	}

	rho := s.densities(pairs, x.Positions)
	press := s.Pressures(x.ReferenceDensity, rho)
	acc, err := s.accelerations(pairs, x.Positions, rho, press)
	if err != nil {
		return nil, err
	}

	return &Fields{Densities: rho, Pressures: press, Accelerations: acc, Pairs: len(pairs)}, nil
}

// Derive implements dynamo.Accelerator.
func (s *Solver) Derive(x *dynamo.State) ([]dynamo.Vec2, error) {
	f, err := s.Evaluate(x)
	if err != nil {
		return nil, err
	}
	return f.Accelerations, nil
}

// Step advances x by h with semi-implicit Euler. x is not modified; on
// error no state is returned.
func (s *Solver) Step(x *dynamo.State, h float64) (*dynamo.State, error) {
	return integrators.SemiImplicitEuler{}.Step(s, x, h)
}

// Densities sums kernel-weighted mass over each particle and its neighbors.
func (s *Solver) Densities(lookup neighbors.Lookup, positions []dynamo.Vec2) ([]float64, error) {
	pairs, err := neighbors.Pairs(lookup, len(positions))
	if err != nil {
		return nil, err
	}
	return s.densities(pairs, positions), nil
}

func (s *Solver) densities(pairs []neighbors.Pair, positions []dynamo.Vec2) []float64 {
	n := len(positions)
	m, r, norm := s.params.ParticleMass, s.params.SupportRadius, s.params.KernelNorm
	rho := make([]float64, n)

	dynamo.ParallelFor(n, minChunk, s.workers, func(_, start, end int) {
		for i := start; i < end; i++ {
			rho[i] = m * s.kernel.Value(positions[i], positions[i], r, norm)
		}
	})

	s.scatter(len(pairs), n, func(buf []float64, start, end int) {
		for _, pr := range pairs[start:end] {
			v := m * s.kernel.Value(positions[pr.I], positions[pr.J], r, norm)
			buf[pr.I] += v
			buf[pr.J] += v
		}
	}, func(partial []float64) {
		for i, v := range partial {
			rho[i] += v
		}
	})

	return rho
}

// Pressures applies the equation of state
// p = stiffness * (rho^exponent - rho0^exponent). Densities below the
// reference give negative pressure.
func (s *Solver) Pressures(referenceDensity float64, densities []float64) []float64 {
	k, exp := s.params.Stiffness, s.params.Exponent
	ref := math.Pow(referenceDensity, exp)
	press := make([]float64, len(densities))
	for i, rho := range densities {
		press[i] = k * (math.Pow(rho, exp) - ref)
	}
	return press
}

// BoundaryForce is the one-sided penalty from the boundary at y = 0. It is
// exactly zero at or beyond the threshold and diverges as y approaches 0.
func (s *Solver) BoundaryForce(position dynamo.Vec2) dynamo.Vec2 {
	d0, k := s.params.BoundaryThreshold, s.params.BoundaryStrength
	if position.Y >= d0 {
		return dynamo.Vec2{}
	}
	d := position.Y
	return dynamo.Vec2{Y: -k * (1/d - 1/d0) / (d * d)}
}

// PairAcceleration is the pressure-gradient acceleration particle i
// receives from j.
func (s *Solver) PairAcceleration(positions []dynamo.Vec2, densities, pressures []float64, i, j int) dynamo.Vec2 {
	grad := s.kernel.Gradient(positions[i], positions[j], s.params.SupportRadius, s.params.KernelNorm)
	l := pressures[i] / (densities[i] * densities[i])
	r := pressures[j] / (densities[j] * densities[j])
	return grad.Scale(s.params.ParticleMass * (l + r))
}

// Accelerations combines body acceleration, boundary force, the self
// pressure term and symmetric pair pressure terms.
func (s *Solver) Accelerations(lookup neighbors.Lookup, positions []dynamo.Vec2, densities, pressures []float64) ([]dynamo.Vec2, error) {
	n := len(positions)
	if len(densities) != n || len(pressures) != n {
		return nil, fmt.Errorf("%w: %d positions, %d densities, %d pressures",
			dynamo.ErrDimensionMismatch, n, len(densities), len(pressures))
	}
	pairs, err := neighbors.Pairs(lookup, n)
	if err != nil {
		return nil, err
	}
	return s.accelerations(pairs, positions, densities, pressures)
}

func (s *Solver) accelerations(pairs []neighbors.Pair, positions []dynamo.Vec2, densities, pressures []float64) ([]dynamo.Vec2, error) {
	for i, rho := range densities {
		if rho <= 0 {
			return nil, fmt.Errorf("%w: particle %d has density %g", dynamo.ErrNonPositiveDensity, i, rho)
		}
	}

	n := len(positions)
	acc := make([]dynamo.Vec2, n)

	dynamo.ParallelFor(n, minChunk, s.workers, func(_, start, end int) {
		for i := start; i < end; i++ {
			a := s.params.BodyAcceleration
			a = a.Add(s.BoundaryForce(positions[i]))
			a = a.Add(s.PairAcceleration(positions, densities, pressures, i, i))
			acc[i] = a
		}
	})

	// x and y components share one buffer: [ax0, ay0, ax1, ay1, ...]
	s.scatter(len(pairs), 2*n, func(buf []float64, start, end int) {
		for _, pr := range pairs[start:end] {
			a := s.PairAcceleration(positions, densities, pressures, pr.I, pr.J)
			buf[2*pr.I] += a.X
			buf[2*pr.I+1] += a.Y
			buf[2*pr.J] -= a.X
			buf[2*pr.J+1] -= a.Y
		}
	}, func(partial []float64) {
		for i := range acc {
			acc[i].X += partial[2*i]
			acc[i].Y += partial[2*i+1]
		}
	})

	return acc, nil
}

// scatter runs accumulate over [0, items) in chunks, each worker writing
// into its own zeroed buffer of length size, then hands the buffers to
// reduce in worker order.
func (s *Solver) scatter(items, size int, accumulate func(buf []float64, start, end int), reduce func(partial []float64)) {
	workers := dynamo.Chunks(items, minChunk, s.workers)
	bufs := make([][]float64, workers)
	for w := range bufs {
		bufs[w] = make([]float64, size)
	}

	dynamo.ParallelFor(items, minChunk, s.workers, func(w, start, end int) {
		accumulate(bufs[w], start, end)
	})

	for _, buf := range bufs {
		reduce(buf)
	}
}
