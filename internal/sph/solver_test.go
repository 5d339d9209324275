package sph_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/kernel"
	"github.com/tarinyoom/scarf/internal/neighbors"
	"github.com/tarinyoom/scarf/internal/sph"
)

var _ = Describe("Params", func() {
	It("defaults to the reference constants", func() {
		p := sph.DefaultParams()
		Expect(p.Stiffness).To(Equal(100000.0))
		Expect(p.Exponent).To(Equal(7.0))
		Expect(p.BoundaryThreshold).To(Equal(0.5))
		Expect(p.BoundaryStrength).To(Equal(100.0))
		Expect(p.BodyAcceleration).To(Equal(dynamo.Vec2{X: 0, Y: 10}))
		Expect(p.Validate()).To(Succeed())
	})

	DescribeTable("rejects out of bounds values",
		func(mutate func(*sph.Params)) {
			p := sph.DefaultParams()
			mutate(&p)
			_, err := sph.New(p, kernel.Poly6{}, neighbors.Grid{Radius: 0.2})
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		},
		Entry("zero mass", func(p *sph.Params) { p.ParticleMass = 0 }),
		Entry("negative radius", func(p *sph.Params) { p.SupportRadius = -1 }),
		Entry("NaN threshold", func(p *sph.Params) { p.BoundaryThreshold = math.NaN() }),
		Entry("negative stiffness", func(p *sph.Params) { p.Stiffness = -1 }),
		Entry("infinite stiffness", func(p *sph.Params) { p.Stiffness = math.Inf(1) }),
		Entry("NaN stiffness", func(p *sph.Params) { p.Stiffness = math.NaN() }),
		Entry("infinite boundary strength", func(p *sph.Params) { p.BoundaryStrength = math.Inf(1) }),
		Entry("infinite body acceleration", func(p *sph.Params) { p.BodyAcceleration.Y = math.Inf(1) }),
	)

	It("requires a kernel and a neighbor search", func() {
		_, err := sph.New(sph.DefaultParams(), nil, neighbors.Grid{Radius: 0.2})
		Expect(err).To(HaveOccurred())
		_, err = sph.New(sph.DefaultParams(), kernel.Poly6{}, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Densities", func() {
	var (
		solver *sph.Solver
		p      sph.Params
		pos    []dynamo.Vec2
	)

	BeforeEach(func() {
		p = sph.DefaultParams()
		solver = newSolver(p)
		pos = []dynamo.Vec2{{X: 0, Y: 1}, {X: 0, Y: 1.1}}
	})

	It("adds the self term and exactly one shared pair term", func() {
		rho, err := solver.Densities(neighbors.FromLists([][]int{{1}, {0}}), pos)
		Expect(err).NotTo(HaveOccurred())

		self := p.ParticleMass * poly6(0, p.SupportRadius)
		pair := p.ParticleMass * poly6(0.1, p.SupportRadius)
		Expect(rho).To(HaveLen(2))
		Expect(rho[0]).To(BeNumerically("~", self+pair, 1e-12))
		Expect(rho[1]).To(BeNumerically("~", self+pair, 1e-12))
	})

	It("counts a pair reported only by the higher index", func() {
		sym, err := solver.Densities(neighbors.FromLists([][]int{{1}, {0}}), pos)
		Expect(err).NotTo(HaveOccurred())
		asym, err := solver.Densities(neighbors.FromLists([][]int{{}, {0}}), pos)
		Expect(err).NotTo(HaveOccurred())
		Expect(asym).To(Equal(sym))
	})

	It("never double counts repeated reports", func() {
		sym, _ := solver.Densities(neighbors.FromLists([][]int{{1}, {0}}), pos)
		dup, err := solver.Densities(neighbors.FromLists([][]int{{1, 1, 0}, {0, 0}}), pos)
		Expect(err).NotTo(HaveOccurred())
		Expect(dup).To(Equal(sym))
	})

	It("is at least the self contribution for isolated particles", func() {
		rho, err := solver.Densities(neighbors.FromLists([][]int{{}, {}}), pos)
		Expect(err).NotTo(HaveOccurred())
		Expect(rho[0]).To(Equal(p.ParticleMass * poly6(0, p.SupportRadius)))
	})

	It("fails fast on out of range neighbor indices", func() {
		_, err := solver.Densities(neighbors.FromLists([][]int{{2}, {0}}), pos)
		Expect(errors.Is(err, dynamo.ErrNeighborIndex)).To(BeTrue())
	})
})

var _ = Describe("Pressures", func() {
	var solver *sph.Solver

	BeforeEach(func() {
		solver = newSolver(sph.DefaultParams())
	})

	DescribeTable("follow the sign of the density excess",
		func(rho float64, sign int) {
			press := solver.Pressures(1.2, []float64{rho})
			switch sign {
			case 0:
				Expect(press[0]).To(BeZero())
			case 1:
				Expect(press[0]).To(BeNumerically(">", 0))
			case -1:
				Expect(press[0]).To(BeNumerically("<", 0))
			}
		},
		Entry("at reference", 1.2, 0),
		Entry("compressed", 1.3, 1),
		Entry("rarefied", 1.1, -1),
		Entry("near vacuum", 0.01, -1),
	)

	It("uses the stiff power law", func() {
		press := solver.Pressures(1.0, []float64{1.1})
		Expect(press[0]).To(BeNumerically("~", 100000*(math.Pow(1.1, 7)-1), 1e-6))
	})

	It("propagates non-finite densities", func() {
		press := solver.Pressures(1.0, []float64{math.NaN(), math.Inf(1)})
		Expect(math.IsNaN(press[0])).To(BeTrue())
		Expect(math.IsInf(press[1], 1)).To(BeTrue())
	})
})

var _ = Describe("BoundaryForce", func() {
	var solver *sph.Solver

	BeforeEach(func() {
		solver = newSolver(sph.DefaultParams())
	})

	It("is exactly zero at and above the threshold", func() {
		for _, y := range []float64{0.5, 0.50001, 1, 100} {
			Expect(solver.BoundaryForce(dynamo.Vec2{X: 3, Y: y})).To(Equal(dynamo.Vec2{}))
		}
	})

	It("grows without bound as height approaches zero", func() {
		prev := 0.0
		for _, y := range []float64{0.49, 0.4, 0.3, 0.2, 0.1, 0.05, 0.01, 0.001} {
			f := solver.BoundaryForce(dynamo.Vec2{X: 1, Y: y})
			Expect(f.X).To(BeZero())
			mag := math.Abs(f.Y)
			Expect(mag).To(BeNumerically(">", prev), "height %g", y)
			prev = mag
		}
		Expect(prev).To(BeNumerically(">", 1e10))
	})

	It("matches the penalty formula", func() {
		f := solver.BoundaryForce(dynamo.Vec2{Y: 0.25})
		Expect(f.Y).To(BeNumerically("~", -100*(1/0.25-1/0.5)/(0.25*0.25), 1e-9))
	})
})

var _ = Describe("Accelerations", func() {
	It("applies only the body acceleration to an isolated particle far from the boundary", func() {
		solver := newSolver(sph.DefaultParams())
		pos := []dynamo.Vec2{{X: 0, Y: 2}}
		lookup := neighbors.FromLists([][]int{{}})
		rho, _ := solver.Densities(lookup, pos)
		acc, err := solver.Accelerations(lookup, pos, rho, solver.Pressures(1.0, rho))
		Expect(err).NotTo(HaveOccurred())
		Expect(acc).To(Equal([]dynamo.Vec2{{X: 0, Y: 10}}))
	})

	It("computes a zero self pressure term", func() {
		solver := newSolver(sph.DefaultParams())
		pos := []dynamo.Vec2{{X: 0.3, Y: 0.7}}
		Expect(solver.PairAcceleration(pos, []float64{0.5}, []float64{-100}, 0, 0)).To(Equal(dynamo.Vec2{}))
	})

	It("adds each pair term to i and subtracts it from j", func() {
		solver := newSolver(sph.DefaultParams())
		pos := []dynamo.Vec2{{X: 0, Y: 1}, {X: 0.05, Y: 1.08}}
		rho := []float64{1.1, 0.9}
		press := solver.Pressures(1.0, rho)

		acc, err := solver.Accelerations(neighbors.FromLists([][]int{{1}, {0}}), pos, rho, press)
		Expect(err).NotTo(HaveOccurred())

		pair := solver.PairAcceleration(pos, rho, press, 0, 1)
		body := sph.DefaultParams().BodyAcceleration
		Expect(acc[0]).To(Equal(body.Add(pair)))
		Expect(acc[1]).To(Equal(body.Sub(pair)))
	})

	It("conserves momentum under pair forces", func() {
		p := sph.DefaultParams()
		p.BodyAcceleration = dynamo.Vec2{}
		for _, k := range []kernel.Kernel{kernel.Poly6{}, kernel.CubicSpline{}} {
			solver, err := sph.New(p, k, neighbors.Grid{Radius: p.SupportRadius})
			Expect(err).NotTo(HaveOccurred())

			// all heights above the boundary threshold
			x := lattice(300, 0.1, dynamo.Vec2{X: 0, Y: 1}, 11)
			fields, err := solver.Evaluate(x)
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Pairs).To(BeNumerically(">", 0))

			var total dynamo.Vec2
			scale := 0.0
			for _, a := range fields.Accelerations {
				total = total.Add(a.Scale(p.ParticleMass))
				scale += a.Scale(p.ParticleMass).Norm()
			}
			Expect(scale).To(BeNumerically(">", 0))
			Expect(total.Norm()).To(BeNumerically("<", 1e-9*scale))
		}
	})

	It("rejects non-positive densities", func() {
		solver := newSolver(sph.DefaultParams())
		pos := []dynamo.Vec2{{X: 0, Y: 1}, {X: 0, Y: 1.1}}
		_, err := solver.Accelerations(neighbors.FromLists([][]int{{1}, {0}}), pos, []float64{0, 1}, []float64{0, 0})
		Expect(errors.Is(err, dynamo.ErrNonPositiveDensity)).To(BeTrue())
	})

	It("lets NaN densities propagate", func() {
		solver := newSolver(sph.DefaultParams())
		pos := []dynamo.Vec2{{X: 0, Y: 1}, {X: 0, Y: 1.1}}
		rho := []float64{math.NaN(), 1}
		acc, err := solver.Accelerations(neighbors.FromLists([][]int{{1}, {0}}), pos, rho, solver.Pressures(1, rho))
		Expect(err).NotTo(HaveOccurred())
		Expect(acc[0].IsFinite()).To(BeFalse())
	})

	It("rejects mismatched field lengths", func() {
		solver := newSolver(sph.DefaultParams())
		_, err := solver.Accelerations(neighbors.FromLists([][]int{{}}), []dynamo.Vec2{{}}, []float64{1, 1}, []float64{0})
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})
})

var _ = Describe("Step", func() {
	var solver *sph.Solver

	BeforeEach(func() {
		solver = newSolver(sph.DefaultParams())
	})

	It("moves positions with the pre-step velocities", func() {
		x := lattice(50, 0.1, dynamo.Vec2{X: 0, Y: 1}, 3)
		h := 0.001
		next, err := solver.Step(x, h)
		Expect(err).NotTo(HaveOccurred())
		for i := range x.Positions {
			Expect(next.Positions[i]).To(Equal(x.Positions[i].Add(x.Velocities[i].Scale(h))))
		}
	})

	It("moves velocities with the freshly computed accelerations", func() {
		x := lattice(50, 0.1, dynamo.Vec2{X: 0, Y: 1}, 3)
		h := 0.001
		acc, err := solver.Derive(x)
		Expect(err).NotTo(HaveOccurred())
		next, err := solver.Step(x, h)
		Expect(err).NotTo(HaveOccurred())
		for i := range x.Velocities {
			Expect(next.Velocities[i]).To(Equal(x.Velocities[i].Add(acc[i].Scale(h))))
		}
	})

	It("never mutates its input and is deterministic", func() {
		x := lattice(80, 0.1, dynamo.Vec2{X: 0, Y: 0.2}, 5)
		before := x.Clone()

		a, err := solver.Step(x, 0.001)
		Expect(err).NotTo(HaveOccurred())
		b, err := solver.Step(x, 0.001)
		Expect(err).NotTo(HaveOccurred())

		Expect(x).To(Equal(before))
		Expect(a).To(Equal(b))
	})

	It("carries boundary and reference density unchanged", func() {
		x := lattice(10, 0.1, dynamo.Vec2{X: 0, Y: 1}, 1)
		x.ReferenceDensity = 1.7
		next, err := solver.Step(x, 0.001)
		Expect(err).NotTo(HaveOccurred())
		Expect(next.Boundary).To(Equal(x.Boundary))
		Expect(next.ReferenceDensity).To(Equal(1.7))
		Expect(next.Len()).To(Equal(x.Len()))
	})

	It("returns no state when the step fails", func() {
		bad := &dynamo.State{Positions: make([]dynamo.Vec2, 2), Velocities: make([]dynamo.Vec2, 3)}
		next, err := solver.Step(bad, 0.001)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		Expect(next).To(BeNil())
	})

	It("runs the two particle scenario", func() {
		x := &dynamo.State{
			Positions:        []dynamo.Vec2{{X: 0, Y: 0}, {X: 0, Y: 0.1}},
			Velocities:       []dynamo.Vec2{{}, {}},
			ReferenceDensity: 1.0,
		}
		h := 0.01

		next, err := solver.Step(x, h)
		Expect(err).NotTo(HaveOccurred())

		// positions do not move from rest
		Expect(next.Positions).To(Equal(x.Positions))

		gravityOnly := h * 10
		lower := next.Velocities[0]
		upper := next.Velocities[1]
		Expect(lower.X).To(BeZero())
		Expect(upper.X).To(BeZero())
		Expect(upper.IsFinite()).To(BeTrue())
		Expect(upper.Y).NotTo(Equal(gravityOnly))
		// the lower particle sits on the boundary, where the penalty diverges
		// and the divergence is carried into the state
		Expect(math.IsInf(lower.Y, 0) || math.IsNaN(lower.Y)).To(BeTrue())
	})

	It("applies a finite boundary push just above the floor", func() {
		x := &dynamo.State{
			Positions:        []dynamo.Vec2{{X: 0, Y: 0.25}},
			Velocities:       []dynamo.Vec2{{}},
			ReferenceDensity: 1.0,
		}
		h := 0.01

		next, err := solver.Step(x, h)
		Expect(err).NotTo(HaveOccurred())
		Expect(next.IsValid()).To(BeTrue())

		// k (1/y - 1/d0) / y^2 = 100 * 2 / 0.0625
		Expect(next.Velocities[0].X).To(BeZero())
		Expect(next.Velocities[0].Y).To(BeNumerically("~", h*(10-3200), 1e-9))
	})
})

var _ = Describe("WithWorkers", func() {
	It("matches the serial result", func() {
		x := lattice(2000, 0.1, dynamo.Vec2{X: 0, Y: 0.3}, 9)
		serial := newSolver(sph.DefaultParams())
		parallel := newSolver(sph.DefaultParams(), sph.WithWorkers(4))

		fs, err := serial.Evaluate(x)
		Expect(err).NotTo(HaveOccurred())
		fp, err := parallel.Evaluate(x)
		Expect(err).NotTo(HaveOccurred())

		Expect(fp.Pairs).To(Equal(fs.Pairs))
		for i := range fs.Densities {
			Expect(fp.Densities[i]).To(BeNumerically("~", fs.Densities[i], 1e-12*fs.Densities[i]))
			d := fp.Accelerations[i].Sub(fs.Accelerations[i]).Norm()
			Expect(d).To(BeNumerically("<=", 1e-7*(1+fs.Accelerations[i].Norm())))
		}
	})

	It("is deterministic for a fixed worker count", func() {
		x := lattice(2000, 0.1, dynamo.Vec2{X: 0, Y: 0.3}, 9)
		solver := newSolver(sph.DefaultParams(), sph.WithWorkers(4))
		a, err := solver.Step(x, 0.0005)
		Expect(err).NotTo(HaveOccurred())
		b, err := solver.Step(x, 0.0005)
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})
})
