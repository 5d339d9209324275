// Package dynamo provides core simulation primitives for particle systems.
//
// The package defines the fundamental types shared by the solver, the
// integrators and the run loop:
//
//   - [Vec2]: 2-D vector used for positions, velocities and accelerations
//   - [State]: particle positions and velocities plus carried configuration
//   - [Accelerator]: computes per-particle accelerations for a state
//   - [Integrator]: advances a state by one time increment
//
// # Example
//
//	solver, _ := sph.New(sph.DefaultParams(), kernel.Poly6{}, neighbors.Grid{Radius: 0.2})
//	next, err := solver.Step(state, 0.001)
//
// # Thread Safety
//
// States are plain values. Integrators and the sph solver never mutate the
// state they are given, so a State may be shared between goroutines as long
// as no caller writes to it.
package dynamo
