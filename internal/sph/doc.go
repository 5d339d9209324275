// Package sph implements one explicit time step of a 2-D smoothed particle
// hydrodynamics fluid.
//
// A step runs strictly in order: neighbor pairs, densities, pressures,
// accelerations, integration. Each stage reads only the immutable inputs
// and the previous stage's output, and nothing is cached between steps.
//
//	solver, err := sph.New(sph.DefaultParams(), kernel.Poly6{}, neighbors.Grid{Radius: 0.2})
//	next, err := solver.Step(state, 0.001)
//
// # Pair Accumulation
//
// Every unordered neighbor pair is evaluated once. Its density contribution
// is added to both particles and its pressure acceleration is added to the
// lower index and subtracted from the higher one, so internal pressure
// forces cancel exactly in the total momentum.
//
// # Parallelism
//
// [WithWorkers] splits the per-particle passes by particle range and the
// pair passes by pair range into per-worker buffers, reduced in worker
// order afterwards. Results are deterministic for a fixed worker count.
package sph
