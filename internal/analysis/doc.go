// Package analysis characterizes stored and live particle runs.
//
//   - [PowerSpectrum]: spectrum of a sampled series such as kinetic energy
//   - [DominantFrequency]: strongest non-zero frequency of a series
//   - [LyapunovExponent]: growth rate of a small perturbation
//   - [ParticlePhase]: one particle's height against vertical velocity
//
// # Sensitivity
//
// A positive exponent means nearby initial states separate exponentially:
//
//	lambda, err := analysis.LyapunovExponent(ctx, solver, integ, x0, dt, duration, 1e-8)
//	if lambda > 0 {
//	    // small perturbations grow
//	}
package analysis
