package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent of the particle
// system by trajectory separation. The first particle's x position is
// displaced by perturbation; after every step the separation in phase space
// is measured and rescaled back to perturbation.
//
//	λ ≈ Σ ln(d_k / d0) / (n h)
//
// Steps where either trajectory leaves the finite range end the estimate
// early. Cancelling ctx returns ctx.Err().
func LyapunovExponent(
	ctx context.Context,
	acc dynamo.Accelerator,
	integ dynamo.Integrator,
	x0 *dynamo.State,
	dt, duration float64,
	perturbation float64,
) (float64, error) {
	if x0.Len() == 0 {
		return 0, nil
	}
	if !(perturbation > 0) || !(dt > 0) {
		return 0, fmt.Errorf("%w: perturbation and dt must be positive", dynamo.ErrParameterBounds)
	}

	x := x0
	xp := x0.Clone()
	xp.Positions[0].X += perturbation

	sumLog := 0.0
	count := 0
	steps := int(math.Round(duration / dt))

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		next, err := integ.Step(acc, x, dt)
		if err != nil {
			return 0, &dynamo.SimulationError{Step: i, Time: float64(i) * dt, Wrapped: err}
		}
		nextp, err := integ.Step(acc, xp, dt)
		if err != nil {
			return 0, &dynamo.SimulationError{Step: i, Time: float64(i) * dt, Wrapped: err}
		}
		if !next.IsValid() || !nextp.IsValid() {
			break
		}
		x, xp = next, nextp

		sep := separation(x, xp)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)
		count++
		rescale(x, xp, perturbation/sep)
	}

	if count == 0 {
		return 0, nil
	}
	return sumLog / (float64(count) * dt), nil
}

func separation(a, b *dynamo.State) float64 {
	var sum float64
	for i := range a.Positions {
		sum += b.Positions[i].Sub(a.Positions[i]).Norm2()
		sum += b.Velocities[i].Sub(a.Velocities[i]).Norm2()
	}
	return math.Sqrt(sum)
}

// rescale pulls b toward a in place. b is always a state the caller owns.
func rescale(a, b *dynamo.State, f float64) {
	for i := range a.Positions {
		b.Positions[i] = a.Positions[i].Add(b.Positions[i].Sub(a.Positions[i]).Scale(f))
		b.Velocities[i] = a.Velocities[i].Add(b.Velocities[i].Sub(a.Velocities[i]).Scale(f))
	}
}
