package integrators

import "github.com/tarinyoom/scarf/internal/dynamo"

// Leapfrog is kick-drift-kick velocity Verlet. It evaluates accelerations
// twice per step.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (Leapfrog) Step(acc dynamo.Accelerator, x *dynamo.State, h float64) (*dynamo.State, error) {
	a, err := derive(acc, x)
	if err != nil {
		return nil, err
	}

	halfH := 0.5 * h
	next := dynamo.NewState(x.Len(), x.Boundary, x.ReferenceDensity)
	for i := range x.Positions {
		next.Velocities[i] = x.Velocities[i].Add(a[i].Scale(halfH))
		next.Positions[i] = x.Positions[i].Add(next.Velocities[i].Scale(h))
	}

	aNew, err := derive(acc, next)
	if err != nil {
		return nil, err
	}
	for i := range next.Velocities {
		next.Velocities[i] = next.Velocities[i].Add(aNew[i].Scale(halfH))
	}
	return next, nil
}
