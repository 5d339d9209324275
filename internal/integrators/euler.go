package integrators

import "github.com/tarinyoom/scarf/internal/dynamo"

// SemiImplicitEuler advances positions with the pre-step velocities and
// velocities with accelerations evaluated at the pre-step positions:
//
//	x' = x + h v
//	v' = v + h a(x)
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (SemiImplicitEuler) Step(acc dynamo.Accelerator, x *dynamo.State, h float64) (*dynamo.State, error) {
	a, err := derive(acc, x)
	if err != nil {
		return nil, err
	}

	next := dynamo.NewState(x.Len(), x.Boundary, x.ReferenceDensity)
	for i := range x.Positions {
		next.Positions[i] = x.Positions[i].Add(x.Velocities[i].Scale(h))
		next.Velocities[i] = x.Velocities[i].Add(a[i].Scale(h))
	}
	return next, nil
}

// KickDrift updates velocities first and moves particles with the new
// velocities (Euler-Cromer):
//
//	v' = v + h a(x)
//	x' = x + h v'
type KickDrift struct{}

func NewKickDrift() *KickDrift {
	return &KickDrift{}
}

func (KickDrift) Step(acc dynamo.Accelerator, x *dynamo.State, h float64) (*dynamo.State, error) {
	a, err := derive(acc, x)
	if err != nil {
		return nil, err
	}

	next := dynamo.NewState(x.Len(), x.Boundary, x.ReferenceDensity)
	for i := range x.Positions {
		next.Velocities[i] = x.Velocities[i].Add(a[i].Scale(h))
		next.Positions[i] = x.Positions[i].Add(next.Velocities[i].Scale(h))
	}
	return next, nil
}

func derive(acc dynamo.Accelerator, x *dynamo.State) ([]dynamo.Vec2, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}
	a, err := acc.Derive(x)
	if err != nil {
		return nil, err
	}
	if len(a) != x.Len() {
		return nil, dynamo.ErrDimensionMismatch
	}
	return a, nil
}
