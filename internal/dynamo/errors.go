package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state containing NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates positions and velocities of different lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between positions and velocities")

	// ErrNeighborIndex indicates a neighbor lookup reported an index outside [0, n).
	ErrNeighborIndex = errors.New("dynamo: neighbor index out of range")

	// ErrNonPositiveDensity indicates a zero or negative density reached the force pass.
	ErrNonPositiveDensity = errors.New("dynamo: non-positive density")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
