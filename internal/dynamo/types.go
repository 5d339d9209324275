package dynamo

import "fmt"

// Boundary describes the simulation domain. The solver carries it through
// every step unchanged; neighbor search and renderers read its extents.
type Boundary struct {
	Min Vec2 `json:"min" yaml:"min"`
	Max Vec2 `json:"max" yaml:"max"`
}

// Size returns the extent of the domain along each axis.
func (b Boundary) Size() Vec2 { return b.Max.Sub(b.Min) }

// Empty reports whether the boundary encloses no area.
func (b Boundary) Empty() bool {
	return !(b.Max.X > b.Min.X) || !(b.Max.Y > b.Min.Y)
}

// State is the persistent simulation state: one position and one velocity
// per particle, index aligned, plus configuration carried between steps.
type State struct {
	Positions        []Vec2   `json:"positions"`
	Velocities       []Vec2   `json:"velocities"`
	Boundary         Boundary `json:"boundary"`
	ReferenceDensity float64  `json:"reference_density"`
}

// NewState allocates a state for n particles at rest at the origin.
func NewState(n int, b Boundary, referenceDensity float64) *State {
	return &State{
		Positions:        make([]Vec2, n),
		Velocities:       make([]Vec2, n),
		Boundary:         b,
		ReferenceDensity: referenceDensity,
	}
}

// Len returns the particle count.
func (s *State) Len() int { return len(s.Positions) }

// Validate checks that positions and velocities are index aligned.
func (s *State) Validate() error {
	if len(s.Positions) != len(s.Velocities) {
		return fmt.Errorf("%w: %d positions, %d velocities",
			ErrDimensionMismatch, len(s.Positions), len(s.Velocities))
	}
	return nil
}

func (s *State) Clone() *State {
	c := &State{
		Positions:        make([]Vec2, len(s.Positions)),
		Velocities:       make([]Vec2, len(s.Velocities)),
		Boundary:         s.Boundary,
		ReferenceDensity: s.ReferenceDensity,
	}
	copy(c.Positions, s.Positions)
	copy(c.Velocities, s.Velocities)
	return c
}

// IsValid reports whether every position and velocity component is finite.
func (s *State) IsValid() bool {
	for _, p := range s.Positions {
		if !p.IsFinite() {
			return false
		}
	}
	for _, v := range s.Velocities {
		if !v.IsFinite() {
			return false
		}
	}
	return true
}

// Accelerator computes one acceleration per particle for a state.
type Accelerator interface {
	Derive(x *State) ([]Vec2, error)
}

// Integrator advances a state by h. Implementations return a new state and
// never modify x.
type Integrator interface {
	Step(acc Accelerator, x *State, h float64) (*State, error)
}

type Metric interface {
	Name() string
	Observe(x *State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x *State, t float64)
}

type Config struct {
	Dt            float64
	Duration      float64
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.001,
		Duration:      1.0,
		SampleEvery:   10,
		ValidateState: true,
	}
}

// Frame is a sampled state at a point in simulated time.
type Frame struct {
	Time  float64 `json:"time"`
	State *State  `json:"state"`
}

type Result struct {
	Frames     []Frame
	Metrics    map[string]float64
	StepsTaken int
	Errors     []error
}

// Final returns the last sampled frame, or nil for an empty result.
func (r *Result) Final() *Frame {
	if len(r.Frames) == 0 {
		return nil
	}
	return &r.Frames[len(r.Frames)-1]
}
