package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

type Simulator struct {
	acc        dynamo.Accelerator
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func New(acc dynamo.Accelerator, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		acc:        acc,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// SetLogger routes run diagnostics to l. A nil logger discards them.
func (s *Simulator) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = l
}

// Run advances x0 for cfg.Duration in steps of cfg.Dt. The initial state,
// every cfg.SampleEvery-th state and the final state are kept as frames.
// x0 is never modified.
func (s *Simulator) Run(ctx context.Context, x0 *dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if err := x0.Validate(); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	every := max(cfg.SampleEvery, 1)
	result := &dynamo.Result{
		Frames:  make([]dynamo.Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0
	t := 0.0
	sampled := 0
	result.Frames = append(result.Frames, dynamo.Frame{Time: t, State: x.Clone()})

	s.logger.Debug("run started", "particles", x.Len(), "steps", steps, "dt", cfg.Dt)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		next, err := s.integrator.Step(s.acc, x, cfg.Dt)
		if err != nil {
			s.collect(result)
			return result, &dynamo.SimulationError{Step: i, Time: t, Wrapped: err}
		}

		if cfg.ValidateState && !next.IsValid() {
			err := &dynamo.SimulationError{Step: i, Time: t, Wrapped: dynamo.ErrInvalidState}
			result.Errors = append(result.Errors, err)
			s.logger.Warn("state diverged", "step", i, "time", t)
			break
		}

		// integrators return fresh states, so frames can share them
		x = next
		t += cfg.Dt
		result.StepsTaken++

		if result.StepsTaken%every == 0 {
			result.Frames = append(result.Frames, dynamo.Frame{Time: t, State: x})
			sampled = result.StepsTaken
		}
	}

	if sampled != result.StepsTaken {
		result.Frames = append(result.Frames, dynamo.Frame{Time: t, State: x})
	}

	s.collect(result)
	s.logger.Debug("run finished", "steps", result.StepsTaken, "frames", len(result.Frames))
	return result, nil
}

func (s *Simulator) collect(result *dynamo.Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg dynamo.Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d", cfg.SampleEvery)
	}
	return nil
}

// RunWithCallback steps until cfg.Duration, handing every state to callback
// before it is advanced. Returning false from callback stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 *dynamo.State, cfg dynamo.Config, callback func(*dynamo.State, float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	x := x0
	t := 0.0
	steps := int(math.Round(cfg.Duration / cfg.Dt))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(x, t) {
			return nil
		}

		next, err := s.integrator.Step(s.acc, x, cfg.Dt)
		if err != nil {
			return &dynamo.SimulationError{Step: i, Time: t, Wrapped: err}
		}
		x = next
		t += cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return fmt.Errorf("invalid state at t=%.4f: %w", t, dynamo.ErrInvalidState)
		}
	}

	callback(x, t)
	return nil
}
