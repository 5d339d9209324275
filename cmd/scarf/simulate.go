package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tarinyoom/scarf/internal/config"
	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/metrics"
	"github.com/tarinyoom/scarf/internal/sim"
	"github.com/tarinyoom/scarf/internal/sph"
	"github.com/tarinyoom/scarf/internal/storage"
	"github.com/tarinyoom/scarf/internal/viz"
)

// stabilityBound is the component magnitude above which a state counts as
// unstable.
const stabilityBound = 1e3

// buildConfig layers the preset, then the config file, then any flags set on
// the command line.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Run.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Run.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Run.Integrator = integrator
	}
	if flags.Changed("kernel") {
		cfg.Run.Kernel = kernelName
	}
	if flags.Changed("search") {
		cfg.Run.Search = searchName
	}
	if flags.Changed("scene") {
		cfg.Scene.Kind = sceneKind
	}
	if flags.Changed("count") {
		cfg.Scene.Count = count
	}
	if flags.Changed("density") {
		cfg.Scene.ReferenceDensity = density
	}
	if flags.Changed("sample-every") {
		cfg.Run.SampleEvery = sampleEvery
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workers
	}
	if cfg.Run.Workers == 0 {
		cfg.Run.Workers = dynamo.DefaultWorkers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func sceneName(cfg *config.Config) string {
	if preset != "" {
		return preset
	}
	return cfg.Scene.Kind
}

// newSimulator wires the configured solver, integrator and the standard
// metrics into a run loop.
func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	solver, integ, err := cfg.Solver()
	if err != nil {
		return nil, err
	}
	s := sim.New(solver, integ)
	for _, m := range metrics.Standard(cfg.Physics.ParticleMass, stabilityBound) {
		s.AddMetric(m)
	}
	s.SetLogger(logger)
	return s, nil
}

// progress draws a bar on w as the run advances.
type progress struct {
	w        io.Writer
	duration float64
	last     int
}

func (p *progress) OnStep(x *dynamo.State, t float64) {
	pct := int(100 * t / p.duration)
	if pct == p.last {
		return
	}
	p.last = pct
	fmt.Fprintf(p.w, "\r%s %3d%%", viz.ProgressBar(t/p.duration, 30), pct)
}

func (p *progress) done() {
	fmt.Fprintf(p.w, "\r%s 100%%\n", viz.ProgressBar(1, 30))
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	x0, err := cfg.State()
	if err != nil {
		return err
	}

	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	bar := &progress{w: os.Stderr, duration: cfg.Run.Duration, last: -1}
	s.AddObserver(bar)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	name := sceneName(cfg)
	fmt.Printf("running %s: %d particles, %s integrator\n", name, x0.Len(), cfg.Run.Integrator)
	logger.Info("run started", "scene", name, "particles", x0.Len(), "dt", cfg.Run.Dt, "duration", cfg.Run.Duration, "workers", cfg.Run.Workers)
	start := time.Now()

	result, runErr := s.Run(cmd.Context(), x0, cfg.Sim())
	bar.done()
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Scene:      name,
		Seed:       cfg.Seed,
		Dt:         cfg.Run.Dt,
		Duration:   cfg.Run.Duration,
		Integrator: cfg.Run.Integrator,
		Kernel:     cfg.Run.Kernel,
		Params:     cfg.Params(),
	}
	if runErr != nil {
		meta.Errors = append(meta.Errors, runErr.Error())
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d, frames: %d\n", result.StepsTaken, len(result.Frames))
	for _, e := range result.Errors {
		logger.Warn("run stopped early", "err", e)
	}
	printMetrics(os.Stdout, result.Metrics)
	return runErr
}

func printMetrics(w io.Writer, m map[string]float64) {
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range []string{"kinetic_energy", "momentum_drift", "max_speed", "stability"} {
		if v, ok := m[name]; ok {
			fmt.Fprintf(w, "  %s: %.6g\n", name, v)
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	x0, err := cfg.State()
	if err != nil {
		return err
	}
	solver, integ, err := cfg.Solver()
	if err != nil {
		return err
	}

	m := viz.NewModel(solver, integ, x0, cfg.Run.Dt, cfg.Physics.ParticleMass, sceneName(cfg)).
		WithStepsPerTick(stepsPerTick)

	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(viz.Model); ok && lm.Err() != nil {
		logger.Warn("live simulation stopped", "err", lm.Err())
	}
	return nil
}

func sweepDensity(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(densities) == 0 {
		return fmt.Errorf("no densities given")
	}

	// each run is serial so the ensemble spreads across cores instead
	cfg.Run.Workers = 1

	variants := make([]sim.Variant, len(densities))
	for i, rho := range densities {
		x0, err := cfg.State()
		if err != nil {
			return err
		}
		x0.ReferenceDensity = rho

		s, err := newSimulator(cfg)
		if err != nil {
			return err
		}
		variants[i] = sim.Variant{Name: fmt.Sprintf("%g", rho), Sim: s, X0: x0}
	}

	fmt.Printf("sweeping %s over %d densities (dt=%.4g, duration=%.3gs)\n\n", sceneName(cfg), len(densities), cfg.Run.Dt, cfg.Run.Duration)
	start := time.Now()
	results, err := sim.NewEnsemble(dynamo.DefaultWorkers()).Run(cmd.Context(), variants, cfg.Sim())
	if err != nil {
		return err
	}
	logger.Debug("sweep finished", "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DENSITY\tSTEPS\tKINETIC\tMAX_SPEED\tSTABILITY\tSTATUS")
	for i, r := range results {
		status := "ok"
		if len(r.Errors) > 0 {
			status = "diverged"
		}
		fmt.Fprintf(w, "%s\t%d\t%.4g\t%.4g\t%.2f\t%s\n",
			variants[i].Name,
			r.StepsTaken,
			r.Metrics["kinetic_energy"],
			r.Metrics["max_speed"],
			r.Metrics["stability"],
			status,
		)
	}
	return w.Flush()
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = []string{"symplectic", "kickdrift", "leapfrog"}
	}

	x0, err := cfg.State()
	if err != nil {
		return err
	}

	fmt.Printf("comparing integrators for %s (dt=%.4g, duration=%.3gs)\n\n", sceneName(cfg), cfg.Run.Dt, cfg.Run.Duration)
	fmt.Printf("%-12s  %-12s  %-12s  %-12s  %-12s\n", "integrator", "kinetic", "max_speed", "stability", "time_ms")
	fmt.Println(strings.Repeat("-", 66))

	for _, name := range names {
		cfg.Run.Integrator = name
		s, err := newSimulator(cfg)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := s.Run(cmd.Context(), x0, cfg.Sim())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-12s  %12.4g  %12.4g  %12.2f  %12.2f\n", name,
			result.Metrics["kinetic_energy"],
			result.Metrics["max_speed"],
			result.Metrics["stability"],
			float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func benchSolver(cmd *cobra.Command, args []string) error {
	const steps = 20

	n := workers
	if n == 0 {
		n = dynamo.DefaultWorkers()
	}

	fmt.Printf("benchmarking %s kernel, %s search\n\n", kernelName, searchName)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICLES\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC")

	for _, size := range sizes {
		for _, wk := range []int{1, n} {
			cfg := config.DefaultConfig()
			cfg.Scene.Count = size
			cfg.Run.Kernel = kernelName
			cfg.Run.Search = searchName
			cfg.Run.Workers = wk
			cfg.Run.Duration = steps * cfg.Run.Dt
			cfg.Run.ValidateState = false

			x0, err := cfg.State()
			if err != nil {
				return err
			}
			solver, integ, err := cfg.Solver()
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := sim.New(solver, integ).Run(cmd.Context(), x0, cfg.Sim())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.1f\n",
				size, wk, result.StepsTaken, elapsed, float64(result.StepsTaken)/elapsed.Seconds())
			if n == 1 {
				break
			}
		}
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCENE\tPARTICLES\tDT\tDURATION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4g\t%.3gs\n", name, p.Scene.Kind, presetCount(p), p.Run.Dt, p.Run.Duration)
	}
	return w.Flush()
}

func presetCount(cfg *config.Config) int {
	x, err := cfg.State()
	if err != nil {
		return 0
	}
	return x.Len()
}

// solverFor rebuilds the solver a stored run used.
func solverFor(meta *storage.RunMetadata) (*sph.Solver, error) {
	cfg := config.DefaultConfig()
	cfg.Physics = meta.Params
	if meta.Kernel != "" {
		cfg.Run.Kernel = meta.Kernel
	}
	solver, _, err := cfg.Solver()
	return solver, err
}
