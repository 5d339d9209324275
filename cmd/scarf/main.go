package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tarinyoom/scarf/internal/logging"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	dataDir  string
	logLevel string

	// run settings, applied over preset and config file values
	configFile   string
	preset       string
	dt           float64
	duration     float64
	seed         int64
	integrator   string
	kernelName   string
	searchName   string
	sceneKind    string
	count        int
	density      float64
	sampleEvery  int
	workers      int
	stepsPerTick int

	// plotting and export
	metricName string
	frameIndex int
	traceIndex int
	scale      float64
	outFile    string

	densities []float64
	sizes     []int

	// analysis
	particleIndex int
	lyapunovTime  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scarf",
		Short: "2-D smoothed particle hydrodynamics lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, os.Stderr)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".scarf", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a quantity over the frames of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metricName, "metric", "energy", "quantity to plot ("+seriesNames()+")")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a simulation live in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().IntVar(&stepsPerTick, "steps-per-frame", 4, "steps advanced per frame")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the frames of a run as CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run and its frames as JSON to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a frame, or one particle's path, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index (negative counts from the end)")
	exportSVGCmd.Flags().IntVar(&traceIndex, "trace", -1, "draw the path of this particle instead of a frame")
	exportSVGCmd.Flags().Float64Var(&scale, "scale", 100, "pixels per unit length")
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one scene at several reference densities in parallel",
		Args:  cobra.NoArgs,
		RunE:  sweepDensity,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&densities, "densities", []float64{0.8, 0.9, 1.0, 1.1, 1.2}, "reference densities")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same scene",
		RunE:  compareIntegrators,
	}
	addRunFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure solver throughput",
		Args:  cobra.NoArgs,
		RunE:  benchSolver,
	}
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", []int{100, 400, 1600}, "particle counts")
	benchCmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = all cores)")
	benchCmd.Flags().StringVar(&kernelName, "kernel", "poly6", "smoothing kernel")
	benchCmd.Flags().StringVar(&searchName, "search", "grid", "neighbor search")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run-id]",
		Short: "spectrum and sensitivity of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&metricName, "metric", "energy", "series to analyze ("+seriesNames()+")")
	analyzeCmd.Flags().Float64Var(&lyapunovTime, "lyapunov", 0, "also estimate the Lyapunov exponent over this many seconds")

	phaseCmd := &cobra.Command{
		Use:   "phase [run-id]",
		Short: "phase portrait of one particle (height vs vertical velocity)",
		Args:  cobra.ExactArgs(1),
		RunE:  phaseRun,
	}
	phaseCmd.Flags().IntVar(&particleIndex, "particle", 0, "particle index")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, liveCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, sweepCmd, compareCmd, benchCmd, analyzeCmd, phaseCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml, gcfg)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 1.0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for scene jitter")
	cmd.Flags().StringVar(&integrator, "integrator", "symplectic", "integrator")
	cmd.Flags().StringVar(&kernelName, "kernel", "poly6", "smoothing kernel (poly6, cubic)")
	cmd.Flags().StringVar(&searchName, "search", "grid", "neighbor search (grid, brute)")
	cmd.Flags().StringVar(&sceneKind, "scene", "block", "initial configuration")
	cmd.Flags().IntVar(&count, "count", 400, "particle count")
	cmd.Flags().Float64Var(&density, "density", 1.0, "reference density")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "steps between stored frames")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines per pass (0 = all cores)")
}
