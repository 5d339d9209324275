package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/tarinyoom/scarf/internal/analysis"
	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/export"
	"github.com/tarinyoom/scarf/internal/integrators"
	"github.com/tarinyoom/scarf/internal/metrics"
	"github.com/tarinyoom/scarf/internal/storage"
)

// series computes one value per frame.
type series struct {
	caption string
	value   func(meta *storage.RunMetadata, x *dynamo.State) (float64, error)
}

var plotSeries = map[string]series{
	"energy": {"kinetic energy", func(meta *storage.RunMetadata, x *dynamo.State) (float64, error) {
		return metrics.Kinetic(x, meta.Params.ParticleMass), nil
	}},
	"momentum": {"|momentum|", func(meta *storage.RunMetadata, x *dynamo.State) (float64, error) {
		return metrics.Total(x, meta.Params.ParticleMass).Norm(), nil
	}},
	"speed": {"max speed", func(_ *storage.RunMetadata, x *dynamo.State) (float64, error) {
		m := metrics.NewMaxSpeed()
		m.Observe(x, 0)
		return m.Value(), nil
	}},
	"height": {"mean height", func(_ *storage.RunMetadata, x *dynamo.State) (float64, error) {
		var sum float64
		for _, p := range x.Positions {
			sum += p.Y
		}
		return sum / float64(max(x.Len(), 1)), nil
	}},
	"density": {"mean density", meanDensity},
}

func seriesNames() string {
	names := make([]string, 0, len(plotSeries))
	for name := range plotSeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func meanDensity(meta *storage.RunMetadata, x *dynamo.State) (float64, error) {
	solver, err := solverFor(meta)
	if err != nil {
		return 0, err
	}
	f, err := solver.Evaluate(x)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, rho := range f.Densities {
		sum += rho
	}
	return sum / float64(max(len(f.Densities), 1)), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tPARTICLES\tDURATION\tDT\tINTEG\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if len(run.Errors) > 0 {
			status = "errors"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3gs\t%.4gs\t%s\t%s\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Duration,
			run.Dt,
			run.Integrator,
			status,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []dynamo.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, frames, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	s, ok := plotSeries[metricName]
	if !ok {
		return fmt.Errorf("unknown metric: %s (available: %s)", metricName, seriesNames())
	}

	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}

	data, err := seriesData(meta, frames, s)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("frames: %d\n\n", len(frames))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(s.caption+" vs frame"),
	)
	fmt.Println(graph)
	return nil
}

// seriesData evaluates s over frames, stopping at the first non-finite value.
func seriesData(meta *storage.RunMetadata, frames []dynamo.Frame, s series) ([]float64, error) {
	data := make([]float64, 0, len(frames))
	for _, f := range frames {
		v, err := s.value(meta, f.State)
		if err != nil {
			return nil, fmt.Errorf("t=%.4f: %w", f.Time, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			logger.Warn("series is not finite, data truncated", "time", f.Time)
			break
		}
		data = append(data, v)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no finite data")
	}
	return data, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	s, ok := plotSeries[metricName]
	if !ok {
		return fmt.Errorf("unknown metric: %s (available: %s)", metricName, seriesNames())
	}

	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(frames) < 4 {
		return fmt.Errorf("run %s has too few frames for a spectrum", meta.ID)
	}

	data, err := seriesData(meta, frames, s)
	if err != nil {
		return err
	}

	// The final frame may be off the sampling grid; the first gap is not.
	interval := frames[1].Time - frames[0].Time
	ps := analysis.PowerSpectrum(data)
	freq, power := analysis.DominantFrequency(ps, interval)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("series: %s (%d samples, every %.4gs)\n", s.caption, len(data), interval)
	fmt.Printf("dominant frequency: %.4g Hz (power %.4g)\n", freq, power)

	if len(ps) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(ps[1:],
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum"),
		))
	}

	if lyapunovTime <= 0 {
		return nil
	}

	solver, err := solverFor(meta)
	if err != nil {
		return err
	}
	integ, err := integrators.ByName(meta.Integrator)
	if err != nil {
		return err
	}
	lambda, err := analysis.LyapunovExponent(cmd.Context(), solver, integ, frames[0].State, meta.Dt, lyapunovTime, 1e-8)
	if err != nil {
		return err
	}
	fmt.Printf("\nlyapunov exponent: %.4g /s over %.3gs\n", lambda, lyapunovTime)
	return nil
}

func phaseRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if particleIndex < 0 || particleIndex >= meta.Particles {
		return fmt.Errorf("particle %d out of range (run has %d particles)", particleIndex, meta.Particles)
	}

	points := analysis.ParticlePhase(frames, particleIndex)
	if len(points) == 0 {
		return fmt.Errorf("particle %d has no finite samples", particleIndex)
	}

	fmt.Printf("run: %s, particle %d, %d samples\n", meta.ID, particleIndex, len(points))
	fmt.Println("x: height, y: vertical velocity")
	fmt.Print(analysis.PhasePortraitToASCII(points, 70, 20))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.WriteFramesCSV(os.Stdout, frames)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, frames)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var svg string
	if traceIndex >= 0 {
		svg = export.PathSVG(frames, traceIndex, scale, "#ff00ff")
		if svg == "" {
			return fmt.Errorf("particle %d has no path to draw", traceIndex)
		}
	} else {
		i := frameIndex
		if i < 0 {
			i += len(frames)
		}
		if i < 0 || i >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d frames)", frameIndex, len(frames))
		}
		svg = export.FrameSVG(frames[i].State, scale)
	}

	if outFile == "" {
		_, err := fmt.Println(svg)
		return err
	}
	return os.WriteFile(outFile, []byte(svg+"\n"), 0644)
}
