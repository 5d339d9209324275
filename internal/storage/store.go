package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/tarinyoom/scarf/internal/dynamo"
	"github.com/tarinyoom/scarf/internal/sph"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

var framesHeader = []string{"frame", "time", "particle", "x", "y", "vx", "vy"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Scene            string             `json:"scene"`
	Timestamp        time.Time          `json:"timestamp"`
	Seed             int64              `json:"seed"`
	Dt               float64            `json:"dt"`
	Duration         float64            `json:"duration"`
	Integrator       string             `json:"integrator"`
	Kernel           string             `json:"kernel"`
	Particles        int                `json:"particles"`
	Frames           int                `json:"frames"`
	StepsTaken       int                `json:"steps_taken"`
	Boundary         dynamo.Boundary    `json:"boundary"`
	ReferenceDensity float64            `json:"reference_density"`
	Params           sph.Params         `json:"params"`
	Metrics          map[string]float64 `json:"metrics"`
	Errors           []string           `json:"errors,omitempty"`
}

// Describe fills the fields of meta that come from the result itself.
// Errors already recorded on meta are kept ahead of the result's own.
func (meta *RunMetadata) Describe(result *dynamo.Result) {
	meta.Frames = len(result.Frames)
	meta.StepsTaken = result.StepsTaken
	meta.Errors = slices.Clone(meta.Errors)
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	// JSON has no encoding for NaN or Inf
	meta.Metrics = make(map[string]float64, len(result.Metrics))
	for name, v := range result.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			meta.Errors = append(meta.Errors, fmt.Sprintf("metric %s is %v", name, v))
			continue
		}
		meta.Metrics[name] = v
	}
	if final := result.Final(); final != nil {
		meta.Particles = final.State.Len()
		meta.Boundary = final.State.Boundary
		meta.ReferenceDensity = final.State.ReferenceDensity
	}
}

// Save writes a run directory holding metadata.json and frames.csv and
// returns the new run ID.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	now := time.Now()
	meta.Timestamp = now
	meta.Describe(result)

	runID, runDir, err := s.makeRunDir(meta.Scene, now)
	if err != nil {
		return "", err
	}
	meta.ID = runID

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteFramesCSV(csvFile, result.Frames); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) makeRunDir(name string, now time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	for i := 1; ; i++ {
		runID := base
		if i > 1 {
			runID = fmt.Sprintf("%s_%d", base, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// List returns the metadata of every stored run, oldest first. Directories
// without readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames reads the sampled frames of a run. Boundary and reference
// density come from the run metadata.
func (s *Store) LoadFrames(runID string) ([]dynamo.Frame, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	frames, err := ReadFramesCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	for _, f := range frames {
		f.State.Boundary = meta.Boundary
		f.State.ReferenceDensity = meta.ReferenceDensity
	}
	return frames, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFramesCSV writes one row per particle per frame.
func WriteFramesCSV(w io.Writer, frames []dynamo.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(framesHeader); err != nil {
		return err
	}

	row := make([]string, len(framesHeader))
	for i, f := range frames {
		row[0] = strconv.Itoa(i)
		row[1] = formatFloat(f.Time)
		for p := range f.State.Positions {
			pos, vel := f.State.Positions[p], f.State.Velocities[p]
			row[2] = strconv.Itoa(p)
			row[3] = formatFloat(pos.X)
			row[4] = formatFloat(pos.Y)
			row[5] = formatFloat(vel.X)
			row[6] = formatFloat(vel.Y)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadFramesCSV parses the output of WriteFramesCSV. Rows must be grouped by
// frame with particles in index order.
func ReadFramesCSV(r io.Reader) ([]dynamo.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(framesHeader)

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return []dynamo.Frame{}, nil
		}
		return nil, err
	}

	frames := make([]dynamo.Frame, 0)
	var vals [7]float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %w", line, framesHeader[j], err)
			}
			vals[j] = v
		}

		frame, particle := int(vals[0]), int(vals[2])
		if frame == len(frames) {
			frames = append(frames, dynamo.Frame{Time: vals[1], State: &dynamo.State{}})
		}
		if frame != len(frames)-1 {
			return nil, fmt.Errorf("line %d: frame %d out of order", line, frame)
		}

		st := frames[frame].State
		if particle != st.Len() {
			return nil, fmt.Errorf("line %d: particle %d out of order", line, particle)
		}
		st.Positions = append(st.Positions, dynamo.Vec2{X: vals[3], Y: vals[4]})
		st.Velocities = append(st.Velocities, dynamo.Vec2{X: vals[5], Y: vals[6]})
	}
	return frames, nil
}
