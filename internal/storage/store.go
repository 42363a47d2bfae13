// Package storage keeps a record of mission runs on disk, one directory per
// run holding its metadata and the scenario that produced it. Trajectories
// are not stored; replaying the scenario reproduces them.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/san-kum/astroprop/internal/config"
	"github.com/san-kum/astroprop/internal/mission"
)

const (
	metadataFile = "metadata.json"
	scenarioFile = "scenario.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SegmentMetadata struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Satisfied bool    `json:"satisfied"`
	DeltaV    float64 `json:"delta_v,omitempty"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Epoch     time.Time          `json:"epoch"`
	Central   string             `json:"central"`
	Stepper   string             `json:"stepper"`
	StepSize  float64            `json:"step_size"`
	Duration  float64            `json:"duration"`
	Complete  bool               `json:"complete"`
	DeltaV    float64            `json:"delta_v"`
	Samples   int                `json:"samples"`
	Final     []float64          `json:"final"`
	Segments  []SegmentMetadata  `json:"segments"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Save writes sol under a new run directory and returns its ID.
func (s *Store) Save(sc *config.Scenario, sol *mission.Solution) (string, error) {
	now := s.now()
	name := sc.Name
	if name == "" {
		name = "scenario"
	}
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	states, _ := sol.States()
	final, _ := sol.Final()
	meta := RunMetadata{
		ID:        runID,
		Scenario:  sc.Name,
		Timestamp: now,
		Epoch:     sol.Epoch,
		Central:   sc.Central,
		Stepper:   sc.Stepper,
		StepSize:  sc.Solver.StepSize,
		Duration:  sol.EndTime() - sol.StartTime(),
		Complete:  sol.ExecutionIsComplete,
		DeltaV:    sol.DeltaV(),
		Samples:   len(states),
		Final:     final,
		Metrics:   make(map[string]float64),
	}
	for _, seg := range sol.Segments {
		_, end := seg.Final()
		start := 0.0
		if len(seg.Times) > 0 {
			start = seg.Times[0]
		}
		meta.Segments = append(meta.Segments, SegmentMetadata{
			Name:      seg.Name,
			Kind:      seg.Kind,
			Start:     start,
			End:       end,
			Satisfied: seg.ConditionSatisfied,
			DeltaV:    seg.DeltaV,
		})
		for k, v := range seg.Metrics {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			meta.Metrics[seg.Name+"."+k] = v
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), sc); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
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
	slices.SortFunc(runs, func(a, b RunMetadata) int { return a.Timestamp.Compare(b.Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadScenario returns the scenario a run was produced from.
func (s *Store) LoadScenario(runID string) (*config.Scenario, error) {
	sc, err := config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return sc, err
}

// ExportJSON writes the run's metadata to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
