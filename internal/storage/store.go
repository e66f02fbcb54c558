package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/odekit/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunMetadata describes one stored solve.
type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name,omitempty"`
	Method     string             `json:"method"`
	Expression []string           `json:"expression"`
	Vector     bool               `json:"vector"`
	Timestamp  time.Time          `json:"timestamp"`
	T0         float64            `json:"t0"`
	Tf         float64            `json:"tf"`
	H          float64            `json:"h"`
	Y0         []float64          `json:"y0"`
	Samples    int                `json:"samples"`
	Final      []float64          `json:"final"`
	ElapsedMS  float64            `json:"elapsed_ms"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

func newRunID(method string) string {
	prefix := strings.ToLower(strings.TrimSuffix(method, "Solver"))
	if prefix == "" {
		prefix = "run"
	}
	return prefix + "_" + uuid.NewString()[:8]
}

// Save writes meta and traj under a fresh run id and returns the id.
// Samples, Final and Timestamp are filled in from traj when unset.
func (s *Store) Save(meta RunMetadata, traj *sim.Trajectory) (string, error) {
	meta.ID = newRunID(meta.Method)
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Samples = traj.Len()
	if meta.Final == nil && traj.Len() > 0 {
		meta.Final = traj.FinalState().Components()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

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

	if err := SaveCSV(filepath.Join(runDir, statesFile), traj, false); err != nil {
		return "", err
	}

	return meta.ID, nil
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

	sort.Slice(runs, func(i, j int) bool {
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

// LoadTrajectory reads the samples of a stored run.
func (s *Store) LoadTrajectory(runID string) (*sim.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	traj, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return traj, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in %s", s.baseDir)
	}
	return &runs[len(runs)-1], nil
}
