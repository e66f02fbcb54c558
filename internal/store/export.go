package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/odekit/internal/sim"
	"github.com/san-kum/odekit/internal/storage"
)

type ExportData struct {
	ID         string             `json:"id,omitempty"`
	Method     string             `json:"method"`
	Expression []string           `json:"expression"`
	Vector     bool               `json:"vector"`
	T0         float64            `json:"t0"`
	Tf         float64            `json:"tf"`
	H          float64            `json:"h"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
}

// NewExportData combines run metadata and its samples.
func NewExportData(meta storage.RunMetadata, traj *sim.Trajectory) ExportData {
	data := ExportData{
		ID:         meta.ID,
		Method:     meta.Method,
		Expression: meta.Expression,
		Vector:     meta.Vector,
		T0:         meta.T0,
		Tf:         meta.Tf,
		H:          meta.H,
		Steps:      traj.Len(),
		Times:      traj.Times,
		States:     make([][]float64, traj.Len()),
		Metrics:    meta.Metrics,
	}

	for i, s := range traj.States {
		data.States[i] = s.Components()
	}
	return data
}

// ExportJSON writes data as indented JSON.
func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSON(file, data)
}
