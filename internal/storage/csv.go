package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/sim"
)

// Header returns t,y for scalar trajectories and t,y1,...,yn for vectors.
func Header(sh dynamo.Shape) []string {
	if sh.Kind == dynamo.KindScalar {
		return []string{"t", "y"}
	}
	header := []string{"t"}
	for i := 1; i <= sh.Len; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	return header
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeRows(w *csv.Writer, traj *sim.Trajectory) error {
	for i := range traj.Times {
		row := []string{formatFloat(traj.Times[i])}
		for _, val := range traj.States[i].Components() {
			row = append(row, formatFloat(val))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the header followed by one row per sample.
func WriteCSV(out io.Writer, traj *sim.Trajectory) error {
	w := csv.NewWriter(out)
	if err := w.Write(Header(traj.Shape())); err != nil {
		return err
	}
	if err := writeRows(w, traj); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// SaveCSV writes traj to path, creating parent directories. When
// appendMode is set, rows are appended and the header is written only if
// the file was empty.
func SaveCSV(path string, traj *sim.Trajectory, appendMode bool) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if !appendMode || info.Size() == 0 {
		if err := w.Write(Header(traj.Shape())); err != nil {
			return err
		}
	}
	if err := writeRows(w, traj); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

// ReadCSV parses the output of WriteCSV. A header of t,y yields scalar
// states; any other header yields vectors.
func ReadCSV(in io.Reader) (*sim.Trajectory, error) {
	r := csv.NewReader(in)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	traj := &sim.Trajectory{}
	if len(records) == 0 {
		return traj, nil
	}

	header := records[0]
	if len(header) < 2 || header[0] != "t" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}
	scalar := len(header) == 2 && header[1] == "y"

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			vals[j] = v
		}

		traj.Times = append(traj.Times, vals[0])
		if scalar {
			traj.States = append(traj.States, dynamo.Scalar(vals[1]))
		} else {
			traj.States = append(traj.States, dynamo.Vector(vals[1:]...))
		}
	}
	return traj, nil
}
