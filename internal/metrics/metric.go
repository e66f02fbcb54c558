// Package metrics accumulates summary values over a solve by observing
// every accepted sample.
package metrics

import (
	"math"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/sim"
)

// Metric is a sim.Observer that reduces the samples it sees to one value.
type Metric interface {
	sim.Observer
	Name() string
	Value() float64
	Reset()
}

// Attach registers every metric on s.
func Attach(s *sim.Solver, ms ...Metric) {
	for _, m := range ms {
		s.AddObserver(m)
	}
}

// Collect returns the current value of each metric keyed by name.
// Non-finite values are left out.
func Collect(ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		if v := m.Value(); !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[m.Name()] = v
		}
	}
	return out
}

// Defaults returns the metrics recorded for every stored run: the peak
// norm, the fraction of samples within bound, and, when invariant is
// non-empty, its drift.
func Defaults(shape dynamo.Shape, bound float64, invariant string) ([]Metric, error) {
	ms := []Metric{NewPeakNorm(), NewStability(bound)}
	if invariant != "" {
		d, err := NewInvariantDrift(invariant, shape)
		if err != nil {
			return nil, err
		}
		ms = append(ms, d)
	}
	return ms, nil
}
