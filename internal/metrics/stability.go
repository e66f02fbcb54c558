package metrics

import (
	"math"

	"github.com/san-kum/odekit/internal/dynamo"
)

// Stability is the fraction of samples whose norm stays within threshold.
// Non-finite samples count as violations.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(k int, t float64, y dynamo.State) {
	s.samples++
	if n := y.Norm(); math.IsNaN(n) || n > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
