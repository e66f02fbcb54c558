package metrics

import (
	"math"

	"github.com/san-kum/odekit/internal/dynamo"
)

// PeakNorm is the largest Euclidean norm among the observed states.
type PeakNorm struct {
	name string
	peak float64
}

func NewPeakNorm() *PeakNorm {
	return &PeakNorm{name: "peak_norm"}
}

func (p *PeakNorm) Name() string { return p.name }

func (p *PeakNorm) OnStep(k int, t float64, y dynamo.State) {
	n := y.Norm()
	if math.IsNaN(n) {
		n = math.Inf(1)
	}
	p.peak = math.Max(p.peak, n)
}

func (p *PeakNorm) Value() float64 { return p.peak }

func (p *PeakNorm) Reset() { p.peak = 0 }
