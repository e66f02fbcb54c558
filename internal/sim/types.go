package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/odekit/internal/dynamo"
)

// stepSnap is the relative tolerance within which (tf-t0)/h is treated as
// an exact integer, so that h=0.1 over [0, 0.3] takes three steps.
const stepSnap = 1e-9

// MaxSteps bounds the number of steps in one solve.
const MaxSteps = math.MaxInt32

// maxPrealloc caps the trajectory capacity reserved up front.
const maxPrealloc = 1 << 16

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Problem is an initial-value problem dy/dt = System(t, y), y(T0) = Y0,
// integrated with a fixed step H up to Tf.
type Problem struct {
	System dynamo.System
	T0     float64
	Tf     float64
	H      float64
	Y0     dynamo.State
}

// Validate checks the step and interval.
func (p Problem) Validate() error {
	if p.System == nil {
		return fmt.Errorf("sim: problem has no system")
	}
	if !(p.H > 0) || math.IsInf(p.H, 0) {
		return fmt.Errorf("%w, got %g", dynamo.ErrInvalidStep, p.H)
	}
	if !finite(p.T0) || !finite(p.Tf) || !(p.T0 < p.Tf) {
		return fmt.Errorf("%w, got t0=%g tf=%g", dynamo.ErrInvalidInterval, p.T0, p.Tf)
	}
	if ratio := (p.Tf - p.T0) / p.H; !(ratio <= MaxSteps) {
		return fmt.Errorf("%w, got %g: %g steps exceed %d", dynamo.ErrInvalidStep, p.H, ratio, MaxSteps)
	}
	return nil
}

// Steps returns the number of whole steps that fit in [T0, Tf].
func (p Problem) Steps() int {
	if !(p.H > 0) || !(p.T0 < p.Tf) {
		return 0
	}
	ratio := (p.Tf - p.T0) / p.H
	if !(ratio <= MaxSteps) {
		return MaxSteps
	}
	n := math.Floor(ratio)
	if r := math.Round(ratio); math.Abs(ratio-r) <= stepSnap*math.Max(1, r) {
		n = r
	}
	return int(n)
}

// Time returns the time of sample k. It never exceeds Tf.
func (p Problem) Time(k int) float64 {
	return math.Min(p.T0+float64(k)*p.H, p.Tf)
}

// Shape is the shape every state of the problem shares.
func (p Problem) Shape() dynamo.Shape {
	return p.Y0.Shape()
}

// Trajectory is the ordered list of samples produced by one solve.
// Times[0] is T0 and States[0] is Y0.
type Trajectory struct {
	Times  []float64
	States []dynamo.State
}

func newTrajectory(capacity int) *Trajectory {
	capacity = min(max(capacity, 0), maxPrealloc)
	return &Trajectory{
		Times:  make([]float64, 0, capacity),
		States: make([]dynamo.State, 0, capacity),
	}
}

func (tr *Trajectory) append(t float64, y dynamo.State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, y)
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// At returns sample i.
func (tr *Trajectory) At(i int) (float64, dynamo.State) {
	return tr.Times[i], tr.States[i]
}

// Final returns the last sample.
func (tr *Trajectory) Final() (float64, dynamo.State) {
	n := len(tr.Times)
	if n == 0 {
		return 0, dynamo.State{}
	}
	return tr.Times[n-1], tr.States[n-1]
}

// FinalState returns the last state.
func (tr *Trajectory) FinalState() dynamo.State {
	_, y := tr.Final()
	return y
}

// Shape reports the shape of the stored states.
func (tr *Trajectory) Shape() dynamo.Shape {
	if len(tr.States) == 0 {
		return dynamo.Shape{}
	}
	return tr.States[0].Shape()
}

// Component returns the series of component i over time.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, y := range tr.States {
		out[k] = y.At(i)
	}
	return out
}

// Status is the lifecycle stage of a Solver.
type Status int

const (
	StatusConstructed Status = iota
	StatusSolving
	StatusSolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusConstructed:
		return "constructed"
	case StatusSolving:
		return "solving"
	case StatusSolved:
		return "solved"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
