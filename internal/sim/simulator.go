package sim

import (
	"fmt"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
)

// Observer is notified after every accepted sample, including the initial one.
type Observer interface {
	OnStep(k int, t float64, y dynamo.State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(k int, t float64, y dynamo.State)

func (f ObserverFunc) OnStep(k int, t float64, y dynamo.State) { f(k, t, y) }

// Solver integrates one Problem with one fixed-step method.
//
// A Solver is not safe for concurrent use: it drives its System, and a
// compiled expression owns mutable bind cells.
type Solver struct {
	method    integrators.Method
	stepper   integrators.Stepper
	problem   Problem
	observers []Observer
	status    Status

	// ValidateState aborts the solve when a step produces NaN or Inf.
	ValidateState bool
}

// New returns a solver for problem. The problem is copied; validation is
// deferred to Solve.
func New(method integrators.Method, problem Problem) *Solver {
	problem.Y0 = problem.Y0.Clone()
	return &Solver{
		method:  method,
		stepper: method.Stepper(),
		problem: problem,
		status:  StatusConstructed,
	}
}

func NewForwardEuler(sys dynamo.System, y0 dynamo.State, t0, tf, h float64) *Solver {
	return New(integrators.ForwardEuler, Problem{System: sys, T0: t0, Tf: tf, H: h, Y0: y0})
}

func NewExplicitMidpoint(sys dynamo.System, y0 dynamo.State, t0, tf, h float64) *Solver {
	return New(integrators.ExplicitMidpoint, Problem{System: sys, T0: t0, Tf: tf, H: h, Y0: y0})
}

func NewRK4(sys dynamo.System, y0 dynamo.State, t0, tf, h float64) *Solver {
	return New(integrators.RungeKutta4, Problem{System: sys, T0: t0, Tf: tf, H: h, Y0: y0})
}

// NewFromExpression compiles e and wraps it in a solver.
func NewFromExpression(method integrators.Method, e expr.Expression, y0 dynamo.State, t0, tf, h float64) (*Solver, error) {
	fn, err := expr.Compile(e)
	if err != nil {
		return nil, err
	}
	return New(method, Problem{System: fn, T0: t0, Tf: tf, H: h, Y0: y0}), nil
}

func (s *Solver) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Method() integrators.Method { return s.method }
func (s *Solver) Name() string               { return s.method.String() }
func (s *Solver) Problem() Problem           { return s.problem }
func (s *Solver) Status() Status             { return s.status }

// Solve integrates from T0 to the last sample not beyond Tf. Sample k sits
// at T0 + k*H. On failure no trajectory is returned.
func (s *Solver) Solve() (*Trajectory, error) {
	p := s.problem
	if err := p.Validate(); err != nil {
		s.status = StatusFailed
		return nil, fmt.Errorf("%s: %w", s.method, err)
	}

	s.status = StatusSolving
	n := p.Steps()
	traj := newTrajectory(n + 1)

	y := p.Y0.Clone()
	traj.append(p.T0, y)
	s.notify(0, p.T0, y)

	for k := 0; k < n; k++ {
		t := p.Time(k)
		next, err := s.step(t, y)
		if err == nil && s.ValidateState && !next.IsValid() {
			err = dynamo.ErrInvalidState
		}
		if err != nil {
			s.status = StatusFailed
			return nil, &dynamo.SolveError{Solver: s.method.String(), Step: k, Time: t, Wrapped: err}
		}

		y = next
		traj.append(p.Time(k+1), y)
		s.notify(k+1, p.Time(k+1), y)
	}

	s.status = StatusSolved
	return traj, nil
}

// step recovers shape mismatches raised by state arithmetic and returns
// them as errors. Any other panic propagates.
func (s *Solver) step(t float64, y dynamo.State) (next dynamo.State, err error) {
	defer func() {
		if r := recover(); r != nil {
			me, ok := r.(*dynamo.MismatchError)
			if !ok {
				panic(r)
			}
			err = me
		}
	}()
	return s.stepper.Step(s.problem.System, y, t, s.problem.H)
}

func (s *Solver) notify(k int, t float64, y dynamo.State) {
	for _, o := range s.observers {
		o.OnStep(k, t, y)
	}
}
