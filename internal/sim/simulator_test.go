package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
)

var growth = dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
	return y, nil
})

func TestSolverRun(t *testing.T) {
	solver := NewForwardEuler(growth, dynamo.Scalar(1), 0, 1, 0.1)

	traj, err := solver.Solve()
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}

	if traj.Len() != 11 {
		t.Errorf("expected 11 samples, got %d", traj.Len())
	}
	if traj.Times[0] != 0 {
		t.Errorf("expected first time 0, got %v", traj.Times[0])
	}
	if !traj.States[0].Equal(dynamo.Scalar(1)) {
		t.Errorf("expected first state 1, got %v", traj.States[0])
	}
	if solver.Status() != StatusSolved {
		t.Errorf("expected status solved, got %v", solver.Status())
	}
}

func TestSolverAccuracy(t *testing.T) {
	tests := []struct {
		name string
		new  func(dynamo.System, dynamo.State, float64, float64, float64) *Solver
		h    float64
		tol  float64
	}{
		{"euler", NewForwardEuler, 0.001, 2e-3},
		{"midpoint", NewExplicitMidpoint, 0.01, 1e-4},
		{"rk4", NewRK4, 0.01, 2e-8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := expr.CompileScalar("y")
			if err != nil {
				t.Fatal(err)
			}
			traj, err := tt.new(fn, dynamo.Scalar(1), 0, 1, tt.h).Solve()
			if err != nil {
				t.Fatal(err)
			}

			tf, y := traj.Final()
			if math.Abs(tf-1) > 1e-12 {
				t.Errorf("final time %v, want 1", tf)
			}
			if got := math.Abs(y.Value() - math.E); got > tt.tol {
				t.Errorf("final error %.3g exceeds %.3g", got, tt.tol)
			}
		})
	}
}

func TestSolverVectorSystem(t *testing.T) {
	solver, err := NewFromExpression(integrators.RungeKutta4,
		expr.Vector("y1", "-y0"), dynamo.Vector(1, 0), 0, math.Pi/2, math.Pi/200)
	if err != nil {
		t.Fatal(err)
	}

	traj, err := solver.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if traj.Len() != 101 {
		t.Fatalf("expected 101 samples, got %d", traj.Len())
	}

	y := traj.FinalState()
	if math.Abs(y.At(0)) > 1e-8 || math.Abs(y.At(1)+1) > 1e-8 {
		t.Errorf("expected (0, -1), got %v", y)
	}
}

func TestSolverDeterministic(t *testing.T) {
	for _, m := range integrators.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			solver, err := NewFromExpression(m, expr.Scalar("sin(t) * y"), dynamo.Scalar(0.5), 0, 2, 0.05)
			if err != nil {
				t.Fatal(err)
			}

			first, err := solver.Solve()
			if err != nil {
				t.Fatal(err)
			}
			second, err := solver.Solve()
			if err != nil {
				t.Fatal(err)
			}

			if first.Len() != second.Len() {
				t.Fatalf("lengths differ: %d vs %d", first.Len(), second.Len())
			}
			for i := range first.States {
				if first.Times[i] != second.Times[i] || !first.States[i].Equal(second.States[i]) {
					t.Fatalf("sample %d differs between solves", i)
				}
			}
		})
	}
}

func TestSolverInvalidProblem(t *testing.T) {
	tests := []struct {
		name   string
		t0, tf float64
		h      float64
		want   error
	}{
		{"zero step", 0, 1, 0, dynamo.ErrInvalidStep},
		{"negative step", 0, 1, -0.1, dynamo.ErrInvalidStep},
		{"NaN step", 0, 1, math.NaN(), dynamo.ErrInvalidStep},
		{"empty interval", 1, 1, 0.1, dynamo.ErrInvalidInterval},
		{"reversed interval", 1, 0, 0.1, dynamo.ErrInvalidInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			sys := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
				calls++
				return y, nil
			})

			solver := NewRK4(sys, dynamo.Scalar(1), tt.t0, tt.tf, tt.h)
			traj, err := solver.Solve()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if traj != nil {
				t.Error("expected no trajectory")
			}
			if calls != 0 {
				t.Errorf("system evaluated %d times before validation failed", calls)
			}
		})
	}
}

func TestSolverShapeMismatch(t *testing.T) {
	// Derivative returns a scalar for a vector state.
	bad := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
		return dynamo.Scalar(1), nil
	})

	traj, err := NewExplicitMidpoint(bad, dynamo.Vector(1, 2), 0, 1, 0.1).Solve()
	if traj != nil {
		t.Error("expected no trajectory")
	}

	var solveErr *dynamo.SolveError
	if !errors.As(err, &solveErr) {
		t.Fatalf("expected *SolveError, got %T: %v", err, err)
	}
	if solveErr.Solver != "ExplicitMidpointSolver" || solveErr.Step != 0 {
		t.Errorf("unexpected error context: %+v", solveErr)
	}

	var mismatch *dynamo.MismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected wrapped *MismatchError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected ErrDomain, got %v", err)
	}
}

func TestSolverExpressionDomainError(t *testing.T) {
	solver, err := NewFromExpression(integrators.ForwardEuler, expr.Scalar("y"), dynamo.Vector(1, 2), 0, 1, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	_, err = solver.Solve()
	if !errors.Is(err, dynamo.ErrDomain) {
		t.Errorf("expected ErrDomain, got %v", err)
	}
	if solver.Status() != StatusFailed {
		t.Errorf("expected status failed, got %v", solver.Status())
	}
}

func TestSolverDerivativeErrorContext(t *testing.T) {
	boom := errors.New("boom")
	sys := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
		if t >= 0.5 {
			return dynamo.State{}, boom
		}
		return y, nil
	})

	_, err := NewForwardEuler(sys, dynamo.Scalar(1), 0, 1, 0.1).Solve()

	var solveErr *dynamo.SolveError
	if !errors.As(err, &solveErr) {
		t.Fatalf("expected *SolveError, got %v", err)
	}
	if solveErr.Step != 5 || math.Abs(solveErr.Time-0.5) > 1e-12 {
		t.Errorf("expected failure at step 5 (t=0.5), got step %d (t=%v)", solveErr.Step, solveErr.Time)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestSolverValidateState(t *testing.T) {
	blowup := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
		return dynamo.Scalar(math.Inf(1)), nil
	})

	solver := NewForwardEuler(blowup, dynamo.Scalar(1), 0, 1, 0.1)
	if _, err := solver.Solve(); err != nil {
		t.Fatalf("unexpected error without validation: %v", err)
	}

	solver.ValidateState = true
	if _, err := solver.Solve(); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSolverObserver(t *testing.T) {
	solver := NewForwardEuler(growth, dynamo.Scalar(1), 0, 1, 0.25)

	var seen []int
	solver.AddObserver(ObserverFunc(func(k int, t float64, y dynamo.State) {
		seen = append(seen, k)
	}))

	if _, err := solver.Solve(); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 5 || seen[0] != 0 || seen[4] != 4 {
		t.Errorf("unexpected observer calls: %v", seen)
	}
}

func TestSolverCopiesInitialState(t *testing.T) {
	y0 := dynamo.Vector(1, 2)
	solver := NewForwardEuler(growth, y0, 0, 1, 0.5)

	traj, err := solver.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if !y0.Equal(dynamo.Vector(1, 2)) {
		t.Errorf("initial state modified: %v", y0)
	}
	if !traj.States[0].Equal(y0) {
		t.Errorf("first sample %v, want %v", traj.States[0], y0)
	}
}
