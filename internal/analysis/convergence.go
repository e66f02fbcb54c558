package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

// DefaultSteps halves from 1/8 to 1/64.
var DefaultSteps = []float64{1.0 / 8, 1.0 / 16, 1.0 / 32, 1.0 / 64}

// ConvergenceReport holds the errors observed for each step size and the
// orders estimated from consecutive pairs.
type ConvergenceReport struct {
	Method    integrators.Method
	Benchmark string
	Steps     []float64
	Errors    []float64
	Orders    []float64
	// Mean is the average of Orders.
	Mean float64
	// Fit is the least-squares slope of log(error) against log(h).
	Fit float64
}

// Expected is the theoretical order of the method.
func (r *ConvergenceReport) Expected() int { return r.Method.Order() }

// ComputeError returns |result - expected| for scalars and the Euclidean
// distance for vectors.
func ComputeError(result, expected dynamo.State) (float64, error) {
	if !result.SameShape(expected) {
		return 0, &dynamo.MismatchError{Op: "error", Left: result.Shape(), Right: expected.Shape()}
	}
	if result.IsScalar() {
		return math.Abs(result.Value() - expected.Value()), nil
	}
	return floats.Distance(result.Components(), expected.Components(), 2), nil
}

// EstimateOrders returns log(e[i]/e[i+1]) / log(h[i]/h[i+1]) for each
// consecutive pair.
func EstimateOrders(steps, errs []float64) ([]float64, error) {
	if len(steps) != len(errs) {
		return nil, fmt.Errorf("%w: %d steps but %d errors", dynamo.ErrConvergenceInput, len(steps), len(errs))
	}
	if len(steps) < 2 {
		return nil, fmt.Errorf("%w: need at least two step sizes", dynamo.ErrConvergenceInput)
	}
	for i := range steps {
		if err := checkPositive("step", steps[i]); err != nil {
			return nil, err
		}
		if err := checkPositive("error", errs[i]); err != nil {
			return nil, err
		}
	}

	orders := make([]float64, len(steps)-1)
	for i := range orders {
		orders[i] = math.Log(errs[i]/errs[i+1]) / math.Log(steps[i]/steps[i+1])
	}
	return orders, nil
}

func checkPositive(what string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s %g", dynamo.ErrConvergenceInput, what, v)
	}
	return nil
}

// OrderOfConvergence solves b once per step size with method and estimates
// the empirical order of convergence.
func OrderOfConvergence(method integrators.Method, b Benchmark, steps []float64) (*ConvergenceReport, error) {
	for _, h := range steps {
		if err := checkPositive("step", h); err != nil {
			return nil, err
		}
	}

	errs := make([]float64, len(steps))
	for i, h := range steps {
		e, err := solveError(method, b, h)
		if err != nil {
			return nil, err
		}
		errs[i] = e
	}

	orders, err := EstimateOrders(steps, errs)
	if err != nil {
		return nil, err
	}

	logH := make([]float64, len(steps))
	logE := make([]float64, len(errs))
	for i := range steps {
		logH[i] = math.Log(steps[i])
		logE[i] = math.Log(errs[i])
	}
	_, slope := stat.LinearRegression(logH, logE, nil, false)

	return &ConvergenceReport{
		Method:    method,
		Benchmark: b.Name,
		Steps:     append([]float64(nil), steps...),
		Errors:    errs,
		Orders:    orders,
		Mean:      stat.Mean(orders, nil),
		Fit:       slope,
	}, nil
}

func solveError(method integrators.Method, b Benchmark, h float64) (float64, error) {
	fn, err := expr.Compile(b.Expression)
	if err != nil {
		return 0, err
	}

	solver := sim.New(method, sim.Problem{System: fn, T0: b.T0, Tf: b.Tf, H: h, Y0: b.Y0})
	traj, err := solver.Solve()
	if err != nil {
		return 0, err
	}

	tf, y := traj.Final()
	return ComputeError(y, b.Exact(tf))
}

// ComputeOrderOfConvergence resolves a solver by name and returns its mean
// empirical order on dy/dt = y over [0, 1].
func ComputeOrderOfConvergence(name string) (float64, error) {
	method, err := integrators.ParseMethod(name)
	if err != nil {
		return 0, err
	}
	report, err := OrderOfConvergence(method, Exponential(), DefaultSteps)
	if err != nil {
		return 0, err
	}
	return report.Mean, nil
}

// TimedTrajectory is a trajectory together with the wall-clock time taken
// to produce it.
type TimedTrajectory struct {
	*sim.Trajectory
	Elapsed time.Duration
}

// SolveAndMeasure runs s.Solve and records how long it took. Timing is
// observational only.
func SolveAndMeasure(s *sim.Solver) (*TimedTrajectory, error) {
	start := time.Now()
	traj, err := s.Solve()
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}
	return &TimedTrajectory{Trajectory: traj, Elapsed: elapsed}, nil
}
