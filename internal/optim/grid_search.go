// Package optim searches parameter grids for the best-scoring solve.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

// Objective scores one point of the grid; lower is better. Points whose
// objective fails are skipped.
type Objective func(params map[string]float64) (float64, error)

// GridSearch evaluates every combination of the named parameter ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best parameters and their score. It fails when no
// point could be scored, or when ctx is cancelled.
func (g *GridSearch) Search(ctx context.Context, objective Objective) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), objective, &best, &bestParams); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("optim: no grid point satisfied the objective")
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := objective(current)
		if err != nil || math.IsNaN(val) {
			return nil
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, objective, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// StepResult is the largest step that met the tolerance.
type StepResult struct {
	Method integrators.Method
	H      float64
	Error  float64
	Steps  int
}

// LargestStep finds the largest step in candidates for which method solves
// b to within tol at the final time.
func LargestStep(ctx context.Context, method integrators.Method, b analysis.Benchmark, tol float64, candidates []float64) (*StepResult, error) {
	if !(tol > 0) {
		return nil, fmt.Errorf("optim: tolerance must be positive, got %g", tol)
	}

	errs := make(map[float64]float64, len(candidates))
	objective := func(params map[string]float64) (float64, error) {
		h := params["h"]
		e, err := finalError(method, b, h)
		if err != nil {
			return 0, err
		}
		errs[h] = e
		if e > tol {
			// +Inf never beats the initial best, so misses are not selected.
			return math.Inf(1), nil
		}
		return -h, nil
	}

	params, _, err := NewGridSearch([]string{"h"}, [][]float64{candidates}).Search(ctx, objective)
	if err != nil {
		return nil, fmt.Errorf("%s to %g: %w", method, tol, err)
	}

	h := params["h"]
	p := sim.Problem{T0: b.T0, Tf: b.Tf, H: h}
	return &StepResult{Method: method, H: h, Error: errs[h], Steps: p.Steps()}, nil
}

func finalError(method integrators.Method, b analysis.Benchmark, h float64) (float64, error) {
	fn, err := expr.Compile(b.Expression)
	if err != nil {
		return 0, err
	}
	traj, err := sim.New(method, sim.Problem{System: fn, T0: b.T0, Tf: b.Tf, H: h, Y0: b.Y0}).Solve()
	if err != nil {
		return 0, err
	}
	tf, y := traj.Final()
	return analysis.ComputeError(y, b.Exact(tf))
}

// HalvingSteps returns h0, h0/2, ... with n entries.
func HalvingSteps(h0 float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = h0 / math.Pow(2, float64(i))
	}
	return out
}
