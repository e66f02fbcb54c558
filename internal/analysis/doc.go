// Package analysis measures how well the fixed-step solvers do.
//
// The package compares numerical trajectories with closed-form solutions:
//
//   - [ComputeError]: distance between a computed and an expected state
//   - [OrderOfConvergence]: empirical order from a sequence of step sizes
//   - [EstimateOrders]: pairwise orders from step sizes and errors
//   - [SolveAndMeasure]: wall-clock timing of one solve
//
// # Orders
//
// For a method of order p the global error behaves like C*h^p, so halving
// the step divides the error by about 2^p:
//
//	report, err := analysis.OrderOfConvergence(integrators.RungeKutta4, analysis.Exponential(), analysis.DefaultSteps)
//	if err == nil && math.Abs(report.Mean-4) < 0.5 {
//	    // behaves like a fourth-order method
//	}
package analysis
