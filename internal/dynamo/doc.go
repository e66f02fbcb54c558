// Package dynamo provides the numeric primitives shared by every solver.
//
// The package defines the value types and contracts for explicit
// integration of ordinary differential equations (ODEs):
//
//   - [State]: tagged union holding either a scalar or a fixed-length vector
//   - [System]: right-hand side of dy/dt = f(t, y)
//   - [SolveError], [MismatchError]: error wrappers used across packages
//
// # Shapes
//
// A problem fixes one [Shape] when it is constructed. Every value derived
// from it (initial condition, intermediate stages, derivative evaluations)
// must keep that shape. Arithmetic between states of different shapes is a
// programming error and panics with a *[MismatchError]; the solve driver in
// package sim recovers that panic at the step boundary and reports it as a
// *[SolveError].
//
// # Example
//
//	f := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
//		return y.Scale(-2), nil
//	})
//	dy, _ := f.Derive(0, dynamo.Scalar(1))
package dynamo
