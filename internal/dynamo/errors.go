package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for expression compilation, evaluation and solving.
var (
	// ErrParse indicates malformed or empty expression text.
	ErrParse = errors.New("dynamo: malformed expression")

	// ErrDomain indicates a state whose variant or length does not match
	// what an expression or operation expects.
	ErrDomain = errors.New("dynamo: state outside expression domain")

	// ErrInvalidStep indicates a step size that is not strictly positive.
	ErrInvalidStep = errors.New("dynamo: step size must be positive")

	// ErrInvalidInterval indicates t0 >= tf.
	ErrInvalidInterval = errors.New("dynamo: initial time must be less than final time")

	// ErrConvergenceInput indicates a non-positive step or error in an
	// order-of-convergence computation.
	ErrConvergenceInput = errors.New("dynamo: step sizes and errors must be positive")

	// ErrInvalidState indicates a state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnknownMethod indicates an integration method name that is not registered.
	ErrUnknownMethod = errors.New("dynamo: unknown integration method")
)

// SolveError wraps a failure that happened mid-trajectory.
type SolveError struct {
	Solver  string
	Step    int
	Time    float64
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("%s: step %d (t=%.4f): %v", e.Solver, e.Step, e.Time, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}

// MismatchError reports an operation between states of different shapes.
type MismatchError struct {
	Op    string
	Left  Shape
	Right Shape
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dynamo: %s: shape mismatch between %s and %s", e.Op, e.Left, e.Right)
}

// Unwrap reports mismatches as domain errors.
func (e *MismatchError) Unwrap() error {
	return ErrDomain
}
