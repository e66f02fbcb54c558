package dynamo

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Kind is the active variant of a State.
type Kind uint8

const (
	KindScalar Kind = iota
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Shape is the variant plus, for vectors, the number of components.
type Shape struct {
	Kind Kind
	Len  int
}

func (s Shape) String() string {
	if s.Kind == KindScalar {
		return "scalar"
	}
	return fmt.Sprintf("vector[%d]", s.Len)
}

// State holds either a scalar or a fixed-length vector. The zero value is
// the scalar 0.
//
// States are values: operations never modify their receiver or operands.
type State struct {
	kind Kind
	s    float64
	v    []float64
}

// Scalar returns a scalar state.
func Scalar(x float64) State {
	return State{kind: KindScalar, s: x}
}

// Vector returns a vector state holding a copy of xs.
func Vector(xs ...float64) State {
	v := make([]float64, len(xs))
	copy(v, xs)
	return State{kind: KindVector, v: v}
}

// Zero returns the zero state of the given shape.
func Zero(sh Shape) State {
	if sh.Kind == KindScalar {
		return Scalar(0)
	}
	return State{kind: KindVector, v: make([]float64, sh.Len)}
}

func (s State) Kind() Kind     { return s.kind }
func (s State) IsScalar() bool { return s.kind == KindScalar }
func (s State) IsVector() bool { return s.kind == KindVector }

// Len is 1 for scalars and the component count for vectors.
func (s State) Len() int {
	if s.kind == KindScalar {
		return 1
	}
	return len(s.v)
}

func (s State) Shape() Shape {
	if s.kind == KindScalar {
		return Shape{Kind: KindScalar, Len: 1}
	}
	return Shape{Kind: KindVector, Len: len(s.v)}
}

// SameShape reports whether s and other hold the same variant and length.
func (s State) SameShape(other State) bool {
	return s.Shape() == other.Shape()
}

// Value returns the scalar payload. It panics on a vector state.
func (s State) Value() float64 {
	if s.kind != KindScalar {
		panic(&MismatchError{Op: "value", Left: s.Shape(), Right: Shape{Kind: KindScalar, Len: 1}})
	}
	return s.s
}

// At returns component i. Index 0 of a scalar is the scalar itself.
func (s State) At(i int) float64 {
	if s.kind == KindScalar {
		if i != 0 {
			panic(fmt.Sprintf("dynamo: index %d out of range for scalar state", i))
		}
		return s.s
	}
	return s.v[i]
}

// Components returns a copy of the payload as a slice.
func (s State) Components() []float64 {
	if s.kind == KindScalar {
		return []float64{s.s}
	}
	c := make([]float64, len(s.v))
	copy(c, s.v)
	return c
}

func (s State) Clone() State {
	if s.kind == KindScalar {
		return s
	}
	return Vector(s.v...)
}

func (s State) mustMatch(op string, other State) {
	if !s.SameShape(other) {
		panic(&MismatchError{Op: op, Left: s.Shape(), Right: other.Shape()})
	}
}

func (s State) Add(other State) State {
	s.mustMatch("add", other)
	if s.kind == KindScalar {
		return Scalar(s.s + other.s)
	}
	return State{kind: KindVector, v: floats.AddTo(make([]float64, len(s.v)), s.v, other.v)}
}

func (s State) Sub(other State) State {
	s.mustMatch("sub", other)
	if s.kind == KindScalar {
		return Scalar(s.s - other.s)
	}
	return State{kind: KindVector, v: floats.SubTo(make([]float64, len(s.v)), s.v, other.v)}
}

// Div divides component-wise.
func (s State) Div(other State) State {
	s.mustMatch("div", other)
	if s.kind == KindScalar {
		return Scalar(s.s / other.s)
	}
	return State{kind: KindVector, v: floats.DivTo(make([]float64, len(s.v)), s.v, other.v)}
}

// Scale multiplies every component by factor.
func (s State) Scale(factor float64) State {
	if s.kind == KindScalar {
		return Scalar(factor * s.s)
	}
	return State{kind: KindVector, v: floats.ScaleTo(make([]float64, len(s.v)), factor, s.v)}
}

// DivScalar divides every component by d.
func (s State) DivScalar(d float64) State {
	if s.kind == KindScalar {
		return Scalar(s.s / d)
	}
	return State{kind: KindVector, v: floats.ScaleTo(make([]float64, len(s.v)), 1/d, s.v)}
}

// Norm is |s| for scalars and the Euclidean norm for vectors.
func (s State) Norm() float64 {
	if s.kind == KindScalar {
		return math.Abs(s.s)
	}
	return floats.Norm(s.v, 2)
}

func (s State) IsValid() bool {
	if s.kind == KindScalar {
		return !math.IsNaN(s.s) && !math.IsInf(s.s, 0)
	}
	for _, x := range s.v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Equal reports exact equality of shape and payload.
func (s State) Equal(other State) bool {
	if !s.SameShape(other) {
		return false
	}
	if s.kind == KindScalar {
		return s.s == other.s
	}
	return floats.Equal(s.v, other.v)
}

func (s State) String() string {
	if s.kind == KindScalar {
		return strconv.FormatFloat(s.s, 'g', -1, 64)
	}
	parts := make([]string, len(s.v))
	for i, x := range s.v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// System is the right-hand side f of dy/dt = f(t, y).
type System interface {
	Derive(t float64, y State) (State, error)
}

// SystemFunc adapts an ordinary function to System.
type SystemFunc func(t float64, y State) (State, error)

func (f SystemFunc) Derive(t float64, y State) (State, error) {
	return f(t, y)
}
