package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"zero scalar", State{}, true},
		{"scalar", Scalar(2.5), true},
		{"scalar NaN", Scalar(math.NaN()), false},
		{"empty vector", Vector(), true},
		{"normal", Vector(1.0, 2.0, 3.0), true},
		{"with NaN", Vector(1.0, math.NaN()), false},
		{"with +Inf", Vector(1.0, math.Inf(1)), false},
		{"with -Inf", Vector(1.0, math.Inf(-1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Norm(t *testing.T) {
	tests := []struct {
		state    State
		expected float64
	}{
		{Vector(3, 4), 5.0},
		{Vector(1, 0), 1.0},
		{Vector(0, 0), 0.0},
		{Vector(1, 1, 1, 1), 2.0},
		{Scalar(-3), 3.0},
	}

	for _, tt := range tests {
		if got := tt.state.Norm(); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("Norm(%v) = %v, want %v", tt.state, got, tt.expected)
		}
	}
}

func TestState_VectorArithmetic(t *testing.T) {
	a := Vector(1, 2, 3)
	b := Vector(4, 5, 6)

	if sum := a.Add(b); !sum.Equal(Vector(5, 7, 9)) {
		t.Errorf("Add failed: got %v", sum)
	}
	if diff := b.Sub(a); !diff.Equal(Vector(3, 3, 3)) {
		t.Errorf("Sub failed: got %v", diff)
	}
	if q := b.Div(Vector(2, 5, 3)); !q.Equal(Vector(2, 1, 2)) {
		t.Errorf("Div failed: got %v", q)
	}
	if scaled := a.Scale(2); !scaled.Equal(Vector(2, 4, 6)) {
		t.Errorf("Scale failed: got %v", scaled)
	}
	if half := b.DivScalar(2); !half.Equal(Vector(2, 2.5, 3)) {
		t.Errorf("DivScalar failed: got %v", half)
	}
	if inf := Vector(1, -1).DivScalar(0); !math.IsInf(inf.At(0), 1) || !math.IsInf(inf.At(1), -1) {
		t.Errorf("DivScalar by zero: got %v", inf)
	}
	if b.DivScalar(2).At(0) != 2 || b.At(0) != 4 {
		t.Errorf("DivScalar modified its receiver: %v", b)
	}

	if !a.Equal(Vector(1, 2, 3)) {
		t.Errorf("operands were modified: %v", a)
	}
}

func TestState_ScalarArithmetic(t *testing.T) {
	a := Scalar(6)
	b := Scalar(3)

	tests := []struct {
		name string
		got  State
		want float64
	}{
		{"add", a.Add(b), 9},
		{"sub", a.Sub(b), 3},
		{"div", a.Div(b), 2},
		{"scale", a.Scale(0.5), 3},
		{"div scalar", a.DivScalar(4), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.IsScalar() {
				t.Fatalf("expected scalar result, got %s", tt.got.Shape())
			}
			if tt.got.Value() != tt.want {
				t.Errorf("got %v, want %v", tt.got.Value(), tt.want)
			}
		})
	}
}

func TestState_MismatchPanics(t *testing.T) {
	tests := []struct {
		name string
		op   func()
	}{
		{"scalar plus vector", func() { Scalar(1).Add(Vector(1)) }},
		{"vector minus scalar", func() { Vector(1, 2).Sub(Scalar(1)) }},
		{"length mismatch", func() { Vector(1, 2).Div(Vector(1, 2, 3)) }},
		{"value of vector", func() { Vector(1).Value() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				err, ok := r.(*MismatchError)
				if !ok {
					t.Fatalf("expected *MismatchError, got %T", r)
				}
				if !errors.Is(err, ErrDomain) {
					t.Errorf("mismatch should unwrap to ErrDomain: %v", err)
				}
			}()
			tt.op()
		})
	}
}

func TestState_ShapeAndComponents(t *testing.T) {
	s := Scalar(4)
	if s.Shape() != (Shape{Kind: KindScalar, Len: 1}) {
		t.Errorf("unexpected scalar shape %v", s.Shape())
	}
	if c := s.Components(); len(c) != 1 || c[0] != 4 {
		t.Errorf("unexpected scalar components %v", c)
	}

	src := []float64{1, 2}
	v := Vector(src...)
	src[0] = 99
	if v.At(0) != 1 {
		t.Error("Vector did not copy its input")
	}
	if v.Shape().String() != "vector[2]" {
		t.Errorf("unexpected shape string %q", v.Shape().String())
	}

	c := v.Components()
	c[1] = 42
	if v.At(1) != 2 {
		t.Error("Components did not return a copy")
	}

	if z := Zero(v.Shape()); !z.Equal(Vector(0, 0)) {
		t.Errorf("Zero(vector[2]) = %v", z)
	}
	if v.String() != "[1, 2]" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestSolveError(t *testing.T) {
	err := &SolveError{Solver: "RK4Solver", Step: 150, Time: 1.5, Wrapped: ErrDomain}
	expected := "RK4Solver: step 150 (t=1.5000): dynamo: state outside expression domain"
	if err.Error() != expected {
		t.Errorf("SolveError.Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, ErrDomain) {
		t.Error("SolveError should unwrap to its cause")
	}
}

func TestSystemFunc(t *testing.T) {
	f := SystemFunc(func(t float64, y State) (State, error) {
		return y.Scale(t), nil
	})
	dy, err := f.Derive(2, Scalar(3))
	if err != nil {
		t.Fatal(err)
	}
	if dy.Value() != 6 {
		t.Errorf("expected 6, got %v", dy.Value())
	}
}
