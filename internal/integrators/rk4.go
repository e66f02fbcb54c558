package integrators

import "github.com/san-kum/odekit/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta rule.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys dynamo.System, y dynamo.State, t, h float64) (dynamo.State, error) {
	k1, err := sys.Derive(t, y)
	if err != nil {
		return dynamo.State{}, err
	}

	k2, err := sys.Derive(t+h/2, y.Add(k1.Scale(h).DivScalar(2)))
	if err != nil {
		return dynamo.State{}, err
	}

	k3, err := sys.Derive(t+h/2, y.Add(k2.Scale(h).DivScalar(2)))
	if err != nil {
		return dynamo.State{}, err
	}

	k4, err := sys.Derive(t+h, y.Add(k3.Scale(h)))
	if err != nil {
		return dynamo.State{}, err
	}

	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return y.Add(sum.Scale(h / 6)), nil
}
