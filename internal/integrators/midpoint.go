package integrators

import "github.com/san-kum/odekit/internal/dynamo"

// Midpoint is the explicit midpoint rule:
//
//	k1 = f(t, y)
//	k2 = f(t + h/2, y + h*k1/2)
//	y' = y + h*k2
type Midpoint struct{}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Step(sys dynamo.System, y dynamo.State, t, h float64) (dynamo.State, error) {
	k1, err := sys.Derive(t, y)
	if err != nil {
		return dynamo.State{}, err
	}

	k2, err := sys.Derive(t+h/2, y.Add(k1.Scale(h).DivScalar(2)))
	if err != nil {
		return dynamo.State{}, err
	}

	return y.Add(k2.Scale(h)), nil
}
