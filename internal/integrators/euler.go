package integrators

import "github.com/san-kum/odekit/internal/dynamo"

// Euler is the forward Euler rule y_{n+1} = y_n + h*f(t_n, y_n).
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, y dynamo.State, t, h float64) (dynamo.State, error) {
	dy, err := sys.Derive(t, y)
	if err != nil {
		return dynamo.State{}, err
	}
	return y.Add(dy.Scale(h)), nil
}
