package integrators

import (
	"fmt"
	"strings"

	"github.com/san-kum/odekit/internal/dynamo"
)

// Stepper advances a state by one fixed step h from time t.
type Stepper interface {
	Step(sys dynamo.System, y dynamo.State, t, h float64) (dynamo.State, error)
}

// Method is the closed set of explicit fixed-step rules.
type Method int

const (
	ForwardEuler Method = iota
	ExplicitMidpoint
	RungeKutta4
)

var methodNames = [...]string{
	ForwardEuler:     "ForwardEulerSolver",
	ExplicitMidpoint: "ExplicitMidpointSolver",
	RungeKutta4:      "RK4Solver",
}

var methodAliases = map[string]Method{
	"forwardeulersolver":     ForwardEuler,
	"forwardeuler":           ForwardEuler,
	"forward_euler":          ForwardEuler,
	"euler":                  ForwardEuler,
	"fe":                     ForwardEuler,
	"explicitmidpointsolver": ExplicitMidpoint,
	"explicitmidpoint":       ExplicitMidpoint,
	"explicit_midpoint":      ExplicitMidpoint,
	"midpoint":               ExplicitMidpoint,
	"em":                     ExplicitMidpoint,
	"rk4solver":              RungeKutta4,
	"rk4":                    RungeKutta4,
	"runge_kutta_4":          RungeKutta4,
}

// Methods lists every method in declaration order.
func Methods() []Method {
	return []Method{ForwardEuler, ExplicitMidpoint, RungeKutta4}
}

// ParseMethod resolves a canonical solver name or alias, case-insensitively.
func ParseMethod(name string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownMethod, name)
	}
	return m, nil
}

func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// Order is the theoretical global order of accuracy.
func (m Method) Order() int {
	switch m {
	case ForwardEuler:
		return 1
	case ExplicitMidpoint:
		return 2
	case RungeKutta4:
		return 4
	default:
		return 0
	}
}

// Stepper returns the update rule for m.
func (m Method) Stepper() Stepper {
	switch m {
	case ForwardEuler:
		return NewEuler()
	case ExplicitMidpoint:
		return NewMidpoint()
	case RungeKutta4:
		return NewRK4()
	default:
		panic(fmt.Sprintf("integrators: unknown method %d", int(m)))
	}
}

// MarshalText encodes the canonical name so methods round-trip through
// YAML, TOML and JSON.
func (m Method) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(methodNames) {
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownMethod, int(m))
	}
	return []byte(methodNames[m]), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
