package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
)

// Benchmark is an initial-value problem with a known closed-form solution.
// It holds source text rather than a compiled Func, so one Benchmark can be
// reused by any number of solves.
type Benchmark struct {
	Name       string
	Expression expr.Expression
	Y0         dynamo.State
	T0         float64
	Tf         float64
	Exact      func(t float64) dynamo.State
}

// Exponential is dy/dt = y, y(0) = 1 on [0, 1]; y(1) = e.
func Exponential() Benchmark {
	return Benchmark{
		Name:       "exp",
		Expression: expr.Scalar("y"),
		Y0:         dynamo.Scalar(1),
		T0:         0,
		Tf:         1,
		Exact:      func(t float64) dynamo.State { return dynamo.Scalar(math.Exp(t)) },
	}
}

// Decay is dy/dt = -2y, y(0) = 1 on [0, 1].
func Decay() Benchmark {
	return Benchmark{
		Name:       "decay",
		Expression: expr.Scalar("-2 * y"),
		Y0:         dynamo.Scalar(1),
		T0:         0,
		Tf:         1,
		Exact:      func(t float64) dynamo.State { return dynamo.Scalar(math.Exp(-2 * t)) },
	}
}

// Linear is dy/dt = t - y, y(0) = 1 on [0, 1]; y = t - 1 + 2e^-t.
func Linear() Benchmark {
	return Benchmark{
		Name:       "linear",
		Expression: expr.Scalar("t - y"),
		Y0:         dynamo.Scalar(1),
		T0:         0,
		Tf:         1,
		Exact:      func(t float64) dynamo.State { return dynamo.Scalar(t - 1 + 2*math.Exp(-t)) },
	}
}

// Oscillator is the harmonic oscillator {y1, -y0} from (1, 0) on [0, 1].
func Oscillator() Benchmark {
	return Benchmark{
		Name:       "oscillator",
		Expression: expr.Vector("y1", "-y0"),
		Y0:         dynamo.Vector(1, 0),
		T0:         0,
		Tf:         1,
		Exact:      func(t float64) dynamo.State { return dynamo.Vector(math.Cos(t), -math.Sin(t)) },
	}
}

var benchmarks = map[string]func() Benchmark{
	"exp":        Exponential,
	"decay":      Decay,
	"linear":     Linear,
	"oscillator": Oscillator,
}

// GetBenchmark returns a built-in benchmark by name.
func GetBenchmark(name string) (Benchmark, error) {
	b, ok := benchmarks[name]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown benchmark: %s", name)
	}
	return b(), nil
}

// Benchmarks lists the built-in benchmarks sorted by name.
func Benchmarks() []Benchmark {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Benchmark, len(names))
	for i, name := range names {
		out[i] = benchmarks[name]()
	}
	return out
}
