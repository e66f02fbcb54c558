package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

// Registry resolves solvers and benchmark problems by name.
type Registry struct {
	methods    map[string]integrators.Method
	benchmarks map[string]func() analysis.Benchmark
}

func NewRegistry() *Registry {
	r := &Registry{
		methods:    make(map[string]integrators.Method),
		benchmarks: make(map[string]func() analysis.Benchmark),
	}

	for _, m := range integrators.Methods() {
		r.methods[m.String()] = m
	}
	r.methods["euler"] = integrators.ForwardEuler
	r.methods["midpoint"] = integrators.ExplicitMidpoint
	r.methods["rk4"] = integrators.RungeKutta4

	r.benchmarks["exp"] = analysis.Exponential
	r.benchmarks["decay"] = analysis.Decay
	r.benchmarks["linear"] = analysis.Linear
	r.benchmarks["oscillator"] = analysis.Oscillator

	return r
}

// GetMethod looks a solver up by registered name, falling back to the
// aliases integrators.ParseMethod accepts.
func (r *Registry) GetMethod(name string) (integrators.Method, error) {
	if m, ok := r.methods[name]; ok {
		return m, nil
	}
	m, err := integrators.ParseMethod(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, name)
	}
	return m, nil
}

// NewSolver builds a solver for problem with the named method.
func (r *Registry) NewSolver(name string, problem sim.Problem) (*sim.Solver, error) {
	m, err := r.GetMethod(name)
	if err != nil {
		return nil, err
	}
	return sim.New(m, problem), nil
}

// ListSolvers returns the canonical solver names in order of accuracy.
func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(integrators.Methods()))
	for _, m := range integrators.Methods() {
		names = append(names, m.String())
	}
	return names
}

func (r *Registry) GetBenchmark(name string) (analysis.Benchmark, error) {
	fn, ok := r.benchmarks[name]
	if !ok {
		return analysis.Benchmark{}, fmt.Errorf("unknown benchmark: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListBenchmarks() []string {
	names := make([]string, 0, len(r.benchmarks))
	for name := range r.benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
