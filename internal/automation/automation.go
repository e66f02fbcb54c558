package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/config"
	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/experiment"
	"github.com/san-kum/odekit/internal/logging"
	"github.com/san-kum/odekit/internal/metrics"
	"github.com/san-kum/odekit/internal/sim"
	"github.com/san-kum/odekit/internal/storage"
)

// Scenario is a named batch of problems.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        []Run  `yaml:"runs"`
}

// Run is one problem in a scenario.
type Run struct {
	Name      string          `yaml:"name"`
	Preset    string          `yaml:"preset"`
	Method    string          `yaml:"method"`
	Expr      config.ExprList `yaml:"expr"`
	Vector    bool            `yaml:"vector"`
	T0        *float64        `yaml:"t0"`
	Tf        *float64        `yaml:"tf"`
	H         *float64        `yaml:"h"`
	Y0        []float64       `yaml:"y0"`
	Exact     config.ExprList `yaml:"exact"`
	Invariant string          `yaml:"invariant"`
	Validate  bool            `yaml:"validate"`
	Save      bool            `yaml:"save"`
}

// Config overlays the run on its preset, or on the defaults.
func (r Run) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}

	if r.Method != "" {
		cfg.Method = r.Method
	}
	if len(r.Expr) > 0 {
		cfg.Expr = r.Expr
		cfg.Exact = nil
		cfg.Invariant = ""
	}
	cfg.Vector = cfg.Vector || r.Vector
	if r.T0 != nil {
		cfg.T0 = *r.T0
	}
	if r.Tf != nil {
		cfg.Tf = *r.Tf
	}
	if r.H != nil {
		cfg.H = *r.H
	}
	if r.Y0 != nil {
		cfg.Y0 = r.Y0
	}
	if r.Y0 != nil || r.T0 != nil {
		// A preset's closed form is only valid for its own initial condition.
		cfg.Exact = nil
	}
	if len(r.Exact) > 0 {
		cfg.Exact = r.Exact
	}
	if r.Invariant != "" {
		cfg.Invariant = r.Invariant
	}
	cfg.ValidateState = r.Validate
	return cfg, nil
}

// RunResult summarises one scenario run.
type RunResult struct {
	Name     string
	Method   string
	Samples  int
	Final    dynamo.State
	Error    float64
	HasExact bool
	Elapsed  time.Duration
	Metrics  map[string]float64
	RunID    string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if len(scenario.Runs) == 0 {
		return nil, fmt.Errorf("scenario %s has no runs", path)
	}

	return &scenario, nil
}

// RunScenario solves every run in order. Runs marked save are written to
// st when it is non-nil. ctx is checked between runs; the completed
// results are returned along with any error.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]RunResult, error) {
	results := make([]RunResult, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := run.Name
		if name == "" {
			name = fmt.Sprintf("run-%d", i+1)
		}
		logging.Info("scenario_run", "scenario", scenario.Name, "run", name, "index", i+1, "total", len(scenario.Runs))

		result, err := execute(ctx, name, run, st)
		if err != nil {
			return results, fmt.Errorf("run %d (%s): %w", i+1, name, err)
		}
		results = append(results, *result)
	}

	return results, nil
}

func execute(ctx context.Context, name string, run Run, st *storage.Store) (*RunResult, error) {
	cfg, err := run.Config()
	if err != nil {
		return nil, err
	}
	solver, err := cfg.NewSolver()
	if err != nil {
		return nil, err
	}
	ms, err := cfg.Metrics()
	if err != nil {
		return nil, err
	}
	metrics.Attach(solver, ms...)

	timed, err := analysis.SolveAndMeasure(solver)
	if err != nil {
		logging.SolveFailed(solver.Name(), err, "run", name)
		return nil, err
	}
	logging.SolveCompleted(solver.Name(), timed.Len(), timed.Elapsed, "run", name)

	tf, final := timed.Final()
	result := &RunResult{
		Name:    name,
		Method:  solver.Name(),
		Samples: timed.Len(),
		Final:   final,
		Elapsed: timed.Elapsed,
		Metrics: metrics.Collect(ms...),
	}

	exact, err := cfg.ExactSolution()
	if err != nil {
		return nil, err
	}
	if exact != nil {
		if result.Error, err = analysis.ComputeError(final, exact(tf)); err != nil {
			return nil, err
		}
		result.HasExact = true
	}

	if run.Save && st != nil {
		meta := storage.RunMetadata{
			Name:       name,
			Method:     solver.Name(),
			Expression: cfg.Expr,
			Vector:     final.IsVector(),
			T0:         cfg.T0,
			Tf:         cfg.Tf,
			H:          cfg.H,
			Y0:         cfg.Y0,
			ElapsedMS:  float64(timed.Elapsed.Microseconds()) / 1000,
		}
		meta.Metrics = make(map[string]float64, len(result.Metrics)+1)
		for k, v := range result.Metrics {
			meta.Metrics[k] = v
		}
		if result.HasExact {
			meta.Metrics["error"] = result.Error
		}
		id, err := st.Save(meta, timed.Trajectory)
		if err != nil {
			return nil, err
		}
		result.RunID = id
		logging.InfoContext(logging.WithRunID(ctx, id), "run_saved", "run", name)
	}

	return result, nil
}

// StepSweep measures convergence of several methods on one benchmark.
type StepSweep struct {
	Methods   []string
	Benchmark string
	Steps     []float64
}

// RunSweep returns one convergence report per method, in order.
func RunSweep(ctx context.Context, sweep *StepSweep, registry *experiment.Registry) ([]*analysis.ConvergenceReport, error) {
	b, err := registry.GetBenchmark(sweep.Benchmark)
	if err != nil {
		return nil, err
	}

	methods := sweep.Methods
	if len(methods) == 0 {
		methods = registry.ListSolvers()
	}
	steps := sweep.Steps
	if len(steps) == 0 {
		steps = analysis.DefaultSteps
	}

	reports := make([]*analysis.ConvergenceReport, 0, len(methods))
	for i, name := range methods {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		m, err := registry.GetMethod(name)
		if err != nil {
			return reports, err
		}

		report, err := analysis.OrderOfConvergence(m, b, steps)
		if err != nil {
			return reports, fmt.Errorf("%s: %w", m, err)
		}
		reports = append(reports, report)

		logging.Info("sweep_progress", "method", m.String(), "benchmark", b.Name, "order", report.Mean, "index", i+1, "total", len(methods))
	}

	return reports, nil
}

// MonteCarloConfig perturbs the initial state of a base problem.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	// Bound is the largest norm a final state may have to count as stable.
	Bound float64
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Stable     bool
}

// RunMonteCarlo solves the base problem from uniformly perturbed initial
// states. A trial whose solve fails counts as unstable.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	method, err := cfg.Base.GetMethod()
	if err != nil {
		return nil, err
	}
	base, err := cfg.Base.Problem()
	if err != nil {
		return nil, err
	}
	bound := cfg.Bound
	if bound <= 0 {
		bound = config.DefaultBound
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	y0 := base.Y0.Components()
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		xs := make([]float64, len(y0))
		for i, v := range y0 {
			xs[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		init := dynamo.Vector(xs...)
		if base.Y0.IsScalar() {
			init = dynamo.Scalar(xs[0])
		}

		p := base
		p.Y0 = init
		solver := sim.New(method, p)
		solver.ValidateState = true

		r := MonteCarloResult{TrialID: trial, InitState: init}
		if traj, err := solver.Solve(); err == nil {
			r.FinalState = traj.FinalState()
			r.Stable = r.FinalState.Norm() <= bound
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			logging.Debug("monte_carlo_progress", "done", trial+1, "total", cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo runs
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
