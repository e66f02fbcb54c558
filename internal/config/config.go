package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/logging"
	"github.com/san-kum/odekit/internal/metrics"
	"github.com/san-kum/odekit/internal/sim"
)

const (
	DefaultMethod  = "RK4Solver"
	DefaultT0      = 0.0
	DefaultTf      = 1.0
	DefaultH       = 0.01
	DefaultDataDir = ".odekit"
	DefaultBound   = 1e6
)

// Config describes one initial-value problem and how to solve it.
type Config struct {
	Method        string       `yaml:"method" toml:"method"`
	Expr          ExprList     `yaml:"expr" toml:"expr"`
	Vector        bool         `yaml:"vector,omitempty" toml:"vector,omitempty"`
	T0            float64      `yaml:"t0" toml:"t0"`
	Tf            float64      `yaml:"tf" toml:"tf"`
	H             float64      `yaml:"h" toml:"h"`
	Y0            []float64    `yaml:"y0" toml:"y0"`
	Exact         ExprList     `yaml:"exact,omitempty" toml:"exact,omitempty"`
	ValidateState bool         `yaml:"validate,omitempty" toml:"validate,omitempty"`
	Invariant     string       `yaml:"invariant,omitempty" toml:"invariant,omitempty"`
	Bound         float64      `yaml:"bound,omitempty" toml:"bound,omitempty"`
	Log           LogConfig    `yaml:"log" toml:"log"`
	Output        OutputConfig `yaml:"output" toml:"output"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

// ExprList is one or more formulas. In YAML and TOML it may be written as
// a single string or as a list of strings.
type ExprList []string

func (l *ExprList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = ExprList{value.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expression must be a string or a list of strings", value.Line)
	}
}

func (l *ExprList) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case string:
		*l = ExprList{v}
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expression %d is %T, not a string", i, item)
			}
			items[i] = s
		}
		*l = items
	default:
		return fmt.Errorf("expression must be a string or an array of strings, got %T", data)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Method: DefaultMethod,
		Expr:   ExprList{"y"},
		T0:     DefaultT0,
		Tf:     DefaultTf,
		H:      DefaultH,
		Y0:     []float64{1},
		Bound:  DefaultBound,
		Log:    LogConfig{Level: "info", Format: "text"},
		Output: OutputConfig{Dir: DefaultDataDir},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or TOML file, chosen by extension, over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var data []byte
	var err error
	if isTOML(path) {
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Expression returns the right-hand side. A single entry containing
// top-level commas is split into a system.
func (c *Config) Expression() (expr.Expression, error) {
	var e expr.Expression
	switch len(c.Expr) {
	case 0:
		return e, fmt.Errorf("%w: no expression configured", dynamo.ErrParse)
	case 1:
		e = expr.ParseList(c.Expr[0])
	default:
		e = expr.Vector(c.Expr...)
	}
	if c.Vector && !e.IsVector() {
		e = expr.Vector(e.Components()...)
	}
	return e, nil
}

// InitialState shapes Y0 after the expression.
func (c *Config) InitialState() (dynamo.State, error) {
	e, err := c.Expression()
	if err != nil {
		return dynamo.State{}, err
	}
	if len(c.Y0) != e.Len() {
		return dynamo.State{}, fmt.Errorf("y0 has %d values for %d expressions", len(c.Y0), e.Len())
	}
	if !e.IsVector() {
		return dynamo.Scalar(c.Y0[0]), nil
	}
	return dynamo.Vector(c.Y0...), nil
}

// ExactSolution compiles the closed-form solution, one formula in t per
// component. It returns nil when none is configured. The returned function
// is not safe for concurrent use.
func (c *Config) ExactSolution() (func(t float64) dynamo.State, error) {
	if len(c.Exact) == 0 {
		return nil, nil
	}
	e, err := c.Expression()
	if err != nil {
		return nil, err
	}
	exact := c.Exact
	if len(exact) == 1 && e.IsVector() {
		exact = expr.ParseList(exact[0]).Components()
	}
	if len(exact) != e.Len() {
		return nil, fmt.Errorf("exact solution has %d formulas for %d expressions", len(exact), e.Len())
	}

	fns := make([]*expr.Quantity, len(exact))
	for i, src := range exact {
		if fns[i], err = expr.CompileTime(src); err != nil {
			return nil, fmt.Errorf("exact solution: %w", err)
		}
	}

	vector := e.IsVector()
	return func(t float64) dynamo.State {
		xs := make([]float64, len(fns))
		for i, fn := range fns {
			xs[i] = fn.EvalTime(t)
		}
		if !vector {
			return dynamo.Scalar(xs[0])
		}
		return dynamo.Vector(xs...)
	}, nil
}

func (c *Config) GetMethod() (integrators.Method, error) {
	return integrators.ParseMethod(c.Method)
}

// Problem compiles the expression and assembles the problem.
func (c *Config) Problem() (sim.Problem, error) {
	e, err := c.Expression()
	if err != nil {
		return sim.Problem{}, err
	}
	fn, err := expr.Compile(e)
	if err != nil {
		return sim.Problem{}, err
	}
	y0, err := c.InitialState()
	if err != nil {
		return sim.Problem{}, err
	}
	return sim.Problem{System: fn, T0: c.T0, Tf: c.Tf, H: c.H, Y0: y0}, nil
}

// NewSolver builds the configured solver.
func (c *Config) NewSolver() (*sim.Solver, error) {
	m, err := c.GetMethod()
	if err != nil {
		return nil, err
	}
	p, err := c.Problem()
	if err != nil {
		return nil, err
	}
	s := sim.New(m, p)
	s.ValidateState = c.ValidateState
	return s, nil
}

// Metrics returns the run metrics for this problem: peak norm, stability
// against Bound, and the drift of Invariant when one is set.
func (c *Config) Metrics() ([]metrics.Metric, error) {
	y0, err := c.InitialState()
	if err != nil {
		return nil, err
	}
	bound := c.Bound
	if bound <= 0 {
		bound = DefaultBound
	}
	ms, err := metrics.Defaults(y0.Shape(), bound, c.Invariant)
	if err != nil {
		return nil, fmt.Errorf("invariant: %w", err)
	}
	return ms, nil
}

// Validate reports the first problem with the configuration.
func (c *Config) Validate() error {
	if _, err := c.GetMethod(); err != nil {
		return err
	}
	p, err := c.Problem()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := c.ExactSolution(); err != nil {
		return err
	}
	if _, err := c.Metrics(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}
