package config

import "sort"

var Presets = map[string]*Config{
	"growth": {
		Method: "RK4Solver", Expr: ExprList{"y"},
		T0: 0, Tf: 1, H: 0.01, Y0: []float64{1},
		Exact: ExprList{"exp(t)"},
	},
	"decay": {
		Method: "RK4Solver", Expr: ExprList{"-0.5 * y"},
		T0: 0, Tf: 10, H: 0.05, Y0: []float64{2},
		Exact: ExprList{"2 * exp(-0.5 * t)"},
	},
	"logistic": {
		Method: "RK4Solver", Expr: ExprList{"y * (1 - y)"},
		T0: 0, Tf: 10, H: 0.01, Y0: []float64{0.1},
		Exact: ExprList{"1 / (1 + 9 * exp(-t))"},
	},
	"oscillator": {
		Method: "RK4Solver", Expr: ExprList{"y1", "-y0"},
		T0: 0, Tf: 10, H: 0.01, Y0: []float64{1, 0},
		Exact:     ExprList{"cos(t)", "-sin(t)"},
		Invariant: "y0^2 + y1^2",
	},
	"lotka_volterra": {
		Method: "RK4Solver", Expr: ExprList{"1.1 * y0 - 0.4 * y0 * y1", "0.1 * y0 * y1 - 0.4 * y1"},
		T0: 0, Tf: 50, H: 0.01, Y0: []float64{10, 10},
		Invariant: "0.1 * y0 - 0.4 * ln(y0) + 0.4 * y1 - 1.1 * ln(y1)",
	},
	"vanderpol": {
		Method: "RK4Solver", Expr: ExprList{"y1", "(1 - y0^2) * y1 - y0"},
		T0: 0, Tf: 20, H: 0.01, Y0: []float64{2, 0},
	},
	"pendulum": {
		Method: "RK4Solver", Expr: ExprList{"y1", "-9.81 * sin(y0)"},
		T0: 0, Tf: 10, H: 0.01, Y0: []float64{0.5, 0},
		Invariant: "0.5 * y1^2 + 9.81 * (1 - cos(y0))",
	},
	"double_well": {
		Method: "RK4Solver", Expr: ExprList{"y1", "-4 * y0 * (y0^2 - 1)"},
		T0: 0, Tf: 20, H: 0.01, Y0: []float64{1.1, 0},
		Invariant: "0.5 * y1^2 + (y0^2 - 1)^2",
	},
	"duffing": {
		Method: "RK4Solver", Expr: ExprList{"y1", "-0.3 * y1 + y0 - y0^3 + 0.5 * cos(1.2 * t)"},
		T0: 0, Tf: 50, H: 0.01, Y0: []float64{1, 0},
	},
	"lorenz": {
		Method: "RK4Solver", Expr: ExprList{"10 * (y1 - y0)", "y0 * (28 - y2) - y1", "y0 * y1 - 8 / 3 * y2"},
		T0: 0, Tf: 30, H: 0.005, Y0: []float64{1, 1, 1},
		Bound: 100,
	},
	"rossler": {
		Method: "RK4Solver", Expr: ExprList{"-y1 - y2", "y0 + 0.2 * y1", "0.2 + y2 * (y0 - 5.7)"},
		T0: 0, Tf: 100, H: 0.01, Y0: []float64{1, 1, 1},
	},
}

// GetPreset returns a copy of the named preset over the defaults, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Method = p.Method
	cfg.Expr = append(ExprList(nil), p.Expr...)
	cfg.Vector = p.Vector
	cfg.T0, cfg.Tf, cfg.H = p.T0, p.Tf, p.H
	cfg.Y0 = append([]float64(nil), p.Y0...)
	cfg.Exact = append(ExprList(nil), p.Exact...)
	cfg.Invariant = p.Invariant
	if p.Bound > 0 {
		cfg.Bound = p.Bound
	}
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
