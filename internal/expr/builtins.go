package expr

import "math"

type builtin struct {
	// arity is the exact argument count, or -1 for one or more.
	arity int
	fn1   func(float64) float64
	fn2   func(float64, float64) float64
	fnN   func([]float64) float64
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"_pi": math.Pi,
	"e":   math.E,
	"_e":  math.E,
}

func unary(fn func(float64) float64) builtin           { return builtin{arity: 1, fn1: fn} }
func binary(fn func(float64, float64) float64) builtin { return builtin{arity: 2, fn2: fn} }
func variadic(fn func([]float64) float64) builtin      { return builtin{arity: -1, fnN: fn} }

// log follows the muParser convention: log is base 10, ln is natural.
var builtins = map[string]builtin{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"asinh": unary(math.Asinh),
	"acosh": unary(math.Acosh),
	"atanh": unary(math.Atanh),
	"exp":   unary(math.Exp),
	"ln":    unary(math.Log),
	"log":   unary(math.Log10),
	"log10": unary(math.Log10),
	"log2":  unary(math.Log2),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"sign":  unary(sign),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"rint":  unary(math.RoundToEven),

	"pow":   binary(math.Pow),
	"atan2": binary(math.Atan2),
	"mod":   binary(math.Mod),
	"hypot": binary(math.Hypot),

	"min": variadic(minOf),
	"max": variadic(maxOf),
	"sum": variadic(sumOf),
	"avg": variadic(func(xs []float64) float64 { return sumOf(xs) / float64(len(xs)) }),
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

func sumOf(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
