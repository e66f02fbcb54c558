package analysis_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

var _ = Describe("ComputeError", func() {
	It("returns the absolute difference for scalars", func() {
		e, err := analysis.ComputeError(dynamo.Scalar(2.5), dynamo.Scalar(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("~", 0.5, 1e-15))
	})

	It("returns the Euclidean distance for vectors", func() {
		e, err := analysis.ComputeError(dynamo.Vector(1, 2), dynamo.Vector(4, 6))
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeNumerically("~", 5, 1e-15))
	})

	It("rejects a scalar compared with a vector", func() {
		_, err := analysis.ComputeError(dynamo.Scalar(1), dynamo.Vector(1))
		Expect(err).To(MatchError(dynamo.ErrDomain))

		var mismatch *dynamo.MismatchError
		Expect(err).To(BeAssignableToTypeOf(mismatch))
	})

	It("rejects vectors of different lengths", func() {
		_, err := analysis.ComputeError(dynamo.Vector(1, 2), dynamo.Vector(1, 2, 3))
		Expect(err).To(MatchError(dynamo.ErrDomain))
	})
})

var _ = Describe("EstimateOrders", func() {
	It("recovers the exponent of a power law", func() {
		steps := []float64{0.1, 0.05, 0.025}
		errs := []float64{1e-2, 2.5e-3, 6.25e-4}

		orders, err := analysis.EstimateOrders(steps, errs)
		Expect(err).NotTo(HaveOccurred())
		Expect(orders).To(HaveLen(2))
		for _, p := range orders {
			Expect(p).To(BeNumerically("~", 2, 1e-12))
		}
	})

	DescribeTable("rejects invalid input",
		func(steps, errs []float64) {
			_, err := analysis.EstimateOrders(steps, errs)
			Expect(err).To(MatchError(dynamo.ErrConvergenceInput))
		},
		Entry("zero step", []float64{0.1, 0}, []float64{1e-2, 1e-3}),
		Entry("negative step", []float64{-0.1, 0.05}, []float64{1e-2, 1e-3}),
		Entry("zero error", []float64{0.1, 0.05}, []float64{1e-2, 0}),
		Entry("NaN error", []float64{0.1, 0.05}, []float64{math.NaN(), 1e-3}),
		Entry("length mismatch", []float64{0.1, 0.05}, []float64{1e-2}),
		Entry("single pair", []float64{0.1}, []float64{1e-2}),
	)
})

var _ = Describe("OrderOfConvergence", func() {
	It("solves each step size in turn with a stateful exact solution", func() {
		exact := expr.MustCompile(expr.Scalar("exp(t)"))
		var calls []float64
		b := analysis.Exponential()
		b.Exact = func(t float64) dynamo.State {
			calls = append(calls, t)
			y, err := exact.Derive(t, dynamo.Scalar(0))
			Expect(err).NotTo(HaveOccurred())
			return y
		}

		report, err := analysis.OrderOfConvergence(integrators.RungeKutta4, b, analysis.DefaultSteps)
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(HaveLen(len(analysis.DefaultSteps)))

		ref, err := analysis.OrderOfConvergence(integrators.RungeKutta4, analysis.Exponential(), analysis.DefaultSteps)
		Expect(err).NotTo(HaveOccurred())
		for i := range ref.Errors {
			Expect(report.Errors[i]).To(BeNumerically("~", ref.Errors[i], 1e-15))
		}
	})

	DescribeTable("matches the theoretical order",
		func(method integrators.Method, b analysis.Benchmark) {
			report, err := analysis.OrderOfConvergence(method, b, analysis.DefaultSteps)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Method).To(Equal(method))
			Expect(report.Benchmark).To(Equal(b.Name))
			Expect(report.Errors).To(HaveLen(len(analysis.DefaultSteps)))
			Expect(report.Orders).To(HaveLen(len(analysis.DefaultSteps) - 1))
			Expect(report.Mean).To(BeNumerically("~", float64(method.Order()), 0.5))
			Expect(report.Fit).To(BeNumerically("~", float64(method.Order()), 0.5))

			for i := 1; i < len(report.Errors); i++ {
				Expect(report.Errors[i]).To(BeNumerically("<", report.Errors[i-1]))
			}
		},
		Entry("euler on exp", integrators.ForwardEuler, analysis.Exponential()),
		Entry("midpoint on exp", integrators.ExplicitMidpoint, analysis.Exponential()),
		Entry("rk4 on exp", integrators.RungeKutta4, analysis.Exponential()),
		Entry("euler on decay", integrators.ForwardEuler, analysis.Decay()),
		Entry("midpoint on linear", integrators.ExplicitMidpoint, analysis.Linear()),
		Entry("rk4 on oscillator", integrators.RungeKutta4, analysis.Oscillator()),
		Entry("euler on oscillator", integrators.ForwardEuler, analysis.Oscillator()),
	)

	It("rejects a non-positive step before solving", func() {
		_, err := analysis.OrderOfConvergence(integrators.RungeKutta4, analysis.Exponential(), []float64{0.1, 0})
		Expect(err).To(MatchError(dynamo.ErrConvergenceInput))
	})

	It("reuses a benchmark across methods", func() {
		b := analysis.Oscillator()
		for _, m := range integrators.Methods() {
			_, err := analysis.OrderOfConvergence(m, b, analysis.DefaultSteps)
			Expect(err).NotTo(HaveOccurred())
		}
	})
})

var _ = Describe("ComputeOrderOfConvergence", func() {
	DescribeTable("resolves solvers by name",
		func(name string, want float64) {
			order, err := analysis.ComputeOrderOfConvergence(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(order).To(BeNumerically("~", want, 0.5))
		},
		Entry("ForwardEulerSolver", "ForwardEulerSolver", 1.0),
		Entry("ExplicitMidpointSolver", "ExplicitMidpointSolver", 2.0),
		Entry("RK4Solver", "RK4Solver", 4.0),
	)

	It("rejects unknown solvers", func() {
		_, err := analysis.ComputeOrderOfConvergence("ImplicitEulerSolver")
		Expect(err).To(MatchError(dynamo.ErrUnknownMethod))
	})
})

var _ = Describe("SolveAndMeasure", func() {
	It("returns the trajectory and a non-negative duration", func() {
		fn := expr.MustCompile(expr.Scalar("y"))
		timed, err := analysis.SolveAndMeasure(sim.NewRK4(fn, dynamo.Scalar(1), 0, 1, 0.01))
		Expect(err).NotTo(HaveOccurred())
		Expect(timed.Len()).To(Equal(101))
		Expect(timed.Elapsed).To(BeNumerically(">=", 0))
		Expect(timed.FinalState().Value()).To(BeNumerically("~", math.E, 2e-8))
	})

	It("propagates solve errors", func() {
		fn := expr.MustCompile(expr.Scalar("y"))
		_, err := analysis.SolveAndMeasure(sim.NewRK4(fn, dynamo.Scalar(1), 0, 1, 0))
		Expect(err).To(MatchError(dynamo.ErrInvalidStep))
	})
})

var _ = Describe("Benchmarks", func() {
	It("lists the built-ins sorted by name", func() {
		var names []string
		for _, b := range analysis.Benchmarks() {
			names = append(names, b.Name)
		}
		Expect(names).To(Equal([]string{"decay", "exp", "linear", "oscillator"}))
	})

	It("starts every benchmark on its exact solution", func() {
		for _, b := range analysis.Benchmarks() {
			e, err := analysis.ComputeError(b.Y0, b.Exact(b.T0))
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNumerically("<", 1e-15), b.Name)
		}
	})

	It("reports unknown names", func() {
		_, err := analysis.GetBenchmark("lorenz")
		Expect(err).To(HaveOccurred())
	})
})
