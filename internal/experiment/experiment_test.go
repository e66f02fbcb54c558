package experiment_test

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/experiment"
	"github.com/san-kum/odekit/internal/expr"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

const caseTable = `type,expr,t0,tf,h,y0,expected_final,expected_derivative
scalar,y,0,1,0.001,1,2.718281828459045,1
vector,"y0,y1",0,1,0.001,"1,1","2.718281828459045,2.718281828459045","1,1"
scalar,-2 * y,0,1,0.01,1,0.1353352832366127,-2
scalar,y,0,1,,1,2.718281828459045,1
matrix,y,0,1,0.01,1,1,1
scalar,y,0,one,0.01,1,1,1
vector,"y0,y1",0,1,0.01,"1,2,3","1,1","1,1"
vector,"max(y0, y1), y1",0,1,0.01,"1,2","1,1","2,2"
`

var _ = Describe("Registry", func() {
	var reg *experiment.Registry

	BeforeEach(func() {
		reg = experiment.NewRegistry()
	})

	It("lists canonical solver names in order", func() {
		Expect(reg.ListSolvers()).To(Equal([]string{"ForwardEulerSolver", "ExplicitMidpointSolver", "RK4Solver"}))
	})

	DescribeTable("resolves names and aliases",
		func(name string, want integrators.Method) {
			m, err := reg.GetMethod(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("canonical euler", "ForwardEulerSolver", integrators.ForwardEuler),
		Entry("short midpoint", "midpoint", integrators.ExplicitMidpoint),
		Entry("mixed case", "Rk4", integrators.RungeKutta4),
	)

	It("rejects unknown solvers", func() {
		_, err := reg.GetMethod("BackwardEulerSolver")
		Expect(err).To(MatchError(dynamo.ErrUnknownMethod))
	})

	It("builds a solver for a problem", func() {
		fn := expr.MustCompile(expr.Scalar("y"))
		s, err := reg.NewSolver("rk4", sim.Problem{System: fn, T0: 0, Tf: 1, H: 0.1, Y0: dynamo.Scalar(1)})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name()).To(Equal("RK4Solver"))
	})

	It("exposes the benchmarks", func() {
		Expect(reg.ListBenchmarks()).To(ContainElements("exp", "oscillator"))
		b, err := reg.GetBenchmark("decay")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Name).To(Equal("decay"))
	})
})

var _ = Describe("LoadCases", func() {
	It("keeps valid rows and skips malformed ones", func() {
		cases, err := experiment.LoadCases(strings.NewReader(caseTable))
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(HaveLen(4))

		Expect(cases[0].Kind).To(Equal(dynamo.KindScalar))
		Expect(cases[0].Expression.String()).To(Equal("y"))
		Expect(cases[0].H).To(Equal(0.001))

		Expect(cases[1].Kind).To(Equal(dynamo.KindVector))
		Expect(cases[1].Expression.Components()).To(Equal([]string{"y0", "y1"}))
		Expect(cases[1].Y0.Equal(dynamo.Vector(1, 1))).To(BeTrue())

		Expect(cases[3].Expression.Components()).To(Equal([]string{"max(y0, y1)", "y1"}))
	})

	It("rejects a header without the required columns", func() {
		_, err := experiment.LoadCases(strings.NewReader("type,expr\nscalar,y\n"))
		Expect(err).To(HaveOccurred())
	})

	It("returns no cases for an empty stream", func() {
		cases, err := experiment.LoadCases(strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(BeEmpty())
	})

	It("falls back to the defaults when the file is missing", func() {
		cases, err := experiment.LoadCasesFile(filepath.Join(GinkgoT().TempDir(), "missing.csv"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(HaveLen(len(experiment.DefaultCases())))
	})

	It("reads cases from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "cases.csv")
		Expect(os.WriteFile(path, []byte(caseTable), 0o644)).To(Succeed())

		cases, err := experiment.LoadCasesFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(HaveLen(4))
	})
})

var _ = Describe("Tester", func() {
	var tester *experiment.Tester

	BeforeEach(func() {
		tester = experiment.NewTester(nil)
	})

	It("checks derivatives of the default cases", func() {
		results, summary := tester.RunParserCases(experiment.DefaultCases())
		Expect(results).To(HaveLen(2))
		Expect(summary.AllPassed()).To(BeTrue())
		Expect(summary.String()).To(Equal("ExpressionParser: 2/2 tests passed"))
	})

	DescribeTable("passes the default cases with every solver",
		func(name string) {
			results, summary, err := tester.RunSolverCases(name, experiment.DefaultCases())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(Equal(2))
			for _, r := range results {
				Expect(r.Err).NotTo(HaveOccurred())
				Expect(r.Error).To(BeNumerically("<=", r.Tolerance))
			}
			Expect(summary.AllPassed()).To(BeTrue())
		},
		Entry("ForwardEulerSolver", "ForwardEulerSolver"),
		Entry("ExplicitMidpointSolver", "ExplicitMidpointSolver"),
		Entry("RK4Solver", "RK4Solver"),
	)

	It("reports a wrong expected value as a failure", func() {
		c := experiment.DefaultCases()[0]
		c.ExpectedFinal = dynamo.Scalar(3)
		c.ExpectedDerivative = dynamo.Scalar(2)

		_, parser := tester.RunParserCases([]experiment.Case{c})
		Expect(parser.Passed).To(Equal(0))

		results, summary, err := tester.RunSolverCases("rk4", []experiment.Case{c})
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Passed).To(Equal(0))
		Expect(results[0].Error).To(BeNumerically("~", 3-math.E, 1e-8))
	})

	It("records compile errors per case", func() {
		c := experiment.DefaultCases()[0]
		c.Expression = expr.Scalar("y +")

		results, _ := tester.RunParserCases([]experiment.Case{c})
		Expect(results[0].Passed).To(BeFalse())
		Expect(results[0].Err).To(MatchError(dynamo.ErrParse))
	})

	It("rejects an unknown solver", func() {
		_, _, err := tester.RunSolverCases("leapfrog", experiment.DefaultCases())
		Expect(err).To(MatchError(dynamo.ErrUnknownMethod))
	})

	It("runs everything", func() {
		summaries, ok := tester.RunAll(experiment.DefaultCases())
		Expect(ok).To(BeTrue())
		Expect(summaries).To(HaveLen(4))
	})

	It("filters failed results", func() {
		good := experiment.DefaultCases()[0]
		bad := good
		bad.Expression = expr.Scalar("2 * y")

		results, _ := tester.RunParserCases([]experiment.Case{good, bad})
		failed := experiment.Failed(results)
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].Index).To(Equal(2))
	})

	It("scales the Euler step", func() {
		div, tol := experiment.Tolerance(integrators.ForwardEuler)
		Expect(div).To(Equal(100.0))
		Expect(tol).To(Equal(2e-4))
	})
})
