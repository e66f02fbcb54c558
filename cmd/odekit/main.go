package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/automation"
	"github.com/san-kum/odekit/internal/config"
	"github.com/san-kum/odekit/internal/experiment"
	"github.com/san-kum/odekit/internal/export"
	"github.com/san-kum/odekit/internal/logging"
	"github.com/san-kum/odekit/internal/metrics"
	"github.com/san-kum/odekit/internal/optim"
	"github.com/san-kum/odekit/internal/storage"
	"github.com/san-kum/odekit/internal/store"
	"github.com/san-kum/odekit/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	theme     string

	// problem flags
	method     string
	exprs      []string
	exact      []string
	invariant  string
	vector     bool
	t0         float64
	tf         float64
	h          float64
	y0         []float64
	validate   bool
	configFile string
	preset     string

	// solve output
	csvPath   string
	appendCSV bool
	showPlot  bool
	noSave    bool

	// plotting
	plotHeight int
	plotWidth  int
	phase      bool
	xAxis      int
	yAxis      int

	// eval
	evalT float64
	evalY []float64

	// converge
	benchmark string
	steps     []float64
	plotFile  string

	// export-json
	outFile string

	// tune
	tol    float64
	h0     float64
	levels int

	// montecarlo
	trials  int
	perturb float64
	seed    int64
	bound   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "odekit",
		Short:         "fixed-step ODE solvers driven by expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			format, err := logging.ParseFormat(logFormat)
			if err != nil {
				return err
			}
			logging.Init(os.Stderr, level, format)
			return viz.SetTheme(theme)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "default", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve an initial-value problem",
		Args:  cobra.NoArgs,
		RunE:  solve,
	}
	addProblemFlags(solveCmd)
	solveCmd.Flags().StringVar(&csvPath, "csv", "", "also write the trajectory to this CSV file")
	solveCmd.Flags().BoolVar(&appendCSV, "append", false, "append to the CSV file instead of truncating it")
	solveCmd.Flags().BoolVar(&showPlot, "plot", false, "plot the trajectory")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	addPlotFlags(solveCmd)

	evalCmd := &cobra.Command{
		Use:   "eval [expr...]",
		Short: "evaluate an expression at (t, y)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  eval,
	}
	evalCmd.Flags().Float64Var(&evalT, "t", 0, "time")
	evalCmd.Flags().Float64SliceVar(&evalY, "y", []float64{1}, "state")
	evalCmd.Flags().BoolVar(&vector, "vector", false, "treat a single expression as a one-component vector")

	convergeCmd := &cobra.Command{
		Use:   "converge [method...]",
		Short: "estimate the order of convergence",
		RunE:  converge,
	}
	convergeCmd.Flags().StringVar(&benchmark, "benchmark", "exp", "benchmark problem")
	convergeCmd.Flags().Float64SliceVar(&steps, "steps", nil, "step sizes (default 1/8 .. 1/64)")
	convergeCmd.Flags().StringVar(&plotFile, "plot-file", "", "write a log-log plot to this file")

	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "time every solver on one problem",
		Args:  cobra.NoArgs,
		RunE:  timeSolvers,
	}
	addProblemFlags(timeCmd)

	testCmd := &cobra.Command{
		Use:   "test [cases.csv]",
		Short: "run regression cases through the parser and every solver",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTests,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a stored run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}
	addPlotFlags(showCmd)
	showCmd.Flags().BoolVar(&phase, "phase", false, "draw a phase portrait")
	showCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	showCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportPlotCmd := &cobra.Command{
		Use:   "export-plot [run_id] [file]",
		Short: "render a stored run to an image (png, svg, pdf, ...)",
		Args:  cobra.ExactArgs(2),
		RunE:  exportPlot,
	}
	exportPlotCmd.Flags().BoolVar(&phase, "phase", false, "draw a phase portrait")
	exportPlotCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	exportPlotCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in problems",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML batch of problems",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [method...]",
		Short: "find the largest step that meets a tolerance",
		RunE:  tune,
	}
	tuneCmd.Flags().StringVar(&benchmark, "benchmark", "exp", "benchmark problem")
	tuneCmd.Flags().Float64Var(&tol, "tol", 1e-6, "error tolerance at the final time")
	tuneCmd.Flags().Float64Var(&h0, "h0", 0.5, "largest step tried")
	tuneCmd.Flags().IntVar(&levels, "levels", 16, "number of halvings tried")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "solve from randomly perturbed initial states",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addProblemFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "largest perturbation per component")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	monteCarloCmd.Flags().Float64Var(&bound, "bound", config.DefaultBound, "largest final norm counted as stable")

	rootCmd.AddCommand(solveCmd, evalCmd, convergeCmd, timeCmd, testCmd, listCmd, showCmd,
		exportJSONCmd, exportPlotCmd, presetsCmd, scenarioCmd, tuneCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "solver")
	cmd.Flags().StringArrayVar(&exprs, "expr", nil, "right-hand side; repeat or use {a, b} for systems")
	cmd.Flags().StringArrayVar(&exact, "exact", nil, "closed-form solution in t, one per component")
	cmd.Flags().StringVar(&invariant, "invariant", "", "conserved quantity to track, e.g. \"y0^2 + y1^2\"")
	cmd.Flags().BoolVar(&vector, "vector", false, "treat a single expression as a one-component vector")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultT0, "start time")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultTf, "end time")
	cmd.Flags().Float64Var(&h, "h", config.DefaultH, "step size")
	cmd.Flags().Float64SliceVar(&y0, "y0", []float64{1}, "initial state")
	cmd.Flags().BoolVar(&validate, "validate", false, "stop when a step produces NaN or Inf")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in problem")
}

func addPlotFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&plotHeight, "height", viz.DefaultPlotHeight, "plot height")
	cmd.Flags().IntVar(&plotWidth, "width", viz.DefaultPlotWidth, "plot width")
}

// loadConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("log-format") {
			level, _ := logging.ParseLevel(cfg.Log.Level)
			format, _ := logging.ParseFormat(cfg.Log.Format)
			logging.Init(os.Stderr, level, format)
		}
		if !cmd.Flags().Changed("data") && cfg.Output.Dir != "" {
			dataDir = cfg.Output.Dir
		}
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("expr") {
		cfg.Expr = exprs
		cfg.Exact = nil
		cfg.Invariant = ""
	}
	if flags.Changed("vector") {
		cfg.Vector = vector
	}
	if flags.Changed("t0") {
		cfg.T0 = t0
		cfg.Exact = nil
	}
	if flags.Changed("tf") {
		cfg.Tf = tf
	}
	if flags.Changed("h") {
		cfg.H = h
	}
	if flags.Changed("y0") {
		cfg.Y0 = y0
		cfg.Exact = nil
	}
	if flags.Changed("exact") {
		cfg.Exact = exact
	}
	if flags.Changed("invariant") {
		cfg.Invariant = invariant
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func solve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	solver, err := cfg.NewSolver()
	if err != nil {
		return err
	}
	ms, err := cfg.Metrics()
	if err != nil {
		return err
	}
	metrics.Attach(solver, ms...)

	timed, err := analysis.SolveAndMeasure(solver)
	if err != nil {
		logging.SolveFailed(solver.Name(), err)
		return err
	}
	logging.SolveCompleted(solver.Name(), timed.Len(), timed.Elapsed)

	fmt.Print(viz.RenderSolve(solver.Name(), timed.Trajectory, timed.Elapsed))

	meta := storage.RunMetadata{
		Name:       preset,
		Method:     solver.Name(),
		Expression: cfg.Expr,
		Vector:     timed.FinalState().IsVector(),
		T0:         cfg.T0,
		Tf:         cfg.Tf,
		H:          cfg.H,
		Y0:         cfg.Y0,
		ElapsedMS:  float64(timed.Elapsed.Microseconds()) / 1000,
		Metrics:    metrics.Collect(ms...),
	}

	exactFn, err := cfg.ExactSolution()
	if err != nil {
		return err
	}
	if exactFn != nil {
		t, y := timed.Final()
		e, err := analysis.ComputeError(y, exactFn(t))
		if err != nil {
			return err
		}
		meta.Metrics["error"] = e
	}

	fmt.Println("metrics:")
	for _, m := range ms {
		fmt.Printf("  %s: %.6g\n", m.Name(), m.Value())
	}
	if e, ok := meta.Metrics["error"]; ok {
		fmt.Printf("  error: %.6e\n", e)
	}

	if csvPath != "" {
		if err := storage.SaveCSV(csvPath, timed.Trajectory, appendCSV); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvPath)
	}

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		id, err := st.Save(meta, timed.Trajectory)
		if err != nil {
			return err
		}
		logging.InfoContext(logging.WithRunID(cmd.Context(), id), "run_saved", "dir", st.Dir())
		fmt.Printf("run id: %s\n", id)
	}

	if showPlot {
		fmt.Println()
		fmt.Print(viz.PlotTrajectory(timed.Trajectory, plotHeight, plotWidth))
	}
	return nil
}

func eval(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Expr = args
	cfg.Vector = vector
	cfg.Y0 = evalY

	e, err := cfg.Expression()
	if err != nil {
		return err
	}
	y, err := cfg.InitialState()
	if err != nil {
		return err
	}

	p, err := cfg.Problem()
	if err != nil {
		return err
	}
	dy, err := p.System.Derive(evalT, y)
	if err != nil {
		return err
	}

	fmt.Printf("f(t=%g, y=%s) = %s\n", evalT, y, dy)
	logging.Debug("evaluated", "expr", e.String(), "t", evalT)
	return nil
}

func converge(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	reports, err := automation.RunSweep(cmd.Context(), &automation.StepSweep{
		Methods:   args,
		Benchmark: benchmark,
		Steps:     steps,
	}, registry)
	if err != nil {
		return err
	}

	fmt.Print(viz.RenderConvergence(reports))

	if plotFile != "" {
		if err := export.SaveConvergencePlot(plotFile, reports); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", plotFile)
	}
	return nil
}

func timeSolvers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exactFn, err := cfg.ExactSolution()
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tSAMPLES\tELAPSED\tFINAL\tERROR")

	for _, name := range registry.ListSolvers() {
		p, err := cfg.Problem()
		if err != nil {
			return err
		}
		solver, err := registry.NewSolver(name, p)
		if err != nil {
			return err
		}
		solver.ValidateState = cfg.ValidateState

		timed, err := analysis.SolveAndMeasure(solver)
		if err != nil {
			logging.SolveFailed(name, err)
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", name, err)
			continue
		}
		logging.SolveCompleted(name, timed.Len(), timed.Elapsed)

		t, y := timed.Final()
		errCol := "-"
		if exactFn != nil {
			if e, err := analysis.ComputeError(y, exactFn(t)); err == nil {
				errCol = fmt.Sprintf("%.3e", e)
			}
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%s\t%s\n", name, timed.Len(), timed.Elapsed, y, errCol)
	}
	return w.Flush()
}

func runTests(cmd *cobra.Command, args []string) error {
	path := "test_cases.csv"
	if len(args) > 0 {
		path = args[0]
	}
	cases, err := experiment.LoadCasesFile(path)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	tester := experiment.NewTester(registry)

	results, parser := tester.RunParserCases(cases)
	summaries := []experiment.Summary{parser}
	failures := experiment.Failed(results)

	for _, name := range registry.ListSolvers() {
		results, s, err := tester.RunSolverCases(name, cases)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
		failures = append(failures, experiment.Failed(results)...)
	}

	fmt.Print(viz.RenderSummary(summaries, failures))
	if len(failures) > 0 {
		return fmt.Errorf("%d case(s) failed", len(failures))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	fmt.Print(viz.RenderRuns(runs))
	return nil
}

func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	meta, err := st.Latest()
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %s on %s\n\n", meta.ID, meta.Method, strings.Join(meta.Expression, ", "))
	if phase {
		out, err := viz.PhasePortrait(traj, xAxis, yAxis, plotWidth, plotHeight)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	fmt.Print(viz.PlotTrajectory(traj, plotHeight, plotWidth))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	data := store.NewExportData(*meta, traj)
	if outFile == "" {
		return store.ExportJSON(os.Stdout, data)
	}
	if err := store.ExportJSONFile(outFile, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportPlot(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	if phase {
		err = export.SavePhasePlot(args[1], traj, xAxis, yAxis)
	} else {
		title := fmt.Sprintf("%s: %s", meta.Method, strings.Join(meta.Expression, ", "))
		err = export.SaveTrajectoryPlot(args[1], traj, title)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXPRESSION\tY0\tINTERVAL\tH")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%v\t[%g, %g]\t%g\n", name, strings.Join(p.Expr, ", "), p.Y0, p.T0, p.Tf, p.H)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	results, runErr := automation.RunScenario(cmd.Context(), scenario, st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSOLVER\tSAMPLES\tFINAL\tERROR\tELAPSED\tRUN ID")
	for _, r := range results {
		errCol := "-"
		if r.HasExact {
			errCol = fmt.Sprintf("%.3e", r.Error)
		}
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%v\t%s\n", r.Name, r.Method, r.Samples, r.Final, errCol, r.Elapsed, id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func tune(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	b, err := registry.GetBenchmark(benchmark)
	if err != nil {
		return err
	}
	names := args
	if len(names) == 0 {
		names = registry.ListSolvers()
	}

	candidates := optim.HalvingSteps(h0, levels)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tH\tSTEPS\tERROR")
	for _, name := range names {
		m, err := registry.GetMethod(name)
		if err != nil {
			return err
		}
		res, err := optim.LargestStep(cmd.Context(), m, b, tol, candidates)
		if err != nil {
			logging.Warn("tune_failed", "method", m.String(), "error", err)
			fmt.Fprintf(w, "%s\t-\t-\t-\n", m)
			continue
		}
		fmt.Fprintf(w, "%s\t%g\t%d\t%.3e\n", m, res.H, res.Steps, res.Error)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cmd.Flags().Changed("bound") {
		bound = cfg.Bound
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
		Bound:        bound,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("%d trials: %d stable, %d unstable\n", len(results), stable, unstable)
	return nil
}
