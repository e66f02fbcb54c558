package viz

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/experiment"
	"github.com/san-kum/odekit/internal/integrators"
	"github.com/san-kum/odekit/internal/sim"
)

func oscillatorTrajectory(t *testing.T) *sim.Trajectory {
	t.Helper()
	sys := dynamo.SystemFunc(func(t float64, y dynamo.State) (dynamo.State, error) {
		return dynamo.Vector(y.At(1), -y.At(0)), nil
	})
	traj, err := sim.NewRK4(sys, dynamo.Vector(1, 0), 0, 6.3, 0.05).Solve()
	if err != nil {
		t.Fatal(err)
	}
	return traj
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if got := c.Grid[0][0]; got != brailleBlank|0x1 {
		t.Errorf("cell 0 = %U, want %U", got, brailleBlank|0x1)
	}
	if got := c.Grid[0][1]; got != brailleBlank|0x80 {
		t.Errorf("cell 1 = %U, want %U", got, brailleBlank|0x80)
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)

	for i := 0; i < 8; i++ {
		if c.Grid[i/4][i/2]&pixelMap[i%4][i%2] == 0 {
			t.Errorf("pixel (%d, %d) not set", i, i)
		}
	}
	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(lines))
	}
	if n := utf8.RuneCountInString(lines[0]); n != 4 {
		t.Errorf("expected 4 cells per row, got %d", n)
	}
}

func TestBoundsOf(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		want   Bounds
	}{
		{"padded", []float64{0, 10}, []float64{-1, 1}, Bounds{-1, 11, -1.2, 1.2}},
		{"degenerate", []float64{2, 2}, []float64{3, 3}, Bounds{1.9, 2.1, 2.9, 3.1}},
		{"empty", nil, nil, Bounds{-1, 1, -1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoundsOf(tt.xs, tt.ys, 0.1)
			const eps = 1e-12
			if abs(got.MinX-tt.want.MinX) > eps || abs(got.MaxX-tt.want.MaxX) > eps ||
				abs(got.MinY-tt.want.MinY) > eps || abs(got.MaxY-tt.want.MaxY) > eps {
				t.Errorf("BoundsOf = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestPlotTrajectory(t *testing.T) {
	out := PlotTrajectory(oscillatorTrajectory(t), 8, 40)
	for _, caption := range []string{"y0(t)", "y1(t)"} {
		if !strings.Contains(out, caption) {
			t.Errorf("plot missing caption %q", caption)
		}
	}

	if out := PlotTrajectory(nil, 0, 0); !strings.Contains(out, "empty") {
		t.Errorf("unexpected output for nil trajectory: %q", out)
	}
}

func TestPhasePortrait(t *testing.T) {
	traj := oscillatorTrajectory(t)

	out, err := PhasePortrait(traj, 0, 1, 30, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "y1 vs y0") {
		t.Errorf("missing title in %q", out)
	}
	if !strings.ContainsFunc(out, func(r rune) bool {
		return r > brailleBlank && r <= brailleBlank+0xff
	}) {
		t.Error("no pixels drawn")
	}

	if _, err := PhasePortrait(traj, 0, 0, 30, 10); err == nil {
		t.Error("expected error for identical components")
	}
	if _, err := PhasePortrait(traj, 0, 2, 30, 10); err == nil {
		t.Error("expected error for out-of-range component")
	}
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"ramp", []float64{0, 1, 2, 3, 4, 5, 6, 7}, 8, "▁▂▃▄▅▆▇█"},
		{"flat", []float64{1, 1, 1}, 3, "▁▁▁"},
		{"empty", nil, 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.values, tt.width); got != tt.want {
				t.Errorf("Sparkline = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetTheme(t *testing.T) {
	defer func() { currentTheme = ThemeDefault }()

	if err := SetTheme("retro"); err != nil {
		t.Fatal(err)
	}
	if CurrentTheme().Name != "retro" {
		t.Errorf("theme = %s, want retro", CurrentTheme().Name)
	}
	if err := SetTheme("neon"); err == nil {
		t.Error("expected error for unknown theme")
	}
	if got := ThemeNames(); len(got) != 3 || got[0] != "default" {
		t.Errorf("ThemeNames = %v", got)
	}
}

func TestRenderConvergence(t *testing.T) {
	report, err := analysis.OrderOfConvergence(integrators.ExplicitMidpoint, analysis.Exponential(), analysis.DefaultSteps)
	if err != nil {
		t.Fatal(err)
	}
	out := RenderConvergence([]*analysis.ConvergenceReport{report})
	for _, want := range []string{"ExplicitMidpointSolver on exp", "order", "0.0625", "mean order", "expected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	summaries := []experiment.Summary{
		{Solver: "RK4Solver", Total: 2, Passed: 2},
		{Solver: "ForwardEulerSolver", Total: 2, Passed: 1},
	}
	failures := []experiment.CaseResult{{Index: 1, Solver: "ForwardEulerSolver", Error: 0.5, Tolerance: 2e-4}}

	out := RenderSummary(summaries, failures)
	for _, want := range []string{"RK4Solver: 2/2 tests passed", "ForwardEulerSolver: 1/2 tests passed", "tolerance"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSolve(t *testing.T) {
	out := RenderSolve("RK4Solver", oscillatorTrajectory(t), 0)
	for _, want := range []string{"RK4Solver", "samples", "127"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
