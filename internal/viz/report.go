package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/experiment"
	"github.com/san-kum/odekit/internal/sim"
	"github.com/san-kum/odekit/internal/storage"
)

// orderSlack is how far a mean order may sit from the theoretical order
// before it is highlighted as a warning.
const orderSlack = 0.5

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(currentTheme.Muted)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(currentTheme.Primary).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(currentTheme.Text).Padding(0, 1)
		}).
		Headers(headers...)
}

// RenderConvergence renders one table per report with the error and
// estimated order for each step size.
func RenderConvergence(reports []*analysis.ConvergenceReport) string {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(titleStyle().Render(fmt.Sprintf("%s on %s", r.Method, r.Benchmark)))
		b.WriteByte('\n')

		t := newTable("h", "error", "order")
		for i, h := range r.Steps {
			order := "-"
			if i > 0 {
				order = fmt.Sprintf("%.4f", r.Orders[i-1])
			}
			t.Row(fmt.Sprintf("%g", h), fmt.Sprintf("%.6e", r.Errors[i]), order)
		}
		b.WriteString(t.Render())
		b.WriteByte('\n')

		verdict := passStyle()
		if math.Abs(r.Mean-float64(r.Expected())) > orderSlack {
			verdict = warnStyle()
		}
		fmt.Fprintf(&b, "%s %s  %s %s  %s %s\n\n",
			labelStyle().Render("mean order"), verdict.Render(fmt.Sprintf("%.4f", r.Mean)),
			labelStyle().Render("fit"), valueStyle().Render(fmt.Sprintf("%.4f", r.Fit)),
			labelStyle().Render("expected"), valueStyle().Render(fmt.Sprint(r.Expected())))
	}
	return b.String()
}

// RenderSolve summarises one finished solve.
func RenderSolve(method string, traj *sim.Trajectory, elapsed time.Duration) string {
	tf, y := traj.Final()
	rows := [][2]string{
		{"method", method},
		{"samples", fmt.Sprint(traj.Len())},
		{"final t", fmt.Sprintf("%g", tf)},
		{"final y", y.String()},
		{"elapsed", elapsed.Round(time.Microsecond).String()},
	}
	if traj.Len() > 1 {
		for i := 0; i < traj.Shape().Len; i++ {
			rows = append(rows, [2]string{componentNames(traj)[i], Sparkline(traj.Component(i), 40)})
		}
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s", labelStyle().Width(9).Render(row[0]), valueStyle().Render(row[1]))
	}
	return panelStyle().Render(b.String()) + "\n"
}

// RenderRuns lists stored runs, newest last.
func RenderRuns(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return labelStyle().Render("no stored runs") + "\n"
	}
	t := newTable("id", "method", "expression", "t", "h", "samples", "timestamp")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.Method,
			strings.Join(r.Expression, ", "),
			fmt.Sprintf("[%g, %g]", r.T0, r.Tf),
			fmt.Sprintf("%g", r.H),
			fmt.Sprint(r.Samples),
			r.Timestamp.Format(time.DateTime),
		)
	}
	return t.Render() + "\n"
}

// RenderSummary prints one line per solver in the "<name>: p/n tests
// passed" form, coloured by outcome, followed by any failing cases.
func RenderSummary(summaries []experiment.Summary, failures []experiment.CaseResult) string {
	var b strings.Builder
	for _, s := range summaries {
		style := passStyle()
		if !s.AllPassed() {
			style = failStyle()
		}
		b.WriteString(style.Render(s.String()))
		b.WriteByte('\n')
	}
	if len(failures) == 0 {
		return b.String()
	}

	b.WriteString(Separator(48))
	b.WriteByte('\n')
	t := newTable("solver", "case", "error", "tolerance", "reason")
	for _, f := range failures {
		reason := ""
		if f.Err != nil {
			reason = f.Err.Error()
		}
		t.Row(f.Solver, fmt.Sprint(f.Index), fmt.Sprintf("%.3e", f.Error), fmt.Sprintf("%.0e", f.Tolerance), reason)
	}
	b.WriteString(t.Render())
	b.WriteByte('\n')
	return b.String()
}
