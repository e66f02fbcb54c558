package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odekit/internal/dynamo"
	"github.com/san-kum/odekit/internal/sim"
)

const (
	DefaultPlotHeight = 12
	DefaultPlotWidth  = 60
)

// PlotTrajectory draws one line chart per state component. Non-finite
// samples are dropped from the chart.
func PlotTrajectory(traj *sim.Trajectory, height, width int) string {
	if traj == nil || traj.Len() == 0 {
		return "(empty trajectory)\n"
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}
	if width <= 0 {
		width = DefaultPlotWidth
	}

	t0, tf := traj.Times[0], traj.Times[traj.Len()-1]
	n := traj.Shape().Len
	names := componentNames(traj)

	var b strings.Builder
	for i := 0; i < n; i++ {
		series := finite(traj.Component(i))
		if len(series) == 0 {
			fmt.Fprintf(&b, "%s: no finite samples\n", names[i])
			continue
		}
		if len(series) == 1 {
			series = append(series, series[0])
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(height),
			asciigraph.Width(width),
			asciigraph.Precision(4),
			asciigraph.Caption(fmt.Sprintf("%s(t), t in [%g, %g]", names[i], t0, tf)),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}
	return b.String()
}

func componentNames(traj *sim.Trajectory) []string {
	if traj.Shape().Kind == dynamo.KindScalar {
		return []string{"y"}
	}
	n := traj.Shape().Len
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("y%d", i)
	}
	return names
}

func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}
