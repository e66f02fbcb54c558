package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/odekit/internal/sim"
)

// PhasePortrait plots component j against component i of a vector
// trajectory on a Braille canvas of width x height cells.
func PhasePortrait(traj *sim.Trajectory, i, j, width, height int) (string, error) {
	if traj == nil || traj.Len() == 0 {
		return "", fmt.Errorf("viz: empty trajectory")
	}
	n := traj.Shape().Len
	if i < 0 || j < 0 || i >= n || j >= n {
		return "", fmt.Errorf("viz: components (%d, %d) out of range for %s", i, j, traj.Shape())
	}
	if i == j {
		return "", fmt.Errorf("viz: phase portrait needs two distinct components")
	}
	if width <= 0 {
		width = DefaultPlotWidth
	}
	if height <= 0 {
		height = DefaultPlotHeight
	}

	xs, ys := traj.Component(i), traj.Component(j)
	bounds := BoundsOf(xs, ys, 0.1)

	c := NewCanvas(width, height)
	c.DrawAxes(bounds)
	c.DrawPath(bounds, xs, ys)

	var b strings.Builder
	b.WriteString(titleStyle().Render(fmt.Sprintf("phase portrait y%d vs y%d", j, i)))
	b.WriteByte('\n')
	b.WriteString(c.String())
	b.WriteString(labelStyle().Render(fmt.Sprintf("y%d in [%.3g, %.3g]  y%d in [%.3g, %.3g]",
		i, bounds.MinX, bounds.MaxX, j, bounds.MinY, bounds.MaxY)))
	b.WriteByte('\n')
	return b.String(), nil
}
