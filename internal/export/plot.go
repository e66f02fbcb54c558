// Package export writes trajectories and convergence reports as image
// files. The format follows the file extension: .png, .svg, .pdf, .eps,
// .jpg or .tif.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/odekit/internal/analysis"
	"github.com/san-kum/odekit/internal/sim"
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

var formats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true,
	".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

func checkFormat(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !formats[ext] {
		return fmt.Errorf("export: unsupported image format %q", ext)
	}
	return nil
}

// SaveTrajectoryPlot draws every component of traj against time.
func SaveTrajectoryPlot(path string, traj *sim.Trajectory, title string) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if traj == nil || traj.Len() == 0 {
		return fmt.Errorf("export: empty trajectory")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	n := traj.Shape().Len
	for i := 0; i < n; i++ {
		line, err := plotter.NewLine(series(traj.Times, traj.Component(i)))
		if err != nil {
			return fmt.Errorf("export: component %d: %w", i, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		if n > 1 {
			p.Legend.Add(fmt.Sprintf("y%d", i), line)
		}
	}

	return save(p, path)
}

// SavePhasePlot draws component j against component i.
func SavePhasePlot(path string, traj *sim.Trajectory, i, j int) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if traj == nil || traj.Len() == 0 {
		return fmt.Errorf("export: empty trajectory")
	}
	if n := traj.Shape().Len; i < 0 || j < 0 || i >= n || j >= n || i == j {
		return fmt.Errorf("export: invalid phase components (%d, %d) for %s", i, j, traj.Shape())
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("y%d vs y%d", j, i)
	p.X.Label.Text = fmt.Sprintf("y%d", i)
	p.Y.Label.Text = fmt.Sprintf("y%d", j)
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(series(traj.Component(i), traj.Component(j)))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	return save(p, path)
}

// SaveConvergencePlot draws error against step size on log-log axes, one
// series per report, with a dashed h^p guide for each method's order.
func SaveConvergencePlot(path string, reports []*analysis.ConvergenceReport) error {
	if err := checkFormat(path); err != nil {
		return err
	}
	if len(reports) == 0 {
		return fmt.Errorf("export: no convergence reports")
	}

	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "h"
	p.Y.Label.Text = "error"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true
	p.Legend.Left = true

	for k, r := range reports {
		xys := logSeries(r.Steps, r.Errors)
		if len(xys) == 0 {
			return fmt.Errorf("export: %s on %s has no positive errors", r.Method, r.Benchmark)
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("export: %s: %w", r.Method, err)
		}
		line.Color = plotutil.Color(k)
		points.Color = plotutil.Color(k)
		points.Shape = plotutil.Shape(k)
		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("%s (%s)", r.Method, r.Benchmark), line, points)

		guide, err := plotter.NewLine(orderGuide(xys, r.Expected()))
		if err != nil {
			return fmt.Errorf("export: %s guide: %w", r.Method, err)
		}
		guide.Color = plotutil.Color(k)
		guide.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(guide)
	}

	return save(p, path)
}

// orderGuide is C*h^order anchored at the first point of xys.
func orderGuide(xys plotter.XYs, order int) plotter.XYs {
	first := xys[0]
	out := make(plotter.XYs, len(xys))
	for i, pt := range xys {
		out[i].X = pt.X
		out[i].Y = first.Y * math.Pow(pt.X/first.X, float64(order))
	}
	return out
}

// series pairs xs with ys, dropping non-finite points.
func series(xs, ys []float64) plotter.XYs {
	out := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		out = append(out, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return out
}

// logSeries is series restricted to points a log-log plot can show.
func logSeries(xs, ys []float64) plotter.XYs {
	all := series(xs, ys)
	out := all[:0]
	for _, pt := range all {
		if pt.X > 0 && pt.Y > 0 {
			out = append(out, pt)
		}
	}
	return out
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func save(p *plot.Plot, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}
