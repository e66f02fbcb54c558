package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells, each holding 2x4 pixels. Pixel
// coordinates run from (0, 0) at the top left to (2*Width-1, 4*Height-1).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = []rune(strings.Repeat(string(rune(brailleBlank)), w))
	}
	return c
}

func (c *Canvas) PixelWidth() int  { return 2 * c.Width }
func (c *Canvas) PixelHeight() int { return 4 * c.Height }

// Set turns on one pixel. Out-of-range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.PixelWidth() || y >= c.PixelHeight() {
		return
	}
	c.Grid[y/4][x/2] |= pixelMap[y%4][x%2]
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Bounds is a rectangle in data coordinates.
type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// BoundsOf returns the padded extent of the finite points in xs and ys.
func BoundsOf(xs, ys []float64, pad float64) Bounds {
	b := Bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			continue
		}
		b.MinX, b.MaxX = math.Min(b.MinX, xs[i]), math.Max(b.MaxX, xs[i])
		b.MinY, b.MaxY = math.Min(b.MinY, ys[i]), math.Max(b.MaxY, ys[i])
	}
	if b.MinX > b.MaxX {
		return Bounds{-1, 1, -1, 1}
	}

	widen := func(lo, hi float64) (float64, float64) {
		r := hi - lo
		if r == 0 {
			r = 1
		}
		return lo - r*pad, hi + r*pad
	}
	b.MinX, b.MaxX = widen(b.MinX, b.MaxX)
	b.MinY, b.MaxY = widen(b.MinY, b.MaxY)
	return b
}

// project maps a data point to pixel coordinates, y growing downwards.
func (c *Canvas) project(b Bounds, x, y float64) (int, int) {
	px := int(math.Round((x - b.MinX) / (b.MaxX - b.MinX) * float64(c.PixelWidth()-1)))
	py := c.PixelHeight() - 1 - int(math.Round((y-b.MinY)/(b.MaxY-b.MinY)*float64(c.PixelHeight()-1)))
	return px, py
}

// DrawPath connects consecutive points. Non-finite points break the path.
func (c *Canvas) DrawPath(b Bounds, xs, ys []float64) {
	havePrev := false
	var px, py int
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			havePrev = false
			continue
		}
		x, y := c.project(b, xs[i], ys[i])
		if havePrev {
			c.DrawLine(px, py, x, y)
		} else {
			c.Set(x, y)
		}
		px, py, havePrev = x, y, true
	}
}

// DrawAxes draws x=0 and y=0 when they fall inside b.
func (c *Canvas) DrawAxes(b Bounds) {
	if b.MinX <= 0 && b.MaxX >= 0 {
		x, _ := c.project(b, 0, 0)
		for y := 0; y < c.PixelHeight(); y += 2 {
			c.Set(x, y)
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		_, y := c.project(b, 0, 0)
		for x := 0; x < c.PixelWidth(); x += 2 {
			c.Set(x, y)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
