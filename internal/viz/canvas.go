package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// brailleBit maps a sub-pixel (row, column) inside one braille cell to its
// dot bit. Each cell is 2 dots wide and 4 tall.
var brailleBit = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille dot grid of Cols x Rows cells, addressed in dots.
type Canvas struct {
	Cols, Rows int
	cells      [][]rune
}

func NewCanvas(cols, rows int) *Canvas {
	c := &Canvas{Cols: cols, Rows: rows, cells: make([][]rune, rows)}
	for i := range c.cells {
		c.cells[i] = make([]rune, cols)
	}
	c.Clear()
	return c
}

func (c *Canvas) DotsWide() int { return c.Cols * 2 }
func (c *Canvas) DotsHigh() int { return c.Rows * 4 }

// Set lights the dot at (x, y); out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.DotsWide() || y >= c.DotsHigh() {
		return
	}
	c.cells[y/4][x/2] |= brailleBit[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= c.DotsWide() || y >= c.DotsHigh() {
		return false
	}
	return c.cells[y/4][x/2]&brailleBit[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Line joins two dots with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// DrawOrbit projects positions onto the frame's x-y plane, centered on the
// origin and scaled so the farthest point or the body fits. The body is
// drawn as a circle of radius bodyRadius.
func (c *Canvas) DrawOrbit(positions []r3.Vec, bodyRadius float64) {
	extent := bodyRadius
	for _, p := range positions {
		extent = math.Max(extent, math.Hypot(p.X, p.Y))
	}
	if extent == 0 {
		return
	}

	cx, cy := float64(c.DotsWide())/2, float64(c.DotsHigh())/2
	scale := 0.95 * math.Min(cx, cy) / extent
	project := func(x, y float64) (int, int) {
		return int(math.Round(cx + x*scale)), int(math.Round(cy - y*scale))
	}

	if bodyRadius > 0 {
		const segments = 72
		px, py := project(bodyRadius, 0)
		for i := 1; i <= segments; i++ {
			θ := 2 * math.Pi * float64(i) / segments
			x, y := project(bodyRadius*math.Cos(θ), bodyRadius*math.Sin(θ))
			c.Line(px, py, x, y)
			px, py = x, y
		}
	}

	for i, p := range positions {
		x, y := project(p.X, p.Y)
		if i == 0 {
			c.Set(x, y)
			continue
		}
		px, py := project(positions[i-1].X, positions[i-1].Y)
		c.Line(px, py, x, y)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
