package viz

import (
	"math"
	"strings"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

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
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the canvas size in sub-pixels.
func (c *Canvas) Pixels() (int, int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) locate(x, y int) (row, col int, bit rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col, row = x/2, y/4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, rune(pixelMap[y%4][x%2]), true
}

// Set turns on the sub-pixel at (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, bit, ok := c.locate(x, y); ok {
		c.Grid[row][col] |= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, bit, ok := c.locate(x, y)
	return ok && c.Grid[row][col]&bit != 0
}

func (c *Canvas) Unset(x, y int) {
	if row, col, bit, ok := c.locate(x, y); ok {
		c.Grid[row][col] = (c.Grid[row][col] &^ bit) | blank
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
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

// DrawRect outlines the rectangle with corners (x0, y0) and (x1, y1).
func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Projection maps a simulation boundary onto a canvas. The y axis points up.
type Projection struct {
	Bounds        dynamo.Boundary
	Width, Height int
}

// NewProjection fits b into a canvas of w by h sub-pixels. An empty boundary
// falls back to the bounding box of the finite positions.
func NewProjection(b dynamo.Boundary, positions []dynamo.Vec2, w, h int) Projection {
	if b.Empty() {
		b = boundingBox(positions)
	}
	return Projection{Bounds: b, Width: w, Height: h}
}

// Point returns the sub-pixel for v, and false when v is outside the
// boundary or not finite.
func (p Projection) Point(v dynamo.Vec2) (int, int, bool) {
	if !v.IsFinite() {
		return 0, 0, false
	}
	size := p.Bounds.Size()
	u := (v.X - p.Bounds.Min.X) / size.X
	w := (v.Y - p.Bounds.Min.Y) / size.Y
	if u < 0 || u > 1 || w < 0 || w > 1 {
		return 0, 0, false
	}
	x := int(math.Round(u * float64(p.Width-1)))
	y := int(math.Round((1 - w) * float64(p.Height-1)))
	return x, y, true
}

// Plot draws the boundary outline and every visible particle, and returns
// how many particles were drawn.
func (p Projection) Plot(c *Canvas, x *dynamo.State) int {
	c.DrawRect(0, 0, p.Width-1, p.Height-1)
	drawn := 0
	for _, pos := range x.Positions {
		if px, py, ok := p.Point(pos); ok {
			c.Set(px, py)
			drawn++
		}
	}
	return drawn
}

func boundingBox(positions []dynamo.Vec2) dynamo.Boundary {
	b := dynamo.Boundary{
		Min: dynamo.Vec2{X: math.Inf(1), Y: math.Inf(1)},
		Max: dynamo.Vec2{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, v := range positions {
		if !v.IsFinite() {
			continue
		}
		b.Min.X, b.Max.X = math.Min(b.Min.X, v.X), math.Max(b.Max.X, v.X)
		b.Min.Y, b.Max.Y = math.Min(b.Min.Y, v.Y), math.Max(b.Max.Y, v.Y)
	}
	if b.Empty() {
		// nothing finite, or all on one line
		if math.IsInf(b.Min.X, 0) {
			return dynamo.Boundary{Max: dynamo.Vec2{X: 1, Y: 1}}
		}
		pad := dynamo.Vec2{X: 0.5, Y: 0.5}
		return dynamo.Boundary{Min: b.Min.Sub(pad), Max: b.Max.Add(pad)}
	}
	return b
}
