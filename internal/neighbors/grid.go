package neighbors

import (
	"math"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

// Grid buckets particles into square cells of side Radius spanning the
// boundary. Particles outside the boundary land in the nearest edge cell,
// so the result is correct for any configuration; only speed depends on
// the boundary being sensible. When the boundary would need more than
// maxCells cells, the cells grow past Radius until it fits.
type Grid struct {
	Radius float64
}

type cellGrid struct {
	origin dynamo.Vec2
	size   float64
	nx, ny int
	cells  [][]int
}

func (g Grid) Map(positions []dynamo.Vec2, b dynamo.Boundary) Lookup {
	if b.Empty() {
		b = bounds(positions)
	}

	cg := newCellGrid(b, g.Radius, maxCells(len(positions)))
	for i, p := range positions {
		cx, cy := cg.cell(p)
		idx := cy*cg.nx + cx
		cg.cells[idx] = append(cg.cells[idx], i)
	}

	r2 := g.Radius * g.Radius
	lists := make([][]int, len(positions))
	for i, p := range positions {
		cx, cy := cg.cell(p)
		for y := max(cy-1, 0); y <= min(cy+1, cg.ny-1); y++ {
			for x := max(cx-1, 0); x <= min(cx+1, cg.nx-1); x++ {
				for _, j := range cg.cells[y*cg.nx+x] {
					if j != i && positions[j].Sub(p).Norm2() < r2 {
						lists[i] = append(lists[i], j)
					}
				}
			}
		}
	}

	return FromLists(lists)
}

// maxCells bounds the grid so memory stays linear in the particle count.
func maxCells(n int) int {
	return max(4*n, 1024)
}

func newCellGrid(b dynamo.Boundary, size float64, limit int) *cellGrid {
	ext := b.Size()
	nx, ny := cellCounts(ext, size)
	for nx*ny > limit {
		// A cell side above the radius is still covered by the 3x3 scan.
		size *= math.Max(math.Sqrt(float64(nx*ny)/float64(limit)), 1.1)
		nx, ny = cellCounts(ext, size)
	}
	return &cellGrid{
		origin: b.Min,
		size:   size,
		nx:     nx,
		ny:     ny,
		cells:  make([][]int, nx*ny),
	}
}

func cellCounts(ext dynamo.Vec2, size float64) (int, int) {
	nx := int(math.Ceil(ext.X/size)) + 1
	ny := int(math.Ceil(ext.Y/size)) + 1
	if nx < 1 || nx > 1<<15 {
		nx = 1
	}
	if ny < 1 || ny > 1<<15 {
		ny = 1
	}
	return nx, ny
}

func (cg *cellGrid) cell(p dynamo.Vec2) (int, int) {
	return clampIndex((p.X-cg.origin.X)/cg.size, cg.nx), clampIndex((p.Y-cg.origin.Y)/cg.size, cg.ny)
}

// clampIndex maps a fractional cell coordinate to [0, n). NaN goes to 0.
func clampIndex(f float64, n int) int {
	if !(f > 0) {
		return 0
	}
	if f >= float64(n-1) {
		return n - 1
	}
	return int(f)
}

// bounds returns the bounding box of the finite positions.
func bounds(positions []dynamo.Vec2) dynamo.Boundary {
	var b dynamo.Boundary
	first := true
	for _, p := range positions {
		if !p.IsFinite() {
			continue
		}
		if first {
			b.Min, b.Max = p, p
			first = false
			continue
		}
		b.Min.X, b.Min.Y = math.Min(b.Min.X, p.X), math.Min(b.Min.Y, p.Y)
		b.Max.X, b.Max.Y = math.Max(b.Max.X, p.X), math.Max(b.Max.Y, p.Y)
	}
	return b
}

// BruteForce compares every pair. Quadratic; meant for tests and tiny scenes.
type BruteForce struct {
	Radius float64
}

func (bf BruteForce) Map(positions []dynamo.Vec2, _ dynamo.Boundary) Lookup {
	r2 := bf.Radius * bf.Radius
	lists := make([][]int, len(positions))
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			if positions[j].Sub(positions[i]).Norm2() < r2 {
				lists[i] = append(lists[i], j)
				lists[j] = append(lists[j], i)
			}
		}
	}
	return FromLists(lists)
}
