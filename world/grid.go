// Package world holds the cell grid, the colony registry, and the World
// aggregate that owns both.
package world

import "fmt"

// Unclaimed is the owner id of an empty cell.
const Unclaimed uint32 = 0

// Cell is one grid square. Owner 0 means unclaimed. Component is a
// transient flood-fill tag, reset before each division check.
type Cell struct {
	Owner     uint32
	Border    bool
	Age       uint16
	Component int8
}

// Eight compass direction offsets, index 0 = east, counterclockwise.
// The first four (even indices rearranged below as dir4) are the cardinal
// directions used by flood-fill and toxin spill.
var (
	DirDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	DirDY = [8]int{0, -1, -1, -1, 0, 1, 1, 1}

	dir4 = [4]int{0, 2, 4, 6} // indices of the cardinal directions
)

// CardinalDirs returns the four cardinal direction indices.
func CardinalDirs() [4]int { return dir4 }

// Grid is a flat row-major array of cells.
type Grid struct {
	W, H  int
	Cells []Cell
}

// NewGrid allocates a grid, rejecting non-positive dimensions.
func NewGrid(w, h int) (*Grid, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("world: grid dimensions must be positive, got %dx%d", w, h)
	}
	return &Grid{W: w, H: h, Cells: make([]Cell, w*h)}, nil
}

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// Coords inverts Index.
func (g *Grid) Coords(idx int) (int, int) { return idx % g.W, idx / g.W }

// InBounds reports whether (x, y) is on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// OwnerAt returns the owner id at (x, y), or Unclaimed when off-grid.
func (g *Grid) OwnerAt(x, y int) uint32 {
	if !g.InBounds(x, y) {
		return Unclaimed
	}
	return g.Cells[g.Index(x, y)].Owner
}

// IsBorder reports whether the cell at idx has any 8-neighbor (or grid
// edge) not owned by the same colony. Unclaimed cells are never borders.
func (g *Grid) IsBorder(idx int) bool {
	c := g.Cells[idx]
	if c.Owner == Unclaimed {
		return false
	}
	x, y := g.Coords(idx)
	for d := 0; d < 8; d++ {
		nx, ny := x+DirDX[d], y+DirDY[d]
		if !g.InBounds(nx, ny) {
			return true
		}
		if g.Cells[g.Index(nx, ny)].Owner != c.Owner {
			return true
		}
	}
	return false
}

// RefreshBorder recomputes the border flag for idx and all its neighbors.
// Called after any ownership change at idx.
func (g *Grid) RefreshBorder(idx int) {
	g.Cells[idx].Border = g.IsBorder(idx)
	x, y := g.Coords(idx)
	for d := 0; d < 8; d++ {
		nx, ny := x+DirDX[d], y+DirDY[d]
		if g.InBounds(nx, ny) {
			ni := g.Index(nx, ny)
			g.Cells[ni].Border = g.IsBorder(ni)
		}
	}
}

// ClearComponents resets all flood-fill tags.
func (g *Grid) ClearComponents() {
	for i := range g.Cells {
		g.Cells[i].Component = 0
	}
}
