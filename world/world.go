package world

import (
	"fmt"

	"petri/genome"
)

// World owns the cell grid and the colony registry. The tick counter is
// monotonic and only advanced by the engine.
type World struct {
	Grid     *Grid
	Registry *Registry
	Tick     uint64
}

// New creates an empty world, rejecting non-positive dimensions.
func New(width, height int) (*World, error) {
	grid, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	return &World{Grid: grid, Registry: NewRegistry()}, nil
}

// SpawnColony creates a colony seeded at (x, y). The seed cell must be on
// the grid; an occupied seed cell is taken over.
func (w *World) SpawnColony(x, y int, g genome.Genome, name string, parent uint32, shapeSeed uint32) (uint32, error) {
	if !w.Grid.InBounds(x, y) {
		return 0, fmt.Errorf("world: spawn position (%d,%d) off grid", x, y)
	}
	id, err := w.Registry.Create(name, parent, g, shapeSeed)
	if err != nil {
		return 0, err
	}
	w.Claim(w.Grid.Index(x, y), id)
	return id, nil
}

// Claim assigns the cell at idx to colony id, updating both colonies'
// bookkeeping. Claiming for Unclaimed releases the cell, as does claiming
// for an id the registry cannot resolve: a cell must never carry an owner
// with no bookkeeping behind it.
func (w *World) Claim(idx int, id uint32) {
	var claimant Colony
	if id != Unclaimed {
		var ok bool
		claimant, ok = w.Registry.Get(id)
		if !ok {
			id = Unclaimed
		}
	}

	cell := &w.Grid.Cells[idx]
	if cell.Owner == id {
		return
	}
	x, y := w.Grid.Coords(idx)

	if cell.Owner != Unclaimed {
		if old, ok := w.Registry.getAny(cell.Owner); ok {
			old.Stats.removeCell(int32(idx))
			old.Stats.CellCount--
			old.Stats.SumX -= float64(x)
			old.Stats.SumY -= float64(y)
			if old.Stats.CellCount <= 0 && old.Stats.Active {
				w.Registry.Deactivate(cell.Owner)
			}
		}
	}

	cell.Owner = id
	cell.Age = 0

	if id != Unclaimed {
		claimant.Stats.Cells = append(claimant.Stats.Cells, int32(idx))
		claimant.Stats.CellCount++
		claimant.Stats.SumX += float64(x)
		claimant.Stats.SumY += float64(y)
		if claimant.Stats.CellCount > claimant.Stats.PeakCount {
			claimant.Stats.PeakCount = claimant.Stats.CellCount
		}
	}

	w.Grid.RefreshBorder(idx)
}

// Release returns the cell at idx to the unclaimed state.
func (w *World) Release(idx int) { w.Claim(idx, Unclaimed) }

// OwnerAt is the renderer-facing owner lookup by coordinate.
func (w *World) OwnerAt(x, y int) uint32 { return w.Grid.OwnerAt(x, y) }

// ColonyByID is the renderer-facing colony lookup. Inactive ids and id 0
// return not-found.
func (w *World) ColonyByID(id uint32) (Colony, bool) { return w.Registry.Get(id) }

// ForEachActive calls fn for every active colony in creation order. The
// handle is only valid inside fn.
func (w *World) ForEachActive(fn func(Colony)) {
	ids := w.Registry.ActiveIDs(nil)
	for _, id := range ids {
		if c, ok := w.Registry.Get(id); ok {
			fn(c)
		}
	}
}

// TotalPopulation sums live cells over all active colonies.
func (w *World) TotalPopulation() int {
	total := 0
	w.ForEachActive(func(c Colony) {
		total += c.Stats.CellCount
	})
	return total
}

// CheckOwnership verifies the invariant that every owned cell references an
// active colony. Returns the first violating index, or -1.
func (w *World) CheckOwnership() int {
	for i := range w.Grid.Cells {
		owner := w.Grid.Cells[i].Owner
		if owner == Unclaimed {
			continue
		}
		if _, ok := w.Registry.Get(owner); !ok {
			return i
		}
	}
	return -1
}
