package sim

import (
	"fmt"

	"petri/genome"
	"petri/world"
)

// maxComponents caps the flood fill label space. Colonies shredded into
// more fragments than this get a partial result: the remaining cells keep
// their current owner and are retried on a later pass.
const maxComponents = 127

// connectedComponents labels the 4-connected components of one colony's
// cells. The component tags live in the grid cells and are cleared before
// returning; only the grouping survives.
func (e *Engine) connectedComponents(id uint32, cells []int32) [][]int32 {
	grid := e.world.Grid
	for _, idx := range cells {
		grid.Cells[idx].Component = 0
	}

	var comps [][]int32
	var stack []int32

	for _, seed := range cells {
		if grid.Cells[seed].Component != 0 {
			continue
		}
		if len(comps) >= maxComponents {
			break
		}
		label := int8(len(comps) + 1)

		var comp []int32
		stack = append(stack[:0], seed)
		grid.Cells[seed].Component = label
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, idx)

			x, y := grid.Coords(int(idx))
			for _, dir := range world.CardinalDirs() {
				nx, ny := x+world.DirDX[dir], y+world.DirDY[dir]
				if !grid.InBounds(nx, ny) {
					continue
				}
				n := grid.Index(nx, ny)
				if grid.Cells[n].Owner == id && grid.Cells[n].Component == 0 {
					grid.Cells[n].Component = label
					stack = append(stack, int32(n))
				}
			}
		}
		comps = append(comps, comp)
	}

	for _, idx := range cells {
		grid.Cells[idx].Component = 0
	}
	return comps
}

// divisionPhase checks one colony per tick for physical fragmentation, in
// round-robin order. The largest fragment keeps the colony; other
// fragments above the size floor become mutated children, smaller scraps
// die off.
func (e *Engine) divisionPhase() {
	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])
	if len(e.idsBuf) == 0 {
		return
	}
	id := e.idsBuf[e.divisionCursor%len(e.idsBuf)]
	e.divisionCursor++

	c, ok := e.world.ColonyByID(id)
	if !ok || c.Stats.CellCount < 2 {
		return
	}
	comps := e.connectedComponents(id, c.Stats.Cells)
	if len(comps) <= 1 {
		return
	}

	largest := 0
	for i, comp := range comps {
		if len(comp) > len(comps[largest]) {
			largest = i
		}
	}

	parentSeed := c.Stats.ShapeSeed
	parentName := c.Identity.Name
	childGenome := *c.Genome

	for i, comp := range comps {
		if i == largest {
			continue
		}
		if len(comp) < e.cfg.Growth.MinDivisionSize {
			for _, idx := range comp {
				e.world.Release(int(idx))
			}
			continue
		}

		g := childGenome
		g.Mutate(e.rng, e.genomeParams())
		seed := parentSeed*2654435761 + uint32(i)
		childID, err := e.world.Registry.Create("", id, g, seed)
		if err != nil {
			for _, idx := range comp {
				e.world.Release(int(idx))
			}
			continue
		}
		if child, ok := e.world.ColonyByID(childID); ok {
			child.Identity.Name = fmt.Sprintf("%s.%d", parentName, childID)
		}
		for _, idx := range comp {
			e.world.Claim(int(idx), childID)
		}
		e.Events.Divisions++
	}
}

// recombinationPhase merges at most one pair of touching, genetically
// close, related colonies per tick. The larger side absorbs the smaller;
// the merged genome is the cell-count-weighted blend.
func (e *Engine) recombinationPhase() {
	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])
	grid := e.world.Grid

	for _, id := range e.idsBuf {
		c, ok := e.world.ColonyByID(id)
		if !ok {
			continue
		}
		for _, idx := range c.Stats.Cells {
			if !grid.Cells[idx].Border {
				continue
			}
			x, y := grid.Coords(int(idx))
			for _, dir := range world.CardinalDirs() {
				other := grid.OwnerAt(x+world.DirDX[dir], y+world.DirDY[dir])
				if other == world.Unclaimed || other == id {
					continue
				}
				if e.tryMerge(id, other) {
					e.Events.Merges++
					return
				}
			}
		}
	}
}

// tryMerge merges a and b if they are kin and close enough in trait
// space. Mutual merge affinity widens the distance gate.
func (e *Engine) tryMerge(a, b uint32) bool {
	ca, okA := e.world.ColonyByID(a)
	cb, okB := e.world.ColonyByID(b)
	if !okA || !okB {
		return false
	}
	if !related(ca.Identity, cb.Identity) {
		return false
	}

	gc := &e.cfg.Genetics
	gate := gc.MergeThreshold + gc.MergeAffinityUp*(ca.Genome.MergeAffinity+cb.Genome.MergeAffinity)/2
	if genome.Distance(ca.Genome, cb.Genome) >= gate {
		return false
	}

	big, small := ca, cb
	if small.Stats.CellCount > big.Stats.CellCount {
		big, small = small, big
	}
	merged := genome.Merge(big.Genome, big.Stats.CellCount, small.Genome, small.Stats.CellCount)

	bigID := big.Identity.ID
	cells := append([]int32(nil), small.Stats.Cells...)
	for _, idx := range cells {
		e.world.Claim(int(idx), bigID)
	}
	// The absorbed side deactivated when its last cell moved; re-resolve
	// the survivor before writing the blended genome.
	if c, ok := e.world.ColonyByID(bigID); ok {
		*c.Genome = merged
	}
	return true
}

// related reports direct lineage (parent and child) or shared parentage.
func related(a, b *world.Identity) bool {
	if a.Parent == b.ID || b.Parent == a.ID {
		return true
	}
	return a.Parent != 0 && a.Parent == b.Parent
}
