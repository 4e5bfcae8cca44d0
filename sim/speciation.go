package sim

import (
	"fmt"

	"petri/genome"
)

// speciationPhase gives each colony a stress- and size-scaled chance to
// mutate its genome this tick. When the mutation lands far from the parent
// genome on a large colony, the change becomes a split instead: part of
// the colony breaks away as a new species carrying the mutated genome,
// and the parent keeps the old one.
func (e *Engine) speciationPhase() {
	gc := &e.cfg.Growth
	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])

	for _, id := range e.idsBuf {
		c, ok := e.world.ColonyByID(id)
		if !ok {
			continue
		}
		p := gc.SpeciateBaseProb * (1 + c.Stats.Stress) * (1 + float64(c.Stats.CellCount)/500)
		if e.rng.Float64() >= p {
			continue
		}

		before := *c.Genome
		mutated := before
		mutated.Mutate(e.rng, e.genomeParams())

		dist := genome.Distance(&before, &mutated)
		if dist > gc.SpeciateDistance && c.Stats.CellCount >= gc.SpeciateSizeMin {
			e.splitSpecies(id, mutated)
		} else {
			*c.Genome = mutated
		}
	}
}

// splitSpecies carves the breakaway fraction off colony id into a new
// colony with the given genome. Border cells leave first; the splinter
// group therefore starts at the frontier, where divergence pressure is.
func (e *Engine) splitSpecies(id uint32, g genome.Genome) {
	c, ok := e.world.ColonyByID(id)
	if !ok {
		return
	}
	grid := e.world.Grid

	want := int(float64(c.Stats.CellCount) * e.cfg.Growth.SpeciateFraction)
	if want < 1 {
		return
	}
	moving := make([]int32, 0, want)
	for _, idx := range c.Stats.Cells {
		if len(moving) == want {
			break
		}
		if grid.Cells[idx].Border {
			moving = append(moving, idx)
		}
	}
	for _, idx := range c.Stats.Cells {
		if len(moving) == want {
			break
		}
		if !grid.Cells[idx].Border {
			moving = append(moving, idx)
		}
	}

	parentName := c.Identity.Name
	seed := c.Stats.ShapeSeed ^ 0x9e3779b9
	childID, err := e.world.Registry.Create("", id, g, seed)
	if err != nil {
		return
	}
	if child, ok := e.world.ColonyByID(childID); ok {
		child.Identity.Name = fmt.Sprintf("%s'%d", parentName, childID)
	}
	for _, idx := range moving {
		e.world.Claim(int(idx), childID)
	}
	e.Events.Speciations++
}
