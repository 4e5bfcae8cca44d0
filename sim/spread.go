package sim

import (
	"math"
	"math/rand"

	"petri/genome"
	"petri/world"
)

// spreadScanRegion finds every expansion a region's border cells want to
// make this tick. The scan only reads the grid and the snapshots; claims
// go into the region's private pending buffer for the serial apply.
func (e *Engine) spreadScanRegion(ri int) {
	r := e.regions[ri]
	sc := e.scratch[ri]
	grid := e.world.Grid

	for y := r.Y0; y < r.Y1; y++ {
		row := y * grid.W
		for x := r.X0; x < r.X1; x++ {
			idx := row + x
			cell := grid.Cells[idx]
			if cell.Owner == world.Unclaimed || !cell.Border {
				continue
			}
			snap, ok := e.snaps[cell.Owner]
			if !ok {
				continue
			}
			e.scanCell(sc, idx, x, y, snap)
		}
	}
}

func (e *Engine) scanCell(sc *regionScratch, idx, x, y int, snap *colonySnap) {
	grid := e.world.Grid
	for dir := 0; dir < genome.NumDirections; dir++ {
		nx, ny := x+world.DirDX[dir], y+world.DirDY[dir]
		if !grid.InBounds(nx, ny) {
			continue
		}
		target := grid.Index(nx, ny)
		if grid.Cells[target].Owner != world.Unclaimed {
			continue
		}
		p := e.spreadProbability(snap, target, nx, ny, dir)
		if p > 0 && sc.rng.Float64() < p {
			sc.claims = append(sc.claims, pendingClaim{
				target: int32(target),
				colony: snap.id,
				dir:    uint8(dir),
			})
		}
	}
}

// spreadProbability combines the genome's directional preference with the
// local environment. Every environmental modifier is floored so a hostile
// patch slows a colony down without ever walling it in completely.
func (e *Engine) spreadProbability(snap *colonySnap, target, tx, ty, dir int) float64 {
	g := &snap.genome
	floor := e.cfg.Growth.SpreadFloor

	p := g.GrowthRate * g.Metabolism * g.SpreadWeights[dir]
	if p <= 0 {
		return 0
	}

	// Nutrient pull: attraction-weighted mix between indifference and the
	// local nutrient level.
	nut := e.fields.NutrientAt(target)
	mod := (1-g.NutrientAttraction)*0.6 + g.NutrientAttraction*nut
	p *= math.Max(mod, floor)

	// Toxin avoidance.
	tox := e.fields.ToxinAt(target)
	p *= math.Max(1-tox*g.ToxinAvoidance, floor)

	// Edge affinity: positive genomes prefer the dish wall, negative ones
	// the open center.
	p *= math.Max(1+g.EdgeAffinity*e.edgeBias(tx, ty), floor)

	// Quorum sensing: dense own-neighborhoods above the threshold are
	// penalised to keep growth at the frontier.
	density := e.neighborDensity(target, snap.id)
	if density > g.QuorumThreshold {
		p *= math.Max(1-g.QuorumPenalty*(density-g.QuorumThreshold), floor)
	}

	// Contested frontier: aggression decides how boldly a colony pushes
	// toward foreign borders.
	if e.enemyAdjacent(target, snap.id) {
		p *= 0.5 + 0.5*g.Aggression
	}

	// Motility drift: alignment with the preferred heading, scaled by how
	// motile the genome is.
	if g.Motility > 0 {
		align := math.Cos(float64(dir)*math.Pi/4 - g.MotilityDirection)
		p *= math.Max(1+0.3*g.Motility*align, floor)
	}

	// Learned directional bias: the first weight bank is a static per-
	// direction preference, the second gates on the local signal level.
	sig, _ := e.fields.SignalAt(target)
	nn := g.NeuralWeights[dir] + g.NeuralWeights[genome.NumDirections+dir]*sig
	p *= math.Max(1+0.2*nn, floor)

	p *= snap.history[dir]

	if snap.dormant {
		p *= 0.5
	}
	if p > 1 {
		p = 1
	}
	return p
}

// edgeBias maps distance to the nearest grid edge onto [-1, 1]: 1 at the
// wall, falling off to -1 at the center.
func (e *Engine) edgeBias(x, y int) float64 {
	grid := e.world.Grid
	dx := math.Min(float64(x), float64(grid.W-1-x))
	dy := math.Min(float64(y), float64(grid.H-1-y))
	d := math.Min(dx, dy)
	span := math.Min(float64(grid.W), float64(grid.H)) / 2
	if span <= 0 {
		return 0
	}
	return 1 - 2*d/span
}

// neighborDensity is the fraction of idx's 8 neighbors owned by id.
func (e *Engine) neighborDensity(idx int, id uint32) float64 {
	grid := e.world.Grid
	x, y := grid.Coords(idx)
	own := 0
	for dir := 0; dir < genome.NumDirections; dir++ {
		if grid.OwnerAt(x+world.DirDX[dir], y+world.DirDY[dir]) == id {
			own++
		}
	}
	return float64(own) / float64(genome.NumDirections)
}

// enemyAdjacent reports whether any 8-neighbor of idx belongs to another
// colony.
func (e *Engine) enemyAdjacent(idx int, id uint32) bool {
	grid := e.world.Grid
	x, y := grid.Coords(idx)
	for dir := 0; dir < genome.NumDirections; dir++ {
		o := grid.OwnerAt(x+world.DirDX[dir], y+world.DirDY[dir])
		if o != world.Unclaimed && o != id {
			return true
		}
	}
	return false
}

// applyClaims commits pending claims in region order. The first claim on a
// cell wins; later claimants lost the race this tick. Each committed
// division rolls an independent, stress-scaled genome mutation chance.
func (e *Engine) applyClaims() {
	grid := e.world.Grid
	for _, sc := range e.scratch {
		for _, pc := range sc.claims {
			if grid.Cells[pc.target].Owner != world.Unclaimed {
				continue
			}
			e.world.Claim(int(pc.target), pc.colony)
			e.Events.Claims++
			e.maybeMutateOnDivision(pc.colony, e.rng)
		}
	}
}

// maybeMutateOnDivision applies the per-division mutation roll. Stress
// raises the chance, modelling pressure-driven adaptation.
func (e *Engine) maybeMutateOnDivision(id uint32, rng *rand.Rand) {
	c, ok := e.world.ColonyByID(id)
	if !ok {
		return
	}
	p := e.cfg.Growth.SpreadMutProb * (1 + 4*c.Stats.Stress)
	if rng.Float64() < p {
		c.Genome.Mutate(rng, e.genomeParams())
	}
}
