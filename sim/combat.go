package sim

import (
	"petri/genome"
	"petri/world"
)

// pendingAttack is one resolved combat round waiting to be applied.
type pendingAttack struct {
	target   int32
	attacker uint32
	defender uint32
	dir      uint8
	win      bool
}

// combatPhase runs all border skirmishes of the tick. Outcomes are rolled
// against a frozen grid first, then applied, so attack order within a tick
// never feeds back into other rolls.
func (e *Engine) combatPhase() {
	grid := e.world.Grid
	e.attackBuf = e.attackBuf[:0]

	for idx := range grid.Cells {
		cell := grid.Cells[idx]
		if cell.Owner == world.Unclaimed || !cell.Border {
			continue
		}
		snap, ok := e.snaps[cell.Owner]
		if !ok || snap.dormant {
			continue
		}
		x, y := grid.Coords(idx)

		for dir := 0; dir < genome.NumDirections; dir++ {
			nx, ny := x+world.DirDX[dir], y+world.DirDY[dir]
			defOwner := grid.OwnerAt(nx, ny)
			if defOwner == world.Unclaimed || defOwner == cell.Owner {
				continue
			}
			defSnap, ok := e.snaps[defOwner]
			if !ok {
				continue
			}
			if !e.rollAttempt(snap, defOwner, idx) {
				continue
			}
			target := grid.Index(nx, ny)
			win := e.resolveAttack(snap, defSnap, idx, target, dir)
			e.attackBuf = append(e.attackBuf, pendingAttack{
				target:   int32(target),
				attacker: cell.Owner,
				defender: defOwner,
				dir:      uint8(dir),
				win:      win,
			})
			e.Events.Attacks++
		}
	}

	for _, a := range e.attackBuf {
		e.applyAttack(a)
	}
}

// rollAttempt gates whether a border cell actually strikes this tick.
// Aggression sets the base rate; picking up the defender's quorum signal
// emboldens the attacker.
func (e *Engine) rollAttempt(snap *colonySnap, defender uint32, idx int) bool {
	p := 0.05 + 0.2*snap.genome.Aggression
	if sig, owner := e.fields.SignalAt(idx); owner == defender {
		p *= 1 + 0.5*sig
	}
	return e.rng.Float64() < p
}

// resolveAttack rolls one attacker-versus-defender contest for the cell at
// target. Strength is multiplicative over genome traits, formation bonuses,
// environment, size advantage, learned history, and noise.
func (e *Engine) resolveAttack(att, def *colonySnap, attIdx, target, dir int) bool {
	cc := &e.cfg.Combat
	ag, dg := &att.genome, &def.genome

	flank := e.sameOwnerNeighbors(attIdx, att.id)
	a := ag.Aggression
	a *= 1 + 0.15*float64(flank)
	a *= 0.5 + ag.SpreadWeights[dir] // directional focus
	a *= 1 + 0.3*ag.ToxinProduction
	a *= att.history[dir]
	a *= 0.5 + 0.5*e.fields.NutrientAt(attIdx)

	ratio := 0.5
	if att.cellCount+def.cellCount > 0 {
		ratio = float64(att.cellCount) / float64(att.cellCount+def.cellCount)
	}
	a *= 0.75 + 0.5*ratio

	formation := e.sameOwnerNeighbors(target, def.id)
	d := dg.Resilience
	d *= 1 + 0.15*float64(formation)
	d *= 1 + 0.5*dg.BiofilmStrength
	d *= 1 - e.fields.ToxinAt(target)*(1-dg.ToxinResistance)
	if def.dormant {
		d *= 0.7
	}
	if d < 0 {
		d = 0
	}

	noise := 1 + (e.rng.Float64()*2-1)*cc.NoiseSpan/2
	a *= noise

	p := a / (a + d + cc.Epsilon)
	return e.rng.Float64() < p
}

// sameOwnerNeighbors counts idx's 8-neighbors owned by id.
func (e *Engine) sameOwnerNeighbors(idx int, id uint32) int {
	grid := e.world.Grid
	x, y := grid.Coords(idx)
	n := 0
	for dir := 0; dir < genome.NumDirections; dir++ {
		if grid.OwnerAt(x+world.DirDX[dir], y+world.DirDY[dir]) == id {
			n++
		}
	}
	return n
}

// applyAttack commits one resolved attack. The defender may already have
// lost the cell to an earlier attack this tick, and the attacker may have
// been wiped out by one; such rounds are void.
func (e *Engine) applyAttack(a pendingAttack) {
	if e.world.Grid.Cells[a.target].Owner != a.defender {
		return
	}
	if _, ok := e.world.ColonyByID(a.attacker); !ok {
		return
	}
	if a.win {
		e.world.Claim(int(a.target), a.attacker)
		e.Events.Conquests++
		if def, ok := e.world.ColonyByID(a.defender); ok {
			def.Stats.Stress += 0.05
			if def.Stats.Stress > 1 {
				def.Stats.Stress = 1
			}
		}
	}
	e.reinforceHistory(a.attacker, int(a.dir), a.win)
}

// reinforceHistory nudges the attacker's learned per-direction multiplier
// toward its bounds at a genome-controlled learning rate. Losses only
// register probabilistically so one bad roll does not erase a streak.
func (e *Engine) reinforceHistory(id uint32, dir int, win bool) {
	c, ok := e.world.ColonyByID(id)
	if !ok {
		return
	}
	cc := &e.cfg.Combat
	lr := 0.1 * c.Genome.LearningRate
	h := &c.Stats.SuccessHistory[dir]
	if win {
		*h += lr * (cc.HistoryCeil - *h)
	} else if e.rng.Float64() < cc.LossNudge {
		*h -= lr * (*h - cc.HistoryFloor)
	}
}
