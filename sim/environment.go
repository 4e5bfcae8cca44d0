package sim

import (
	"petri/world"
)

// environmentPhase runs the field update cycle: consumption and regrowth,
// starvation, toxin emission and decay with kills, then quorum signals.
// Field math is delegated to env; this phase owns the coupling between
// colonies and fields.
func (e *Engine) environmentPhase() {
	e.consumePhase()
	e.starvationPhase()
	e.toxinPhase()
	e.signalPhase()
}

// consumePhase gathers per-cell metabolic draw and advances the nutrient
// field. Efficient genomes draw less; dormant colonies draw half.
func (e *Engine) consumePhase() {
	for i := range e.consumption {
		e.consumption[i] = 0
	}
	e.world.ForEachActive(func(c world.Colony) {
		draw := c.Genome.Metabolism * (1 - 0.5*c.Genome.Efficiency)
		if c.Stats.Dormant {
			draw *= 0.5
		}
		for _, idx := range c.Stats.Cells {
			e.consumption[idx] = draw
		}
	})
	e.fields.StepNutrients(e.consumption)
}

// starvationPhase kills cells sitting on exhausted nutrient patches. High
// metabolism makes starvation bite harder. Deaths are collected first so
// the release loop never walks a list it is mutating.
func (e *Engine) starvationPhase() {
	threshold := e.cfg.Env.StarveThreshold
	lethality := e.cfg.Env.StarveLethality

	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])
	for _, id := range e.idsBuf {
		c, ok := e.world.ColonyByID(id)
		if !ok {
			continue
		}
		p := lethality * (1 + 0.5*c.Genome.Metabolism)
		e.deathBuf = e.deathBuf[:0]
		for _, idx := range c.Stats.Cells {
			if e.fields.NutrientAt(int(idx)) < threshold && e.rng.Float64() < p {
				e.deathBuf = append(e.deathBuf, idx)
			}
		}
		e.applyDeaths(id, 0.01)
		e.Events.StarveDeaths += len(e.deathBuf)
	}
}

// toxinPhase lets producer colonies poison their borders, decays the whole
// field, then kills cells standing in lethal concentrations.
func (e *Engine) toxinPhase() {
	cfg := &e.cfg.Env
	grid := e.world.Grid

	e.world.ForEachActive(func(c world.Colony) {
		prod := c.Genome.ToxinProduction
		if prod <= 0.05 || c.Stats.Dormant {
			return
		}
		for _, idx := range c.Stats.Cells {
			if grid.Cells[idx].Border {
				e.fields.EmitToxin(int(idx), cfg.ToxinEmission*prod)
			}
		}
	})
	e.fields.DecayToxins()

	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])
	for _, id := range e.idsBuf {
		c, ok := e.world.ColonyByID(id)
		if !ok {
			continue
		}
		vuln := 1 - c.Genome.ToxinResistance
		if vuln <= 0 {
			continue
		}
		borderShield := 1 - 0.5*c.Genome.DefensePriority
		e.deathBuf = e.deathBuf[:0]
		for _, idx := range c.Stats.Cells {
			tox := e.fields.ToxinAt(int(idx))
			if tox <= cfg.ToxinThreshold {
				continue
			}
			p := cfg.ToxinLethality * (tox - cfg.ToxinThreshold) * vuln
			if grid.Cells[idx].Border {
				p *= borderShield
			}
			if e.rng.Float64() < p {
				e.deathBuf = append(e.deathBuf, idx)
			}
		}
		e.applyDeaths(id, 0.02)
		e.Events.ToxinDeaths += len(e.deathBuf)
	}
}

// signalPhase emits quorum signals from social colonies' borders and
// diffuses the field.
func (e *Engine) signalPhase() {
	grid := e.world.Grid
	e.world.ForEachActive(func(c world.Colony) {
		social := c.Genome.SocialAffinity
		if social <= 0.1 {
			return
		}
		for _, idx := range c.Stats.Cells {
			if grid.Cells[idx].Border {
				e.fields.EmitSignal(int(idx), 0.1*social, c.Identity.ID)
			}
		}
	})
	e.fields.StepSignals()
}

// applyDeaths releases the collected cells of one colony and charges the
// stress cost per lost cell.
func (e *Engine) applyDeaths(id uint32, stressPerCell float64) {
	if len(e.deathBuf) == 0 {
		return
	}
	for _, idx := range e.deathBuf {
		e.world.Release(int(idx))
	}
	if c, ok := e.world.ColonyByID(id); ok {
		c.Stats.Stress += stressPerCell * float64(len(e.deathBuf))
		if c.Stats.Stress > 1 {
			c.Stats.Stress = 1
		}
	}
}
