package sim

import (
	"fmt"
	"time"

	"petri/genome"
)

// Command is a control input applied between ticks. The set is closed;
// Apply rejects anything else.
type Command interface {
	isCommand()
}

type (
	// Pause stops the tick loop without losing state.
	Pause struct{}
	// Resume continues a paused simulation.
	Resume struct{}
	// SpeedUp raises the speed multiplier one notch.
	SpeedUp struct{}
	// SpeedDown lowers the speed multiplier one notch.
	SpeedDown struct{}
	// Reset rebuilds the world from the original seed.
	Reset struct{}
	// SelectColony marks a colony for inspection. Id 0 clears the
	// selection.
	SelectColony struct{ ID uint32 }
	// SpawnColony drops a fresh random colony at a grid position.
	SpawnColony struct{ X, Y int }
)

func (Pause) isCommand()        {}
func (Resume) isCommand()       {}
func (SpeedUp) isCommand()      {}
func (SpeedDown) isCommand()    {}
func (Reset) isCommand()        {}
func (SelectColony) isCommand() {}
func (SpawnColony) isCommand()  {}

const speedStep = 1.25

// Apply executes one command. Commands must come from the same goroutine
// that calls Step.
func (e *Engine) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case Pause:
		e.paused = true
	case Resume:
		e.paused = false
	case SpeedUp:
		e.speed *= speedStep
		if e.speed > e.cfg.Sim.SpeedMax {
			e.speed = e.cfg.Sim.SpeedMax
		}
	case SpeedDown:
		e.speed /= speedStep
		if e.speed < e.cfg.Sim.SpeedMin {
			e.speed = e.cfg.Sim.SpeedMin
		}
	case Reset:
		return e.reset()
	case SelectColony:
		if c.ID != 0 {
			if _, ok := e.world.ColonyByID(c.ID); !ok {
				return fmt.Errorf("sim: no active colony %d", c.ID)
			}
		}
		e.selected = c.ID
	case SpawnColony:
		if !e.world.Grid.InBounds(c.X, c.Y) {
			return fmt.Errorf("sim: spawn position (%d,%d) off grid", c.X, c.Y)
		}
		g, arch := genome.NewRandom(e.rng)
		id, err := e.world.SpawnColony(c.X, c.Y, g, arch, 0, e.rng.Uint32())
		if err != nil {
			return err
		}
		if col, ok := e.world.ColonyByID(id); ok {
			col.Identity.Name = fmt.Sprintf("%s-%d", arch, id)
		}
	default:
		return fmt.Errorf("sim: unknown command %T", cmd)
	}
	return nil
}

// reset rebuilds world, fields, and RNG from the original seed. Speed and
// pause state survive the reset; the selection does not.
func (e *Engine) reset() error {
	fresh, err := NewEngine(e.cfg, Options{Seed: e.seed, Mode: e.mode})
	if err != nil {
		return err
	}
	e.world = fresh.world
	e.fields = fresh.fields
	e.rng = fresh.rng
	e.snaps = fresh.snaps
	e.snapStore = nil
	e.selected = 0
	e.divisionCursor = 0
	e.Events.Reset()
	if fresh.pool != nil {
		fresh.pool.Shutdown()
	}
	return nil
}

// TickInterval converts the configured tick length and current speed into
// the sleep the driver should take between ticks.
func (e *Engine) TickInterval() time.Duration {
	base := time.Duration(e.cfg.Sim.TickMillis) * time.Millisecond
	d := time.Duration(float64(base) / e.speed)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
