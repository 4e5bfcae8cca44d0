package sim

import (
	"fmt"
	"math/rand"
	"runtime"

	"petri/config"
	"petri/env"
	"petri/genome"
	"petri/world"
)

// Mode selects the tick backend.
type Mode int

const (
	// ModeSerial runs region tasks inline in the fixed region order.
	ModeSerial Mode = iota
	// ModeParallel runs region tasks on the worker pool with barrier
	// waits between phases.
	ModeParallel
	// ModeAtomic resolves spread contention through compare-and-swap on
	// a double-buffered owner grid instead of pending buffers.
	ModeAtomic
)

// Options configures engine construction.
type Options struct {
	Seed    int64
	Mode    Mode
	Workers int // <=0 uses the config value
}

// Events counts per-tick happenings. The telemetry collector reads and
// resets it at window boundaries.
type Events struct {
	Claims       int
	Attacks      int
	Conquests    int
	ToxinDeaths  int
	StarveDeaths int
	Divisions    int
	Merges       int
	Speciations  int
}

// Reset zeroes all counters.
func (ev *Events) Reset() { *ev = Events{} }

// colonySnap is the read-only colony state captured before parallel
// phases. Workers only ever touch snapshots, never the registry.
type colonySnap struct {
	id        uint32
	genome    genome.Genome
	history   [genome.NumDirections]float64
	cellCount int
	dormant   bool
}

// regionScratch holds one region's reusable pending buffer and its private
// RNG stream, reseeded each tick from the world seed, the tick counter,
// and the region index. Serial and parallel runs therefore draw identical
// region-local sequences.
type regionScratch struct {
	claims []pendingClaim
	rng    *rand.Rand
}

// pendingClaim is one spread decision waiting for the serial apply phase.
type pendingClaim struct {
	target int32
	colony uint32
	dir    uint8
}

// Engine drives the simulation. All mutation of World happens on the
// caller's goroutine except the explicitly region-local parallel phases.
type Engine struct {
	cfg    *config.Config
	world  *world.World
	fields *env.Fields
	rng    *rand.Rand
	seed   int64

	mode    Mode
	pool    *Pool
	regions []Region
	scratch []*regionScratch

	atomic *atomicGrid // only in ModeAtomic

	snaps       map[uint32]*colonySnap
	snapStore   []colonySnap
	consumption []float64
	deathBuf    []int32
	attackBuf   []pendingAttack
	idsBuf      []uint32

	speed          float64
	paused         bool
	selected       uint32
	divisionCursor int

	Events Events
}

// NewEngine builds a world from the configuration and seeds the initial
// colonies. The same seed always produces the same starting state.
func NewEngine(cfg *config.Config, opts Options) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sim: nil config")
	}

	w, err := world.New(cfg.World.Width, cfg.World.Height)
	if err != nil {
		return nil, err
	}
	fields, err := env.New(cfg.World.Width, cfg.World.Height, envParams(cfg))
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = cfg.Sim.Workers
	}
	rx, ry := cfg.Derived.RegionsX, cfg.Derived.RegionsY
	if opts.Workers > 0 {
		rx, ry = regionSplit(opts.Workers)
	}
	regions, err := partitionRegions(cfg.World.Width, cfg.World.Height, rx, ry)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		world:       w,
		fields:      fields,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		seed:        opts.Seed,
		mode:        opts.Mode,
		regions:     regions,
		snaps:       make(map[uint32]*colonySnap),
		consumption: make([]float64, cfg.Derived.CellCount),
		speed:       1.0,
	}

	e.scratch = make([]*regionScratch, len(regions))
	for i := range e.scratch {
		e.scratch[i] = &regionScratch{
			claims: make([]pendingClaim, 0, 256),
			rng:    rand.New(rand.NewSource(0)),
		}
	}

	if opts.Mode == ModeParallel || opts.Mode == ModeAtomic {
		if workers < 1 {
			workers = runtime.NumCPU()
		}
		pool, err := NewPool(workers)
		if err != nil {
			return nil, err
		}
		e.pool = pool
	}
	if opts.Mode == ModeAtomic {
		e.atomic = newAtomicGrid(cfg.World.Width, cfg.World.Height)
	}

	e.seedColonies()
	return e, nil
}

// regionSplit derives a near-square region grid from a worker count.
// Worker counts of one or less degenerate to a minimal two-region split.
func regionSplit(workers int) (int, int) {
	if workers <= 1 {
		return 2, 1
	}
	rx, ry := 1, 1
	for rx*ry < workers {
		if rx <= ry {
			rx++
		} else {
			ry++
		}
	}
	return rx, ry
}

func envParams(cfg *config.Config) env.Params {
	return env.Params{
		NutrientRegen:   cfg.Env.NutrientRegen,
		NutrientDeplete: cfg.Env.NutrientDeplete,
		ToxinEmission:   cfg.Env.ToxinEmission,
		ToxinSpill:      cfg.Env.ToxinSpill,
		ToxinDecay:      cfg.Env.ToxinDecay,
		SignalRetain:    cfg.Env.SignalRetain,
		SignalSpread:    cfg.Env.SignalSpread,
		SignalDecay:     cfg.Env.SignalDecay,
		NoiseSeed:       cfg.Env.NoiseSeed,
		NoiseScale:      cfg.Env.NoiseScale,
	}
}

func (e *Engine) genomeParams() genome.Params {
	return genome.Params{
		MutationFloor: e.cfg.Genetics.MutationFloor,
		HyperProb:     e.cfg.Genetics.HyperProb,
		RadicalProb:   e.cfg.Genetics.RadicalProb,
		DeltaCore:     e.cfg.Genetics.DeltaCore,
		DeltaSlow:     e.cfg.Genetics.DeltaSlow,
	}
}

// seedColonies places the configured number of founder colonies at random
// positions.
func (e *Engine) seedColonies() {
	for i := 0; i < e.cfg.Sim.InitialColonies; i++ {
		x := e.rng.Intn(e.world.Grid.W)
		y := e.rng.Intn(e.world.Grid.H)
		g, arch := genome.NewRandom(e.rng)
		id, err := e.world.SpawnColony(x, y, g, arch, 0, e.rng.Uint32())
		if err != nil {
			return // id space exhausted; keep what we have
		}
		if c, ok := e.world.ColonyByID(id); ok {
			c.Identity.Name = fmt.Sprintf("%s-%d", arch, id)
		}
	}
}

// World exposes the simulation state for read-only consumers.
func (e *Engine) World() *world.World { return e.world }

// Fields exposes the environment fields for read-only consumers.
func (e *Engine) Fields() *env.Fields { return e.fields }

// Tick returns the current tick counter.
func (e *Engine) Tick() uint64 { return e.world.Tick }

// Paused reports whether the engine is paused.
func (e *Engine) Paused() bool { return e.paused }

// Speed returns the active speed multiplier.
func (e *Engine) Speed() float64 { return e.speed }

// Selected returns the colony id selected through the command interface.
func (e *Engine) Selected() uint32 { return e.selected }

// Step advances the world one tick: age, spread, combat, environment,
// mutation, division, recombination, stats.
func (e *Engine) Step() {
	e.buildSnapshots()

	e.runRegionPhase(e.ageRegion)

	if e.mode == ModeAtomic {
		e.atomicSpreadPhase()
	} else {
		e.runRegionPhase(e.spreadScanRegion)
		e.applyClaims()
	}

	e.combatPhase()
	e.environmentPhase()
	e.speciationPhase()
	e.divisionPhase()
	e.recombinationPhase()
	e.statsPhase()

	e.world.Tick++
}

// runRegionPhase executes one task per region. Parallel modes dispatch to
// the pool and block on the barrier; serial mode runs inline in the same
// fixed region order.
func (e *Engine) runRegionPhase(fn func(ri int)) {
	if e.pool == nil {
		for i := range e.regions {
			fn(i)
		}
		return
	}
	for i := range e.regions {
		i := i
		e.pool.Submit(func() { fn(i) })
	}
	e.pool.Wait()
}

// buildSnapshots captures read-only colony state for the parallel phases
// and reseeds every region RNG stream for this tick.
func (e *Engine) buildSnapshots() {
	clear(e.snaps)
	e.snapStore = e.snapStore[:0]

	e.world.ForEachActive(func(c world.Colony) {
		e.snapStore = append(e.snapStore, colonySnap{
			id:        c.Identity.ID,
			genome:    *c.Genome,
			history:   c.Stats.SuccessHistory,
			cellCount: c.Stats.CellCount,
			dormant:   c.Stats.Dormant,
		})
	})
	for i := range e.snapStore {
		e.snaps[e.snapStore[i].id] = &e.snapStore[i]
	}

	const mixA, mixB uint64 = 0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9
	for ri := range e.scratch {
		seed := uint64(e.seed) ^ e.world.Tick*mixA ^ uint64(ri+1)*mixB
		e.scratch[ri].rng = rand.New(rand.NewSource(int64(seed)))
		e.scratch[ri].claims = e.scratch[ri].claims[:0]
	}
}

// ageRegion advances the age counter of every owned cell in the region.
// Embarrassingly parallel: region tasks touch disjoint cells only.
func (e *Engine) ageRegion(ri int) {
	r := e.regions[ri]
	grid := e.world.Grid
	for y := r.Y0; y < r.Y1; y++ {
		row := y * grid.W
		for x := r.X0; x < r.X1; x++ {
			c := &grid.Cells[row+x]
			if c.Owner != world.Unclaimed && c.Age < ^uint16(0) {
				c.Age++
			}
		}
	}
}

// statsPhase recomputes per-colony derived state after all structural
// changes of the tick are done.
func (e *Engine) statsPhase() {
	e.idsBuf = e.world.Registry.ActiveIDs(e.idsBuf[:0])
	for _, id := range e.idsBuf {
		c, ok := e.world.ColonyByID(id)
		if !ok {
			continue
		}
		st := c.Stats
		st.GrowthRate = float64(st.CellCount - st.LastCount)
		st.LastCount = st.CellCount

		st.WobblePhase += 0.05 + 0.1*c.Genome.Motility
		if st.WobblePhase > 6.283185307179586 {
			st.WobblePhase -= 6.283185307179586
		}

		st.Stress *= 0.95
		if st.Stress > 1 {
			st.Stress = 1
		}

		// Learned direction multipliers relax toward neutral; a high
		// memory factor holds lessons longer.
		retain := 0.9 + 0.1*c.Genome.MemoryFactor
		for d := range st.SuccessHistory {
			st.SuccessHistory[d] = 1 + (st.SuccessHistory[d]-1)*retain
		}

		// Dormancy tracks local nutrient supply: starving colonies shut
		// down until the field recovers.
		avg := 0.0
		for _, idx := range st.Cells {
			avg += e.fields.NutrientAt(int(idx))
		}
		if st.CellCount > 0 {
			avg /= float64(st.CellCount)
		}
		starve := e.cfg.Env.StarveThreshold
		if !st.Dormant && avg < starve*3 {
			st.Dormant = true
		} else if st.Dormant && avg > starve*6 {
			st.Dormant = false
		}
	}
}
