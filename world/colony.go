package world

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"petri/genome"
)

// Identity names a colony and tracks its lineage.
type Identity struct {
	ID     uint32
	Name   string
	Parent uint32 // 0 for founders
}

// Stats is the mutable bookkeeping state of one colony.
type Stats struct {
	CellCount int
	PeakCount int
	LastCount int // cell count at the previous stats pass
	Active    bool
	Dormant   bool
	Stress    float64

	// Learned per-direction combat outcome multipliers, start at 1.
	SuccessHistory [genome.NumDirections]float64

	// Owned cell indices, swap-removed on loss.
	Cells []int32

	// Running centroid sums; centroid = sum / CellCount.
	SumX, SumY float64

	ShapeSeed   uint32
	WobblePhase float64
	GrowthRate  float64 // cells gained per stats pass
}

// Centroid returns the mean position of the colony's cells.
func (s *Stats) Centroid() (float64, float64) {
	if s.CellCount == 0 {
		return 0, 0
	}
	n := float64(s.CellCount)
	return s.SumX / n, s.SumY / n
}

// removeCell swap-removes one owned index. Linear in the colony's own
// cell count, never in the grid size.
func (s *Stats) removeCell(idx int32) {
	for i, c := range s.Cells {
		if c == idx {
			last := len(s.Cells) - 1
			s.Cells[i] = s.Cells[last]
			s.Cells = s.Cells[:last]
			return
		}
	}
}

// Colony is a transient handle into the registry. Its pointers stay valid
// only until the next colony is created; hold ids across tick phases, not
// handles.
type Colony struct {
	Entity   ecs.Entity
	Identity *Identity
	Genome   *genome.Genome
	Stats    *Stats
}

// Registry stores colonies as ECS entities. Colonies are deactivated, never
// removed, so ids stay resolvable for lineage checks. Ids are monotonic and
// saturate instead of wrapping.
type Registry struct {
	ecsWorld *ecs.World
	mapper   *ecs.Map3[Identity, genome.Genome, Stats]
	idMap    map[uint32]ecs.Entity
	nextID   uint32
	active   int
}

// NewRegistry creates an empty colony registry.
func NewRegistry() *Registry {
	w := ecs.NewWorld()
	return &Registry{
		ecsWorld: w,
		mapper:   ecs.NewMap3[Identity, genome.Genome, Stats](w),
		idMap:    make(map[uint32]ecs.Entity),
		nextID:   1,
	}
}

// Create registers a new active colony and returns its id. Creation fails
// cleanly once the id space is exhausted; the counter saturates rather than
// wrapping onto live ids.
func (r *Registry) Create(name string, parent uint32, g genome.Genome, shapeSeed uint32) (uint32, error) {
	if r.nextID == math.MaxUint32 {
		return 0, fmt.Errorf("world: colony id space exhausted")
	}
	id := r.nextID
	r.nextID++

	ident := Identity{ID: id, Name: name, Parent: parent}
	stats := Stats{Active: true, ShapeSeed: shapeSeed}
	for i := range stats.SuccessHistory {
		stats.SuccessHistory[i] = 1
	}

	entity := r.mapper.NewEntity(&ident, &g, &stats)
	r.idMap[id] = entity
	r.active++
	return id, nil
}

// Get resolves an id to a colony handle. Id 0, unknown ids, and inactive
// colonies all return not-found.
func (r *Registry) Get(id uint32) (Colony, bool) {
	if id == Unclaimed {
		return Colony{}, false
	}
	entity, ok := r.idMap[id]
	if !ok || !r.ecsWorld.Alive(entity) {
		return Colony{}, false
	}
	ident, g, stats := r.mapper.Get(entity)
	if !stats.Active {
		return Colony{}, false
	}
	return Colony{Entity: entity, Identity: ident, Genome: g, Stats: stats}, true
}

// getAny resolves an id regardless of the active flag, for lineage and
// merge bookkeeping.
func (r *Registry) getAny(id uint32) (Colony, bool) {
	entity, ok := r.idMap[id]
	if !ok || id == Unclaimed {
		return Colony{}, false
	}
	ident, g, stats := r.mapper.Get(entity)
	return Colony{Entity: entity, Identity: ident, Genome: g, Stats: stats}, true
}

// Deactivate marks a colony inactive. Its entity stays in the registry so
// the id keeps resolving for lineage checks via parents, but Get no longer
// returns it.
func (r *Registry) Deactivate(id uint32) {
	c, ok := r.Get(id)
	if !ok {
		return
	}
	c.Stats.Active = false
	c.Stats.Dormant = false
	c.Stats.Cells = c.Stats.Cells[:0]
	r.active--
}

// ActiveCount returns the number of active colonies.
func (r *Registry) ActiveCount() int { return r.active }

// ActiveIDs appends the ids of all active colonies to dst in creation
// order and returns it. The id list is the safe way to iterate while
// creating colonies mid-loop.
func (r *Registry) ActiveIDs(dst []uint32) []uint32 {
	filter := ecs.NewFilter2[Identity, Stats](r.ecsWorld)
	query := filter.Query()
	for query.Next() {
		ident, stats := query.Get()
		if stats.Active {
			dst = append(dst, ident.ID)
		}
	}
	return dst
}
