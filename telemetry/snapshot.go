package telemetry

import (
	"fmt"
	"math"

	"petri/world"
)

// ColonyView is the wire form of one colony for external consumers.
type ColonyView struct {
	ID         uint32  `json:"id"`
	Name       string  `json:"name"`
	Parent     uint32  `json:"parent,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Radius     float64 `json:"radius"`
	Cells      int     `json:"cells"`
	Peak       int     `json:"peak"`
	Dormant    bool    `json:"dormant,omitempty"`
	Stress     float64 `json:"stress"`
	GrowthRate float64 `json:"growth_rate"`
	BodyColor  string  `json:"body_color"`
	ShapeSeed  uint32  `json:"shape_seed"`
	Wobble     float64 `json:"wobble"`
}

// Snapshot is a point-in-time view of the whole dish.
type Snapshot struct {
	Tick     uint64       `json:"tick"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Colonies []ColonyView `json:"colonies"`
}

// BuildSnapshot captures every active colony. The radius is the radius of
// a disc with the colony's cell area, a stable size cue independent of
// shape.
func BuildSnapshot(w *world.World) Snapshot {
	snap := Snapshot{
		Tick:   w.Tick,
		Width:  w.Grid.W,
		Height: w.Grid.H,
	}
	w.ForEachActive(func(c world.Colony) {
		x, y := c.Stats.Centroid()
		col := c.Genome.BodyColor
		snap.Colonies = append(snap.Colonies, ColonyView{
			ID:         c.Identity.ID,
			Name:       c.Identity.Name,
			Parent:     c.Identity.Parent,
			X:          x,
			Y:          y,
			Radius:     math.Sqrt(float64(c.Stats.CellCount) / math.Pi),
			Cells:      c.Stats.CellCount,
			Peak:       c.Stats.PeakCount,
			Dormant:    c.Stats.Dormant,
			Stress:     c.Stats.Stress,
			GrowthRate: c.Stats.GrowthRate,
			BodyColor:  fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B),
			ShapeSeed:  c.Stats.ShapeSeed,
			Wobble:     c.Stats.WobblePhase,
		})
	})
	return snap
}
