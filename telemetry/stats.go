// Package telemetry aggregates per-window simulation statistics and writes
// them to CSV for offline analysis.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"petri/sim"
	"petri/world"
)

// WindowStats is one aggregated reporting window. The csv tags define the
// output column layout.
type WindowStats struct {
	Tick         uint64  `csv:"tick" json:"tick"`
	Colonies     int     `csv:"colonies" json:"colonies"`
	Population   int     `csv:"population" json:"population"`
	MeanSize     float64 `csv:"mean_size" json:"mean_size"`
	StdSize      float64 `csv:"std_size" json:"std_size"`
	MedianSize   float64 `csv:"median_size" json:"median_size"`
	MaxSize      int     `csv:"max_size" json:"max_size"`
	Claims       int     `csv:"claims" json:"claims"`
	Attacks      int     `csv:"attacks" json:"attacks"`
	Conquests    int     `csv:"conquests" json:"conquests"`
	ToxinDeaths  int     `csv:"toxin_deaths" json:"toxin_deaths"`
	StarveDeaths int     `csv:"starve_deaths" json:"starve_deaths"`
	Divisions    int     `csv:"divisions" json:"divisions"`
	Merges       int     `csv:"merges" json:"merges"`
	Speciations  int     `csv:"speciations" json:"speciations"`
	MeanNutrient float64 `csv:"mean_nutrient" json:"mean_nutrient"`
	MeanToxin    float64 `csv:"mean_toxin" json:"mean_toxin"`
}

// LogValue renders the window compactly for structured logs.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("tick", s.Tick),
		slog.Int("colonies", s.Colonies),
		slog.Int("population", s.Population),
		slog.Float64("mean_size", s.MeanSize),
		slog.Int("claims", s.Claims),
		slog.Int("conquests", s.Conquests),
		slog.Int("divisions", s.Divisions),
		slog.Int("merges", s.Merges),
		slog.Int("speciations", s.Speciations),
	)
}

// Collector builds WindowStats from a live engine. Collect drains the
// engine's event counters, so each event lands in exactly one window.
type Collector struct {
	sizes []float64
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Collect aggregates the current world state and the events accumulated
// since the last call.
func (c *Collector) Collect(e *sim.Engine) WindowStats {
	w := e.World()
	ws := WindowStats{
		Tick:         e.Tick(),
		Claims:       e.Events.Claims,
		Attacks:      e.Events.Attacks,
		Conquests:    e.Events.Conquests,
		ToxinDeaths:  e.Events.ToxinDeaths,
		StarveDeaths: e.Events.StarveDeaths,
		Divisions:    e.Events.Divisions,
		Merges:       e.Events.Merges,
		Speciations:  e.Events.Speciations,
	}
	e.Events.Reset()

	c.sizes = c.sizes[:0]
	w.ForEachActive(func(col world.Colony) {
		ws.Colonies++
		ws.Population += col.Stats.CellCount
		if col.Stats.CellCount > ws.MaxSize {
			ws.MaxSize = col.Stats.CellCount
		}
		c.sizes = append(c.sizes, float64(col.Stats.CellCount))
	})
	if len(c.sizes) > 0 {
		ws.MeanSize = stat.Mean(c.sizes, nil)
		sort.Float64s(c.sizes)
		ws.MedianSize = stat.Quantile(0.5, stat.Empirical, c.sizes, nil)
	}
	if len(c.sizes) > 1 {
		ws.StdSize = stat.StdDev(c.sizes, nil)
	}

	f := e.Fields()
	n := float64(len(f.Nutrients))
	if n > 0 {
		var nut, tox float64
		for i := range f.Nutrients {
			nut += f.Nutrients[i]
			tox += f.Toxins[i]
		}
		ws.MeanNutrient = nut / n
		ws.MeanToxin = tox / n
	}
	return ws
}
