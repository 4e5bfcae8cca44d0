// Package env holds the environment fields layered over the grid:
// nutrients, toxins, and colony signals. Updates are flat, branch-light
// array passes over float64 slices so they stay friendly to vectorization.
package env

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/floats"
)

// Params tunes the per-tick field updates.
type Params struct {
	NutrientRegen   float64 // regrowth toward capacity under unclaimed cells
	NutrientDeplete float64 // base depletion per unit of consumption
	ToxinEmission   float64 // emission at producer border cells
	ToxinSpill      float64 // fraction spilled to the 4 cardinal neighbors
	ToxinDecay      float64 // multiplicative decay per tick
	SignalRetain    float64 // fraction of signal kept in place
	SignalSpread    float64 // fraction spread to the 4 cardinal neighbors
	SignalDecay     float64 // multiplicative decay per tick
	NoiseSeed       int64
	NoiseScale      float64 // capacity noise frequency
}

// DefaultParams mirror the embedded config defaults.
var DefaultParams = Params{
	NutrientRegen:   0.004,
	NutrientDeplete: 0.01,
	ToxinEmission:   0.05,
	ToxinSpill:      0.25,
	ToxinDecay:      0.97,
	SignalRetain:    0.8,
	SignalSpread:    0.15,
	SignalDecay:     0.95,
	NoiseSeed:       42,
	NoiseScale:      6.0,
}

// Fields holds the three parallel float arrays over the grid plus the
// signal attribution tags and the double-buffer scratch pair.
type Fields struct {
	W, H int

	Nutrients []float64 // [0,1], regrows toward Capacity
	Capacity  []float64 // [0,1], noise-derived regrowth target
	Toxins    []float64 // [0,1]
	Signals   []float64 // [0,1]

	// Source colony id of the strongest signal contribution per cell.
	SignalOwner []uint32

	params Params

	// Scratch pair for signal diffusion; swapped, never reallocated.
	sigTmp      []float64
	sigOwnerTmp []uint32
}

// New allocates fields over a w x h grid and seeds the nutrient capacity
// from normalized simplex noise.
func New(w, h int, params Params) (*Fields, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("env: field dimensions must be positive, got %dx%d", w, h)
	}
	n := w * h
	f := &Fields{
		W: w, H: h,
		Nutrients:   make([]float64, n),
		Capacity:    make([]float64, n),
		Toxins:      make([]float64, n),
		Signals:     make([]float64, n),
		SignalOwner: make([]uint32, n),
		sigTmp:      make([]float64, n),
		sigOwnerTmp: make([]uint32, n),
		params:      params,
	}

	noise := opensimplex.NewNormalized(params.NoiseSeed)
	scale := params.NoiseScale
	if scale <= 0 {
		scale = DefaultParams.NoiseScale
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := float64(x) / float64(w) * scale
			v := float64(y) / float64(h) * scale
			f.Capacity[y*w+x] = noise.Eval2(u, v)
		}
	}
	copy(f.Nutrients, f.Capacity)
	return f, nil
}

// Params returns the active tuning values.
func (f *Fields) Params() Params { return f.params }

// StepNutrients advances the nutrient field one tick. consumption holds one
// value per cell: zero for unclaimed cells (which regrow toward capacity)
// and the colony's effective consumption rate where occupied.
func (f *Fields) StepNutrients(consumption []float64) {
	regen := f.params.NutrientRegen
	deplete := f.params.NutrientDeplete
	for i, c := range consumption {
		v := f.Nutrients[i]
		if c == 0 {
			v += regen
			if v > f.Capacity[i] {
				v = f.Capacity[i]
			}
		} else {
			v -= deplete * c
			if v < 0 {
				v = 0
			}
		}
		f.Nutrients[i] = v
	}
}

// EmitToxin deposits toxin at idx, spilling a fraction to the 4 cardinal
// neighbors.
func (f *Fields) EmitToxin(idx int, amount float64) {
	spill := amount * f.params.ToxinSpill / 4
	f.Toxins[idx] = clamp01(f.Toxins[idx] + amount*(1-f.params.ToxinSpill))

	x, y := idx%f.W, idx/f.W
	if x+1 < f.W {
		f.Toxins[idx+1] = clamp01(f.Toxins[idx+1] + spill)
	}
	if x > 0 {
		f.Toxins[idx-1] = clamp01(f.Toxins[idx-1] + spill)
	}
	if y+1 < f.H {
		f.Toxins[idx+f.W] = clamp01(f.Toxins[idx+f.W] + spill)
	}
	if y > 0 {
		f.Toxins[idx-f.W] = clamp01(f.Toxins[idx-f.W] + spill)
	}
}

// DecayToxins applies the multiplicative per-tick decay as a single flat
// scale pass.
func (f *Fields) DecayToxins() {
	floats.Scale(f.params.ToxinDecay, f.Toxins)
}

// EmitSignal deposits colony-attributed signal at idx. The strongest
// contributor keeps the attribution.
func (f *Fields) EmitSignal(idx int, strength float64, owner uint32) {
	if strength > f.Signals[idx] {
		f.SignalOwner[idx] = owner
	}
	f.Signals[idx] = clamp01(f.Signals[idx] + strength)
}

// StepSignals diffuses the signal field one tick: each cell retains most of
// its strength, spreads a smaller fraction to the 4 cardinal neighbors, and
// the whole field decays multiplicatively. The scratch pair double-buffers
// the pass so reads never alias writes within one update.
func (f *Fields) StepSignals() {
	retain := f.params.SignalRetain
	spread := f.params.SignalSpread / 4
	w, h := f.W, f.H

	src, dst := f.Signals, f.sigTmp
	srcOwner, dstOwner := f.SignalOwner, f.sigOwnerTmp

	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			i := row + x
			best := src[i] * retain
			owner := srcOwner[i]
			total := best

			if x+1 < w {
				in := src[i+1] * spread
				total += in
				if in > best {
					best, owner = in, srcOwner[i+1]
				}
			}
			if x > 0 {
				in := src[i-1] * spread
				total += in
				if in > best {
					best, owner = in, srcOwner[i-1]
				}
			}
			if y+1 < h {
				in := src[i+w] * spread
				total += in
				if in > best {
					best, owner = in, srcOwner[i+w]
				}
			}
			if y > 0 {
				in := src[i-w] * spread
				total += in
				if in > best {
					best, owner = in, srcOwner[i-w]
				}
			}

			dst[i] = clamp01(total)
			dstOwner[i] = owner
		}
	}

	floats.Scale(f.params.SignalDecay, dst)

	f.Signals, f.sigTmp = dst, src
	f.SignalOwner, f.sigOwnerTmp = dstOwner, srcOwner
}

// NutrientAt returns the nutrient level at idx.
func (f *Fields) NutrientAt(idx int) float64 { return f.Nutrients[idx] }

// ToxinAt returns the toxin level at idx.
func (f *Fields) ToxinAt(idx int) float64 { return f.Toxins[idx] }

// SignalAt returns the signal strength and source colony at idx.
func (f *Fields) SignalAt(idx int) (float64, uint32) {
	return f.Signals[idx], f.SignalOwner[idx]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
