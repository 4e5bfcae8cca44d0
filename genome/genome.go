// Package genome defines the evolvable trait vector that governs colony
// behavior, along with mutation, distance, and merge operations.
package genome

import (
	"math"
	"math/rand"
)

// NumDirections is the number of compass directions used for spread
// weights and combat success history.
const NumDirections = 8

// NumNeuralWeights is the size of the fixed neural weight vector.
const NumNeuralWeights = 16

const twoPi = 2 * math.Pi

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Half returns the color at half brightness, used for border cells.
func (c RGB) Half() RGB {
	return RGB{c.R / 2, c.G / 2, c.B / 2}
}

// Genome is the bounded trait vector of one colony. All scalar traits live
// in [0,1] unless noted otherwise. Genome is a plain value type: copying it
// copies the whole vector.
type Genome struct {
	// Per-direction spread preference, index 0 = east, counterclockwise.
	SpreadWeights [NumDirections]float64

	// Core behavioral traits.
	GrowthRate float64 // spread probability base
	Metabolism float64 // nutrient consumption and activity level
	Aggression float64 // attack strength and contested-cell boldness
	Resilience float64 // defense strength
	Efficiency float64 // reduces nutrient depletion

	// Evolution traits.
	MutationRate float64

	// Social / quorum-sensing traits.
	QuorumThreshold float64 // same-colony density that triggers the penalty
	QuorumPenalty   float64 // spread penalty strength past the threshold
	SocialAffinity  float64

	// Environmental sensitivity.
	NutrientAttraction float64
	ToxinAvoidance     float64
	EdgeAffinity       float64 // [-1,1]: negative avoids grid edges

	// Chemical warfare.
	ToxinProduction float64
	ToxinResistance float64

	// Defense.
	DefensePriority float64
	BiofilmStrength float64

	// Recombination.
	MergeAffinity float64

	// Motility: preferred drift direction is circular in [0, 2pi).
	Motility          float64
	MotilityDirection float64

	// Small fixed neural vector, weights in [-1,1].
	NeuralWeights [NumNeuralWeights]float64
	LearningRate  float64
	MemoryFactor  float64

	// Display colors. Border is always derived as half the body color.
	BodyColor   RGB
	BorderColor RGB
}

// scalarTrait describes one bounded scalar trait for the uniform
// mutate/distance/merge passes.
type scalarTrait struct {
	get    func(*Genome) *float64
	lo, hi float64
	big    bool    // core behavioral trait: mutates with the larger delta
	weight float64 // distance normalization weight
}

// scalarTraits covers every scalar trait except the circular
// MotilityDirection, which needs special handling everywhere.
var scalarTraits = []scalarTrait{
	{func(g *Genome) *float64 { return &g.GrowthRate }, 0, 1, true, 1},
	{func(g *Genome) *float64 { return &g.Metabolism }, 0, 1, true, 1},
	{func(g *Genome) *float64 { return &g.Aggression }, 0, 1, true, 1},
	{func(g *Genome) *float64 { return &g.Resilience }, 0, 1, true, 1},
	{func(g *Genome) *float64 { return &g.Efficiency }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.MutationRate }, 0, 1, false, 5},
	{func(g *Genome) *float64 { return &g.QuorumThreshold }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.QuorumPenalty }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.SocialAffinity }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.NutrientAttraction }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.ToxinAvoidance }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.EdgeAffinity }, -1, 1, false, 0.5},
	{func(g *Genome) *float64 { return &g.ToxinProduction }, 0, 1, true, 1},
	{func(g *Genome) *float64 { return &g.ToxinResistance }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.DefensePriority }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.BiofilmStrength }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.MergeAffinity }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.Motility }, 0, 1, false, 1},
	{func(g *Genome) *float64 { return &g.LearningRate }, 0, 1, false, 5},
	{func(g *Genome) *float64 { return &g.MemoryFactor }, 0, 1, false, 1},
}

// distanceWeightSum is the fixed normalization denominator for Distance:
// every scalar trait weight, one per spread weight, half per neural weight,
// and half for the circular motility direction.
var distanceWeightSum = func() float64 {
	sum := 0.0
	for _, t := range scalarTraits {
		sum += t.weight
	}
	sum += float64(NumDirections)
	sum += 0.5 * float64(NumNeuralWeights)
	sum += 0.5
	return sum
}()

// Params tunes the stochastic genome operations. Zero values fall back to
// the documented defaults so tests can use Params{} directly.
type Params struct {
	MutationFloor float64 // minimum per-trait mutation probability
	HyperProb     float64 // chance a call runs at 4x mutation probability
	RadicalProb   float64 // chance one trait is fully rerandomized
	DeltaCore     float64 // nudge span for core behavioral traits
	DeltaSlow     float64 // nudge span for everything else
}

// DefaultParams are the tuning values used when a field is left zero.
var DefaultParams = Params{
	MutationFloor: 0.02,
	HyperProb:     0.02,
	RadicalProb:   0.005,
	DeltaCore:     0.15,
	DeltaSlow:     0.05,
}

func (p Params) filled() Params {
	d := DefaultParams
	if p.MutationFloor > 0 {
		d.MutationFloor = p.MutationFloor
	}
	if p.HyperProb > 0 {
		d.HyperProb = p.HyperProb
	}
	if p.RadicalProb > 0 {
		d.RadicalProb = p.RadicalProb
	}
	if p.DeltaCore > 0 {
		d.DeltaCore = p.DeltaCore
	}
	if p.DeltaSlow > 0 {
		d.DeltaSlow = p.DeltaSlow
	}
	return d
}

// Mutate nudges traits in place. Each trait mutates with a probability
// derived from the genome's own mutation-rate trait, floored so evolution
// never fully stalls. Core behavioral traits move with the larger delta.
// A low-probability hypermutation event quadruples the mutation probability
// for this call; a rarer radical event fully rerandomizes one trait.
func (g *Genome) Mutate(rng *rand.Rand, p Params) {
	p = p.filled()

	prob := g.MutationRate * 0.25
	if prob < p.MutationFloor {
		prob = p.MutationFloor
	}
	if rng.Float64() < p.HyperProb {
		prob *= 4
		if prob > 1 {
			prob = 1
		}
	}

	for i := range scalarTraits {
		t := &scalarTraits[i]
		if rng.Float64() >= prob {
			continue
		}
		delta := p.DeltaSlow
		if t.big {
			delta = p.DeltaCore
		}
		v := t.get(g)
		*v = clamp(*v+(rng.Float64()*2-1)*delta, t.lo, t.hi)
	}

	for i := range g.SpreadWeights {
		if rng.Float64() < prob {
			g.SpreadWeights[i] = clamp(g.SpreadWeights[i]+(rng.Float64()*2-1)*p.DeltaCore, 0, 1)
		}
	}
	for i := range g.NeuralWeights {
		if rng.Float64() < prob {
			g.NeuralWeights[i] = clamp(g.NeuralWeights[i]+(rng.Float64()*2-1)*p.DeltaSlow, -1, 1)
		}
	}
	if rng.Float64() < prob {
		g.MotilityDirection = wrapAngle(g.MotilityDirection + (rng.Float64()*2-1)*p.DeltaCore*math.Pi)
	}

	if rng.Float64() < p.RadicalProb {
		g.radicalMutation(rng)
	}

	// Body color drifts rarely; border always tracks it.
	if rng.Float64() < prob*0.5 {
		g.BodyColor = nudgeColor(g.BodyColor, rng)
	}
	g.BorderColor = g.BodyColor.Half()
}

// radicalMutation fully rerandomizes one trait picked uniformly across the
// scalar table, the spread weights, and the neural weights.
func (g *Genome) radicalMutation(rng *rand.Rand) {
	n := len(scalarTraits) + NumDirections + NumNeuralWeights + 1
	pick := rng.Intn(n)
	switch {
	case pick < len(scalarTraits):
		t := &scalarTraits[pick]
		*t.get(g) = t.lo + rng.Float64()*(t.hi-t.lo)
	case pick < len(scalarTraits)+NumDirections:
		g.SpreadWeights[pick-len(scalarTraits)] = rng.Float64()
	case pick < len(scalarTraits)+NumDirections+NumNeuralWeights:
		g.NeuralWeights[pick-len(scalarTraits)-NumDirections] = rng.Float64()*2 - 1
	default:
		g.MotilityDirection = rng.Float64() * twoPi
	}
}

// Distance returns the weighted per-trait distance between two genomes.
// Identical genomes have distance 0 and the measure is symmetric. The value
// is normalized by the fixed weight sum, landing near [0,1] in practice.
func Distance(a, b *Genome) float64 {
	sum := 0.0
	for i := range scalarTraits {
		t := &scalarTraits[i]
		sum += t.weight * math.Abs(*t.get(a)-*t.get(b))
	}
	for i := range a.SpreadWeights {
		sum += math.Abs(a.SpreadWeights[i] - b.SpreadWeights[i])
	}
	for i := range a.NeuralWeights {
		sum += 0.5 * math.Abs(a.NeuralWeights[i]-b.NeuralWeights[i])
	}
	sum += 0.5 * angularDiff(a.MotilityDirection, b.MotilityDirection) / math.Pi
	return sum / distanceWeightSum
}

// Merge returns the cell-count weighted average of two genomes. The
// circular motility direction merges via sin/cos mean rather than a linear
// average. A degenerate input (one side with no cells) returns the other
// side unchanged.
func Merge(a *Genome, countA int, b *Genome, countB int) Genome {
	if countA <= 0 {
		return *b
	}
	if countB <= 0 {
		return *a
	}

	wa := float64(countA) / float64(countA+countB)
	wb := 1 - wa

	out := *a
	for i := range scalarTraits {
		t := &scalarTraits[i]
		*t.get(&out) = *t.get(a)*wa + *t.get(b)*wb
	}
	for i := range out.SpreadWeights {
		out.SpreadWeights[i] = a.SpreadWeights[i]*wa + b.SpreadWeights[i]*wb
	}
	for i := range out.NeuralWeights {
		out.NeuralWeights[i] = a.NeuralWeights[i]*wa + b.NeuralWeights[i]*wb
	}

	sin := math.Sin(a.MotilityDirection)*wa + math.Sin(b.MotilityDirection)*wb
	cos := math.Cos(a.MotilityDirection)*wa + math.Cos(b.MotilityDirection)*wb
	out.MotilityDirection = wrapAngle(math.Atan2(sin, cos))

	out.BodyColor = blendColor(a.BodyColor, b.BodyColor, wa)
	out.BorderColor = out.BodyColor.Half()
	return out
}

// InBounds reports whether every trait sits inside its documented range.
func (g *Genome) InBounds() bool {
	for i := range scalarTraits {
		t := &scalarTraits[i]
		v := *t.get(g)
		if v < t.lo || v > t.hi {
			return false
		}
	}
	for _, w := range g.SpreadWeights {
		if w < 0 || w > 1 {
			return false
		}
	}
	for _, w := range g.NeuralWeights {
		if w < -1 || w > 1 {
			return false
		}
	}
	return g.MotilityDirection >= 0 && g.MotilityDirection < twoPi
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapAngle maps any angle into [0, 2pi).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// angularDiff returns the shortest distance between two angles, in [0, pi].
func angularDiff(a, b float64) float64 {
	d := math.Abs(wrapAngle(a) - wrapAngle(b))
	if d > math.Pi {
		d = twoPi - d
	}
	return d
}

func blendColor(a, b RGB, wa float64) RGB {
	wb := 1 - wa
	return RGB{
		R: uint8(float64(a.R)*wa + float64(b.R)*wb),
		G: uint8(float64(a.G)*wa + float64(b.G)*wb),
		B: uint8(float64(a.B)*wa + float64(b.B)*wb),
	}
}

func nudgeColor(c RGB, rng *rand.Rand) RGB {
	nudge := func(v uint8) uint8 {
		n := int(v) + rng.Intn(21) - 10
		if n < 40 {
			n = 40
		}
		if n > 255 {
			n = 255
		}
		return uint8(n)
	}
	return RGB{nudge(c.R), nudge(c.G), nudge(c.B)}
}
