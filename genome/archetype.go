package genome

import (
	"math"
	"math/rand"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// span is an inclusive sampling range for one trait.
type span struct {
	lo, hi float64
}

func (s span) sample(rng *rand.Rand) float64 {
	return s.lo + rng.Float64()*(s.hi-s.lo)
}

// Archetype biases the trait ranges a fresh genome samples from. Traits not
// listed here are sampled from their full range.
type Archetype struct {
	Name string

	Growth     span
	Metabolism span
	Aggression span
	Resilience span
	Toxin      span // production
	Social     span
	Motility   span
	Merge      span

	Hue span // degrees, [0,360)
}

// Archetypes are the named founder templates. Weights are uniform: a fresh
// colony picks one at random.
var Archetypes = []Archetype{
	{
		Name:   "berserker",
		Growth: span{0.5, 0.9}, Metabolism: span{0.6, 1}, Aggression: span{0.7, 1},
		Resilience: span{0.1, 0.4}, Toxin: span{0, 0.3}, Social: span{0, 0.3},
		Motility: span{0.3, 0.8}, Merge: span{0, 0.3},
		Hue: span{0, 30},
	},
	{
		Name:   "turtle",
		Growth: span{0.1, 0.4}, Metabolism: span{0.2, 0.5}, Aggression: span{0, 0.2},
		Resilience: span{0.7, 1}, Toxin: span{0, 0.2}, Social: span{0.2, 0.6},
		Motility: span{0, 0.2}, Merge: span{0.3, 0.7},
		Hue: span{180, 240},
	},
	{
		Name:   "swarm",
		Growth: span{0.8, 1}, Metabolism: span{0.7, 1}, Aggression: span{0.2, 0.5},
		Resilience: span{0, 0.3}, Toxin: span{0, 0.1}, Social: span{0.4, 0.8},
		Motility: span{0.5, 1}, Merge: span{0.4, 0.8},
		Hue: span{90, 150},
	},
	{
		Name:   "brewer",
		Growth: span{0.3, 0.6}, Metabolism: span{0.4, 0.7}, Aggression: span{0.3, 0.6},
		Resilience: span{0.3, 0.6}, Toxin: span{0.7, 1}, Social: span{0, 0.3},
		Motility: span{0.1, 0.4}, Merge: span{0, 0.2},
		Hue: span{60, 90},
	},
	{
		Name:   "communer",
		Growth: span{0.4, 0.7}, Metabolism: span{0.3, 0.6}, Aggression: span{0, 0.3},
		Resilience: span{0.4, 0.7}, Toxin: span{0, 0.2}, Social: span{0.7, 1},
		Motility: span{0.1, 0.4}, Merge: span{0.6, 1},
		Hue: span{270, 320},
	},
	{
		Name:   "nomad",
		Growth: span{0.4, 0.8}, Metabolism: span{0.5, 0.9}, Aggression: span{0.2, 0.5},
		Resilience: span{0.2, 0.5}, Toxin: span{0, 0.2}, Social: span{0.1, 0.4},
		Motility: span{0.8, 1}, Merge: span{0.2, 0.5},
		Hue: span{30, 60},
	},
	{
		Name:   "parasite",
		Growth: span{0.3, 0.6}, Metabolism: span{0.2, 0.5}, Aggression: span{0.5, 0.9},
		Resilience: span{0.1, 0.3}, Toxin: span{0.3, 0.6}, Social: span{0, 0.2},
		Motility: span{0.4, 0.8}, Merge: span{0, 0.1},
		Hue: span{320, 360},
	},
	{
		Name:   "wildcard",
		Growth: span{0, 1}, Metabolism: span{0, 1}, Aggression: span{0, 1},
		Resilience: span{0, 1}, Toxin: span{0, 1}, Social: span{0, 1},
		Motility: span{0, 1}, Merge: span{0, 1},
		Hue: span{0, 360},
	},
}

// minBrightness keeps body colors visible on a dark background.
const minBrightness = 0.55

// NewRandom samples a fresh genome from a randomly chosen archetype and
// returns it together with the archetype name.
func NewRandom(rng *rand.Rand) (Genome, string) {
	arch := Archetypes[rng.Intn(len(Archetypes))]
	return NewFromArchetype(rng, arch), arch.Name
}

// NewFromArchetype samples every trait, biasing the ranges the archetype
// names and leaving the rest at their full span.
func NewFromArchetype(rng *rand.Rand, arch Archetype) Genome {
	g := Genome{
		GrowthRate:         arch.Growth.sample(rng),
		Metabolism:         arch.Metabolism.sample(rng),
		Aggression:         arch.Aggression.sample(rng),
		Resilience:         arch.Resilience.sample(rng),
		Efficiency:         rng.Float64(),
		MutationRate:       rng.Float64(),
		QuorumThreshold:    rng.Float64(),
		QuorumPenalty:      rng.Float64(),
		SocialAffinity:     arch.Social.sample(rng),
		NutrientAttraction: rng.Float64(),
		ToxinAvoidance:     rng.Float64(),
		EdgeAffinity:       rng.Float64()*2 - 1,
		ToxinProduction:    arch.Toxin.sample(rng),
		ToxinResistance:    rng.Float64(),
		DefensePriority:    rng.Float64(),
		BiofilmStrength:    rng.Float64(),
		MergeAffinity:      arch.Merge.sample(rng),
		Motility:           arch.Motility.sample(rng),
		MotilityDirection:  rng.Float64() * twoPi,
		LearningRate:       rng.Float64(),
		MemoryFactor:       rng.Float64(),
	}
	for i := range g.SpreadWeights {
		g.SpreadWeights[i] = rng.Float64()
	}
	for i := range g.NeuralWeights {
		g.NeuralWeights[i] = rng.Float64()*2 - 1
	}

	g.BodyColor = vividColor(rng, arch.Hue)
	g.BorderColor = g.BodyColor.Half()
	return g
}

// vividColor derives a saturated HSV body color inside the archetype's hue
// band, clamped to a minimum brightness.
func vividColor(rng *rand.Rand, hue span) RGB {
	h := math.Mod(hue.sample(rng), 360)
	s := 0.6 + rng.Float64()*0.4
	v := minBrightness + rng.Float64()*(1-minBrightness)
	r, g, b := colorful.Hsv(h, s, v).RGB255()
	return RGB{r, g, b}
}
