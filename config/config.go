// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Sim       SimConfig       `yaml:"sim"`
	Genetics  GeneticsConfig  `yaml:"genetics"`
	Growth    GrowthConfig    `yaml:"growth"`
	Combat    CombatConfig    `yaml:"combat"`
	Env       EnvConfig       `yaml:"environment"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds grid dimensions.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SimConfig holds orchestration parameters.
type SimConfig struct {
	Workers         int     `yaml:"workers"`          // 0 = GOMAXPROCS
	InitialColonies int     `yaml:"initial_colonies"` // colonies seeded on reset
	TickMillis      int     `yaml:"tick_millis"`      // target tick interval before speed scaling
	SpeedMin        float64 `yaml:"speed_min"`        // speed multiplier clamp
	SpeedMax        float64 `yaml:"speed_max"`
}

// GeneticsConfig holds mutation and merge parameters.
type GeneticsConfig struct {
	MutationFloor   float64 `yaml:"mutation_floor"`    // minimum per-trait mutation probability
	HyperProb       float64 `yaml:"hyper_prob"`        // hypermutation event probability per call
	RadicalProb     float64 `yaml:"radical_prob"`      // radical single-trait rerandomization probability
	DeltaCore       float64 `yaml:"delta_core"`        // nudge span for core behavioral traits
	DeltaSlow       float64 `yaml:"delta_slow"`        // nudge span for slow-moving traits
	MergeThreshold  float64 `yaml:"merge_threshold"`   // base genetic distance allowing recombination
	MergeAffinityUp float64 `yaml:"merge_affinity_up"` // threshold raise scaled by avg merge affinity
}

// GrowthConfig holds spread and topology parameters.
type GrowthConfig struct {
	SpreadFloor      float64 `yaml:"spread_floor"`       // floor on environmental spread modifiers
	MinDivisionSize  int     `yaml:"min_division_size"`  // components smaller than this are discarded
	SpreadMutProb    float64 `yaml:"spread_mut_prob"`    // base per-claim genome mutation chance
	SpeciateBaseProb float64 `yaml:"speciate_base_prob"` // baseline per-tick colony mutation chance
	SpeciateSizeMin  int     `yaml:"speciate_size_min"`  // minimum colony size to split off a sibling
	SpeciateDistance float64 `yaml:"speciate_distance"`  // genetic jump required for a split
	SpeciateFraction float64 `yaml:"speciate_fraction"`  // fraction of cells handed to the sibling
}

// CombatConfig holds combat resolution parameters.
type CombatConfig struct {
	Epsilon      float64 `yaml:"epsilon"`       // denominator guard in win probability
	NoiseSpan    float64 `yaml:"noise_span"`    // multiplicative perturbation span
	HistoryFloor float64 `yaml:"history_floor"` // minimum per-direction success multiplier
	HistoryCeil  float64 `yaml:"history_ceil"`  // maximum per-direction success multiplier
	LossNudge    float64 `yaml:"loss_nudge"`    // probability a loss nudges history down
}

// EnvConfig holds environment field parameters.
type EnvConfig struct {
	NutrientRegen   float64 `yaml:"nutrient_regen"`   // regrowth per tick under unclaimed cells
	NutrientDeplete float64 `yaml:"nutrient_deplete"` // base depletion per occupied cell per tick
	ToxinEmission   float64 `yaml:"toxin_emission"`   // emission at producer border cells
	ToxinSpill      float64 `yaml:"toxin_spill"`      // fraction spilled to 4-neighbors
	ToxinDecay      float64 `yaml:"toxin_decay"`      // multiplicative decay per tick
	ToxinThreshold  float64 `yaml:"toxin_threshold"`  // level above which cells may die
	ToxinLethality  float64 `yaml:"toxin_lethality"`  // kill probability scale above threshold
	StarveThreshold float64 `yaml:"starve_threshold"` // nutrient level below which cells starve
	StarveLethality float64 `yaml:"starve_lethality"` // starvation kill probability scale
	SignalRetain    float64 `yaml:"signal_retain"`    // fraction of signal kept in place
	SignalSpread    float64 `yaml:"signal_spread"`    // fraction spread to neighbors
	SignalDecay     float64 `yaml:"signal_decay"`     // multiplicative decay per tick
	NoiseSeed       int64   `yaml:"noise_seed"`       // nutrient capacity noise seed
	NoiseScale      float64 `yaml:"noise_scale"`      // nutrient capacity noise frequency
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // ticks per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CellCount int // World.Width * World.Height
	RegionsX  int // region grid derived from worker count
	RegionsY  int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the core cannot run with.
func (c *Config) validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.Sim.TickMillis <= 0 {
		return fmt.Errorf("config: tick_millis must be positive, got %d", c.Sim.TickMillis)
	}
	if c.Sim.InitialColonies < 0 {
		return fmt.Errorf("config: initial_colonies must not be negative, got %d", c.Sim.InitialColonies)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.CellCount = c.World.Width * c.World.Height

	// Workers <= 1 still gets a minimal 2-region split so the parallel
	// path stays exercised.
	workers := c.Sim.Workers
	if workers <= 1 {
		c.Derived.RegionsX = 2
		c.Derived.RegionsY = 1
		return
	}
	rx, ry := 1, 1
	for rx*ry < workers {
		if rx <= ry {
			rx++
		} else {
			ry++
		}
	}
	c.Derived.RegionsX = rx
	c.Derived.RegionsY = ry
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
