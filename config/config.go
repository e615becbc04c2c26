// Package config provides configuration loading and access for the race simulator.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxBalls is the largest roster a race accepts.
const MaxBalls = 5

// ErrInvalidTimeScale is returned when the configured time scale is not positive.
var ErrInvalidTimeScale = errors.New("config: time scale must be positive")

// ErrInvalidInterval is returned when a step, sampling window or attack
// interval is not positive. Any of them at zero would stall a race forever.
var ErrInvalidInterval = errors.New("config: interval must be positive")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig       `yaml:"screen"`
	Arena        ArenaConfig        `yaml:"arena"`
	Physics      PhysicsConfig      `yaml:"physics"`
	Ball         BallConfig         `yaml:"ball"`
	Bounce       BounceConfig       `yaml:"bounce"`
	Liveness     LivenessConfig     `yaml:"liveness"`
	Race         RaceConfig         `yaml:"race"`
	Boss         BossConfig         `yaml:"boss"`
	Watchdog     WatchdogConfig     `yaml:"watchdog"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Weapons      []WeaponConfig     `yaml:"weapons"`
	Roster       []RosterEntry      `yaml:"roster"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ArenaConfig holds the playfield dimensions in world units.
type ArenaConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig holds integrator parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`             // seconds per tick at time scale 1
	TimeScale    float64 `yaml:"time_scale"`     // race clock multiplier
	MaxTimeScale float64 `yaml:"max_time_scale"` // upper clamp to avoid tunneling
}

// BallConfig holds base entity stats shared by every roster entry.
type BallConfig struct {
	BaseSpeed float64 `yaml:"base_speed"` // world units per second
	Radius    float64 `yaml:"radius"`
	MaxHealth float64 `yaml:"max_health"`
	Damage    float64 `yaml:"damage"`
}

// BounceConfig holds the collision response tuning.
type BounceConfig struct {
	TwistMin          float64 `yaml:"twist_min"`           // radians
	TwistMax          float64 `yaml:"twist_max"`           // radians, exclusive
	CornerMargin      float64 `yaml:"corner_margin"`       // distance from both walls that counts as a corner
	CornerJitter      float64 `yaml:"corner_jitter"`       // ± radians
	Debounce          float64 `yaml:"debounce"`            // seconds between accepted hits on the same obstacle
	TrapWindow        float64 `yaml:"trap_window"`         // seconds of contact history considered
	TrapThreshold     int     `yaml:"trap_threshold"`      // distinct obstacles inside the window
	TrapEscapeFactor  float64 `yaml:"trap_escape_factor"`  // multiple of effective speed
	SlideThreshold    float64 `yaml:"slide_threshold"`     // seconds of continuous contact before a forced bounce
	SlideFactor       float64 `yaml:"slide_factor"`        // multiple of effective speed
	SlideJitter       float64 `yaml:"slide_jitter"`        // ± radians
	BossReboundFactor float64 `yaml:"boss_rebound_factor"` // multiple of effective speed
	BossJitter        float64 `yaml:"boss_jitter"`         // ± radians
}

// LivenessConfig holds the watchdog heuristics that keep entities moving.
type LivenessConfig struct {
	EnergyLoss        float64 `yaml:"energy_loss"`         // velocity factor kept after a boundary clamp
	StuckWindow       float64 `yaml:"stuck_window"`        // seconds of history
	StuckSamples      int     `yaml:"stuck_samples"`       // ring size over the window
	StuckThreshold    float64 `yaml:"stuck_threshold"`     // max displacement counted as stuck
	WallProximity     float64 `yaml:"wall_proximity"`      // distance that counts as hugging a wall
	StuckEscapeFactor float64 `yaml:"stuck_escape_factor"` // multiple of effective speed
	StuckSpread       float64 `yaml:"stuck_spread"`        // ± radians around the center direction
	DriftEpsilon      float64 `yaml:"drift_epsilon"`       // |component|/speed below this counts as axis-aligned
	DriftNudge        float64 `yaml:"drift_nudge"`         // radians
	DriftWallNudge    float64 `yaml:"drift_wall_nudge"`    // radians when near a wall
	MinSpeedFactor    float64 `yaml:"min_speed_factor"`    // speeds below this fraction of effective speed are restored
}

// RaceConfig holds outcome resolution parameters.
type RaceConfig struct {
	WinCondition string  `yaml:"win_condition"` // goal, boss or either
	Countdown    float64 `yaml:"countdown"`     // seconds after half the field is done
	TimeBudget   float64 `yaml:"time_budget"`   // seconds of race clock before forced termination
	GoalMargin   float64 `yaml:"goal_margin"`   // distance past the goal line required without a zone
	Points       []int   `yaml:"points"`        // chain points indexed by rank-1
	FadeDuration float64 `yaml:"fade_duration"` // seconds a finished ball takes to fade out
}

// BossConfig holds defaults for the boss encounter.
type BossConfig struct {
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileLifetime float64 `yaml:"projectile_lifetime"`
	ProjectileDamage   float64 `yaml:"projectile_damage"`
	ProjectileRadius   float64 `yaml:"projectile_radius"`
	SpreadCount        int     `yaml:"spread_count"`
	SpreadArc          float64 `yaml:"spread_arc"`   // radians covered by the fan
	AimedJitter        float64 `yaml:"aimed_jitter"` // radians between aimed shots
	SpiralStep         float64 `yaml:"spiral_step"`  // radians per spiral shot
	BurstShots         int     `yaml:"burst_shots"`
	BurstGap           float64 `yaml:"burst_gap"` // seconds between burst shots
	FadeDuration       float64 `yaml:"fade_duration"`
	AttackInterval     float64 `yaml:"attack_interval"` // used when a level omits it
	StartDelay         float64 `yaml:"start_delay"`     // seconds between spawn and first attack
}

// WatchdogConfig holds wall-clock ceilings per instance.
type WatchdogConfig struct {
	RaceWallClock  time.Duration `yaml:"race_wall_clock"`
	ChainWallClock time.Duration `yaml:"chain_wall_clock"`
}

// OrchestratorConfig holds bulk-run parameters.
type OrchestratorConfig struct {
	Workers   int     `yaml:"workers"` // 0 = GOMAXPROCS
	Runs      int     `yaml:"runs"`
	TimeScale float64 `yaml:"time_scale"`
}

// TelemetryConfig holds logging options.
type TelemetryConfig struct {
	LogCorrections bool `yaml:"log_corrections"`
	SnapshotEvery  int  `yaml:"snapshot_every"` // ticks between streamed snapshots
}

// WeaponConfig is a static weapon definition.
type WeaponConfig struct {
	ID              string  `yaml:"id"`
	Cooldown        float64 `yaml:"cooldown"`
	Damage          float64 `yaml:"damage"`
	Range           float64 `yaml:"range"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`
	Piercing        bool    `yaml:"piercing"`
}

// RosterEntry defines one racing ball.
type RosterEntry struct {
	Name            string   `yaml:"name"`
	Color           string   `yaml:"color"` // hex RRGGBB
	SpeedMultiplier float64  `yaml:"speed_multiplier"`
	Damage          float64  `yaml:"damage"`
	MaxHealth       float64  `yaml:"max_health"`
	Weapons         []string `yaml:"weapons"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TimeScale   float64                 // clamped to (0, MaxTimeScale]
	Substeps    int                     // physics substeps per tick
	StepSeconds float64                 // race-clock seconds per tick
	WeaponIndex map[string]WeaponConfig // id -> definition
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

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
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

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone returns a deep copy so concurrent instances never share slices or maps.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Weapons = append([]WeaponConfig(nil), c.Weapons...)
	cp.Race.Points = append([]int(nil), c.Race.Points...)
	cp.Roster = make([]RosterEntry, len(c.Roster))
	for i, r := range c.Roster {
		r.Weapons = append([]string(nil), r.Weapons...)
		cp.Roster[i] = r
	}
	cp.Derived.WeaponIndex = make(map[string]WeaponConfig, len(c.Derived.WeaponIndex))
	for k, v := range c.Derived.WeaponIndex {
		cp.Derived.WeaponIndex[k] = v
	}
	return &cp
}

// SetTimeScale overrides the time scale and recomputes derived values.
func (c *Config) SetTimeScale(scale float64) error {
	c.Physics.TimeScale = scale
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	if c.Physics.TimeScale <= 0 || math.IsNaN(c.Physics.TimeScale) {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeScale, c.Physics.TimeScale)
	}
	for _, iv := range []struct {
		name string
		v    float64
	}{
		{"physics.dt", c.Physics.DT},
		{"liveness.stuck_window", c.Liveness.StuckWindow},
		{"boss.attack_interval", c.Boss.AttackInterval},
	} {
		if !(iv.v > 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidInterval, iv.name, iv.v)
		}
	}

	maxScale := c.Physics.MaxTimeScale
	if maxScale <= 0 {
		maxScale = 4
	}
	scale := math.Min(c.Physics.TimeScale, maxScale)

	c.Derived.TimeScale = scale
	c.Derived.Substeps = int(math.Ceil(scale))
	c.Derived.StepSeconds = c.Physics.DT * scale

	c.Derived.WeaponIndex = make(map[string]WeaponConfig, len(c.Weapons))
	for _, w := range c.Weapons {
		c.Derived.WeaponIndex[w.ID] = w
	}

	for i := range c.Roster {
		r := &c.Roster[i]
		if r.SpeedMultiplier == 0 {
			r.SpeedMultiplier = 1
		}
		if r.Damage == 0 {
			r.Damage = c.Ball.Damage
		}
		if r.MaxHealth == 0 {
			r.MaxHealth = c.Ball.MaxHealth
		}
	}
	return nil
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
