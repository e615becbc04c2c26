package game

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/systems"
	"github.com/pthm-cable/bounce/telemetry"
)

// ErrEmptyRoster is returned when a race is created without balls.
var ErrEmptyRoster = errors.New("game: empty roster")

// ErrNoLevel is returned when a race is stepped before a level is loaded.
var ErrNoLevel = errors.New("game: no level loaded")

// Race is one isolated simulation instance. It owns its ECS world, random
// source, scheduler and systems; nothing is shared between races, so many
// can run concurrently.
type Race struct {
	cfg   *config.Config
	seed  int64
	rng   *rand.Rand
	world *ecs.World

	sched    *systems.Scheduler
	physics  *systems.Physics
	resolver *systems.Resolver
	behavior *systems.BehaviorEngine
	liveness *systems.Liveness
	outcome  *systems.Outcome
	combat   *systems.Combat
	boss     *systems.BossSystem

	counters  systems.Counters
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector

	ballMapper *ecs.Map6[components.Position, components.Velocity, components.Body, components.Ball, components.Tracking, components.Buffs]
	obsMapper  *ecs.Map3[components.Position, components.Body, components.Obstacle]
	itemMapper *ecs.Map3[components.Position, components.Body, components.Item]
	obsFilter  *ecs.Filter3[components.Position, components.Body, components.Obstacle]
	itemFilter *ecs.Filter3[components.Position, components.Body, components.Item]
	projFilter *ecs.Filter3[components.Position, components.Body, components.Projectile]
	bodyMap    *ecs.Map[components.Body]

	balls []ecs.Entity // roster order
	level *level.Level
	win   level.WinCondition
	diags []level.Diagnostic

	tick int
	now  float64
}

// NewRace creates a race context with one ball per roster entry. A level must
// be loaded with Load before the race can step.
func NewRace(cfg *config.Config, roster []config.RosterEntry, seed int64) (*Race, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if len(roster) > config.MaxBalls {
		return nil, level.ErrTooManyBalls
	}

	r := &Race{
		cfg:       cfg,
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		world:     ecs.NewWorld(),
		sched:     systems.NewScheduler(),
		collector: telemetry.NewCollector(),
	}
	w := r.world

	r.ballMapper = ecs.NewMap6[components.Position, components.Velocity, components.Body, components.Ball, components.Tracking, components.Buffs](w)
	r.obsMapper = ecs.NewMap3[components.Position, components.Body, components.Obstacle](w)
	r.itemMapper = ecs.NewMap3[components.Position, components.Body, components.Item](w)
	r.obsFilter = ecs.NewFilter3[components.Position, components.Body, components.Obstacle](w)
	r.itemFilter = ecs.NewFilter3[components.Position, components.Body, components.Item](w)
	r.projFilter = ecs.NewFilter3[components.Position, components.Body, components.Projectile](w)
	r.bodyMap = ecs.NewMap[components.Body](w)

	r.physics = systems.NewPhysics(w, cfg.Arena.Width, cfg.Arena.Height)
	r.behavior = systems.NewBehaviorEngine(w, r.sched)
	r.resolver = systems.NewResolver(w, cfg, r.rng, r, &r.counters)
	r.liveness = systems.NewLiveness(w, cfg, r.rng, &r.counters, r, r.spawnPoint)
	r.combat = systems.NewCombat(w, cfg, r.sched, r)
	r.boss = systems.NewBossSystem(w, cfg, r.rng, r.sched, r.combat, r.bossDied)
	r.combat.SetBoss(r.boss)
	r.combat.OnDamage(func(_ *components.Ball, amount float64) {
		r.collector.RecordDamage(amount)
	})

	r.spawnBalls(roster)
	return r, nil
}

// SetPerf attaches a collector that times each pipeline phase. nil disables timing.
func (r *Race) SetPerf(p *telemetry.PerfCollector) { r.perf = p }

// Config returns the race's own configuration.
func (r *Race) Config() *config.Config { return r.cfg }

// Seed returns the seed of the race random source.
func (r *Race) Seed() int64 { return r.seed }

// Level returns the loaded level, or nil.
func (r *Race) Level() *level.Level { return r.level }

// Diagnostics returns the level entries skipped by the last Load.
func (r *Race) Diagnostics() []level.Diagnostic { return r.diags }

// Tick returns the number of completed ticks.
func (r *Race) Tick() int { return r.tick }

// Now returns the race clock in seconds.
func (r *Race) Now() float64 { return r.now }

// Complete reports whether the race is over. A race without a level is never complete.
func (r *Race) Complete() bool { return r.outcome != nil && r.outcome.Complete() }

// Load tears down the previous level, builds lvl and resets every ball to
// the spawn zone. Balls keep their identity and inventory.
func (r *Race) Load(lvl *level.Level) error {
	diags, err := lvl.Validate(r.cfg.Arena.Width, r.cfg.Arena.Height)
	if err != nil {
		return err
	}
	win, err := r.winCondition(lvl)
	if err != nil {
		return err
	}

	r.teardown()
	r.level = lvl
	r.win = win
	r.diags = diags
	for _, d := range diags {
		slog.Warn("level entry skipped", "level", lvl.Name, "entry", d)
	}

	r.buildLevel(lvl, diags)
	r.outcome = systems.NewOutcome(r.world, r.cfg, lvl, win, r.sched, systems.OutcomeHooks{
		OnFinish: func(b *components.Ball) {
			r.collector.RecordFinish(b.TimedOut)
			slog.Debug("finish", "ball", b.Name, "rank", b.Rank, "time", b.FinishTime, "timed_out", b.TimedOut)
		},
		OnEliminate: func(b *components.Ball) {
			r.collector.RecordElimination(b.Reason)
			slog.Debug("eliminated", "ball", b.Name, "reason", b.Reason, "time", b.FinishTime)
		},
		OnCountdown: func(seconds float64) {
			r.collector.RecordCountdown()
			slog.Debug("countdown", "seconds", seconds, "time", r.now)
		},
		OnComplete: func(reason string) {
			switch reason {
			case systems.EndCountdown, systems.EndTimeBudget, systems.EndWatchdog:
				r.collector.RecordForceFinish()
			}
			slog.Debug("race complete", "level", lvl.Name, "reason", reason, "time", r.now)
		},
	})
	r.resetBalls()

	r.counters = systems.Counters{}
	r.collector = telemetry.NewCollector()
	r.tick = 0
	r.now = 0
	return nil
}

// winCondition picks the level override, then the configured default. A goal
// condition on a level without a goal falls back to the boss when there is one.
func (r *Race) winCondition(lvl *level.Level) (level.WinCondition, error) {
	spelling := lvl.WinCondition
	if spelling == "" {
		spelling = r.cfg.Race.WinCondition
	}
	win, err := level.ParseWinCondition(spelling)
	if err != nil {
		return win, err
	}
	if win == level.WinGoal && !lvl.HasGoal() && lvl.Boss != nil {
		win = level.WinBoss
	}
	return win, nil
}

// teardown cancels pending timers and removes every level entity.
func (r *Race) teardown() {
	r.sched.Reset()
	r.physics.Reset()
	r.combat.Reset()

	if e, ok := r.boss.Entity(); ok && r.world.Alive(e) {
		r.world.RemoveEntity(e)
	}
	r.boss.Reset()

	var doomed []ecs.Entity
	query := r.obsFilter.Query()
	for query.Next() {
		doomed = append(doomed, query.Entity())
	}
	items := r.itemFilter.Query()
	for items.Next() {
		doomed = append(doomed, items.Entity())
	}
	for _, e := range doomed {
		r.world.RemoveEntity(e)
	}
}

// Step advances the race by one tick: the race clock moves by
// StepSeconds, split into Substeps equal physics steps. Once the race is
// complete the clock stops and only fades advance.
func (r *Race) Step() {
	if r.outcome == nil {
		return
	}
	if r.outcome.Complete() {
		dt := r.cfg.Derived.StepSeconds
		r.outcome.Update(r.now, dt)
		r.boss.Update(dt)
		return
	}

	n := max(r.cfg.Derived.Substeps, 1)
	dt := r.cfg.Derived.StepSeconds / float64(n)

	r.perf.StartTick()
	for i := 0; i < n && !r.outcome.Complete(); i++ {
		r.substep(dt)
	}
	r.perf.EndTick()
	r.tick++
}

// substep runs the per-step pipeline in its fixed order.
func (r *Race) substep(dt float64) {
	r.now += dt

	r.perf.StartPhase(telemetry.PhaseScheduler)
	r.sched.Advance(r.now)

	r.perf.StartPhase(telemetry.PhaseBehavior)
	r.behavior.Update(dt, !r.outcome.Complete())

	r.perf.StartPhase(telemetry.PhasePhysics)
	contacts := r.physics.Step(dt)

	r.perf.StartPhase(telemetry.PhaseResolve)
	r.resolver.Resolve(contacts, r.now, dt)

	r.perf.StartPhase(telemetry.PhaseLiveness)
	r.liveness.Update(dt, r.behavior.Swept())

	r.perf.StartPhase(telemetry.PhaseOutcome)
	r.outcome.Update(r.now, dt)

	r.perf.StartPhase(telemetry.PhaseCombat)
	r.combat.Update(r.now, dt)
	r.boss.Update(dt)
}

// Run steps the race until it completes or ctx expires. On expiry the race
// is force-finished with ranks taken from current progress.
func (r *Race) Run(ctx context.Context) (telemetry.RaceResult, error) {
	if r.outcome == nil {
		return telemetry.RaceResult{}, ErrNoLevel
	}
	for !r.Complete() {
		if ctx.Err() != nil {
			r.Abort()
			break
		}
		r.Step()
	}
	return r.Result(), nil
}

// Abort ends the race as a watchdog expiry. Completed races are unchanged.
func (r *Race) Abort() {
	if r.outcome == nil || r.outcome.Complete() {
		return
	}
	r.collector.RecordWatchdog()
	slog.Warn("watchdog expired", "level", r.level.Name, "seed", r.seed, "time", r.now, "tick", r.tick)
	r.outcome.ForceFinish(systems.EndWatchdog)
}

// Eliminate implements systems.Eliminator.
func (r *Race) Eliminate(ball ecs.Entity, reason string) {
	r.outcome.Eliminate(ball, reason)
}

// DamageBoss implements systems.Effects.
func (r *Race) DamageBoss(ball ecs.Entity, amount float64) {
	r.combat.DamageBoss(ball, amount)
}

// ProjectileHit implements systems.Effects.
func (r *Race) ProjectileHit(projectile, target ecs.Entity) {
	r.combat.ProjectileHit(projectile, target)
}

// PickUp implements systems.Effects.
func (r *Race) PickUp(ball, item ecs.Entity) {
	if r.combat.PickUp(ball, item) {
		_, _, _, b, _, _ := r.ballMapper.Get(ball)
		_, _, it := r.itemMapper.Get(item)
		slog.Debug("pickup", "ball", b.Name, "buff", it.Buff.String(), "time", r.now)
	}
}

// ObstacleHit implements systems.Effects.
func (r *Race) ObstacleHit(ball, obstacle ecs.Entity) {
	_, _, _, b, _, _ := r.ballMapper.Get(ball)
	if r.behavior.Hit(obstacle, b.Name) {
		_, _, obs := r.obsMapper.Get(obstacle)
		slog.Debug("obstacle destroyed", "obstacle", obs.ID, "ball", b.Name, "time", r.now)
	}
}

func (r *Race) bossDied() {
	if r.outcome != nil {
		r.outcome.BossDied()
	}
	slog.Debug("boss defeated", "time", r.now)
}

// spawnPoint returns a random point inside the spawn zone, or the arena
// center when no level is loaded.
func (r *Race) spawnPoint() r2.Vec {
	if r.level == nil {
		return r2.Vec{X: r.cfg.Arena.Width / 2, Y: r.cfg.Arena.Height / 2}
	}
	z := r.level.Spawn
	return r2.Vec{X: z.X + r.rng.Float64()*z.W, Y: z.Y + r.rng.Float64()*z.H}
}

// Result builds the race result. Before completion it reflects the standings so far.
func (r *Race) Result() telemetry.RaceResult {
	res := telemetry.RaceResult{
		Seed:    r.seed,
		Elapsed: r.now,
		Ticks:   r.tick,
	}
	if r.outcome == nil {
		return res
	}
	res.Level = r.level.Name
	res.Reason = r.outcome.Reason()

	for _, s := range r.outcome.Standings() {
		p := telemetry.Placement{
			Rank:        s.Rank,
			Name:        s.Name,
			FinishTime:  s.FinishTime,
			DamageDealt: s.DamageDealt,
			Progress:    s.Progress,
			TimedOut:    s.TimedOut,
			Eliminated:  s.Eliminated,
			Reason:      s.Reason,
		}
		if !s.Eliminated && s.Rank > 0 && s.Rank <= len(r.cfg.Race.Points) {
			p.Points = r.cfg.Race.Points[s.Rank-1]
		}
		res.Placements = append(res.Placements, p)
	}
	if len(res.Placements) > 0 && !res.Placements[0].Eliminated && r.outcome.Complete() {
		res.Winner = res.Placements[0].Name
	}
	if r.boss.State() != systems.BossAbsent {
		res.Boss = r.boss.State().String()
	}

	for _, u := range r.combat.Usage() {
		if u.Shots == 0 {
			continue
		}
		res.Weapons = append(res.Weapons, telemetry.WeaponUsage{
			Weapon: u.ID,
			Shots:  u.Shots,
			Hits:   u.Hits,
			Damage: u.Damage,
		})
	}

	// Flush a copy so Result can be called repeatedly.
	c := *r.collector
	res.Diagnostics = c.Flush(r.corrections())
	return res
}

func (r *Race) corrections() telemetry.Diagnostics {
	c := r.counters
	return telemetry.Diagnostics{
		Bounces:       c.Bounces,
		Debounced:     c.Debounced,
		TrapEscapes:   c.TrapEscapes,
		CornerEscapes: c.CornerEscapes,
		SlideEscapes:  c.SlideEscapes,
		BossRebounds:  c.BossRebounds,
		OutOfBounds:   c.OutOfBounds,
		Respawns:      c.Respawns,
		StuckPushes:   c.StuckPushes,
		DriftNudges:   c.DriftNudges,
		SpeedRestores: c.SpeedRestores,
		Crushed:       c.Crushed,
		Skipped:       len(r.diags),
	}
}
