package systems

import (
	"math"
	"sort"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
)

// Completion reasons.
const (
	EndAllDone    = "all_done"
	EndBossDeath  = "boss_death"
	EndCountdown  = "countdown"
	EndTimeBudget = "time_budget"
	EndWatchdog   = "watchdog"
)

// Standing is one line of the final race order.
type Standing struct {
	Entity      ecs.Entity
	Index       int
	Name        string
	Rank        int
	FinishTime  float64
	DamageDealt float64
	Progress    float64
	TimedOut    bool
	Eliminated  bool
	Reason      string
}

// OutcomeHooks observe outcome transitions. Nil hooks are skipped.
type OutcomeHooks struct {
	OnFinish    func(b *components.Ball)
	OnEliminate func(b *components.Ball)
	OnCountdown func(seconds float64)
	OnComplete  func(reason string)
}

// Outcome tracks progress, assigns finish ranks and decides when a race is over.
type Outcome struct {
	cfg   config.RaceConfig
	win   level.WinCondition
	sched *Scheduler
	hooks OutcomeHooks

	spawn    r2.Vec
	goal     r2.Vec
	zone     *level.Rect
	line     *float64
	hasGoal  bool
	goalDown bool // goal line lies below the spawn

	filter  *ecs.Filter4[components.Position, components.Velocity, components.Body, components.Ball]
	ballMap *ecs.Map3[components.Velocity, components.Body, components.Ball]

	finished  int
	countdown *Timer
	complete  bool
	reason    string
	now       float64
	bossDead  bool
	arrivals  []arrival
}

type arrival struct {
	e        ecs.Entity
	progress float64
	index    int
}

// NewOutcome creates the outcome resolver for a level.
func NewOutcome(w *ecs.World, cfg *config.Config, lvl *level.Level, win level.WinCondition, sched *Scheduler, hooks OutcomeHooks) *Outcome {
	o := &Outcome{
		cfg:     cfg.Race,
		win:     win,
		sched:   sched,
		hooks:   hooks,
		spawn:   lvl.Spawn.Center(),
		goal:    lvl.GoalPoint(),
		hasGoal: lvl.HasGoal(),
		filter:  ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Ball](w),
		ballMap: ecs.NewMap3[components.Velocity, components.Body, components.Ball](w),
	}
	if lvl.Goal != nil && !lvl.Goal.Empty() {
		z := *lvl.Goal
		o.zone = &z
	} else if lvl.GoalLine != nil {
		y := *lvl.GoalLine
		o.line = &y
		o.goalDown = y > o.spawn.Y
	}
	return o
}

// Complete reports whether the race is over.
func (o *Outcome) Complete() bool { return o.complete }

// Reason returns why the race ended.
func (o *Outcome) Reason() string { return o.reason }

// Finished returns how many balls reached the goal.
func (o *Outcome) Finished() int { return o.finished }

// CountdownRemaining returns the seconds left on the countdown, or -1 when not running.
func (o *Outcome) CountdownRemaining() float64 {
	if !o.countdown.Pending() {
		return -1
	}
	return math.Max(0, o.countdown.Due()-o.now)
}

// BossDied records the boss death. Goal arrivals of the same tick are
// resolved before it takes effect.
func (o *Outcome) BossDied() { o.bossDead = true }

// Progress computes scalar progress of p from the spawn center toward the goal, in [0, 1].
func (o *Outcome) Progress(p r2.Vec) float64 {
	axis := r2.Sub(o.goal, o.spawn)
	length := r2.Norm(axis)
	if length < 1e-9 || !finite(p) {
		return 0
	}
	return clampFloat(r2.Dot(r2.Sub(p, o.spawn), axis)/(length*length), 0, 1)
}

// reached reports whether p counts as having arrived at the goal.
func (o *Outcome) reached(p r2.Vec) bool {
	switch {
	case o.zone != nil:
		return o.zone.Contains(p)
	case o.line != nil:
		if o.goalDown {
			return p.Y >= *o.line+o.cfg.GoalMargin
		}
		return p.Y <= *o.line-o.cfg.GoalMargin
	}
	return false
}

func (o *Outcome) goalsCount() bool { return o.hasGoal && o.win != level.WinBoss }

// Update evaluates arrivals, countdown and termination at race time now.
func (o *Outcome) Update(now, dt float64) {
	o.now = now
	o.fade(dt)
	if o.complete {
		return
	}

	o.arrivals = o.arrivals[:0]
	total, done := 0, 0
	query := o.filter.Query()
	for query.Next() {
		pos, _, _, ball := query.Get()
		total++
		if ball.Done() {
			done++
			continue
		}
		p := pos.Vec()
		if finite(p) {
			ball.Progress = o.Progress(p)
		}
		if o.goalsCount() && finite(p) && o.reached(p) {
			o.arrivals = append(o.arrivals, arrival{e: query.Entity(), progress: ball.Progress, index: ball.Index})
		}
	}

	// Same-tick arrivals: furthest along first, then roster order.
	sort.SliceStable(o.arrivals, func(i, j int) bool {
		if o.arrivals[i].progress != o.arrivals[j].progress {
			return o.arrivals[i].progress > o.arrivals[j].progress
		}
		return o.arrivals[i].index < o.arrivals[j].index
	})
	for _, a := range o.arrivals {
		o.finish(a.e, now, false)
		done++
	}

	if total > 0 && done == total {
		o.completeWith(EndAllDone)
		return
	}
	if o.bossDead && (o.win == level.WinBoss || o.win == level.WinEither) {
		o.completeWith(EndBossDeath)
		return
	}
	if o.goalsCount() && o.countdown == nil && total > 0 && done*2 >= total {
		o.startCountdown()
	}
	if o.cfg.TimeBudget > 0 && now >= o.cfg.TimeBudget {
		o.ForceFinish(EndTimeBudget)
	}
}

func (o *Outcome) startCountdown() {
	o.countdown = o.sched.After(o.cfg.Countdown, func() {
		o.now = o.sched.Now()
		o.ForceFinish(EndCountdown)
	})
	if o.hooks.OnCountdown != nil {
		o.hooks.OnCountdown(o.cfg.Countdown)
	}
}

// finish marks a ball as arrived with the next rank and freezes it.
func (o *Outcome) finish(e ecs.Entity, now float64, timedOut bool) {
	vel, body, ball := o.ballMap.Get(e)
	if ball == nil || ball.Done() {
		return
	}
	o.finished++
	ball.Finished = true
	ball.Rank = o.finished
	ball.FinishTime = now
	ball.TimedOut = timedOut
	if !timedOut {
		ball.Progress = 1
	}
	body.Disabled = true
	vel.X, vel.Y = 0, 0
	if o.hooks.OnFinish != nil {
		o.hooks.OnFinish(ball)
	}
}

// Eliminate removes a ball permanently. Repeated calls are no-ops.
func (o *Outcome) Eliminate(e ecs.Entity, reason string) {
	vel, body, ball := o.ballMap.Get(e)
	if ball == nil || ball.Done() {
		return
	}
	ball.Eliminated = true
	ball.Reason = reason
	ball.FinishTime = o.now
	body.Disabled = true
	vel.X, vel.Y = 0, 0
	if o.hooks.OnEliminate != nil {
		o.hooks.OnEliminate(ball)
	}
}

// ForceFinish ends the race, ranking every remaining ball. Under a boss-only
// condition remaining balls are ordered by boss damage, otherwise by progress.
func (o *Outcome) ForceFinish(reason string) {
	if o.complete {
		return
	}
	o.completeWith(reason)
}

func (o *Outcome) completeWith(reason string) {
	if o.complete {
		return
	}
	o.countdown.Cancel()

	forced := reason == EndCountdown || reason == EndTimeBudget || reason == EndWatchdog
	byDamage := reason == EndBossDeath || o.win == level.WinBoss

	var rest []Standing
	query := o.filter.Query()
	for query.Next() {
		_, _, _, ball := query.Get()
		if ball.Done() {
			continue
		}
		rest = append(rest, standingOf(query.Entity(), ball))
	}

	sort.SliceStable(rest, func(i, j int) bool {
		a, b := rest[i], rest[j]
		if byDamage && a.DamageDealt != b.DamageDealt {
			return a.DamageDealt > b.DamageDealt
		}
		if !byDamage && a.Progress != b.Progress {
			return a.Progress > b.Progress
		}
		return a.Index < b.Index
	})
	for _, s := range rest {
		o.finish(s.Entity, o.now, forced)
	}

	o.complete = true
	o.reason = reason
	if o.hooks.OnComplete != nil {
		o.hooks.OnComplete(reason)
	}
}

// Standings returns the final order: ranked balls first, eliminated balls
// last with the longest survivor ahead. Eliminated balls get the trailing ranks.
func (o *Outcome) Standings() []Standing {
	var ranked, out []Standing
	query := o.filter.Query()
	for query.Next() {
		_, _, _, ball := query.Get()
		s := standingOf(query.Entity(), ball)
		if ball.Eliminated {
			out = append(out, s)
		} else {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Rank == 0) != (b.Rank == 0) {
			return b.Rank == 0
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Index < b.Index
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FinishTime != out[j].FinishTime {
			return out[i].FinishTime > out[j].FinishTime
		}
		return out[i].Index < out[j].Index
	})
	all := append(ranked, out...)
	for i := range all {
		if all[i].Eliminated || all[i].Rank == 0 {
			all[i].Rank = i + 1
		}
	}
	return all
}

func standingOf(e ecs.Entity, b *components.Ball) Standing {
	return Standing{
		Entity:      e,
		Index:       b.Index,
		Name:        b.Name,
		Rank:        b.Rank,
		FinishTime:  b.FinishTime,
		DamageDealt: b.DamageDealt,
		Progress:    b.Progress,
		TimedOut:    b.TimedOut,
		Eliminated:  b.Eliminated,
		Reason:      b.Reason,
	}
}

func (o *Outcome) fade(dt float64) {
	if o.cfg.FadeDuration <= 0 {
		return
	}
	query := o.filter.Query()
	for query.Next() {
		_, _, _, ball := query.Get()
		if ball.Done() && ball.Fade > 0 {
			ball.Fade = math.Max(0, ball.Fade-dt/o.cfg.FadeDuration)
		}
	}
}

// Reset clears outcome state for a new race on the same world.
func (o *Outcome) Reset() {
	o.countdown.Cancel()
	o.countdown = nil
	o.finished = 0
	o.complete = false
	o.reason = ""
	o.now = 0
	o.bossDead = false
}
