package game

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/systems"
)

// launchJitter is the ± spread in radians of the initial heading toward the goal.
const launchJitter = 0.35

// ParseColor parses a hex RRGGBB color, with or without a leading '#'.
// Invalid colors yield white.
func ParseColor(s string) uint32 {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil || v > 0xffffff {
		return 0xffffff
	}
	return uint32(v)
}

// spawnBalls creates one ball entity per roster entry. Positions are set by resetBalls.
func (r *Race) spawnBalls(roster []config.RosterEntry) {
	for i, entry := range roster {
		ball := &components.Ball{
			Index:           i,
			Name:            entry.Name,
			Color:           ParseColor(entry.Color),
			BaseRadius:      r.cfg.Ball.Radius,
			MaxHealth:       entry.MaxHealth,
			SpeedMultiplier: entry.SpeedMultiplier,
			Damage:          entry.Damage,
		}
		if ball.MaxHealth <= 0 {
			ball.MaxHealth = r.cfg.Ball.MaxHealth
		}
		if ball.SpeedMultiplier <= 0 {
			ball.SpeedMultiplier = 1
		}
		if ball.Damage <= 0 {
			ball.Damage = r.cfg.Ball.Damage
		}
		for _, id := range entry.Weapons {
			if _, ok := r.cfg.Derived.WeaponIndex[id]; !ok {
				slog.Warn("unknown weapon ignored", "ball", entry.Name, "weapon", id)
				continue
			}
			ball.Weapons = append(ball.Weapons, components.WeaponSlot{ID: id})
		}

		e := r.ballMapper.NewEntity(
			&components.Position{},
			&components.Velocity{},
			&components.Body{Kind: components.KindBall, Shape: components.ShapeCircle, Radius: ball.BaseRadius},
			ball,
			&components.Tracking{},
			&components.Buffs{},
		)
		r.balls = append(r.balls, e)
	}
}

// resetBalls returns every ball to the spawn zone with full health, no buffs
// and a launch velocity toward the goal.
func (r *Race) resetBalls() {
	zone := r.level.Spawn
	goal := r.level.GoalPoint()
	n := len(r.balls)

	for i, e := range r.balls {
		pos, vel, body, ball, tr, buffs := r.ballMapper.Get(e)

		p := r2.Vec{
			X: zone.X + zone.W*(float64(i)+0.5)/float64(n),
			Y: zone.Y + zone.H/2,
		}
		pos.Set(p)

		ball.Health = ball.MaxHealth
		ball.Finished = false
		ball.Rank = 0
		ball.FinishTime = 0
		ball.TimedOut = false
		ball.Eliminated = false
		ball.Reason = ""
		ball.DamageDealt = 0
		ball.Progress = 0
		ball.Fade = 1
		for j := range ball.Weapons {
			ball.Weapons[j].Cooldown = 0
		}

		buffs.Clear()
		tr.Reset(p)
		tr.ClearHistory()
		*body = components.Body{Kind: components.KindBall, Shape: components.ShapeCircle, Radius: ball.BaseRadius}

		heading := r.rng.Float64() * 2 * math.Pi
		if d := r2.Sub(goal, p); r2.Norm(d) > 1e-6 {
			heading = math.Atan2(d.Y, d.X)
		}
		heading += (r.rng.Float64()*2 - 1) * launchJitter
		speed := systems.EffectiveSpeed(r.cfg.Ball.BaseSpeed, ball, buffs)
		vel.Set(r2.Vec{X: math.Cos(heading) * speed, Y: math.Sin(heading) * speed})
	}
}

// buildLevel creates obstacle, item and boss entities, skipping entries the
// validator reported.
func (r *Race) buildLevel(lvl *level.Level, diags []level.Diagnostic) {
	skipObs := level.Skipped(diags, "obstacle")
	skipItems := level.Skipped(diags, "item")
	skipTracks := level.Skipped(diags, "track")

	for i := range lvl.Obstacles {
		if skipObs[i] {
			continue
		}
		def := &lvl.Obstacles[i]
		if def.Behavior == level.BehaviorKeyframe && trackSkipped(lvl, def.Track, skipTracks) {
			slog.Warn("keyframe obstacle has an invalid track", "level", lvl.Name, "obstacle", i, "track", def.Track)
			continue
		}
		r.createObstacle(lvl, def, i)
	}

	for i := range lvl.Items {
		if skipItems[i] {
			continue
		}
		r.createItem(&lvl.Items[i])
	}

	if lvl.Boss != nil && len(level.Skipped(diags, "boss")) == 0 {
		if _, err := r.boss.Spawn(lvl.Boss); err != nil {
			slog.Error("boss spawn failed", "level", lvl.Name, "error", err)
		} else {
			r.sched.After(r.cfg.Boss.StartDelay, r.boss.StartAttacking)
		}
	}

	r.behavior.Reset()
}

func trackSkipped(lvl *level.Level, name string, skipped map[int]bool) bool {
	for i := range lvl.Tracks {
		if lvl.Tracks[i].Name == name {
			return skipped[i]
		}
	}
	return true
}

// obstacleBody converts authored geometry to a physics body.
func obstacleBody(def *level.ObstacleDef) components.Body {
	body := components.Body{Kind: components.KindObstacle, Angle: def.Angle * math.Pi / 180}
	if def.Shape == level.ShapeCircle {
		body.Shape = components.ShapeCircle
		body.Radius = def.Radius
		// crushers sweep an axis-aligned box
		body.HalfW, body.HalfH = def.Radius, def.Radius
		return body
	}
	body.Shape = components.ShapeRect
	body.HalfW, body.HalfH = def.Width/2, def.Height/2
	return body
}

func (r *Race) createObstacle(lvl *level.Level, def *level.ObstacleDef, index int) ecs.Entity {
	body := obstacleBody(def)
	origin := r2.Vec{X: def.X, Y: def.Y}
	id := def.ID
	if id == 0 {
		id = index + 1
	}

	var behavior components.Behavior = components.Static{}
	switch def.Behavior {
	case level.BehaviorRotating:
		dir := 1.0
		if def.Rotating.Direction < 0 {
			dir = -1
		}
		behavior = &components.Rotating{RadPerSec: dir * def.Rotating.RPM * 2 * math.Pi / 60}
	case level.BehaviorMoving:
		behavior = &components.Moving{
			Axis:     axisVec(def.Moving.Axis),
			Distance: def.Moving.Distance,
			Speed:    def.Moving.Speed,
			Phase:    0.5,
		}
	case level.BehaviorBreakable:
		behavior = &components.Breakable{
			Health:    def.Breakable.Health,
			MaxHealth: def.Breakable.Health,
			Allowed:   append([]string(nil), def.Breakable.Allowed...),
		}
	case level.BehaviorCrusher:
		behavior = r.crusher(def.Crusher, origin, &body)
	case level.BehaviorKeyframe:
		tr, _ := lvl.FindTrack(def.Track)
		behavior = keyframes(tr)
	}

	return r.obsMapper.NewEntity(
		&components.Position{X: origin.X, Y: origin.Y},
		&body,
		&components.Obstacle{ID: id, Origin: origin, OriginAngle: body.Angle, Behavior: behavior},
	)
}

func axisVec(axis string) r2.Vec {
	if axis == "y" {
		return r2.Vec{Y: 1}
	}
	return r2.Vec{X: 1}
}

// crusher computes the travel from the authored pose to the arena edge the
// crusher faces, capped by the authored distance when one is given.
func (r *Race) crusher(def *level.CrusherDef, origin r2.Vec, body *components.Body) *components.Crusher {
	dir := r2.Scale(float64(def.Direction), axisVec(def.Axis))
	ex, ey := body.Extent()

	var travel float64
	switch {
	case dir.X > 0:
		travel = r.cfg.Arena.Width - (origin.X + ex)
	case dir.X < 0:
		travel = origin.X - ex
	case dir.Y > 0:
		travel = r.cfg.Arena.Height - (origin.Y + ey)
	default:
		travel = origin.Y - ey
	}
	travel = math.Max(travel, 0)
	if def.Distance > 0 {
		travel = math.Min(travel, def.Distance)
	}

	return &components.Crusher{
		Dir:        dir,
		Speed:      def.Speed,
		Travel:     travel,
		ResetDelay: def.ResetDelay,
	}
}

func keyframes(tr *level.Track) *components.Keyframe {
	k := &components.Keyframe{Loop: tr.Loop, Keys: make([]components.KeyPose, len(tr.Keyframes))}
	for i, kf := range tr.Keyframes {
		k.Keys[i] = components.KeyPose{
			T:     kf.T,
			Pos:   r2.Vec{X: kf.X, Y: kf.Y},
			Angle: kf.Angle * math.Pi / 180,
		}
	}
	return k
}

func (r *Race) createItem(def *level.ItemDef) ecs.Entity {
	kind, _ := components.ParseBuff(def.Buff)
	mult := def.Multiplier
	if mult <= 0 {
		mult = 1
	}
	return r.itemMapper.NewEntity(
		&components.Position{X: def.X, Y: def.Y},
		&components.Body{Kind: components.KindItem, Shape: components.ShapeCircle, Radius: def.Radius, Sensor: true},
		&components.Item{Buff: kind, Multiplier: mult, Duration: def.Duration},
	)
}
