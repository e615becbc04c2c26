package game

import (
	"sort"

	"github.com/pthm-cable/bounce/components"
	"github.com/pthm-cable/bounce/level"
)

// Field is one HUD value of a ball.
type Field struct {
	Label string  `json:"label"`
	Text  string  `json:"text"`
	Frac  float64 `json:"frac,omitempty"`
	Bar   bool    `json:"bar,omitempty"`
}

// BallView is the render state of one ball.
type BallView struct {
	Index      int      `json:"index"`
	Name       string   `json:"name"`
	Color      uint32   `json:"color"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	VX         float64  `json:"vx"`
	VY         float64  `json:"vy"`
	Radius     float64  `json:"radius"`
	Health     float64  `json:"health"`
	MaxHealth  float64  `json:"max_health"`
	Progress   float64  `json:"progress"`
	Rank       int      `json:"rank,omitempty"`
	Finished   bool     `json:"finished,omitempty"`
	Eliminated bool     `json:"eliminated,omitempty"`
	Status     string   `json:"status"`
	Fade       float64  `json:"fade"`
	Buffs      []string `json:"buffs,omitempty"`
	Weapons    []string `json:"weapons,omitempty"`
	Fields     []Field  `json:"fields"`
}

// ObstacleView is the render state of one obstacle.
type ObstacleView struct {
	ID       int     `json:"id"`
	Behavior string  `json:"behavior"`
	Circle   bool    `json:"circle,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius,omitempty"`
	HalfW    float64 `json:"half_w,omitempty"`
	HalfH    float64 `json:"half_h,omitempty"`
	Angle    float64 `json:"angle"` // radians
	Health   int     `json:"health,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

// BossView is the render state of the boss.
type BossView struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Circle    bool    `json:"circle,omitempty"`
	Size      float64 `json:"size"`
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"max_health"`
	State     string  `json:"state"`
	Pattern   string  `json:"pattern"`
	Fade      float64 `json:"fade"`
}

// ProjectileView is the render state of one projectile.
type ProjectileView struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	FromBoss bool    `json:"from_boss,omitempty"`
}

// ItemView is the render state of one pickup.
type ItemView struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Buff   string  `json:"buff"`
}

// Snapshot is a read-only copy of a race for viewers.
type Snapshot struct {
	Tick      int     `json:"tick"`
	Time      float64 `json:"time"`
	Level     string  `json:"level"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Countdown float64 `json:"countdown,omitempty"` // seconds left, 0 when not running
	Complete  bool    `json:"complete,omitempty"`
	Reason    string  `json:"reason,omitempty"`

	Spawn    level.Rect  `json:"spawn"`
	Goal     *level.Rect `json:"goal,omitempty"`
	GoalLine *float64    `json:"goal_line,omitempty"`

	Balls       []BallView       `json:"balls"`
	Obstacles   []ObstacleView   `json:"obstacles"`
	Items       []ItemView       `json:"items,omitempty"`
	Projectiles []ProjectileView `json:"projectiles,omitempty"`
	Boss        *BossView        `json:"boss,omitempty"`
}

// Leader returns the index into Balls of the racing ball with the most
// progress, or -1 when no ball is racing.
func (s *Snapshot) Leader() int {
	best := -1
	for i := range s.Balls {
		b := &s.Balls[i]
		if b.Finished || b.Eliminated {
			continue
		}
		if best < 0 || b.Progress > s.Balls[best].Progress {
			best = i
		}
	}
	return best
}

// Snapshot captures the current race state.
func (r *Race) Snapshot() Snapshot {
	s := Snapshot{
		Tick:   r.tick,
		Time:   r.now,
		Width:  r.cfg.Arena.Width,
		Height: r.cfg.Arena.Height,
	}
	if r.level != nil {
		s.Level = r.level.Name
		s.Spawn = r.level.Spawn
		s.Goal = r.level.Goal
		s.GoalLine = r.level.GoalLine
	}
	if r.outcome != nil {
		s.Countdown = r.outcome.CountdownRemaining()
		s.Complete = r.outcome.Complete()
		s.Reason = r.outcome.Reason()
	}

	descs := components.BallFieldDescriptors()
	for _, e := range r.balls {
		pos, vel, body, ball, _, buffs := r.ballMapper.Get(e)
		v := BallView{
			Index:      ball.Index,
			Name:       ball.Name,
			Color:      ball.Color,
			X:          pos.X,
			Y:          pos.Y,
			VX:         vel.X,
			VY:         vel.Y,
			Radius:     body.Radius,
			Health:     ball.Health,
			MaxHealth:  ball.MaxHealth,
			Progress:   ball.Progress,
			Rank:       ball.Rank,
			Finished:   ball.Finished,
			Eliminated: ball.Eliminated,
			Status:     ball.Status(),
			Fade:       ball.Fade,
		}
		for _, b := range buffs.Active {
			v.Buffs = append(v.Buffs, b.Kind.String())
		}
		for _, w := range ball.Weapons {
			v.Weapons = append(v.Weapons, w.ID)
		}
		for _, d := range descs {
			text, frac := ball.FieldValue(d)
			v.Fields = append(v.Fields, Field{Label: d.Label, Text: text, Frac: frac, Bar: d.IsBar})
		}
		s.Balls = append(s.Balls, v)
	}

	obs := r.obsFilter.Query()
	for obs.Next() {
		pos, body, o := obs.Get()
		v := ObstacleView{
			ID:       o.ID,
			Behavior: components.BehaviorName(o.Behavior),
			Circle:   body.Shape == components.ShapeCircle,
			X:        pos.X,
			Y:        pos.Y,
			Radius:   body.Radius,
			HalfW:    body.HalfW,
			HalfH:    body.HalfH,
			Angle:    body.Angle,
			Disabled: body.Disabled,
		}
		if b, ok := o.Behavior.(*components.Breakable); ok {
			v.Health = b.Health
		}
		s.Obstacles = append(s.Obstacles, v)
	}

	items := r.itemFilter.Query()
	for items.Next() {
		pos, body, it := items.Get()
		if it.Taken {
			continue
		}
		s.Items = append(s.Items, ItemView{X: pos.X, Y: pos.Y, Radius: body.Radius, Buff: it.Buff.String()})
	}

	projs := r.projFilter.Query()
	for projs.Next() {
		pos, body, p := projs.Get()
		if p.Dead {
			continue
		}
		s.Projectiles = append(s.Projectiles, ProjectileView{X: pos.X, Y: pos.Y, Radius: body.Radius, FromBoss: p.FromBoss})
	}

	if e, ok := r.boss.Entity(); ok && r.world.Alive(e) {
		body := r.bodyMap.Get(e)
		p := r.boss.Position()
		hp, maxHP := r.boss.Health()
		v := &BossView{
			X:         p.X,
			Y:         p.Y,
			Circle:    body.Shape == components.ShapeCircle,
			Size:      body.Radius,
			Health:    hp,
			MaxHealth: maxHP,
			State:     r.boss.State().String(),
			Pattern:   r.boss.Pattern(),
			Fade:      r.boss.Fade(),
		}
		if !v.Circle {
			v.Size = body.HalfW
		}
		s.Boss = v
	}
	return s
}

// RaceOrder returns indexes into balls in display order: ranked balls by
// rank, then racing balls by progress, then eliminated balls.
func RaceOrder(balls []BallView) []int {
	order := make([]int, len(balls))
	for i := range order {
		order[i] = i
	}
	group := func(b *BallView) int {
		switch {
		case b.Eliminated:
			return 2
		case b.Rank > 0:
			return 0
		default:
			return 1
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &balls[order[i]], &balls[order[j]]
		ga, gb := group(a), group(b)
		if ga != gb {
			return ga < gb
		}
		switch ga {
		case 0:
			return a.Rank < b.Rank
		case 1:
			return a.Progress > b.Progress
		}
		return false
	})
	return order
}
