package level

import (
	"fmt"
	"log/slog"
	"math"
)

// Diagnostic describes a level entry that was skipped.
type Diagnostic struct {
	Kind    string // obstacle, item, boss, track, zone
	Index   int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%d]: %s", d.Kind, d.Index, d.Message)
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", d.Kind),
		slog.Int("index", d.Index),
		slog.String("message", d.Message),
	)
}

// Validate checks the level against an arena of the given size.
// Fatal problems are returned as errors; entries that can be skipped are
// returned as diagnostics.
func (l *Level) Validate(width, height float64) ([]Diagnostic, error) {
	if l.Spawn.Empty() {
		return nil, ErrNoSpawnZone
	}
	if _, err := ParseWinCondition(l.WinCondition); err != nil {
		return nil, err
	}

	var diags []Diagnostic
	add := func(kind string, i int, format string, args ...any) {
		diags = append(diags, Diagnostic{Kind: kind, Index: i, Message: fmt.Sprintf(format, args...)})
	}

	if l.Goal != nil && l.Goal.Empty() {
		add("zone", 0, "goal zone has no area")
	}

	seen := make(map[int]bool, len(l.Obstacles))
	for i := range l.Obstacles {
		if msg := l.checkObstacle(&l.Obstacles[i], width, height); msg != "" {
			add("obstacle", i, "%s", msg)
			continue
		}
		if id := l.Obstacles[i].ID; id != 0 {
			if seen[id] {
				add("obstacle", i, "duplicate id %d", id)
				continue
			}
			seen[id] = true
		}
	}

	for i, it := range l.Items {
		switch {
		case it.Radius <= 0:
			add("item", i, "radius must be positive")
		case it.Duration <= 0:
			add("item", i, "duration must be positive")
		case !validBuff(it.Buff):
			add("item", i, "unknown buff %q", it.Buff)
		}
	}

	if b := l.Boss; b != nil {
		switch {
		case b.Size <= 0:
			add("boss", 0, "size must be positive")
		case b.Health <= 0:
			add("boss", 0, "health must be positive")
		case b.Shape != "" && b.Shape != ShapeCircle && b.Shape != ShapeRect:
			add("boss", 0, "unknown shape %q", b.Shape)
		case !validPattern(b.Pattern):
			add("boss", 0, "unknown pattern %q", b.Pattern)
		}
	}

	for i, tr := range l.Tracks {
		if len(tr.Keyframes) < 2 {
			add("track", i, "track %q needs at least two keyframes", tr.Name)
			continue
		}
		for k := 1; k < len(tr.Keyframes); k++ {
			if tr.Keyframes[k].T <= tr.Keyframes[k-1].T {
				add("track", i, "track %q keyframe times must increase", tr.Name)
				break
			}
		}
	}
	return diags, nil
}

func (l *Level) checkObstacle(o *ObstacleDef, width, height float64) string {
	switch o.Shape {
	case ShapeCircle:
		if o.Radius <= 0 {
			return "circle radius must be positive"
		}
	case ShapeRect:
		if o.Width <= 0 || o.Height <= 0 {
			return "rect size must be positive"
		}
	default:
		return fmt.Sprintf("unknown shape %q", o.Shape)
	}
	if math.IsNaN(o.X) || math.IsNaN(o.Y) || o.X < 0 || o.X > width || o.Y < 0 || o.Y > height {
		return "center outside arena"
	}

	switch o.Behavior {
	case "", BehaviorStatic:
	case BehaviorRotating:
		if o.Rotating == nil || o.Rotating.RPM == 0 {
			return "rotating obstacle needs rpm"
		}
	case BehaviorMoving:
		if o.Moving == nil || o.Moving.Distance <= 0 || o.Moving.Speed <= 0 {
			return "moving obstacle needs positive distance and speed"
		}
		if !validAxis(o.Moving.Axis) {
			return fmt.Sprintf("unknown axis %q", o.Moving.Axis)
		}
	case BehaviorBreakable:
		if o.Breakable == nil || o.Breakable.Health <= 0 {
			return "breakable obstacle needs positive health"
		}
	case BehaviorCrusher:
		c := o.Crusher
		if c == nil || c.Speed <= 0 || c.ResetDelay < 0 {
			return "crusher needs positive speed and non-negative reset delay"
		}
		if !validAxis(c.Axis) {
			return fmt.Sprintf("unknown axis %q", c.Axis)
		}
		if c.Direction != 1 && c.Direction != -1 {
			return "crusher direction must be 1 or -1"
		}
	case BehaviorKeyframe:
		if _, ok := l.FindTrack(o.Track); !ok {
			return fmt.Sprintf("unknown track %q", o.Track)
		}
	default:
		return fmt.Sprintf("unknown behavior %q", o.Behavior)
	}
	return ""
}

func validAxis(a string) bool { return a == "x" || a == "y" }

func validBuff(b string) bool {
	switch b {
	case "speed", "damage", "size", "invincibility", "ghost":
		return true
	}
	return false
}

func validPattern(p string) bool {
	switch p {
	case "spiral", "spread", "aimed", "random", "burst", "cycle":
		return true
	}
	return false
}

// Skipped returns the indices of the given kind that diags reported.
func Skipped(diags []Diagnostic, kind string) map[int]bool {
	out := make(map[int]bool)
	for _, d := range diags {
		if d.Kind == kind {
			out[d.Index] = true
		}
	}
	return out
}
