// Package level describes arena layouts: obstacles, zones, items and the optional boss.
// Levels are authored as YAML and consumed read-only by the race.
package level

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
	"gonum.org/v1/gonum/spatial/r2"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	// ErrTooManyBalls is returned when a roster exceeds the arena capacity.
	ErrTooManyBalls = errors.New("level: too many balls")
	// ErrNoSpawnZone is returned when a level has no usable spawn zone.
	ErrNoSpawnZone = errors.New("level: spawn zone missing or empty")
	// ErrUnknownLevel is returned for builtin names that do not exist.
	ErrUnknownLevel = errors.New("level: unknown builtin level")
)

// WinCondition decides how a race ends.
type WinCondition uint8

const (
	WinGoal   WinCondition = iota // every ball finished or eliminated
	WinBoss                       // boss death ends the race
	WinEither                     // goal arrivals count, boss death also ends the race
)

func (w WinCondition) String() string {
	switch w {
	case WinBoss:
		return "boss"
	case WinEither:
		return "either"
	default:
		return "goal"
	}
}

// ParseWinCondition parses the YAML spelling of a win condition.
func ParseWinCondition(s string) (WinCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "goal", "goalzone", "finish":
		return WinGoal, nil
	case "boss", "bossdeath":
		return WinBoss, nil
	case "either", "both":
		return WinEither, nil
	}
	return WinGoal, fmt.Errorf("level: unknown win condition %q", s)
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Center returns the rectangle center.
func (r Rect) Center() r2.Vec { return r2.Vec{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p r2.Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ContainsCircle reports whether a circle lies entirely inside the rectangle.
func (r Rect) ContainsCircle(c r2.Vec, radius float64) bool {
	return c.X-radius >= r.X && c.X+radius <= r.X+r.W &&
		c.Y-radius >= r.Y && c.Y+radius <= r.Y+r.H
}

// Shape kinds for obstacle and boss geometry.
const (
	ShapeCircle = "circle"
	ShapeRect   = "rect"
)

// Behavior tags for obstacles.
const (
	BehaviorStatic    = "static"
	BehaviorRotating  = "rotating"
	BehaviorMoving    = "moving"
	BehaviorBreakable = "breakable"
	BehaviorCrusher   = "crusher"
	BehaviorKeyframe  = "keyframe"
)

// ObstacleDef is one authored obstacle.
type ObstacleDef struct {
	ID       int     `yaml:"id" json:"id"`
	Shape    string  `yaml:"shape" json:"shape" jsonschema:"enum=circle,enum=rect"`
	X        float64 `yaml:"x" json:"x"` // center
	Y        float64 `yaml:"y" json:"y"`
	Width    float64 `yaml:"width,omitempty" json:"width,omitempty"`
	Height   float64 `yaml:"height,omitempty" json:"height,omitempty"`
	Radius   float64 `yaml:"radius,omitempty" json:"radius,omitempty"`
	Angle    float64 `yaml:"angle,omitempty" json:"angle,omitempty"` // degrees
	Behavior string  `yaml:"behavior" json:"behavior" jsonschema:"enum=static,enum=rotating,enum=moving,enum=breakable,enum=crusher,enum=keyframe"`

	Rotating  *RotatingDef  `yaml:"rotating,omitempty" json:"rotating,omitempty"`
	Moving    *MovingDef    `yaml:"moving,omitempty" json:"moving,omitempty"`
	Breakable *BreakableDef `yaml:"breakable,omitempty" json:"breakable,omitempty"`
	Crusher   *CrusherDef   `yaml:"crusher,omitempty" json:"crusher,omitempty"`
	Track     string        `yaml:"track,omitempty" json:"track,omitempty"`
}

// RotatingDef parameterizes a rotating obstacle.
type RotatingDef struct {
	RPM       float64 `yaml:"rpm" json:"rpm"`
	Direction int     `yaml:"direction" json:"direction"` // +1 clockwise, -1 counter-clockwise
}

// MovingDef parameterizes a ping-pong moving obstacle.
type MovingDef struct {
	Axis     string  `yaml:"axis" json:"axis" jsonschema:"enum=x,enum=y"`
	Distance float64 `yaml:"distance" json:"distance"`
	Speed    float64 `yaml:"speed" json:"speed"`
}

// BreakableDef parameterizes a breakable obstacle.
type BreakableDef struct {
	Health  int      `yaml:"health" json:"health"`
	Allowed []string `yaml:"allowed,omitempty" json:"allowed,omitempty"` // ball names; empty = anyone
}

// CrusherDef parameterizes a crusher sweep.
type CrusherDef struct {
	Axis       string  `yaml:"axis" json:"axis" jsonschema:"enum=x,enum=y"`
	Direction  int     `yaml:"direction" json:"direction"` // +1 toward the far edge, -1 toward the near edge
	Speed      float64 `yaml:"speed" json:"speed"`
	ResetDelay float64 `yaml:"reset_delay" json:"reset_delay"`               // seconds
	Distance   float64 `yaml:"distance,omitempty" json:"distance,omitempty"` // 0 = travel to the arena edge
}

// Keyframe is one pose sample of an animation track.
type Keyframe struct {
	T     float64 `yaml:"t" json:"t"` // seconds
	X     float64 `yaml:"x" json:"x"`
	Y     float64 `yaml:"y" json:"y"`
	Angle float64 `yaml:"angle,omitempty" json:"angle,omitempty"` // degrees
}

// Track is a keyframe animation referenced by keyframe obstacles.
type Track struct {
	Name      string     `yaml:"name" json:"name"`
	Loop      bool       `yaml:"loop" json:"loop"`
	Keyframes []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// ItemDef is a pickup placed in the arena.
type ItemDef struct {
	X          float64 `yaml:"x" json:"x"`
	Y          float64 `yaml:"y" json:"y"`
	Radius     float64 `yaml:"radius" json:"radius"`
	Buff       string  `yaml:"buff" json:"buff" jsonschema:"enum=speed,enum=damage,enum=size,enum=invincibility,enum=ghost"`
	Multiplier float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
	Duration   float64 `yaml:"duration" json:"duration"`
}

// BossDef configures the optional boss.
type BossDef struct {
	X              float64 `yaml:"x" json:"x"`
	Y              float64 `yaml:"y" json:"y"`
	Size           float64 `yaml:"size" json:"size"` // radius for circles, half side for squares
	Shape          string  `yaml:"shape" json:"shape" jsonschema:"enum=circle,enum=rect"`
	Health         float64 `yaml:"health" json:"health"`
	Pattern        string  `yaml:"pattern" json:"pattern" jsonschema:"enum=spiral,enum=spread,enum=aimed,enum=random,enum=burst,enum=cycle"`
	AttackInterval float64 `yaml:"attack_interval,omitempty" json:"attack_interval,omitempty"` // seconds
}

// Level is a complete arena layout.
type Level struct {
	Name         string        `yaml:"name" json:"name"`
	WinCondition string        `yaml:"win_condition,omitempty" json:"win_condition,omitempty" jsonschema:"enum=goal,enum=boss,enum=either"`
	Spawn        Rect          `yaml:"spawn_zone" json:"spawn_zone"`
	Goal         *Rect         `yaml:"goal_zone,omitempty" json:"goal_zone,omitempty"`
	GoalLine     *float64      `yaml:"goal_line,omitempty" json:"goal_line,omitempty"` // y coordinate used without a goal zone
	Obstacles    []ObstacleDef `yaml:"obstacles" json:"obstacles"`
	Items        []ItemDef     `yaml:"items,omitempty" json:"items,omitempty"`
	Boss         *BossDef      `yaml:"boss,omitempty" json:"boss,omitempty"`
	Tracks       []Track       `yaml:"tracks,omitempty" json:"tracks,omitempty"`
}

// HasGoal reports whether the level defines any goal (zone or line).
func (l *Level) HasGoal() bool {
	return (l.Goal != nil && !l.Goal.Empty()) || l.GoalLine != nil
}

// GoalPoint returns the point progress is measured toward.
func (l *Level) GoalPoint() r2.Vec {
	if l.Goal != nil && !l.Goal.Empty() {
		return l.Goal.Center()
	}
	c := l.Spawn.Center()
	if l.GoalLine != nil {
		return r2.Vec{X: c.X, Y: *l.GoalLine}
	}
	return c
}

// FindTrack returns the named track.
func (l *Level) FindTrack(name string) (*Track, bool) {
	for i := range l.Tracks {
		if l.Tracks[i].Name == name {
			return &l.Tracks[i], true
		}
	}
	return nil, false
}

// Parse decodes a level from YAML.
func Parse(data []byte) (*Level, error) {
	var l Level
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing level: %w", err)
	}
	return &l, nil
}

// Load reads a level file.
func Load(p string) (*Level, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading level file: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(path.Base(p), path.Ext(p))
	}
	return l, nil
}

// BuiltinNames lists the embedded levels.
func BuiltinNames() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns an embedded level by name.
func Builtin(name string) (*Level, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLevel, name)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("builtin %s: %w", name, err)
	}
	if l.Name == "" {
		l.Name = name
	}
	return l, nil
}

// Resolve loads a level by builtin name or file path.
func Resolve(ref string) (*Level, error) {
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") || strings.Contains(ref, "/") {
		return Load(ref)
	}
	return Builtin(ref)
}

// ResolveList loads a comma-separated list of level refs in order. An
// empty list resolves to every builtin level.
func ResolveList(list string) ([]*Level, error) {
	var refs []string
	for _, ref := range strings.Split(list, ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		refs = BuiltinNames()
	}
	levels := make([]*Level, 0, len(refs))
	for _, ref := range refs {
		l, err := Resolve(ref)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, nil
}
