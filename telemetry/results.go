// Package telemetry provides race results, diagnostics, aggregates and CSV output.
package telemetry

import (
	"fmt"
	"log/slog"
	"strings"
)

// Placement is one ball's line in a race result.
type Placement struct {
	Run         int     `csv:"run" json:"-"`
	Race        int     `csv:"race" json:"-"`
	Rank        int     `csv:"rank" json:"rank"`
	Name        string  `csv:"name" json:"name"`
	FinishTime  float64 `csv:"finish_time" json:"finish_time"`
	DamageDealt float64 `csv:"damage_dealt" json:"damage_dealt"`
	Progress    float64 `csv:"progress" json:"progress"`
	TimedOut    bool    `csv:"timed_out" json:"timed_out"`
	Eliminated  bool    `csv:"eliminated" json:"eliminated"`
	Reason      string  `csv:"reason" json:"reason,omitempty"`
	Points      int     `csv:"points" json:"points"`
}

// LogValue implements slog.LogValuer.
func (p Placement) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("rank", p.Rank),
		slog.String("name", p.Name),
		slog.Float64("finish_time", p.FinishTime),
		slog.Float64("damage", p.DamageDealt),
	}
	if p.TimedOut {
		attrs = append(attrs, slog.Bool("timed_out", true))
	}
	if p.Eliminated {
		attrs = append(attrs, slog.String("eliminated", p.Reason))
	}
	return slog.GroupValue(attrs...)
}

// Diagnostics counts corrective actions and forced terminations.
type Diagnostics struct {
	Bounces          int `csv:"bounces" json:"bounces"`
	Debounced        int `csv:"debounced" json:"debounced"`
	TrapEscapes      int `csv:"trap_escapes" json:"trap_escapes"`
	CornerEscapes    int `csv:"corner_escapes" json:"corner_escapes"`
	SlideEscapes     int `csv:"slide_escapes" json:"slide_escapes"`
	BossRebounds     int `csv:"boss_rebounds" json:"boss_rebounds"`
	OutOfBounds      int `csv:"out_of_bounds" json:"out_of_bounds"`
	Respawns         int `csv:"respawns" json:"respawns"`
	StuckPushes      int `csv:"stuck_pushes" json:"stuck_pushes"`
	DriftNudges      int `csv:"drift_nudges" json:"drift_nudges"`
	SpeedRestores    int `csv:"speed_restores" json:"speed_restores"`
	Crushed          int `csv:"crushed" json:"crushed"`
	Destroyed        int `csv:"destroyed" json:"destroyed"`
	Lost             int `csv:"lost" json:"lost"`
	Timeouts         int `csv:"timeouts" json:"timeouts"`             // balls force-finished as timed out
	ForceFinishes    int `csv:"force_finishes" json:"force_finishes"` // races ended by countdown, budget or watchdog
	WatchdogExpiries int `csv:"watchdog_expiries" json:"watchdog_expiries"`
	Skipped          int `csv:"skipped_entries" json:"skipped_entries"` // level entries dropped by validation
}

// Add accumulates o into d.
func (d *Diagnostics) Add(o Diagnostics) {
	d.Bounces += o.Bounces
	d.Debounced += o.Debounced
	d.TrapEscapes += o.TrapEscapes
	d.CornerEscapes += o.CornerEscapes
	d.SlideEscapes += o.SlideEscapes
	d.BossRebounds += o.BossRebounds
	d.OutOfBounds += o.OutOfBounds
	d.Respawns += o.Respawns
	d.StuckPushes += o.StuckPushes
	d.DriftNudges += o.DriftNudges
	d.SpeedRestores += o.SpeedRestores
	d.Crushed += o.Crushed
	d.Destroyed += o.Destroyed
	d.Lost += o.Lost
	d.Timeouts += o.Timeouts
	d.ForceFinishes += o.ForceFinishes
	d.WatchdogExpiries += o.WatchdogExpiries
	d.Skipped += o.Skipped
}

// Corrections totals the liveness interventions.
func (d Diagnostics) Corrections() int {
	return d.TrapEscapes + d.CornerEscapes + d.SlideEscapes + d.StuckPushes +
		d.DriftNudges + d.SpeedRestores + d.Respawns + d.OutOfBounds
}

// LogValue implements slog.LogValuer. Zero counters are omitted.
func (d Diagnostics) LogValue() slog.Value {
	var attrs []slog.Attr
	add := func(k string, v int) {
		if v != 0 {
			attrs = append(attrs, slog.Int(k, v))
		}
	}
	add("trap_escapes", d.TrapEscapes)
	add("corner_escapes", d.CornerEscapes)
	add("slide_escapes", d.SlideEscapes)
	add("out_of_bounds", d.OutOfBounds)
	add("respawns", d.Respawns)
	add("stuck_pushes", d.StuckPushes)
	add("drift_nudges", d.DriftNudges)
	add("speed_restores", d.SpeedRestores)
	add("crushed", d.Crushed)
	add("destroyed", d.Destroyed)
	add("lost", d.Lost)
	add("timeouts", d.Timeouts)
	add("force_finishes", d.ForceFinishes)
	add("watchdog_expiries", d.WatchdogExpiries)
	add("skipped", d.Skipped)
	return slog.GroupValue(attrs...)
}

// WeaponUsage is the usage of one weapon over a race.
type WeaponUsage struct {
	Run    int     `csv:"run" json:"-"`
	Race   int     `csv:"race" json:"-"`
	Weapon string  `csv:"weapon" json:"weapon"`
	Shots  int     `csv:"shots" json:"shots"`
	Hits   int     `csv:"hits" json:"hits"`
	Damage float64 `csv:"damage" json:"damage"`
}

// HitRate returns hits per shot.
func (w WeaponUsage) HitRate() float64 {
	if w.Shots == 0 {
		return 0
	}
	return float64(w.Hits) / float64(w.Shots)
}

// RaceResult is the terminal record of one race.
type RaceResult struct {
	Run     int     `csv:"run" json:"run"`
	Race    int     `csv:"race" json:"race"`
	Level   string  `csv:"level" json:"level"`
	Seed    int64   `csv:"seed" json:"seed"`
	Reason  string  `csv:"reason" json:"reason"`
	Elapsed float64 `csv:"elapsed" json:"elapsed"` // race clock seconds
	Ticks   int     `csv:"ticks" json:"ticks"`
	Winner  string  `csv:"winner" json:"winner"`
	Boss    string  `csv:"boss" json:"boss,omitempty"` // final boss state, empty without a boss

	Diagnostics

	Placements []Placement   `csv:"-" json:"placements"`
	Weapons    []WeaponUsage `csv:"-" json:"weapons,omitempty"`
}

// Order returns the ball names in rank order joined by ">".
func (r RaceResult) Order() string {
	names := make([]string, len(r.Placements))
	for i, p := range r.Placements {
		names[i] = p.Name
	}
	return strings.Join(names, ">")
}

// LogValue implements slog.LogValuer.
func (r RaceResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run", r.Run),
		slog.Int("race", r.Race),
		slog.String("level", r.Level),
		slog.String("reason", r.Reason),
		slog.Float64("elapsed", r.Elapsed),
		slog.String("order", r.Order()),
		slog.Any("diagnostics", r.Diagnostics),
	)
}

// LogStats logs the race result using slog.
func (r RaceResult) LogStats() {
	slog.Info("race",
		"run", r.Run,
		"race", r.Race,
		"level", r.Level,
		"reason", r.Reason,
		"elapsed", r.Elapsed,
		"winner", r.Winner,
		"order", r.Order(),
		"diagnostics", r.Diagnostics,
	)
}

// ChainStanding is one ball's line in a chain result.
type ChainStanding struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Wins   int    `json:"wins"`
}

// ChainResult is the terminal record of a chain of races.
type ChainResult struct {
	Run        int     `csv:"run" json:"run"`
	Seed       int64   `csv:"seed" json:"seed"`
	Levels     string  `csv:"levels" json:"levels"`
	Races      int     `csv:"races" json:"races"`
	Winner     string  `csv:"winner" json:"winner"`
	Standings  string  `csv:"standings" json:"-"`
	WallClockS float64 `csv:"wall_clock_s" json:"wall_clock_s"`
	Expired    bool    `csv:"expired" json:"expired"` // chain watchdog fired

	Diagnostics

	Table []ChainStanding `csv:"-" json:"standings"`
}

// FormatStandings renders a standings table as "Name:points|...".
func FormatStandings(table []ChainStanding) string {
	parts := make([]string, len(table))
	for i, s := range table {
		parts[i] = fmt.Sprintf("%s:%d", s.Name, s.Points)
	}
	return strings.Join(parts, "|")
}

// LogStats logs the chain result using slog.
func (c ChainResult) LogStats() {
	slog.Info("chain",
		"run", c.Run,
		"races", c.Races,
		"winner", c.Winner,
		"standings", c.Standings,
		"wall_clock_s", c.WallClockS,
		"expired", c.Expired,
		"diagnostics", c.Diagnostics,
	)
}

// LogValue implements slog.LogValuer.
func (c ChainResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("run", c.Run),
		slog.Int("races", c.Races),
		slog.String("winner", c.Winner),
		slog.String("standings", c.Standings),
		slog.Bool("expired", c.Expired),
		slog.Any("diagnostics", c.Diagnostics),
	)
}
