package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

// ErrNoLevels is returned when a chain has nothing to play.
var ErrNoLevels = errors.New("game: chain has no levels")

// Chain plays an ordered list of levels with one roster. Balls keep their
// identity and weapons between races; points accumulate per rank.
type Chain struct {
	cfg    *config.Config
	race   *Race
	levels []*level.Level
	run    int
	seed   int64

	points []int // by roster index
	wins   []int
	diag   telemetry.Diagnostics

	// OnRace, when set, receives every race result as soon as it completes.
	OnRace func(telemetry.RaceResult)
}

// NewChain creates a chain over levels using cfg.Roster.
func NewChain(cfg *config.Config, levels []*level.Level, run int, seed int64) (*Chain, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	race, err := NewRace(cfg, cfg.Roster, seed)
	if err != nil {
		return nil, err
	}
	return &Chain{
		cfg:    cfg,
		race:   race,
		levels: levels,
		run:    run,
		seed:   seed,
		points: make([]int, len(cfg.Roster)),
		wins:   make([]int, len(cfg.Roster)),
	}, nil
}

// Race returns the race context the chain drives.
func (c *Chain) Race() *Race { return c.race }

// Run plays every level in order. When the chain watchdog expires the
// current race is force-finished and the remaining levels are skipped.
func (c *Chain) Run(ctx context.Context) (telemetry.ChainResult, error) {
	wd := NewWatchdog(ctx, c.cfg.Watchdog.RaceWallClock, c.cfg.Watchdog.ChainWallClock)
	defer wd.Stop()

	res := telemetry.ChainResult{Run: c.run, Seed: c.seed}
	names := make([]string, 0, len(c.levels))

	for i, lvl := range c.levels {
		if wd.Expired() {
			res.Expired = true
			slog.Warn("chain watchdog expired", "run", c.run, "seed", c.seed, "played", i, "levels", len(c.levels))
			break
		}
		if err := c.Start(i); err != nil {
			return res, err
		}

		raceCtx, cancel := wd.Race()
		rr, err := c.race.Run(raceCtx)
		cancel()
		if err != nil {
			return res, fmt.Errorf("running level %d (%s): %w", i, lvl.Name, err)
		}

		c.Record(i, rr)
		names = append(names, lvl.Name)
		res.Races++
	}
	if wd.Expired() && res.Races < len(c.levels) {
		res.Expired = true
	}

	res.Levels = strings.Join(names, ",")
	res.Table = c.Standings()
	res.Standings = telemetry.FormatStandings(res.Table)
	if len(res.Table) > 0 {
		res.Winner = res.Table[0].Name
	}
	res.WallClockS = wd.Elapsed().Seconds()
	res.Diagnostics = c.diag
	return res, nil
}

// Len returns the number of levels in the chain.
func (c *Chain) Len() int { return len(c.levels) }

// Start loads level i into the race.
func (c *Chain) Start(i int) error {
	if i < 0 || i >= len(c.levels) {
		return fmt.Errorf("level %d outside chain of %d", i, len(c.levels))
	}
	lvl := c.levels[i]
	if err := c.race.Load(lvl); err != nil {
		return fmt.Errorf("loading level %d (%s): %w", i, lvl.Name, err)
	}
	return nil
}

// Record stamps a finished race as race i of the chain, folds it into the
// table and hands it to OnRace.
func (c *Chain) Record(i int, rr telemetry.RaceResult) telemetry.RaceResult {
	rr.Run, rr.Race = c.run, i
	c.score(rr)
	if c.OnRace != nil {
		c.OnRace(rr)
	}
	return rr
}

// score folds one race into the chain table.
func (c *Chain) score(rr telemetry.RaceResult) {
	c.diag.Add(rr.Diagnostics)
	for _, p := range rr.Placements {
		i := c.indexOf(p.Name)
		if i < 0 {
			continue
		}
		c.points[i] += p.Points
		if p.Rank == 1 && !p.Eliminated {
			c.wins[i]++
		}
	}
}

func (c *Chain) indexOf(name string) int {
	for i, r := range c.cfg.Roster {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Standings returns the table sorted by points, then wins, then roster order.
func (c *Chain) Standings() []telemetry.ChainStanding {
	order := make([]int, len(c.cfg.Roster))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if c.points[ia] != c.points[ib] {
			return c.points[ia] > c.points[ib]
		}
		return c.wins[ia] > c.wins[ib]
	})

	table := make([]telemetry.ChainStanding, len(order))
	for rank, i := range order {
		table[rank] = telemetry.ChainStanding{
			Rank:   rank + 1,
			Name:   c.cfg.Roster[i].Name,
			Points: c.points[i],
			Wins:   c.wins[i],
		}
	}
	return table
}
