package game

import (
	"context"
	"fmt"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

// Session steps a chain one tick at a time for the viewers. Wall-clock
// watchdogs do not apply here: a paused viewer must not expire its race.
// The race-clock time budget still ends every race.
type Session struct {
	cfg    *config.Config
	levels []*level.Level
	seed   int64

	chain    *Chain
	index    int
	recorded bool
	results  []telemetry.RaceResult

	// OnRace receives every race result as it completes.
	OnRace func(telemetry.RaceResult)
}

// NewSession creates a session and loads the first level.
func NewSession(cfg *config.Config, levels []*level.Level, seed int64) (*Session, error) {
	s := &Session{cfg: cfg, levels: levels, seed: seed}
	if err := s.Restart(); err != nil {
		return nil, err
	}
	return s, nil
}

// Restart begins the chain again from its first level with fresh points.
func (s *Session) Restart() error {
	chain, err := NewChain(s.cfg, s.levels, 0, s.seed)
	if err != nil {
		return err
	}
	chain.OnRace = func(rr telemetry.RaceResult) {
		s.results = append(s.results, rr)
		if s.OnRace != nil {
			s.OnRace(rr)
		}
	}
	s.chain = chain
	s.index = 0
	s.recorded = false
	s.results = nil
	return chain.Start(0)
}

// Race returns the race being played.
func (s *Session) Race() *Race { return s.chain.race }

// Seed returns the chain seed.
func (s *Session) Seed() int64 { return s.seed }

// Index returns the position of the current level in the chain.
func (s *Session) Index() int { return s.index }

// Len returns the number of levels in the chain.
func (s *Session) Len() int { return len(s.levels) }

// Step advances the current race by one tick. It reports true on the tick
// the race completes; the result is then recorded into the chain table.
func (s *Session) Step() bool {
	r := s.chain.race
	if s.recorded {
		r.Step() // keeps fades running
		return false
	}
	r.Step()
	if !r.Complete() {
		return false
	}
	s.chain.Record(s.index, r.Result())
	s.recorded = true
	return true
}

// Finished reports whether the current race has completed.
func (s *Session) Finished() bool { return s.recorded }

// Done reports whether the last level of the chain has completed.
func (s *Session) Done() bool { return s.recorded && s.index == len(s.levels)-1 }

// Next loads the following level. An unfinished race is abandoned without
// a result. After the last level the chain restarts with the next seed.
func (s *Session) Next() error {
	if s.index+1 >= len(s.levels) {
		s.seed++
		return s.Restart()
	}
	s.index++
	s.recorded = false
	return s.chain.Start(s.index)
}

// Seek plays the levels before race headless so the random source matches
// a bulk run, then loads race.
func (s *Session) Seek(ctx context.Context, race int) error {
	if race < 0 || race >= len(s.levels) {
		return fmt.Errorf("race %d outside chain of %d", race, len(s.levels))
	}
	for s.index < race {
		if !s.recorded {
			rr, err := s.chain.race.Run(ctx)
			if err != nil {
				return err
			}
			s.chain.Record(s.index, rr)
			s.recorded = true
		}
		if err := s.Next(); err != nil {
			return err
		}
	}
	return nil
}

// Results returns the results recorded so far in this chain.
func (s *Session) Results() []telemetry.RaceResult { return s.results }

// Last returns the most recent race result.
func (s *Session) Last() (telemetry.RaceResult, bool) {
	if len(s.results) == 0 {
		return telemetry.RaceResult{}, false
	}
	return s.results[len(s.results)-1], true
}

// Standings returns the chain table.
func (s *Session) Standings() []telemetry.ChainStanding { return s.chain.Standings() }

// Snapshot captures the current race.
func (s *Session) Snapshot() Snapshot { return s.chain.race.Snapshot() }
