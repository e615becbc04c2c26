package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	values := []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2, 0.4, 0.6, 0.8, 1.0}
	mean, std, p10, p50, p90 := ComputeStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(std-0.2872) > 0.001 {
		t.Errorf("std = %v, want ~0.2872", std)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}
	if values[0] != 0.9 {
		t.Error("ComputeStats sorted its input in place")
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func race(run int, forced bool, order ...string) RaceResult {
	r := RaceResult{Run: run, Reason: "all_done"}
	if forced {
		r.Reason = "countdown"
		r.ForceFinishes = 1
	}
	for i, name := range order {
		r.Placements = append(r.Placements, Placement{Rank: i + 1, Name: name, FinishTime: float64(10 + i)})
	}
	r.Weapons = []WeaponUsage{{Weapon: "blaster", Shots: 4, Hits: 2, Damage: 12}}
	return r
}

func TestAggregatorSummary(t *testing.T) {
	a := NewAggregator()
	a.AddRace(race(0, false, "Red", "Blue"))
	a.AddRace(race(0, true, "Red", "Blue"))
	a.AddRace(race(1, false, "Blue", "Red"))
	a.AddRace(race(1, false, "Red", "Blue"))
	a.AddChain(ChainResult{Table: []ChainStanding{{Rank: 1, Name: "Red", Points: 17}, {Rank: 2, Name: "Blue", Points: 14}}})

	s := a.Summary()
	if s.Races != 4 || s.Chains != 1 {
		t.Fatalf("counts = %d races, %d chains", s.Races, s.Chains)
	}
	if math.Abs(s.ForcedRate-0.25) > 1e-9 {
		t.Errorf("forced rate = %v, want 0.25", s.ForcedRate)
	}
	if len(s.Balls) != 2 || s.Balls[0].Name != "Red" {
		t.Fatalf("balls = %+v, want Red first", s.Balls)
	}

	red := s.Balls[0]
	if red.Wins != 3 || math.Abs(red.WinRate-0.75) > 1e-9 {
		t.Errorf("red wins = %d (%v), want 3 (0.75)", red.Wins, red.WinRate)
	}
	if math.Abs(red.MeanRank-1.25) > 1e-9 {
		t.Errorf("red mean rank = %v, want 1.25", red.MeanRank)
	}
	if red.ChainWins != 1 || red.Points != 17 {
		t.Errorf("red chain stats = %d wins, %d points", red.ChainWins, red.Points)
	}

	// wins 3:1 against an expected 2:2
	if math.Abs(s.Fairness-1) > 1e-9 {
		t.Errorf("fairness = %v, want 1", s.Fairness)
	}

	if len(s.Weapons) != 1 || s.Weapons[0].Shots != 16 || s.Weapons[0].Hits != 8 {
		t.Errorf("weapons = %+v, want 16 shots 8 hits", s.Weapons)
	}
	if got := s.Weapons[0].HitRate(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("hit rate = %v, want 0.5", got)
	}
}

func TestAggregatorIgnoresEliminatedWinner(t *testing.T) {
	a := NewAggregator()
	r := race(0, false, "Red")
	r.Placements[0].Eliminated = true
	r.Placements[0].Reason = "crushed"
	a.AddRace(r)

	s := a.Summary()
	if s.Balls[0].Wins != 0 || s.Balls[0].Eliminations != 1 {
		t.Errorf("eliminated ball summary = %+v", s.Balls[0])
	}
	if s.Fairness != 0 {
		t.Errorf("fairness without wins = %v, want 0", s.Fairness)
	}
}
