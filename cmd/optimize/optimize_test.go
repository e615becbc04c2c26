package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/telemetry"
)

func TestApplyExtractRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	want := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		want[i] = spec.Min + 0.25*(spec.Max-spec.Min)
	}
	pv.ApplyToConfig(cfg, want)
	got := pv.ExtractFromConfig(cfg)
	for i, spec := range pv.Specs {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("%s = %v, want %v", spec.Name, got[i], want[i])
		}
	}
	if cfg.Bounce.TwistMin >= cfg.Bounce.TwistMax {
		t.Errorf("twist range [%v, %v) is empty", cfg.Bounce.TwistMin, cfg.Bounce.TwistMax)
	}
}

func TestApplyClampsOutOfRange(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	high := make([]float64, pv.Dim())
	for i := range high {
		high[i] = 1e6
	}
	pv.ApplyToConfig(cfg, high)
	for i, v := range pv.ExtractFromConfig(cfg) {
		if v != pv.Specs[i].Max {
			t.Errorf("%s = %v, want max %v", pv.Specs[i].Name, v, pv.Specs[i].Max)
		}
	}
}

func TestNormalizeDenormalize(t *testing.T) {
	pv := NewParamVector()
	raw := pv.ExtractFromConfig(config.Defaults())
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestScoreSummary(t *testing.T) {
	tests := []struct {
		name    string
		summary telemetry.Summary
		want    float64
	}{
		{
			name:    "no races",
			summary: telemetry.Summary{},
			want:    penaltyFitness,
		},
		{
			name: "clean and fair",
			summary: telemetry.Summary{
				Races: 4,
				Balls: []telemetry.BallSummary{{Wins: 2}, {Wins: 2}},
			},
			want: 0,
		},
		{
			name: "all forced, one winner",
			summary: telemetry.Summary{
				Races:      4,
				ForcedRate: 1,
				Fairness:   4, // (4-2)²/2 + (0-2)²/2
				Balls:      []telemetry.BallSummary{{Wins: 4}, {Wins: 0}},
			},
			want: weightForced + weightUnfairness,
		},
		{
			name: "corrections saturate",
			summary: telemetry.Summary{
				Races:       1,
				Diagnostics: telemetry.Diagnostics{StuckPushes: 1000},
			},
			want: weightCorrections,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreSummary(tt.summary)
			if math.Abs(got.Fitness-tt.want) > 1e-9 {
				t.Errorf("fitness = %v, want %v (%+v)", got.Fitness, tt.want, got)
			}
		})
	}
}
