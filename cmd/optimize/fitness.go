package main

import (
	"context"
	"sync"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/level"
	"github.com/pthm-cable/bounce/telemetry"
)

// Fitness component weights.
const (
	weightForced      = 1.0
	weightUnfairness  = 0.5
	weightCorrections = 0.2

	// correctionScale is the per-race correction count that costs one unit.
	correctionScale = 50.0

	// penaltyFitness is returned when a candidate cannot be evaluated.
	penaltyFitness = 10.0
)

// Score breaks down one evaluation.
type Score struct {
	Fitness     float64
	ForcedRate  float64 // share of races ended by countdown, budget or watchdog
	Unfairness  float64 // win chi-square normalised to [0, 1]
	Corrections float64 // liveness interventions per race
	Races       int
}

// FitnessEvaluator plays bulk runs for a parameter vector and scores them.
type FitnessEvaluator struct {
	ctx    context.Context
	params *ParamVector
	base   *config.Config
	levels []*level.Level
	runs   int
	seed   int64

	mu   sync.Mutex
	last Score
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation plays the
// same runs chains with seeds seed, seed+1, ... so candidates compare fairly.
func NewFitnessEvaluator(ctx context.Context, params *ParamVector, baseCfg *config.Config, levels []*level.Level, runs int, seed int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		ctx:    ctx,
		params: params,
		base:   baseCfg,
		levels: levels,
		runs:   runs,
		seed:   seed,
	}
}

// LastScore returns the breakdown of the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for raw parameter values (lower = better).
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	sc, err := fe.Score(raw)
	if err != nil {
		sc = Score{Fitness: penaltyFitness}
	}
	fe.mu.Lock()
	fe.last = sc
	fe.mu.Unlock()
	return sc.Fitness
}

// Score runs the bulk evaluation for raw parameter values.
func (fe *FitnessEvaluator) Score(raw []float64) (Score, error) {
	cfg := fe.base.Clone()
	fe.params.ApplyToConfig(cfg, raw)

	orch := game.NewOrchestrator(cfg)
	summary, err := orch.Run(fe.ctx, fe.levels, fe.runs, fe.seed)
	if err != nil {
		return Score{}, err
	}
	return scoreSummary(summary), nil
}

// scoreSummary folds a bulk summary into a fitness.
// Formula: forced + 0.5 × unfairness + 0.2 × corrections/50
func scoreSummary(s telemetry.Summary) Score {
	sc := Score{
		ForcedRate: s.ForcedRate,
		Races:      s.Races,
	}
	if s.Races == 0 {
		sc.Fitness = penaltyFitness
		return sc
	}

	sc.Corrections = float64(s.Diagnostics.Corrections()) / float64(s.Races)

	wins := 0
	for _, b := range s.Balls {
		wins += b.Wins
	}
	// Chi-square against a uniform split peaks at wins × (k-1).
	if k := len(s.Balls); wins > 0 && k > 1 {
		sc.Unfairness = clamp01(s.Fairness / (float64(wins) * float64(k-1)))
	}

	sc.Fitness = weightForced*sc.ForcedRate +
		weightUnfairness*sc.Unfairness +
		weightCorrections*clamp01(sc.Corrections/correctionScale)
	return sc
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
