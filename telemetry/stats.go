package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeStats calculates mean, population standard deviation and percentiles.
func ComputeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// BallSummary aggregates one ball over many races.
type BallSummary struct {
	Name         string  `csv:"name" json:"name"`
	Races        int     `csv:"races" json:"races"`
	Wins         int     `csv:"wins" json:"wins"`
	WinRate      float64 `csv:"win_rate" json:"win_rate"`
	MeanRank     float64 `csv:"mean_rank" json:"mean_rank"`
	StdRank      float64 `csv:"std_rank" json:"std_rank"`
	FinishP50    float64 `csv:"finish_p50" json:"finish_p50"`
	FinishP90    float64 `csv:"finish_p90" json:"finish_p90"`
	MeanDamage   float64 `csv:"mean_damage" json:"mean_damage"`
	Timeouts     int     `csv:"timeouts" json:"timeouts"`
	Eliminations int     `csv:"eliminations" json:"eliminations"`
	ChainWins    int     `csv:"chain_wins" json:"chain_wins"`
	Points       int     `csv:"points" json:"points"`
}

// Summary aggregates a bulk run.
type Summary struct {
	Chains       int     `json:"chains"`
	Races        int     `json:"races"`
	ForcedRate   float64 `json:"forced_rate"`   // share of races ended by countdown, budget or watchdog
	WatchdogRate float64 `json:"watchdog_rate"` // share of races ended by the watchdog
	Fairness     float64 `json:"fairness"`      // chi-square of wins against a uniform split

	Diagnostics Diagnostics   `json:"diagnostics"`
	Balls       []BallSummary `json:"balls"`
	Weapons     []WeaponUsage `json:"weapons"`
}

// LogStats logs the summary using slog.
func (s Summary) LogStats() {
	slog.Info("summary",
		"chains", s.Chains,
		"races", s.Races,
		"forced_rate", s.ForcedRate,
		"watchdog_rate", s.WatchdogRate,
		"fairness", s.Fairness,
		"diagnostics", s.Diagnostics,
	)
	for _, b := range s.Balls {
		slog.Info("ball",
			"name", b.Name,
			"wins", b.Wins,
			"win_rate", b.WinRate,
			"mean_rank", b.MeanRank,
			"std_rank", b.StdRank,
			"timeouts", b.Timeouts,
			"eliminations", b.Eliminations,
			"chain_wins", b.ChainWins,
			"points", b.Points,
		)
	}
}

type ballAcc struct {
	name      string
	ranks     []float64
	finishes  []float64
	damage    []float64
	wins      int
	timeouts  int
	elims     int
	chainWins int
	points    int
}

// Aggregator folds race and chain results into a Summary.
// Balls and weapons are reported in first-seen order.
type Aggregator struct {
	chains   int
	races    int
	forced   int
	watchdog int
	diag     Diagnostics

	balls   []*ballAcc
	ballIx  map[string]int
	weapons []WeaponUsage
	weapIx  map[string]int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		ballIx: make(map[string]int),
		weapIx: make(map[string]int),
	}
}

func (a *Aggregator) ball(name string) *ballAcc {
	i, ok := a.ballIx[name]
	if !ok {
		i = len(a.balls)
		a.ballIx[name] = i
		a.balls = append(a.balls, &ballAcc{name: name})
	}
	return a.balls[i]
}

// AddRace folds one race result.
func (a *Aggregator) AddRace(r RaceResult) {
	a.races++
	a.diag.Add(r.Diagnostics)
	if r.ForceFinishes > 0 {
		a.forced++
	}
	if r.WatchdogExpiries > 0 {
		a.watchdog++
	}

	for _, p := range r.Placements {
		b := a.ball(p.Name)
		b.ranks = append(b.ranks, float64(p.Rank))
		b.damage = append(b.damage, p.DamageDealt)
		if p.Rank == 1 && !p.Eliminated {
			b.wins++
		}
		if p.TimedOut {
			b.timeouts++
		}
		if p.Eliminated {
			b.elims++
		} else if !p.TimedOut {
			b.finishes = append(b.finishes, p.FinishTime)
		}
	}

	for _, w := range r.Weapons {
		i, ok := a.weapIx[w.Weapon]
		if !ok {
			i = len(a.weapons)
			a.weapIx[w.Weapon] = i
			a.weapons = append(a.weapons, WeaponUsage{Weapon: w.Weapon})
		}
		a.weapons[i].Shots += w.Shots
		a.weapons[i].Hits += w.Hits
		a.weapons[i].Damage += w.Damage
	}
}

// AddChain folds one chain result. Races are folded separately with AddRace.
func (a *Aggregator) AddChain(c ChainResult) {
	a.chains++
	for _, s := range c.Table {
		b := a.ball(s.Name)
		b.points += s.Points
		if s.Rank == 1 {
			b.chainWins++
		}
	}
}

// Summary computes the aggregate statistics.
func (a *Aggregator) Summary() Summary {
	s := Summary{
		Chains:      a.chains,
		Races:       a.races,
		Diagnostics: a.diag,
		Weapons:     append([]WeaponUsage(nil), a.weapons...),
	}
	if a.races > 0 {
		s.ForcedRate = float64(a.forced) / float64(a.races)
		s.WatchdogRate = float64(a.watchdog) / float64(a.races)
	}

	obs := make([]float64, len(a.balls))
	exp := make([]float64, len(a.balls))
	totalWins := 0
	for _, b := range a.balls {
		totalWins += b.wins
	}

	for i, b := range a.balls {
		bs := BallSummary{
			Name:         b.name,
			Races:        len(b.ranks),
			Wins:         b.wins,
			Timeouts:     b.timeouts,
			Eliminations: b.elims,
			ChainWins:    b.chainWins,
			Points:       b.points,
		}
		if bs.Races > 0 {
			bs.WinRate = float64(b.wins) / float64(bs.Races)
			bs.MeanRank, bs.StdRank = stat.PopMeanStdDev(b.ranks, nil)
			bs.MeanDamage = stat.Mean(b.damage, nil)
		}
		_, _, _, bs.FinishP50, bs.FinishP90 = ComputeStats(b.finishes)
		s.Balls = append(s.Balls, bs)

		obs[i] = float64(b.wins)
		if len(a.balls) > 0 {
			exp[i] = float64(totalWins) / float64(len(a.balls))
		}
	}
	if totalWins > 0 {
		s.Fairness = stat.ChiSquare(obs, exp)
	}
	return s
}
