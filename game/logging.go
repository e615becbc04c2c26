package game

import (
	"fmt"
	"io"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bounce/telemetry"
)

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logPerfStats logs simulation and draw timing.
func (g *Game) logPerfStats() {
	stats := g.perf.Stats()
	stats.LogStats()

	Logf("=== Perf @ Tick %d (speed %dx) | FPS: %d ===", g.snap.Tick, g.stepsPerFrame, rl.GetFPS())
	Logf("Avg tick: %s (%.0f ticks/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond)

	phases, total := mergePhases(stats.PhaseAvg, g.renderPerf.Averages())
	for _, name := range sortByDuration(phases) {
		avg := phases[name]
		pct := float64(0)
		if total > 0 {
			pct = float64(avg) / float64(total) * 100
		}
		Logf("  %-18s %10s  %5.1f%%", name, avg.Round(time.Microsecond), pct)
	}
	Logf("")
}

// logRaceResult logs a completed race and the chain table after it.
func (g *Game) logRaceResult(rr telemetry.RaceResult) {
	rr.LogStats()

	Logf("=== Race %d/%d: %s (seed %d) ===", rr.Race+1, g.session.Len(), rr.Level, rr.Seed)
	Logf("Ended: %s after %.1fs (%d ticks)", rr.Reason, rr.Elapsed, rr.Ticks)
	for _, p := range rr.Placements {
		status := fmt.Sprintf("%.2fs", p.FinishTime)
		switch {
		case p.Eliminated:
			status = p.Reason
		case p.TimedOut:
			status = fmt.Sprintf("timed out at %.0f%%", p.Progress*100)
		}
		Logf("  #%d %-10s %-20s +%d pts", p.Rank, p.Name, status, p.Points)
	}
	Logf("Standings: %s", telemetry.FormatStandings(g.session.Standings()))
	Logf("")
}
