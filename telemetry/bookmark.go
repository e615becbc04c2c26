package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPhotoFinish     BookmarkType = "photo_finish"
	BookmarkBossDefeated    BookmarkType = "boss_defeated"
	BookmarkCorrectionSpike BookmarkType = "correction_spike"
	BookmarkForcedStreak    BookmarkType = "forced_streak"
	BookmarkDominantWinner  BookmarkType = "dominant_winner"
)

// Thresholds for the detectors.
const (
	photoFinishGap   = 0.05 // seconds between first and second
	spikeFactor      = 2.0
	spikeMinimum     = 5
	forcedStreakLen  = 3
	dominantRunLen   = 5
	minSpikeHistory  = 3
	minBookmarkSlots = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType
	Run         int
	Race        int
	Level       string
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"run", b.Run,
		"race", b.Race,
		"level", b.Level,
		"description", b.Description,
	)
}

// BookmarkDetector flags races worth replaying from a stream of results.
type BookmarkDetector struct {
	// Rolling history (circular buffer) of correction totals
	history     []int
	historySize int
	historyIdx  int
	historyFull bool

	forcedStreak int
	lastWinner   string
	winnerStreak int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minBookmarkSlots {
		historySize = minBookmarkSlots
	}
	return &BookmarkDetector{
		history:     make([]int, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest race and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(r RaceResult) []Bookmark {
	var bookmarks []Bookmark
	add := func(b *Bookmark) {
		if b == nil {
			return
		}
		b.Run, b.Race, b.Level = r.Run, r.Race, r.Level
		bookmarks = append(bookmarks, *b)
	}

	add(checkPhotoFinish(r))
	add(checkBossDefeated(r))
	add(bd.checkCorrectionSpike(r))
	add(bd.checkForcedStreak(r))
	add(bd.checkDominantWinner(r))

	bd.addToHistory(r.Diagnostics.Corrections())
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(v int) {
	bd.history[bd.historyIdx] = v
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []int {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func checkPhotoFinish(r RaceResult) *Bookmark {
	if len(r.Placements) < 2 {
		return nil
	}
	a, b := r.Placements[0], r.Placements[1]
	if !finishedClean(a) || !finishedClean(b) {
		return nil
	}
	gap := b.FinishTime - a.FinishTime
	if gap > photoFinishGap {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkPhotoFinish,
		Description: fmt.Sprintf("%s beat %s by %.3fs", a.Name, b.Name, gap),
	}
}

func finishedClean(p Placement) bool {
	return p.FinishTime > 0 && !p.TimedOut && !p.Eliminated
}

func checkBossDefeated(r RaceResult) *Bookmark {
	if r.Boss != "dead" {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBossDefeated,
		Description: fmt.Sprintf("Boss defeated after %.1fs, %s first", r.Elapsed, r.Winner),
	}
}

func (bd *BookmarkDetector) checkCorrectionSpike(r RaceResult) *Bookmark {
	history := bd.getHistory()
	if len(history) < minSpikeHistory {
		return nil
	}

	var total int
	for _, h := range history {
		total += h
	}
	avg := float64(total) / float64(len(history))
	cur := r.Diagnostics.Corrections()
	if cur < spikeMinimum || float64(cur) <= avg*spikeFactor {
		return nil
	}
	desc := fmt.Sprintf("%d liveness corrections, average %.1f", cur, avg)
	if avg > 0 {
		desc = fmt.Sprintf("%d liveness corrections is %.1fx average (%.1f)", cur, float64(cur)/avg, avg)
	}
	return &Bookmark{Type: BookmarkCorrectionSpike, Description: desc}
}

func (bd *BookmarkDetector) checkForcedStreak(r RaceResult) *Bookmark {
	if r.ForceFinishes == 0 {
		bd.forcedStreak = 0
		return nil
	}
	bd.forcedStreak++
	if bd.forcedStreak != forcedStreakLen { // trigger exactly once per streak
		return nil
	}
	return &Bookmark{
		Type:        BookmarkForcedStreak,
		Description: fmt.Sprintf("%d races in a row force-finished, last by %s", forcedStreakLen, r.Reason),
	}
}

func (bd *BookmarkDetector) checkDominantWinner(r RaceResult) *Bookmark {
	if r.Winner == "" || r.Winner != bd.lastWinner {
		bd.lastWinner = r.Winner
		bd.winnerStreak = 0
		if r.Winner != "" {
			bd.winnerStreak = 1
		}
		return nil
	}
	bd.winnerStreak++
	if bd.winnerStreak != dominantRunLen {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkDominantWinner,
		Description: fmt.Sprintf("%s won %d races in a row", r.Winner, dominantRunLen),
	}
}
