package telemetry

import "testing"

func hasBookmark(bms []Bookmark, typ BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_PhotoFinish(t *testing.T) {
	bd := NewBookmarkDetector(10)

	tests := []struct {
		name   string
		first  Placement
		second Placement
		want   bool
	}{
		{"close", Placement{Name: "Red", FinishTime: 30.00}, Placement{Name: "Blue", FinishTime: 30.04}, true},
		{"clear gap", Placement{Name: "Red", FinishTime: 30.00}, Placement{Name: "Blue", FinishTime: 31.00}, false},
		{"runner up timed out", Placement{Name: "Red", FinishTime: 30.00}, Placement{Name: "Blue", FinishTime: 30.01, TimedOut: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RaceResult{Placements: []Placement{tt.first, tt.second}}
			if got := hasBookmark(bd.Check(r), BookmarkPhotoFinish); got != tt.want {
				t.Errorf("photo finish = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmarkDetector_BossDefeated(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bms := bd.Check(RaceResult{Run: 2, Race: 1, Level: "boss_arena", Boss: "dead", Winner: "Red"})
	if !hasBookmark(bms, BookmarkBossDefeated) {
		t.Fatal("expected boss_defeated bookmark")
	}
	if bms[0].Run != 2 || bms[0].Race != 1 || bms[0].Level != "boss_arena" {
		t.Errorf("bookmark not stamped with race identity: %+v", bms[0])
	}

	if hasBookmark(bd.Check(RaceResult{Boss: "attacking"}), BookmarkBossDefeated) {
		t.Error("living boss triggered boss_defeated")
	}
}

func TestBookmarkDetector_CorrectionSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build a quiet history
	for i := 0; i < 5; i++ {
		bd.Check(RaceResult{Diagnostics: Diagnostics{TrapEscapes: 1, DriftNudges: 1}})
	}

	// 12 corrections against an average of 2
	spike := RaceResult{Diagnostics: Diagnostics{TrapEscapes: 4, StuckPushes: 4, Respawns: 4}}
	if !hasBookmark(bd.Check(spike), BookmarkCorrectionSpike) {
		t.Error("expected correction_spike bookmark")
	}

	// Too little history
	fresh := NewBookmarkDetector(10)
	if hasBookmark(fresh.Check(spike), BookmarkCorrectionSpike) {
		t.Error("spike reported without history")
	}
}

func TestBookmarkDetector_ForcedStreak(t *testing.T) {
	bd := NewBookmarkDetector(10)
	forced := RaceResult{Reason: "time_budget", Diagnostics: Diagnostics{ForceFinishes: 1}}

	triggers := 0
	for i := 0; i < 6; i++ {
		if hasBookmark(bd.Check(forced), BookmarkForcedStreak) {
			triggers++
		}
	}
	if triggers != 1 {
		t.Errorf("forced streak triggered %d times over one streak, want 1", triggers)
	}

	// A clean race resets the streak
	bd.Check(RaceResult{})
	for i := 0; i < forcedStreakLen; i++ {
		if hasBookmark(bd.Check(forced), BookmarkForcedStreak) && i != forcedStreakLen-1 {
			t.Errorf("streak triggered early at %d", i)
		}
	}
}

func TestBookmarkDetector_DominantWinner(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var fired []int
	winners := []string{"Red", "Red", "Blue", "Blue", "Blue", "Blue", "Blue", "Blue"}
	for i, w := range winners {
		if hasBookmark(bd.Check(RaceResult{Winner: w}), BookmarkDominantWinner) {
			fired = append(fired, i)
		}
	}
	if len(fired) != 1 || fired[0] != 6 {
		t.Errorf("dominant winner fired at %v, want [6]", fired)
	}
}
