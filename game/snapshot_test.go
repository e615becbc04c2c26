package game

import "testing"

func TestRaceOrder(t *testing.T) {
	balls := []BallView{
		{Name: "Red", Progress: 0.4},
		{Name: "Blue", Eliminated: true, Progress: 0.9},
		{Name: "Green", Rank: 2, Finished: true},
		{Name: "Gold", Progress: 0.7},
		{Name: "Violet", Rank: 1, Finished: true},
	}

	want := []string{"Violet", "Green", "Gold", "Red", "Blue"}
	order := RaceOrder(balls)
	for i, idx := range order {
		if balls[idx].Name != want[i] {
			t.Fatalf("position %d = %s, want %s", i, balls[idx].Name, want[i])
		}
	}
}

func TestSnapshotLeader(t *testing.T) {
	s := Snapshot{Balls: []BallView{
		{Name: "Red", Progress: 0.4},
		{Name: "Blue", Progress: 0.95, Finished: true},
		{Name: "Gold", Progress: 0.7},
	}}
	if got := s.Leader(); got != 2 {
		t.Errorf("Leader = %d, want 2", got)
	}

	done := Snapshot{Balls: []BallView{{Finished: true}, {Eliminated: true}}}
	if got := done.Leader(); got != -1 {
		t.Errorf("Leader with no racers = %d, want -1", got)
	}
}
