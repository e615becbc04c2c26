package components

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestTrackingHistoryRing(t *testing.T) {
	var tr Tracking
	for i := 0; i < 3; i++ {
		tr.PushHistory(r2.Vec{X: float64(i)}, 4)
	}
	if tr.HistoryFull() {
		t.Fatal("ring full after 3 of 4 samples")
	}
	tr.PushHistory(r2.Vec{X: 3}, 4)
	if !tr.HistoryFull() {
		t.Fatal("ring not full after 4 samples")
	}
	if got := tr.MaxDisplacement(); math.Abs(got-3) > 1e-9 {
		t.Errorf("MaxDisplacement = %v, want 3", got)
	}

	// Oldest sample rolls over to X=1
	tr.PushHistory(r2.Vec{X: 1.5}, 4)
	if got := tr.MaxDisplacement(); math.Abs(got-2) > 1e-9 {
		t.Errorf("MaxDisplacement after wrap = %v, want 2", got)
	}

	tr.ClearHistory()
	if tr.HistoryFull() || tr.MaxDisplacement() != 0 {
		t.Error("ClearHistory left samples behind")
	}
}

func TestBuffFactors(t *testing.T) {
	var b Buffs
	b.Add(Buff{ID: 1, Kind: BuffSpeed, Multiplier: 1.5})
	b.Add(Buff{ID: 2, Kind: BuffSpeed, Multiplier: 2})
	b.Add(Buff{ID: 3, Kind: BuffGhost})

	if got := b.Factor(BuffSpeed); got != 3 {
		t.Errorf("speed factor = %v, want 3", got)
	}
	if got := b.Factor(BuffDamage); got != 1 {
		t.Errorf("damage factor = %v, want 1", got)
	}
	if !b.Has(BuffGhost) {
		t.Error("ghost buff missing")
	}

	b.Remove(1)
	b.Remove(42)
	if got := b.Factor(BuffSpeed); got != 2 {
		t.Errorf("speed factor after remove = %v, want 2", got)
	}
}

func TestParseBuff(t *testing.T) {
	for i, name := range buffNames {
		k, ok := ParseBuff(name)
		if !ok || k != BuffKind(i) {
			t.Errorf("ParseBuff(%q) = %v, %v", name, k, ok)
		}
	}
	if _, ok := ParseBuff("teleport"); ok {
		t.Error("ParseBuff accepted unknown buff")
	}
}

func TestCrusherPeriod(t *testing.T) {
	c := Crusher{Speed: 100, Travel: 300, ResetDelay: 1.2}
	if got := c.Period(); math.Abs(got-4.2) > 1e-9 {
		t.Errorf("Period = %v, want 4.2", got)
	}
}

func TestBreakableAllowList(t *testing.T) {
	open := Breakable{}
	if !open.CanDamage("anyone") {
		t.Error("empty allow list should accept any ball")
	}
	guarded := Breakable{Allowed: []string{"Red"}}
	if guarded.CanDamage("Blue") || !guarded.CanDamage("Red") {
		t.Error("allow list not honoured")
	}
}

func TestBodyExtent(t *testing.T) {
	tests := []struct {
		name   string
		body   Body
		ex, ey float64
	}{
		{"circle", Body{Shape: ShapeCircle, Radius: 7}, 7, 7},
		{"rect", Body{Shape: ShapeRect, HalfW: 40, HalfH: 10}, 40, 10},
		{"rect quarter turn", Body{Shape: ShapeRect, HalfW: 40, HalfH: 10, Angle: math.Pi / 2}, 10, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, ey := tt.body.Extent()
			if math.Abs(ex-tt.ex) > 1e-9 || math.Abs(ey-tt.ey) > 1e-9 {
				t.Errorf("Extent = (%v, %v), want (%v, %v)", ex, ey, tt.ex, tt.ey)
			}
		})
	}
}
