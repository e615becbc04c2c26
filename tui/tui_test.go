package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/bounce/config"
	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/level"
)

func TestProjectionCell(t *testing.T) {
	p := NewProjection(1000, 500, 100, 50)

	tests := []struct {
		name   string
		x, y   float64
		cx, cy int
	}{
		{"origin", 0, 0, 0, 0},
		{"middle", 505, 255, 50, 25},
		{"far edge", 1000, 500, 99, 49},
		{"outside clamps", -50, 900, 0, 49},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cx, cy := p.Cell(tt.x, tt.y)
			if cx != tt.cx || cy != tt.cy {
				t.Errorf("Cell(%v, %v) = (%d, %d), want (%d, %d)", tt.x, tt.y, cx, cy, tt.cx, tt.cy)
			}
		})
	}
}

func TestProjectionCover(t *testing.T) {
	p := NewProjection(100, 100, 10, 10)

	count := func(circle bool, r, hw, hh, angle float64) int {
		n := 0
		p.Cover(50, 50, circle, r, hw, hh, angle, func(int, int) { n++ })
		return n
	}

	// 40x20 box over 10-unit cells covers 4x2 centers
	if got := count(false, 0, 20, 10, 0); got != 8 {
		t.Errorf("box covers %d cells, want 8", got)
	}
	// Rotated a quarter turn it covers 2x4
	if got := count(false, 0, 20, 10, 1.5707963267948966); got != 8 {
		t.Errorf("rotated box covers %d cells, want 8", got)
	}
	// Tiny shapes still mark their own cell
	if got := count(true, 1, 0, 0, 0); got != 1 {
		t.Errorf("tiny circle covers %d cells, want 1", got)
	}
}

func TestHealthBar(t *testing.T) {
	tests := []struct {
		frac float64
		want string
	}{
		{1, "████"},
		{0.5, "██░░"},
		{0, "░░░░"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := healthBar(tt.frac, 4); got != tt.want {
			t.Errorf("healthBar(%v) = %q, want %q", tt.frac, got, tt.want)
		}
	}
}

func TestViewerDrawsBalls(t *testing.T) {
	cfg := config.Defaults()
	lvl, err := level.Builtin("course")
	if err != nil {
		t.Fatalf("loading course: %v", err)
	}
	session, err := game.NewSession(cfg, []*level.Level{lvl}, 7)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(120, 50)

	v := New(screen, session, time.Millisecond, true)
	v.Draw()

	cells, w, _ := screen.GetContents()
	glyphs := map[rune]bool{}
	for _, r := range cfg.Roster {
		glyphs[ballGlyph(&game.BallView{Name: r.Name})] = true
	}

	s := session.Snapshot()
	p := NewProjection(s.Width, s.Height, 120-sidebarWidth, 50-2)
	for _, b := range s.Balls {
		cx, cy := p.Cell(b.X, b.Y)
		c := cells[(cy+2)*w+cx]
		if len(c.Runes) == 0 || !glyphs[c.Runes[0]] {
			t.Errorf("no ball glyph at %s's cell (%d, %d)", b.Name, cx, cy)
		}
	}
}

func TestViewerKeys(t *testing.T) {
	cfg := config.Defaults()
	lvl, err := level.Builtin("course")
	if err != nil {
		t.Fatalf("loading course: %v", err)
	}
	session, err := game.NewSession(cfg, []*level.Level{lvl}, 7)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	v := New(nil, session, time.Millisecond, true)

	press := func(r rune) bool {
		ok, err := v.handleEvent(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
		if err != nil {
			t.Fatalf("key %q: %v", r, err)
		}
		return ok
	}

	press(' ')
	if !v.paused {
		t.Error("space did not pause")
	}
	for i := 0; i < 20; i++ {
		press('+')
	}
	if v.speed != maxSpeed {
		t.Errorf("speed = %d, want capped at %d", v.speed, maxSpeed)
	}
	if press('q') {
		t.Error("q did not quit")
	}
}
