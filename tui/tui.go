// Package tui renders races in a terminal with tcell.
package tui

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/telemetry"
)

const (
	sidebarWidth = 30
	maxSpeed     = 10
	advanceDelay = 3 * time.Second
)

var (
	styleFloor     = tcell.StyleDefault.Background(tcell.NewRGBColor(18, 20, 26))
	styleWall      = tcell.StyleDefault.Foreground(tcell.NewRGBColor(120, 140, 170))
	styleGoal      = tcell.StyleDefault.Background(tcell.NewRGBColor(30, 80, 45))
	styleSpawn     = tcell.StyleDefault.Background(tcell.NewRGBColor(30, 45, 80))
	styleText      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleMuted     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBoss      = tcell.StyleDefault.Foreground(tcell.NewRGBColor(220, 60, 120)).Bold(true)
	styleShot      = tcell.StyleDefault.Foreground(tcell.NewRGBColor(120, 220, 255))
	styleBossShot  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 90, 70))
	styleItem      = tcell.StyleDefault.Foreground(tcell.NewRGBColor(240, 220, 90)).Bold(true)
	obstacleGlyphs = map[string]rune{
		"static":    '#',
		"rotating":  '@',
		"moving":    '=',
		"breakable": '%',
		"crusher":   'X',
		"keyframe":  '&',
	}
)

// Viewer plays a session in a terminal.
type Viewer struct {
	screen  tcell.Screen
	session *game.Session

	paused      bool
	speed       int
	tick        time.Duration
	finishedFor time.Duration
	hold        bool
}

// New creates a viewer on an initialised screen. tick is the wall-clock
// time per simulation step at speed 1.
func New(screen tcell.Screen, session *game.Session, tick time.Duration, hold bool) *Viewer {
	return &Viewer{
		screen:  screen,
		session: session,
		speed:   1,
		tick:    tick,
		hold:    hold,
	}
}

// Run steps and draws the session until the user quits or ctx is done.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(v.tick)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			ok, err := v.handleEvent(ev)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			v.Draw()
		case <-ticker.C:
			if err := v.advance(); err != nil {
				return err
			}
			v.Draw()
		}
	}
}

// advance runs one frame of simulation.
func (v *Viewer) advance() error {
	if v.paused {
		return nil
	}
	for i := 0; i < v.speed; i++ {
		v.session.Step()
	}
	if !v.session.Finished() {
		return nil
	}
	v.finishedFor += v.tick
	if v.hold || v.finishedFor < advanceDelay {
		return nil
	}
	v.finishedFor = 0
	return v.session.Next()
}

// handleEvent applies a key or resize event. It returns false to quit.
func (v *Viewer) handleEvent(ev tcell.Event) (bool, error) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false, nil
		case tcell.KeyRune:
			switch unicode.ToLower(ev.Rune()) {
			case 'q':
				return false, nil
			case ' ':
				v.paused = !v.paused
			case 'n':
				v.finishedFor = 0
				return true, v.session.Next()
			case 'r':
				v.finishedFor = 0
				return true, v.session.Restart()
			case '+', '.', '=':
				v.speed = min(v.speed+1, maxSpeed)
			case '-', ',':
				v.speed = max(v.speed-1, 1)
			}
		}
	}
	return true, nil
}

// Draw renders the current snapshot.
func (v *Viewer) Draw() {
	s := v.session.Snapshot()
	v.screen.Clear()

	w, h := v.screen.Size()
	arenaW := max(w-sidebarWidth, 10)
	arenaH := max(h-2, 5)
	proj := NewProjection(s.Width, s.Height, arenaW, arenaH)

	v.drawArena(&s, proj)
	v.drawHeader(&s, w)
	v.drawSidebar(&s, arenaW+1)
	v.screen.Show()
}

func (v *Viewer) drawHeader(s *game.Snapshot, width int) {
	status := fmt.Sprintf(" %s (%d/%d)  t=%.1fs  x%d", s.Level, v.session.Index()+1, v.session.Len(), s.Time, v.speed)
	switch {
	case v.paused:
		status += "  PAUSED"
	case s.Complete:
		status += "  FINISHED: " + s.Reason
	case s.Countdown > 0:
		status += fmt.Sprintf("  countdown %.1fs", s.Countdown)
	}
	drawText(v.screen, 0, 0, width, status, styleText.Bold(true))
	drawText(v.screen, 0, 1, width, " space pause  n next  r restart  +/- speed  q quit", styleMuted)
}

func (v *Viewer) drawArena(s *game.Snapshot, p Projection) {
	const top = 2
	put := func(cx, cy int, r rune, st tcell.Style) {
		if cx < 0 || cy < 0 || cx >= p.Cols || cy >= p.Rows {
			return
		}
		v.screen.SetContent(cx, cy+top, r, nil, st)
	}

	for cy := 0; cy < p.Rows; cy++ {
		for cx := 0; cx < p.Cols; cx++ {
			wx, wy := p.Center(cx, cy)
			st := styleFloor
			switch {
			case s.Goal != nil && inRect(wx, wy, s.Goal.X, s.Goal.Y, s.Goal.W, s.Goal.H):
				st = styleGoal
			case s.GoalLine != nil && math.Abs(wy-*s.GoalLine) < p.CellH/2:
				st = styleGoal
			case inRect(wx, wy, s.Spawn.X, s.Spawn.Y, s.Spawn.W, s.Spawn.H):
				st = styleSpawn
			}
			r := ' '
			if cx == 0 || cx == p.Cols-1 || cy == 0 || cy == p.Rows-1 {
				r = '·'
				st = styleWall
			}
			put(cx, cy, r, st)
		}
	}

	for i := range s.Obstacles {
		o := &s.Obstacles[i]
		if o.Disabled {
			continue
		}
		glyph, ok := obstacleGlyphs[o.Behavior]
		if !ok {
			glyph = '#'
		}
		st := styleWall
		p.Cover(o.X, o.Y, o.Circle, o.Radius, o.HalfW, o.HalfH, o.Angle, func(cx, cy int) {
			put(cx, cy, glyph, st)
		})
	}

	for _, it := range s.Items {
		cx, cy := p.Cell(it.X, it.Y)
		put(cx, cy, '+', styleItem)
	}

	if b := s.Boss; b != nil && b.State != "dead" {
		p.Cover(b.X, b.Y, b.Circle, b.Size, b.Size, b.Size, 0, func(cx, cy int) {
			put(cx, cy, 'B', styleBoss)
		})
	}

	for _, pr := range s.Projectiles {
		cx, cy := p.Cell(pr.X, pr.Y)
		st := styleShot
		if pr.FromBoss {
			st = styleBossShot
		}
		put(cx, cy, '*', st)
	}

	for i := range s.Balls {
		b := &s.Balls[i]
		if b.Fade <= 0 {
			continue
		}
		cx, cy := p.Cell(b.X, b.Y)
		put(cx, cy, ballGlyph(b), ballStyle(b))
	}
}

func (v *Viewer) drawSidebar(s *game.Snapshot, x int) {
	w := sidebarWidth - 1
	y := 2
	drawText(v.screen, x, y, w, "Race", styleText.Bold(true))
	y++
	for _, i := range game.RaceOrder(s.Balls) {
		b := &s.Balls[i]
		line := fmt.Sprintf("%c %-8s %-10s %3.0f%%", ballGlyph(b), b.Name, b.Status, b.Progress*100)
		drawText(v.screen, x, y, w, line, ballStyle(b))
		y++
		if b.MaxHealth > 0 && !b.Finished && !b.Eliminated {
			drawText(v.screen, x+2, y, w-2, healthBar(b.Health/b.MaxHealth, 16), styleMuted)
			y++
		}
	}

	if boss := s.Boss; boss != nil {
		y++
		drawText(v.screen, x, y, w, fmt.Sprintf("Boss %s (%s)", boss.State, boss.Pattern), styleBoss)
		y++
		if boss.MaxHealth > 0 {
			drawText(v.screen, x+2, y, w-2, healthBar(boss.Health/boss.MaxHealth, 16), styleBoss)
			y++
		}
	}

	y++
	drawText(v.screen, x, y, w, "Chain", styleText.Bold(true))
	y++
	for _, st := range v.session.Standings() {
		drawText(v.screen, x, y, w, standingLine(st), styleText)
		y++
	}
}

func standingLine(st telemetry.ChainStanding) string {
	return fmt.Sprintf("%d. %-10s %3d pts %d W", st.Rank, st.Name, st.Points, st.Wins)
}

func ballGlyph(b *game.BallView) rune {
	for _, r := range b.Name {
		return unicode.ToUpper(r)
	}
	return 'o'
}

func ballStyle(b *game.BallView) tcell.Style {
	st := tcell.StyleDefault.Foreground(tcell.NewHexColor(int32(b.Color))).Bold(true)
	if b.Eliminated || b.Finished {
		st = st.Dim(true)
	}
	return st
}

func healthBar(frac float64, width int) string {
	frac = math.Max(0, math.Min(1, frac))
	filled := int(math.Round(frac * float64(width)))
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '█'
		} else {
			bar[i] = '░'
		}
	}
	return string(bar)
}

func drawText(s tcell.Screen, x, y, width int, text string, st tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= width {
			return
		}
		s.SetContent(x+col, y, r, nil, st)
		col++
	}
}

func inRect(x, y, rx, ry, rw, rh float64) bool {
	return x >= rx && x <= rx+rw && y >= ry && y <= ry+rh
}
