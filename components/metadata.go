package components

import "fmt"

// FieldDescriptor describes a ball field for HUD display.
type FieldDescriptor struct {
	ID     string // Unique identifier
	Label  string // Display name
	Format string // Printf format (e.g., "%.2f")
	Max    float64
	IsBar  bool // True to render as progress bar
}

// BallFieldDescriptors returns the fields shown for each ball in the HUD.
func BallFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "health", Label: "HP", Format: "%.0f", Max: 1, IsBar: true},
		{ID: "progress", Label: "Progress", Format: "%.0f%%", Max: 1, IsBar: true},
		{ID: "damage", Label: "Boss dmg", Format: "%.0f"},
		{ID: "status", Label: "Status"},
	}
}

// Status returns a short label for the ball's race state.
func (b *Ball) Status() string {
	switch {
	case b.Eliminated:
		return b.Reason
	case b.Finished && b.TimedOut:
		return fmt.Sprintf("#%d (time)", b.Rank)
	case b.Finished:
		return fmt.Sprintf("#%d", b.Rank)
	}
	return "racing"
}

// FieldValue returns the display string and bar fraction for a descriptor.
func (b *Ball) FieldValue(d FieldDescriptor) (string, float64) {
	switch d.ID {
	case "health":
		frac := 0.0
		if b.MaxHealth > 0 {
			frac = b.Health / b.MaxHealth
		}
		return fmt.Sprintf(d.Format, b.Health), frac
	case "progress":
		return fmt.Sprintf(d.Format, b.Progress*100), b.Progress
	case "damage":
		return fmt.Sprintf(d.Format, b.DamageDealt), 0
	case "status":
		return b.Status(), 0
	}
	return "", 0
}
