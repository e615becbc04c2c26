package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func TestOverlayRegistryDefaults(t *testing.T) {
	reg := NewOverlayRegistry()

	if got := reg.Categories(); len(got) != 2 || got[0] != "view" || got[1] != "debug" {
		t.Errorf("categories = %v, want [view debug]", got)
	}
	enabled := reg.EnabledOverlays()
	if len(enabled) != 2 || enabled[0] != OverlayNames || enabled[1] != OverlayZones {
		t.Errorf("enabled by default = %v, want [names zones]", enabled)
	}
}

func TestOverlayRegistryKeys(t *testing.T) {
	reg := NewOverlayRegistry()

	id, on, ok := reg.HandleKeyPress(rl.KeyV)
	if !ok || id != OverlayVelocity || !on {
		t.Fatalf("V press = (%s, %v, %v), want velocity on", id, on, ok)
	}
	if _, on, _ := reg.HandleKeyPress(rl.KeyV); on {
		t.Error("second V press left velocity on")
	}
	if _, _, ok := reg.HandleKeyPress(rl.KeyQ); ok {
		t.Error("unbound key toggled an overlay")
	}
}

func TestOverlayRegistryExclusive(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.Register(OverlayDescriptor{ID: "a", Category: "debug", Exclusive: []OverlayID{OverlayBodies}})

	reg.SetEnabled(OverlayBodies, true)
	reg.Toggle("a")
	if reg.IsEnabled(OverlayBodies) {
		t.Error("enabling an exclusive overlay left the other on")
	}
	if !reg.IsEnabled("a") {
		t.Error("toggled overlay not enabled")
	}
	if got := len(reg.ByCategory("debug")); got != 4 {
		t.Errorf("debug overlays = %d, want 4", got)
	}
}
