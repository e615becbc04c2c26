package systems

import "testing"

func TestSystemRegistry(t *testing.T) {
	reg := NewSystemRegistry()

	want := []string{"scheduler", "behavior", "physics", "resolve", "liveness", "outcome", "combat"}
	all := reg.All()
	if len(all) != len(want) {
		t.Fatalf("registry has %d systems, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("system %d = %q, want %q", i, all[i].ID, id)
		}
	}

	if got := reg.GetName("resolve"); got != "Bounce" {
		t.Errorf("GetName(resolve) = %q, want Bounce", got)
	}
	if got := reg.GetName("draw:ui"); got != "draw:ui" {
		t.Errorf("GetName of unknown id = %q, want the id", got)
	}
	if got := len(reg.ByCategory("motion")); got != 3 {
		t.Errorf("motion systems = %d, want 3", got)
	}
	if got := reg.Labels()["combat"]; got != "Combat" {
		t.Errorf("Labels()[combat] = %q, want Combat", got)
	}
}
