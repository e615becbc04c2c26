package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bounce/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Nil managers accept every call.
	if err := om.WriteRace(RaceResult{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesHeadersOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for run := 0; run < 2; run++ {
		r := race(run, run == 1, "Red", "Blue")
		if err := om.WriteRace(r); err != nil {
			t.Fatalf("WriteRace: %v", err)
		}
	}
	if err := om.WriteChain(ChainResult{Run: 0, Races: 2, Winner: "Red"}); err != nil {
		t.Fatalf("WriteChain: %v", err)
	}
	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "races.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("races.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.Contains(lines[0], "force_finishes") {
		t.Errorf("diagnostic columns missing from header: %s", lines[0])
	}

	f, err := os.Open(filepath.Join(dir, "placements.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var placements []Placement
	if err := gocsv.UnmarshalFile(f, &placements); err != nil {
		t.Fatalf("reading placements: %v", err)
	}
	if len(placements) != 4 || placements[2].Run != 1 || placements[2].Name != "Red" {
		t.Errorf("placements = %+v", placements)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}

func TestOutputManagerSummary(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	a := NewAggregator()
	a.AddRace(race(0, false, "Red", "Blue"))
	if err := om.WriteSummary(a.Summary()); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	for _, name := range []string{"balls.csv", "summary.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}
