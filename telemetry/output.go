package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/bounce/config"
)

// csvFile is an output file that writes its header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func writeRows[T any](cf *csvFile, rows []T, what string) error {
	if len(rows) == 0 {
		return nil
	}
	if !cf.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(rows, cf.f); err != nil {
			return fmt.Errorf("writing %s: %w", what, err)
		}
		cf.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, cf.f); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}

// OutputManager handles structured bulk-run output with CSV logging.
type OutputManager struct {
	dir        string
	races      csvFile
	placements csvFile
	weapons    csvFile
	chains     csvFile
	perf       csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		cf   *csvFile
	}{
		{"races.csv", &om.races},
		{"placements.csv", &om.placements},
		{"weapons.csv", &om.weapons},
		{"chains.csv", &om.chains},
		{"perf.csv", &om.perf},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		file.cf.f = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteRace writes one race to races.csv, its placements to placements.csv
// and its weapon usage to weapons.csv.
func (om *OutputManager) WriteRace(r RaceResult) error {
	if om == nil {
		return nil
	}
	if err := writeRows(&om.races, []RaceResult{r}, "race"); err != nil {
		return err
	}

	placements := make([]Placement, len(r.Placements))
	for i, p := range r.Placements {
		p.Run, p.Race = r.Run, r.Race
		placements[i] = p
	}
	if err := writeRows(&om.placements, placements, "placements"); err != nil {
		return err
	}

	weapons := make([]WeaponUsage, len(r.Weapons))
	for i, w := range r.Weapons {
		w.Run, w.Race = r.Run, r.Race
		weapons[i] = w
	}
	return writeRows(&om.weapons, weapons, "weapons")
}

// WriteChain writes a chain record to chains.csv.
func (om *OutputManager) WriteChain(c ChainResult) error {
	if om == nil {
		return nil
	}
	return writeRows(&om.chains, []ChainResult{c}, "chain")
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, run, race, ticks int) error {
	if om == nil {
		return nil
	}
	return writeRows(&om.perf, []PerfStatsCSV{stats.ToCSV(run, race, ticks)}, "perf")
}

// WriteSummary saves the per-ball summary as balls.csv and the full summary as JSON.
func (om *OutputManager) WriteSummary(s Summary) error {
	if om == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "balls.csv"))
	if err != nil {
		return fmt.Errorf("creating balls.csv: %w", err)
	}
	defer f.Close()
	if err := gocsv.Marshal(s.Balls, f); err != nil {
		return fmt.Errorf("writing balls.csv: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, cf := range []*csvFile{&om.races, &om.placements, &om.weapons, &om.chains, &om.perf} {
		if cf.f == nil {
			continue
		}
		if err := cf.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		cf.f = nil
	}
	return firstErr
}
