package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReplayVersion is incremented when the format changes.
const ReplayVersion = 1

// Replay holds what is needed to play a recorded race again: the chain seed,
// the level list and the time scale. Races in a chain share one random
// source, so a race is replayed by playing its chain up to Race.
type Replay struct {
	Version   int      `json:"version"`
	Seed      int64    `json:"seed"`
	Run       int      `json:"run"`
	Race      int      `json:"race"`
	Levels    []string `json:"levels"`
	TimeScale float64  `json:"time_scale"`

	Result   *RaceResult `json:"result,omitempty"`
	Bookmark *Bookmark   `json:"bookmark,omitempty"`
}

// SaveReplay writes a replay to disk.
// Returns the filepath where it was saved.
func SaveReplay(replay *Replay, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create replay dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("replay_%d_%d", replay.Run, replay.Race)
	if replay.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(replay.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("replay_%d_%d_%s", replay.Run, replay.Race, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(replay, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write replay: %w", err)
	}

	return path, nil
}

// LoadReplay reads a replay from disk.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}

	var replay Replay
	if err := json.Unmarshal(data, &replay); err != nil {
		return nil, fmt.Errorf("unmarshal replay: %w", err)
	}
	if replay.Version != ReplayVersion {
		return nil, fmt.Errorf("replay version %d, want %d", replay.Version, ReplayVersion)
	}
	if len(replay.Levels) == 0 || replay.Race < 0 || replay.Race >= len(replay.Levels) {
		return nil, fmt.Errorf("replay race %d outside %d levels", replay.Race, len(replay.Levels))
	}

	return &replay, nil
}
