package systems

// SystemInfo describes a race system for UI display.
type SystemInfo struct {
	ID          string // Phase name used for perf tracking
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "motion", "rules")
}

// SystemRegistry holds metadata about the systems of the substep pipeline.
// IDs match the perf phase names so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the pipeline systems in execution order.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: "scheduler", Name: "Scheduler", Description: "Fires due timers and boss attacks", Category: "core"})
	r.Register(SystemInfo{ID: "behavior", Name: "Obstacles", Description: "Moves rotating, moving, crusher and keyframe obstacles", Category: "motion"})
	r.Register(SystemInfo{ID: "physics", Name: "Physics", Description: "Integrates bodies and detects contacts", Category: "motion"})
	r.Register(SystemInfo{ID: "resolve", Name: "Bounce", Description: "Resolves contacts with twist, trap and slide escapes", Category: "motion"})
	r.Register(SystemInfo{ID: "liveness", Name: "Liveness", Description: "Clamps, unsticks and keeps balls at speed", Category: "rules"})
	r.Register(SystemInfo{ID: "outcome", Name: "Outcome", Description: "Finishes, countdown and time budget", Category: "rules"})
	r.Register(SystemInfo{ID: "combat", Name: "Combat", Description: "Weapons, projectiles and damage", Category: "rules"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns systems filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// Labels returns the display name of every system keyed by ID.
func (r *SystemRegistry) Labels() map[string]string {
	labels := make(map[string]string, len(r.systems))
	for _, info := range r.systems {
		labels[info.ID] = info.Name
	}
	return labels
}
