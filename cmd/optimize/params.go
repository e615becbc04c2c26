// Package main provides CMA-ES tuning of the bounce and liveness constants.
package main

import (
	"github.com/pthm-cable/bounce/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Integer-valued settings (trap threshold, stuck samples) stay fixed.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Bounce
			{Name: "twist_min", Path: "bounce.twist_min", Min: 0.05, Max: 0.4,
				field: func(c *config.Config) *float64 { return &c.Bounce.TwistMin }},
			{Name: "twist_max", Path: "bounce.twist_max", Min: 0.45, Max: 1.0,
				field: func(c *config.Config) *float64 { return &c.Bounce.TwistMax }},
			{Name: "corner_margin", Path: "bounce.corner_margin", Min: 10, Max: 80,
				field: func(c *config.Config) *float64 { return &c.Bounce.CornerMargin }},
			{Name: "corner_jitter", Path: "bounce.corner_jitter", Min: 0.05, Max: 0.6,
				field: func(c *config.Config) *float64 { return &c.Bounce.CornerJitter }},
			{Name: "trap_window", Path: "bounce.trap_window", Min: 0.5, Max: 3.0,
				field: func(c *config.Config) *float64 { return &c.Bounce.TrapWindow }},
			{Name: "trap_escape_factor", Path: "bounce.trap_escape_factor", Min: 1.0, Max: 2.5,
				field: func(c *config.Config) *float64 { return &c.Bounce.TrapEscapeFactor }},
			{Name: "slide_threshold", Path: "bounce.slide_threshold", Min: 0.1, Max: 1.0,
				field: func(c *config.Config) *float64 { return &c.Bounce.SlideThreshold }},
			{Name: "slide_factor", Path: "bounce.slide_factor", Min: 1.0, Max: 2.0,
				field: func(c *config.Config) *float64 { return &c.Bounce.SlideFactor }},
			// Liveness
			{Name: "energy_loss", Path: "liveness.energy_loss", Min: 0.5, Max: 1.0,
				field: func(c *config.Config) *float64 { return &c.Liveness.EnergyLoss }},
			{Name: "stuck_window", Path: "liveness.stuck_window", Min: 0.5, Max: 2.5,
				field: func(c *config.Config) *float64 { return &c.Liveness.StuckWindow }},
			{Name: "stuck_threshold", Path: "liveness.stuck_threshold", Min: 4, Max: 30,
				field: func(c *config.Config) *float64 { return &c.Liveness.StuckThreshold }},
			{Name: "stuck_escape_factor", Path: "liveness.stuck_escape_factor", Min: 1.0, Max: 2.5,
				field: func(c *config.Config) *float64 { return &c.Liveness.StuckEscapeFactor }},
			{Name: "drift_nudge", Path: "liveness.drift_nudge", Min: 0.05, Max: 0.4,
				field: func(c *config.Config) *float64 { return &c.Liveness.DriftNudge }},
			{Name: "drift_wall_nudge", Path: "liveness.drift_wall_nudge", Min: 0.1, Max: 0.7,
				field: func(c *config.Config) *float64 { return &c.Liveness.DriftWallNudge }},
			{Name: "min_speed_factor", Path: "liveness.min_speed_factor", Min: 0.2, Max: 0.9,
				field: func(c *config.Config) *float64 { return &c.Liveness.MinSpeedFactor }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
