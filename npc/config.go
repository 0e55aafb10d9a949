package npc

import (
	"errors"
	"fmt"
)

// Config holds every tunable threshold of the controller. Intervals are in
// ticks, angles in degrees, distances in world units, speeds in units/s.
type Config struct {
	TickRate int `yaml:"tick_rate"`

	// Waypoints.
	MinWaypointClearance float64 `yaml:"min_waypoint_clearance"`
	ReachDistance        float64 `yaml:"reach_distance"`
	RelevanceDistance    float64 `yaml:"relevance_distance"`
	StuckEpsilon         float64 `yaml:"stuck_epsilon"`
	StuckTicks           int     `yaml:"stuck_ticks"`
	LoopWaypoints        bool    `yaml:"loop_waypoints"`
	SnapToSurface        bool    `yaml:"snap_to_surface"`
	SnapAbove            float64 `yaml:"snap_above"`
	SnapBelow            float64 `yaml:"snap_below"`

	// Ground following.
	GroundProbeUp        float64 `yaml:"ground_probe_up"`
	GroundProbeDown      float64 `yaml:"ground_probe_down"`
	GroundSampleInterval int     `yaml:"ground_sample_interval"`
	SteepGroundDeg       float64 `yaml:"steep_ground_deg"`
	UpBlend              float64 `yaml:"up_blend"`
	UpDeadZoneDeg        float64 `yaml:"up_dead_zone_deg"`

	// Obstacle sweep.
	CastHeight    float64 `yaml:"cast_height"`
	SweepStepDeg  float64 `yaml:"sweep_step_deg"`
	SweepMaxDeg   float64 `yaml:"sweep_max_deg"`
	ProbeRange    float64 `yaml:"probe_range"`
	ProbeGrowth   float64 `yaml:"probe_growth"`
	SlopeLimitDeg float64 `yaml:"slope_limit_deg"`
	ClipFactor    float64 `yaml:"clip_factor"`
	SweepInterval int     `yaml:"sweep_interval"`

	// Locomotion.
	BaseSpeed         float64 `yaml:"base_speed"`
	AttackSpeedFactor float64 `yaml:"attack_speed_factor"`
	FastFactor        float64 `yaml:"fast_factor"`
	ForceMagnitude    float64 `yaml:"force_magnitude"`
	VelocityDeadband  float64 `yaml:"velocity_deadband"`

	// Combat.
	AcquisitionRadius float64 `yaml:"acquisition_radius"`
	AcquireInterval   int     `yaml:"acquire_interval"`
	EngagementRange   float64 `yaml:"engagement_range"`
	DropRangeFactor   float64 `yaml:"drop_range_factor"`
	AttacksPerSecond  float64 `yaml:"attacks_per_second"`
	Damage            float64 `yaml:"damage"`
	LOSRetryLimit     int     `yaml:"los_retry_limit"`
	MuzzleUp          float64 `yaml:"muzzle_up"`
	MuzzleForward     float64 `yaml:"muzzle_forward"`
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		TickRate: 60,

		MinWaypointClearance: 2.0,
		ReachDistance:        2.5,
		RelevanceDistance:    150,
		StuckEpsilon:         0.005,
		StuckTicks:           10,
		SnapAbove:            5,
		SnapBelow:            15,

		GroundProbeUp:        0.5,
		GroundProbeDown:      1.5,
		GroundSampleInterval: 10,
		SteepGroundDeg:       45,
		UpBlend:              0.6,
		UpDeadZoneDeg:        3,

		CastHeight:    1.0,
		SweepStepDeg:  30,
		SweepMaxDeg:   330,
		ProbeRange:    35,
		ProbeGrowth:   3,
		SlopeLimitDeg: 44,
		ClipFactor:    0.9,
		SweepInterval: 40,

		BaseSpeed:         4,
		AttackSpeedFactor: 0.4,
		FastFactor:        2,
		ForceMagnitude:    1200,
		VelocityDeadband:  0.05,

		AcquisitionRadius: 60,
		AcquireInterval:   50,
		EngagementRange:   40,
		DropRangeFactor:   2,
		AttacksPerSecond:  2,
		Damage:            10,
		LOSRetryLimit:     3,
		MuzzleUp:          0.6,
		MuzzleForward:     0.6,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, field, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("npc: config %s: "+format, append([]any{field}, args...)...))
		}
	}

	check(c.TickRate > 0, "tick_rate", "must be positive, got %d", c.TickRate)
	check(c.MinWaypointClearance >= 0, "min_waypoint_clearance", "must not be negative")
	check(c.ReachDistance > 0, "reach_distance", "must be positive")
	check(c.RelevanceDistance > c.ReachDistance, "relevance_distance", "must exceed reach_distance")
	check(c.StuckEpsilon >= 0, "stuck_epsilon", "must not be negative")
	check(c.StuckTicks > 0, "stuck_ticks", "must be positive")
	check(c.SnapAbove >= 0 && c.SnapBelow > 0, "snap_above/snap_below", "need a downward span")

	check(c.GroundProbeDown > 0, "ground_probe_down", "must be positive")
	check(c.GroundSampleInterval > 0, "ground_sample_interval", "must be positive")
	check(c.SteepGroundDeg > 0 && c.SteepGroundDeg <= 90, "steep_ground_deg", "must be in (0, 90]")
	check(c.UpBlend > 0 && c.UpBlend <= 1, "up_blend", "must be in (0, 1]")
	check(c.UpDeadZoneDeg >= 0, "up_dead_zone_deg", "must not be negative")

	check(c.SweepStepDeg > 0, "sweep_step_deg", "must be positive")
	check(c.SweepMaxDeg >= 0 && c.SweepMaxDeg < 360, "sweep_max_deg", "must be in [0, 360)")
	check(c.ProbeRange > 0, "probe_range", "must be positive")
	check(c.ProbeGrowth >= 0, "probe_growth", "must not be negative")
	check(c.SlopeLimitDeg > 0 && c.SlopeLimitDeg <= 90, "slope_limit_deg", "must be in (0, 90]")
	check(c.ClipFactor > 0 && c.ClipFactor <= 1, "clip_factor", "must be in (0, 1]")
	check(c.SweepInterval > 0, "sweep_interval", "must be positive")

	check(c.BaseSpeed >= 0, "base_speed", "must not be negative")
	check(c.AttackSpeedFactor >= 0, "attack_speed_factor", "must not be negative")
	check(c.FastFactor >= 1, "fast_factor", "must be at least 1")
	check(c.ForceMagnitude >= 0, "force_magnitude", "must not be negative")
	check(c.VelocityDeadband >= 0, "velocity_deadband", "must not be negative")

	check(c.AcquireInterval > 0, "acquire_interval", "must be positive")
	check(c.EngagementRange > 0, "engagement_range", "must be positive")
	check(c.DropRangeFactor >= 1, "drop_range_factor", "must be at least 1")
	check(c.AcquisitionRadius > 0 && c.AcquisitionRadius <= c.EngagementRange*c.DropRangeFactor,
		"acquisition_radius", "must be positive and within the drop range %.1f", c.EngagementRange*c.DropRangeFactor)
	check(c.AttacksPerSecond > 0, "attacks_per_second", "must be positive")
	check(c.Damage >= 0, "damage", "must not be negative")
	check(c.LOSRetryLimit > 0, "los_retry_limit", "must be positive")

	return errors.Join(errs...)
}

func (c Config) tickSeconds() float64 {
	return 1 / float64(c.TickRate)
}

func (c Config) attackPeriod() float64 {
	return 1 / c.AttacksPerSecond
}

func (c Config) dropRange() float64 {
	return c.EngagementRange * c.DropRangeFactor
}
