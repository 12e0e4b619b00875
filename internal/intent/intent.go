// Package intent classifies how the user is driving the pointer and turns
// recognizable pointer shapes into discrete camera commands.
//
// The thresholds are empirical. They live in Config so they can be re-tuned
// against recorded fixtures.
package intent

import (
	"math"

	"github.com/ivlev/democam/internal/ease"
)

// Class is the interaction style inferred from recent pointer motion.
type Class int

const (
	None Class = iota
	Reading
	Scanning
	Targeting
	Gesturing
)

func (c Class) String() string {
	switch c {
	case Reading:
		return "reading"
	case Scanning:
		return "scanning"
	case Targeting:
		return "targeting"
	case Gesturing:
		return "gesturing"
	default:
		return "none"
	}
}

// Preset is the camera tuning recommended for a class.
type Preset struct {
	Stiffness float64 // multiplier on spring stiffness
	Damping   float64 // multiplier on damping ratio
	Lookahead float64 // seconds of velocity anticipation
}

// Preset returns the camera tuning for c. None and unknown classes keep the
// planner defaults; their Lookahead is negative to mean "use the configured
// value".
func (c Class) Preset() Preset {
	switch c {
	case Reading:
		return Preset{Stiffness: 0.7, Damping: 1.2, Lookahead: 0.05}
	case Scanning:
		return Preset{Stiffness: 1.0, Damping: 1.0, Lookahead: 0.15}
	case Targeting:
		return Preset{Stiffness: 1.35, Damping: 1.0, Lookahead: 0.08}
	case Gesturing:
		return Preset{Stiffness: 0.8, Damping: 1.3, Lookahead: 0}
	default:
		return Preset{Stiffness: 1, Damping: 1, Lookahead: -1}
	}
}

// Config holds the classification and gesture thresholds. Distances are
// normalized to the viewport, speeds are per second.
type Config struct {
	Window     float64 `yaml:"window" json:"window"`
	MinSamples int     `yaml:"min_samples" json:"min_samples"`

	ReadSpeed        float64 `yaml:"read_speed" json:"read_speed"`
	ScanSpeed        float64 `yaml:"scan_speed" json:"scan_speed"`
	TargetAccel      float64 `yaml:"target_accel" json:"target_accel"`
	GestureReversals float64 `yaml:"gesture_reversals" json:"gesture_reversals"` // per second
	MotionFloor      float64 `yaml:"motion_floor" json:"motion_floor"`

	GestureSpan     float64 `yaml:"gesture_span" json:"gesture_span"`
	GestureCooldown float64 `yaml:"gesture_cooldown" json:"gesture_cooldown"`
	MinPath         float64 `yaml:"min_path" json:"min_path"`
	CircleSweep     float64 `yaml:"circle_sweep" json:"circle_sweep"` // radians
	CircleClosure   float64 `yaml:"circle_closure" json:"circle_closure"`
	CircleRadius    float64 `yaml:"circle_radius" json:"circle_radius"`
	SwipeSpan       float64 `yaml:"swipe_span" json:"swipe_span"`
	SwipeDistance   float64 `yaml:"swipe_distance" json:"swipe_distance"`
	SwipeStraight   float64 `yaml:"swipe_straight" json:"swipe_straight"`
	StationarySpeed float64 `yaml:"stationary_speed" json:"stationary_speed"`
	StationaryMin   float64 `yaml:"stationary_min" json:"stationary_min"`
	JumpMax         float64 `yaml:"jump_max" json:"jump_max"`
	JumpDistance    float64 `yaml:"jump_distance" json:"jump_distance"`
	WiggleReversals int     `yaml:"wiggle_reversals" json:"wiggle_reversals"`
	WiggleExtent    float64 `yaml:"wiggle_extent" json:"wiggle_extent"`
}

// DefaultConfig returns the tuned thresholds.
func DefaultConfig() Config {
	return Config{
		Window:     1.0,
		MinSamples: 6,

		ReadSpeed:        0.08,
		ScanSpeed:        0.45,
		TargetAccel:      4.0,
		GestureReversals: 4.0,
		MotionFloor:      0.02,

		GestureSpan:     1.2,
		GestureCooldown: 1.0,
		MinPath:         0.15,
		CircleSweep:     1.7 * math.Pi,
		CircleClosure:   0.35,
		CircleRadius:    0.02,
		SwipeSpan:       0.5,
		SwipeDistance:   0.2,
		SwipeStraight:   0.92,
		StationarySpeed: 0.02,
		StationaryMin:   0.15,
		JumpMax:         0.35,
		JumpDistance:    0.2,
		WiggleReversals: 4,
		WiggleExtent:    0.12,
	}
}

// Normalize replaces unusable fields with their defaults.
func (c Config) Normalize() Config {
	d := DefaultConfig()
	pos := func(v *float64, def float64) {
		if !ease.Finite(*v) || *v <= 0 {
			*v = def
		}
	}
	pos(&c.Window, d.Window)
	pos(&c.ReadSpeed, d.ReadSpeed)
	pos(&c.ScanSpeed, d.ScanSpeed)
	pos(&c.TargetAccel, d.TargetAccel)
	pos(&c.GestureReversals, d.GestureReversals)
	pos(&c.MotionFloor, d.MotionFloor)
	pos(&c.GestureSpan, d.GestureSpan)
	pos(&c.GestureCooldown, d.GestureCooldown)
	pos(&c.MinPath, d.MinPath)
	pos(&c.CircleSweep, d.CircleSweep)
	pos(&c.CircleClosure, d.CircleClosure)
	pos(&c.CircleRadius, d.CircleRadius)
	pos(&c.SwipeSpan, d.SwipeSpan)
	pos(&c.SwipeDistance, d.SwipeDistance)
	pos(&c.SwipeStraight, d.SwipeStraight)
	pos(&c.StationarySpeed, d.StationarySpeed)
	pos(&c.StationaryMin, d.StationaryMin)
	pos(&c.JumpMax, d.JumpMax)
	pos(&c.JumpDistance, d.JumpDistance)
	pos(&c.WiggleExtent, d.WiggleExtent)
	if c.MinSamples <= 1 {
		c.MinSamples = d.MinSamples
	}
	if c.WiggleReversals <= 0 {
		c.WiggleReversals = d.WiggleReversals
	}
	return c
}
