package camera

import (
	"math"
)

// Mode is the active camera behaviour.
type Mode int

const (
	Idle Mode = iota
	SoftFocus
	Focused
	Hold
	Decay
	Anticipation
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case SoftFocus:
		return "soft_focus"
	case Focused:
		return "focused"
	case Hold:
		return "hold"
	case Decay:
		return "decay"
	case Anticipation:
		return "anticipation"
	default:
		return "unknown"
	}
}

// ClickKind distinguishes pointer buttons and multi-clicks.
type ClickKind string

const (
	Click       ClickKind = "click"
	DoubleClick ClickKind = "doubleClick"
	RightClick  ClickKind = "rightClick"
)

// Target is the clicked element's normalized bounding box.
type Target struct {
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	W        float64 `yaml:"w" json:"w"`
	H        float64 `yaml:"h" json:"h"`
	Category string  `yaml:"category,omitempty" json:"category,omitempty"`
}

// Area returns the normalized area, or 0 for a degenerate box.
func (t Target) Area() float64 {
	a := t.W * t.H
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return 0
	}
	return a
}

// ClickEvent is a pointer press during the recording.
type ClickEvent struct {
	X      float64   `yaml:"x" json:"x"`
	Y      float64   `yaml:"y" json:"y"`
	T      float64   `yaml:"t" json:"t"`
	Kind   ClickKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Target *Target   `yaml:"target,omitempty" json:"target,omitempty"`
}

// Viewport is the rendered frame size in pixels.
type Viewport struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Valid reports whether the viewport has a usable area.
func (v Viewport) Valid() bool {
	return !math.IsNaN(v.Width) && !math.IsNaN(v.Height) &&
		!math.IsInf(v.Width, 0) && !math.IsInf(v.Height, 0) &&
		v.Width > 0 && v.Height > 0
}

// Transform is what the renderer applies to the captured content: scale
// about the viewport center, then translate in pixels, then rotate
// (degrees). Vignette is an overlay strength in [0,1].
type Transform struct {
	Scale      float64 `yaml:"scale" json:"scale"`
	TranslateX float64 `yaml:"translate_x" json:"translate_x"`
	TranslateY float64 `yaml:"translate_y" json:"translate_y"`
	Rotation   float64 `yaml:"rotation" json:"rotation"`
	Vignette   float64 `yaml:"vignette" json:"vignette"`
}

// Neutral is the untouched view.
func Neutral() Transform {
	return Transform{Scale: 1}
}

// Velocity holds the per-channel spring velocities.
type Velocity struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
	Rotation   float64
}

// Source names what produced the current target.
type Source int

const (
	FromIdle Source = iota
	FromPolicy
	FromTimeline
	FromAnchor
)

func (s Source) String() string {
	switch s {
	case FromPolicy:
		return "policy"
	case FromTimeline:
		return "timeline"
	case FromAnchor:
		return "anchor"
	default:
		return "idle"
	}
}
