// Package effects holds externally authored camera moves placed on the
// recording timeline. While a window is active it overrides whatever the
// camera would derive from the pointer.
package effects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ivlev/democam/internal/ease"
)

// Easing curves a window can use for its ramp.
const (
	EaseLinear = "linear"
	EaseCubic  = "cubic"
	EaseHold   = "hold"
)

// DefaultRamp is the ramp length used when a window does not set one.
const DefaultRamp = 0.4

var ErrInvalidWindow = errors.New("invalid effect window")

// Window is a zoom/pan move over [Start, End). X and Y are the normalized
// point to frame, Rotation is in degrees.
type Window struct {
	Start    float64 `yaml:"start" json:"start"`
	End      float64 `yaml:"end" json:"end"`
	Scale    float64 `yaml:"scale" json:"scale"`
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Rotation float64 `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Ease     string  `yaml:"ease,omitempty" json:"ease,omitempty"`
	Ramp     float64 `yaml:"ramp,omitempty" json:"ramp,omitempty"`
	Label    string  `yaml:"label,omitempty" json:"label,omitempty"`
}

// Target is the framing a window asks for at some instant.
type Target struct {
	Scale    float64
	X, Y     float64
	Rotation float64
	Label    string
}

// Validate checks that w can be evaluated.
func (w Window) Validate() error {
	if !ease.Finite(w.Start, w.End, w.Scale, w.X, w.Y, w.Rotation, w.Ramp) {
		return fmt.Errorf("%w %q: non-finite field", ErrInvalidWindow, w.Label)
	}
	if w.End <= w.Start {
		return fmt.Errorf("%w %q: end %.3f is not after start %.3f", ErrInvalidWindow, w.Label, w.End, w.Start)
	}
	if w.Scale < 1 {
		return fmt.Errorf("%w %q: scale %.3f below 1", ErrInvalidWindow, w.Label, w.Scale)
	}
	switch strings.ToLower(w.Ease) {
	case "", EaseLinear, EaseCubic, EaseHold:
	default:
		return fmt.Errorf("%w %q: unknown ease %q", ErrInvalidWindow, w.Label, w.Ease)
	}
	return nil
}

// Validate checks every window.
func Validate(ws []Window) error {
	for i, w := range ws {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("window %d: %w", i, err)
		}
	}
	return nil
}

// Active returns the target of the window covering t. When windows overlap
// the one that started last wins. Invalid windows are ignored.
func Active(ws []Window, t float64) (Target, bool) {
	best := -1
	for i, w := range ws {
		if t < w.Start || t >= w.End || w.Validate() != nil {
			continue
		}
		if best < 0 || w.Start >= ws[best].Start {
			best = i
		}
	}
	if best < 0 {
		return Target{}, false
	}
	return ws[best].At(t), true
}

// At evaluates w at t. The ramp eases from neutral into the window's
// framing at the start; the camera springs handle the way out.
func (w Window) At(t float64) Target {
	ramp := w.Ramp
	if ramp <= 0 {
		ramp = DefaultRamp
	}
	if d := w.End - w.Start; ramp > d {
		ramp = d
	}
	u := ease.Clamp01((t - w.Start) / ramp)
	switch strings.ToLower(w.Ease) {
	case EaseLinear:
	case EaseHold:
		u = 1
	default:
		u = ease.InOutCubic(u)
	}
	return Target{
		Scale:    ease.Lerp(1, w.Scale, u),
		X:        ease.Lerp(0.5, ease.Clamp01(w.X), u),
		Y:        ease.Lerp(0.5, ease.Clamp01(w.Y), u),
		Rotation: ease.Lerp(0, w.Rotation, u),
		Label:    w.Label,
	}
}
