// Package director turns a dense per-frame camera path into a compact list
// of keyframes and stores it as a YAML scenario.
package director

import (
	"fmt"
	"math"

	"github.com/ivlev/democam/internal/camera"
)

// Sample is the camera output at one rendered frame.
type Sample struct {
	Time      float64
	Mode      camera.Mode
	Transform camera.Transform
}

// Director reduces camera paths to keyframes
type Director struct {
	ViewportWidth  int
	ViewportHeight int

	// A sample is dropped when linear interpolation between its neighbours
	// reproduces it within these tolerances.
	ZoomTolerance     float64
	PanTolerance      float64 // pixels
	RotationTolerance float64 // degrees
}

// NewDirector creates a new Director with default settings
func NewDirector(viewportWidth, viewportHeight int) *Director {
	return &Director{
		ViewportWidth:     viewportWidth,
		ViewportHeight:    viewportHeight,
		ZoomTolerance:     0.004,
		PanTolerance:      1.5,
		RotationTolerance: 0.05,
	}
}

// Direct builds a track from the samples of one recording.
func (d *Director) Direct(samples []Sample, input string, duration float64, fps int) (*Track, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no camera samples for %s", input)
	}
	if d.ViewportWidth <= 0 || d.ViewportHeight <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", d.ViewportWidth, d.ViewportHeight)
	}

	kept := d.Reduce(samples)
	keyframes := make([]Keyframe, 0, len(kept))
	for _, s := range kept {
		keyframes = append(keyframes, d.keyframe(s))
	}

	return &Track{
		Input:     input,
		Duration:  duration,
		FPS:       fps,
		Width:     d.ViewportWidth,
		Height:    d.ViewportHeight,
		Keyframes: keyframes,
	}, nil
}

// Reduce keeps the samples needed to rebuild the path within tolerance.
// Endpoints and every mode change are always kept.
func (d *Director) Reduce(samples []Sample) []Sample {
	if len(samples) <= 2 {
		return append([]Sample(nil), samples...)
	}

	keep := make([]bool, len(samples))
	keep[0] = true
	keep[len(samples)-1] = true
	start := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].Mode != samples[i-1].Mode {
			keep[i-1] = true
			keep[i] = true
			d.simplify(samples, start, i-1, keep)
			start = i
		}
	}
	d.simplify(samples, start, len(samples)-1, keep)

	out := make([]Sample, 0, len(samples)/4+2)
	for i, k := range keep {
		if k {
			out = append(out, samples[i])
		}
	}
	return out
}

// simplify is Ramer-Douglas-Peucker over [lo, hi] with time as the axis.
func (d *Director) simplify(samples []Sample, lo, hi int, keep []bool) {
	if hi-lo < 2 {
		return
	}
	worst, at := 0.0, -1
	for i := lo + 1; i < hi; i++ {
		if e := d.deviation(samples[lo], samples[hi], samples[i]); e > worst {
			worst, at = e, i
		}
	}
	if worst <= 1 {
		return
	}
	keep[at] = true
	d.simplify(samples, lo, at, keep)
	d.simplify(samples, at, hi, keep)
}

// deviation is how far s is from the a-b segment, in units of tolerance.
func (d *Director) deviation(a, b, s Sample) float64 {
	span := b.Time - a.Time
	u := 0.0
	if span > 0 {
		u = (s.Time - a.Time) / span
	}
	at := func(x, y float64) float64 { return x + (y-x)*u }

	ta, tb := a.Transform, b.Transform
	return d.Deviation(s.Transform, camera.Transform{
		Scale:      at(ta.Scale, tb.Scale),
		TranslateX: at(ta.TranslateX, tb.TranslateX),
		TranslateY: at(ta.TranslateY, tb.TranslateY),
		Rotation:   at(ta.Rotation, tb.Rotation),
	})
}

// Deviation is the largest difference between two transforms in units of
// tolerance. Values up to 1 are within tolerance. Vignette is not compared.
func (d *Director) Deviation(want, got camera.Transform) float64 {
	ratio := func(diff, tol float64) float64 {
		if tol <= 0 {
			if diff == 0 {
				return 0
			}
			return math.Inf(1)
		}
		return math.Abs(diff) / tol
	}
	e := ratio(want.Scale-got.Scale, d.ZoomTolerance)
	e = math.Max(e, ratio(want.TranslateX-got.TranslateX, d.PanTolerance))
	e = math.Max(e, ratio(want.TranslateY-got.TranslateY, d.PanTolerance))
	e = math.Max(e, ratio(want.Rotation-got.Rotation, d.RotationTolerance))
	return e
}

func (d *Director) keyframe(s Sample) Keyframe {
	t := s.Transform
	return Keyframe{
		Time:     s.Time,
		Focus:    s.Mode.String(),
		Zoom:     t.Scale,
		X:        t.TranslateX,
		Y:        t.TranslateY,
		Rotation: t.Rotation,
		Vignette: t.Vignette,
		Rect:     VisibleRect(t, d.ViewportWidth, d.ViewportHeight),
	}
}

// VisibleRect is the region of the recording shown by t: the content point
// p lands on screen at c + (p-c)·scale + T, so the frame shows a box of
// size W/scale centered at c - T/scale.
func VisibleRect(t camera.Transform, width, height int) Rectangle {
	s := t.Scale
	if s < 1 || math.IsNaN(s) {
		s = 1
	}
	w, h := float64(width), float64(height)
	vw, vh := w/s, h/s
	x := w/2 - t.TranslateX/s - vw/2
	y := h/2 - t.TranslateY/s - vh/2
	return Rectangle{
		X: int(math.Round(x)),
		Y: int(math.Round(y)),
		W: int(math.Round(vw)),
		H: int(math.Round(vh)),
	}
}
