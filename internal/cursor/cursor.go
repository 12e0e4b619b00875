// Package cursor interpolates pointer telemetry.
//
// Samples arrive sparse and sometimes out of order. A Sampler keeps a sorted,
// sanitized copy of the last sequence it saw, keyed by the identity of the
// slice (address of the first element and length), so a caller that passes the
// same recording every frame pays for sorting once. Callers that mutate a
// sequence in place must call Invalidate.
package cursor

import (
	"math"
	"sort"

	"github.com/ivlev/democam/internal/ease"
)

// Sample is a pointer position at a moment of the recording.
type Sample struct {
	X float64 `yaml:"x" json:"x"` // normalized [0,1]
	Y float64 `yaml:"y" json:"y"` // normalized [0,1]
	T float64 `yaml:"t" json:"t"` // seconds from recording start
}

// Sampler answers position and velocity queries over a sample sequence.
// The zero value is ready to use. A nil *Sampler works too, without caching.
type Sampler struct {
	src    *Sample
	n      int
	sorted []Sample
}

// Invalidate drops the cached sequence.
func (s *Sampler) Invalidate() {
	if s == nil {
		return
	}
	s.src = nil
	s.n = 0
	s.sorted = nil
}

// Sorted returns the sanitized, time-ordered view of samples.
func (s *Sampler) Sorted(samples []Sample) []Sample {
	if len(samples) == 0 {
		return nil
	}
	if s == nil {
		return prepare(samples)
	}
	if s.src == &samples[0] && s.n == len(samples) {
		return s.sorted
	}
	s.src = &samples[0]
	s.n = len(samples)
	s.sorted = prepare(samples)
	return s.sorted
}

// Position returns the interpolated pointer position at t.
// Before the first sample it holds the first position and after the last it
// holds the last one. ok is false when there are no usable samples.
func (s *Sampler) Position(t float64, samples []Sample) (x, y float64, ok bool) {
	seq := s.Sorted(samples)
	if len(seq) == 0 {
		return 0, 0, false
	}
	if !ease.Finite(t) || t <= seq[0].T {
		return seq[0].X, seq[0].Y, true
	}
	last := seq[len(seq)-1]
	if t >= last.T {
		return last.X, last.Y, true
	}

	// First sample strictly after t; t is inside (seq[0].T, last.T).
	i := sort.Search(len(seq), func(i int) bool { return seq[i].T > t })
	a, b := seq[i-1], seq[i]
	span := b.T - a.T
	if span <= 0 {
		return b.X, b.Y, true
	}
	u := ease.InOutCubic((t - a.T) / span)
	return ease.Lerp(a.X, b.X, u), ease.Lerp(a.Y, b.Y, u), true
}

// Velocity estimates pointer velocity at t by central difference over
// [t-window, t+window]. The magnitude is limited to maxSpeed when it is
// positive.
func (s *Sampler) Velocity(t float64, samples []Sample, window, maxSpeed float64) (vx, vy float64) {
	if !ease.Finite(t, window) || window <= 0 {
		return 0, 0
	}
	x0, y0, ok := s.Position(t-window, samples)
	if !ok {
		return 0, 0
	}
	x1, y1, _ := s.Position(t+window, samples)
	vx = (x1 - x0) / (2 * window)
	vy = (y1 - y0) / (2 * window)

	if maxSpeed > 0 {
		if speed := math.Hypot(vx, vy); speed > maxSpeed {
			k := maxSpeed / speed
			vx *= k
			vy *= k
		}
	}
	return vx, vy
}

// Last returns the most recent sample at or before t.
func (s *Sampler) Last(t float64, samples []Sample) (Sample, bool) {
	seq := s.Sorted(samples)
	i := sort.Search(len(seq), func(i int) bool { return seq[i].T > t })
	if i == 0 {
		return Sample{}, false
	}
	return seq[i-1], true
}

// Position is Sampler.Position without a cache.
func Position(t float64, samples []Sample) (x, y float64, ok bool) {
	var s *Sampler
	return s.Position(t, samples)
}

// Velocity is Sampler.Velocity without a cache.
func Velocity(t float64, samples []Sample, window, maxSpeed float64) (vx, vy float64) {
	var s *Sampler
	return s.Velocity(t, samples, window, maxSpeed)
}

// prepare drops non-finite samples, clamps coordinates and sorts by time.
// The input is returned as is when it is already clean.
func prepare(samples []Sample) []Sample {
	clean := true
	for i, p := range samples {
		if !ease.Finite(p.X, p.Y, p.T) || p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 ||
			(i > 0 && p.T < samples[i-1].T) {
			clean = false
			break
		}
	}
	if clean {
		return samples
	}

	out := make([]Sample, 0, len(samples))
	for _, p := range samples {
		if !ease.Finite(p.X, p.Y, p.T) {
			continue
		}
		p.X = ease.Clamp01(p.X)
		p.Y = ease.Clamp01(p.Y)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out
}
