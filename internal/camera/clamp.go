package camera

import (
	"math"

	"github.com/ivlev/democam/internal/ease"
)

// PanLimit is the largest translation along an axis of length dim that keeps
// the scaled content covering the frame. It is 0 at scale 1 and below.
func PanLimit(dim, scale float64) float64 {
	r := (dim*scale - dim) / 2
	if !ease.Finite(r) || r < 0 {
		return 0
	}
	return r
}

// SoftClamp limits v to [-limit, limit] with a knee of width pad·limit
// below the limit. Inside the knee the slope falls from 1 to 0 along a
// smoothstep, so a target sliding toward the edge slows down instead of
// stopping dead. Values below the knee pass through and the result never
// exceeds limit.
func SoftClamp(v, limit, pad float64) float64 {
	if limit <= 0 || !ease.Finite(v, limit) {
		return 0
	}
	a := math.Abs(v)
	w := pad * limit
	if w <= 0 {
		return math.Copysign(math.Min(a, limit), v)
	}
	knee := limit - w
	if a <= knee {
		return v
	}
	// Integral of 1-smoothstep over twice the knee width covers exactly w.
	u := ease.Clamp01((a - knee) / (2 * w))
	out := knee + 2*w*(u-u*u*u+u*u*u*u/2)
	return math.Copysign(math.Min(out, limit), v)
}

// HardClamp limits v to [-limit, limit].
func HardClamp(v, limit float64) float64 {
	if limit <= 0 || !ease.Finite(v) {
		return 0
	}
	return ease.Clamp(v, -limit, limit)
}

// ClampTarget makes a planned transform feasible for the viewport. Non-finite
// channels fall back to prev, scale is bounded to [1, cfg.ScaleCeiling] and
// pan is soft-clamped to the limit of the resulting scale.
func ClampTarget(t, prev Transform, vp Viewport, cfg *Config) Transform {
	if !ease.Finite(t.Scale) {
		t.Scale = prev.Scale
	}
	if !ease.Finite(t.TranslateX) {
		t.TranslateX = prev.TranslateX
	}
	if !ease.Finite(t.TranslateY) {
		t.TranslateY = prev.TranslateY
	}
	if !ease.Finite(t.Rotation) {
		t.Rotation = prev.Rotation
	}
	t.Scale = ease.Clamp(t.Scale, 1, cfg.ScaleCeiling)
	t.TranslateX = SoftClamp(t.TranslateX, PanLimit(vp.Width, t.Scale), cfg.EdgePadding)
	t.TranslateY = SoftClamp(t.TranslateY, PanLimit(vp.Height, t.Scale), cfg.EdgePadding)
	t.Vignette = 0
	return t
}

// InBounds reports whether t satisfies the pan invariant for vp.
func InBounds(t Transform, vp Viewport) bool {
	const slack = 1e-6
	return t.Scale >= 1 &&
		math.Abs(t.TranslateX) <= PanLimit(vp.Width, t.Scale)+slack &&
		math.Abs(t.TranslateY) <= PanLimit(vp.Height, t.Scale)+slack
}
