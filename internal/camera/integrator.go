package camera

import (
	"math"

	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/spring"
)

// integrate moves the realized transform toward the target with one spring
// per channel, enforces the pan limit on the result and derives the output.
func (s *State) integrate(in *tick, pol policy) {
	cfg := in.cfg

	ks := pol.stiffness * in.preset.Stiffness * cfg.Bias.Stiffness * cfg.SpeedMultiplier * cfg.SpeedMultiplier
	kd := math.Max(1, in.preset.Damping*cfg.Bias.Damping)
	if !ease.Finite(ks) || ks <= 0 {
		ks = 1
	}
	if !ease.Finite(kd) {
		kd = 1
	}
	scaleP := cfg.Springs.Scale.Scaled(ks, kd)
	panP := cfg.Springs.Pan.Scaled(ks, kd)
	rotP := cfg.Springs.Rotation.Scaled(ks, kd)

	r, v, tg := s.Realized, s.Velocity, s.Target

	sc := spring.Solve(r.Scale, tg.Scale, v.Scale, scaleP, in.dt)
	if sc.Value < 1 {
		sc.Value = 1
		if sc.Velocity < 0 {
			sc.Velocity = 0
		}
	}
	r.Scale, v.Scale = sc.Value, sc.Velocity

	x := spring.Solve(r.TranslateX, tg.TranslateX, v.TranslateX, panP, in.dt)
	r.TranslateX, v.TranslateX = limitPan(x, PanLimit(in.vp.Width, r.Scale))
	y := spring.Solve(r.TranslateY, tg.TranslateY, v.TranslateY, panP, in.dt)
	r.TranslateY, v.TranslateY = limitPan(y, PanLimit(in.vp.Height, r.Scale))

	rot := spring.Solve(r.Rotation, tg.Rotation, v.Rotation, rotP, in.dt)
	r.Rotation, v.Rotation = rot.Value, rot.Velocity

	r.Vignette = 0
	s.Realized, s.Velocity = r, v
	s.push(r)

	out := r
	if pol.smooth && cfg.SmoothingFrames > 1 {
		out = s.average(cfg.SmoothingFrames)
	}
	out.Vignette = s.vignette(out.Scale, in)
	s.Transform = out
}

// limitPan hard-clamps a realized translation and stops any velocity that
// pushes further out.
func limitPan(st spring.State, limit float64) (float64, float64) {
	v := HardClamp(st.Value, limit)
	switch {
	case limit <= 0:
		return 0, 0
	case v < st.Value:
		return v, math.Min(st.Velocity, 0)
	case v > st.Value:
		return v, math.Max(st.Velocity, 0)
	}
	return v, st.Velocity
}

// vignette grows with zoom and adds a short pulse after an emphasis gesture.
func (s *State) vignette(scale float64, in *tick) float64 {
	cfg := in.cfg
	v := 0.0
	if cfg.ZoomMax > 1 {
		v = cfg.VignetteStrength * ease.Clamp01((scale-1)/(cfg.ZoomMax-1))
	}
	if left := s.emphasisUntil - in.t; left > 0 && cfg.EmphasisDuration > 0 {
		v += cfg.EmphasisVignette * math.Sin(math.Pi*(1-left/cfg.EmphasisDuration))
	}
	return ease.Clamp01(v)
}
