package camera

import (
	"math"

	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/effects"
)

// policy is what a mode contributes to a tick: how to plan the target, how
// stiff the springs are while chasing it, and whether the output is
// averaged over the ring buffer.
type policy struct {
	plan      func(s *State, in *tick) Transform
	stiffness float64
	smooth    bool
}

var policies = [...]policy{
	Idle:         {plan: planIdle, stiffness: 1},
	SoftFocus:    {plan: planSoftFocus, stiffness: 0.6},
	Focused:      {plan: planFocused, stiffness: 1, smooth: true},
	Hold:         {plan: planHold, stiffness: 1, smooth: true},
	Decay:        {plan: planDecay, stiffness: 0.8},
	Anticipation: {plan: planAnticipation, stiffness: 0.7},
}

// plan picks the target source by priority: anchored zoom, then an active
// timeline effect, then the mode policy.
func (s *State) plan(in *tick, pol policy) (Transform, Source) {
	if s.Mode == Focused && in.cfg.EnableAnchoredZoom {
		return planAnchored(s, in), FromAnchor
	}
	if in.frame != nil {
		if ef, ok := effects.Active(in.frame.Effects, in.t); ok {
			return timelineTarget(ef, in), FromTimeline
		}
	}
	if s.Mode == Idle {
		return Neutral(), FromIdle
	}
	return pol.plan(s, in), FromPolicy
}

func planIdle(_ *State, _ *tick) Transform { return Neutral() }

// clickZoom sizes the zoom for an episode: content-aware from the target
// box when known, reduced for a fast-moving cursor, boosted for
// double-clicks and scaled by the user's strength and learned bias.
func clickZoom(ep *Episode, cfg *Config, gestureZoom float64) float64 {
	base := cfg.DefaultClickZoom
	if ep.HasTarget {
		if a := ep.Target.Area(); a > 0 {
			base = ease.Clamp(math.Sqrt(cfg.TargetFill/a), cfg.ZoomMin, cfg.ZoomMax)
		}
		if f, ok := cfg.CategoryZoom[ep.Target.Category]; ok && ease.Finite(f) && f > 0 {
			base = 1 + (base-1)*f
		}
	}
	base = 1 + (base-1)/(1+ep.Speed*cfg.SpeedZoomFalloff)
	if ep.Kind == DoubleClick {
		base += cfg.DoubleClickBoost
	}
	z := 1 + (base-1)*cfg.ZoomStrength*cfg.Bias.Zoom*gestureZoom
	return ease.Clamp(z, 1, cfg.ZoomMax)
}

// framePan returns the translation that brings the normalized point (fx, fy)
// toward the center at the given scale. With composition > 0 the point is
// left partway off-center on its own side, up to the rule-of-thirds line.
func framePan(fx, fy, scale, composition float64, vp Viewport) (tx, ty float64) {
	axis := func(f, dim float64) float64 {
		p := (f - 0.5) * dim * scale
		third := dim / 6
		return composition*ease.Clamp(p, -third, third) - p
	}
	return axis(fx, vp.Width), axis(fy, vp.Height)
}

func planFocused(s *State, in *tick) Transform {
	cfg := in.cfg
	ep := &s.Episode
	scale := clickZoom(ep, cfg, s.gestureZoom)

	fx, fy := ep.Focus()
	if in.hasCursor {
		look := in.preset.Lookahead
		if look < 0 {
			look = cfg.LookaheadTime
		}
		fx += cfg.TrackingWeight*(in.cx-fx) + in.vx*look
		fy += cfg.TrackingWeight*(in.cy-fy) + in.vy*look
	}
	fx, fy = ease.Clamp01(fx), ease.Clamp01(fy)

	// Low-pass the focus point; FocusSmoothing is the share kept per 1/60 s.
	keep := math.Pow(cfg.FocusSmoothing, in.dt*60)
	s.focusX = ease.Lerp(fx, s.focusX, keep)
	s.focusY = ease.Lerp(fy, s.focusY, keep)

	tx, ty := framePan(s.focusX, s.focusY, scale, cfg.Composition, in.vp)
	rot := 0.0
	if in.hasCursor {
		rot = ease.Clamp(in.vx*cfg.RotationGain, -cfg.MaxRotation, cfg.MaxRotation)
	}
	return Transform{Scale: scale, TranslateX: tx, TranslateY: ty, Rotation: rot}
}

// planAnchored keeps the clicked content point where it was on screen when
// the episode started while the scale moves to the click zoom.
func planAnchored(s *State, in *tick) Transform {
	ep := &s.Episode
	scale := clickZoom(ep, in.cfg, s.gestureZoom)
	from := ep.FromScale
	if !ease.Finite(from) || from < 1 {
		from = 1
	}
	k := scale / from
	return Transform{
		Scale:      scale,
		TranslateX: ep.AnchorX - (ep.AnchorX-ep.FromTX)*k,
		TranslateY: ep.AnchorY - (ep.AnchorY-ep.FromTY)*k,
	}
}

// planSoftFocus applies a small zoom and follows the cursor through a
// padded follow: still inside Deadzone, full follow past FollowThreshold,
// smoothstep in between.
func planSoftFocus(s *State, in *tick) Transform {
	cfg := in.cfg
	if in.hasCursor {
		dx, dy := in.cx-s.followX, in.cy-s.followY
		k := ease.Smoothstep(cfg.Deadzone, cfg.FollowThreshold, math.Hypot(dx, dy))
		s.followX += dx * k
		s.followY += dy * k
	}
	s.followX, s.followY = ease.Clamp01(s.followX), ease.Clamp01(s.followY)

	scale := 1 + (cfg.SoftFocusZoom-1)*cfg.ZoomStrength*cfg.Bias.Zoom
	tx, ty := framePan(s.followX, s.followY, scale, 0, in.vp)
	return Transform{Scale: scale, TranslateX: tx, TranslateY: ty}
}

func planHold(s *State, _ *tick) Transform { return s.HoldTarget }

// decayLength is the time the decay target takes to reach neutral.
func decayLength(from float64, cfg *Config) float64 {
	if from > cfg.IntermediateThreshold {
		return cfg.IntermediateStage + cfg.DecayRamp
	}
	return cfg.DecayRamp
}

// planDecay eases the target from the view at decay start back to neutral.
// Large zooms first ease to IntermediateScale. Pan shrinks in proportion to
// the zoom above 1, so it stays within the pan limit throughout.
func planDecay(s *State, in *tick) Transform {
	cfg := in.cfg
	from := s.DecayFrom
	el := in.t - s.DecayStart

	var scale float64
	if from.Scale > cfg.IntermediateThreshold {
		mid := math.Min(cfg.IntermediateScale, from.Scale)
		if el < cfg.IntermediateStage {
			scale = ease.Lerp(from.Scale, mid, ease.InOutCubic(el/cfg.IntermediateStage))
		} else {
			scale = ease.Lerp(mid, 1, ease.InOutCubic((el-cfg.IntermediateStage)/cfg.DecayRamp))
		}
	} else {
		scale = ease.Lerp(from.Scale, 1, ease.InOutCubic(el/cfg.DecayRamp))
	}

	progress := ease.Clamp01(el / decayLength(from.Scale, cfg))
	k := 1 - ease.InOutCubic(progress)
	if from.Scale > 1 {
		k = (scale - 1) / (from.Scale - 1)
	}
	return Transform{
		Scale:      scale,
		TranslateX: from.TranslateX * k,
		TranslateY: from.TranslateY * k,
		Rotation:   from.Rotation * (1 - ease.InOutCubic(progress)),
	}
}

// planAnticipation winds up a fraction of the zoom toward a click that is
// about to be consumed.
func planAnticipation(s *State, in *tick) Transform {
	c := in.upcoming
	if c == nil {
		return s.Target
	}
	cfg := in.cfg
	lead := c.T - in.t - cfg.ClickLead
	p := ease.InOutCubic(1 - lead/cfg.AnticipationWindow)
	full := clickZoom(&Episode{Kind: c.Kind, Target: targetOf(c), HasTarget: c.Target != nil}, cfg, 1)
	scale := 1 + (full-1)*cfg.AnticipationAmount*p
	tx, ty := framePan(c.X, c.Y, scale, cfg.Composition, in.vp)
	return Transform{Scale: scale, TranslateX: tx, TranslateY: ty}
}

func targetOf(c *ClickEvent) Target {
	if c.Target == nil {
		return Target{}
	}
	return *c.Target
}

func timelineTarget(ef effects.Target, in *tick) Transform {
	tx, ty := framePan(ef.X, ef.Y, ef.Scale, 0, in.vp)
	return Transform{Scale: ef.Scale, TranslateX: tx, TranslateY: ty, Rotation: ef.Rotation}
}
