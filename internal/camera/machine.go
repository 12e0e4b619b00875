package camera

import (
	"math"

	"github.com/ivlev/democam/internal/cursor"
	"github.com/ivlev/democam/internal/intent"
)

// consumeClicks walks clicks that became due since the last tick. A click is
// due once the clock is within ClickLead of it; due clicks older than
// FocusDuration are stale and skipped, and clicks closer than
// MinClickInterval to the previous accepted one are discarded.
func (s *State) consumeClicks(in *tick, moves *cursor.Sampler) {
	cfg := in.cfg
	for i := range in.clicks {
		c := in.clicks[i]
		if c.T <= s.consumedThrough {
			continue
		}
		if c.T > in.t+cfg.ClickLead {
			break
		}
		s.consumedThrough = c.T
		if in.t-c.T >= cfg.FocusDuration {
			continue
		}
		if c.T-s.lastAccepted < cfg.MinClickInterval {
			s.Discarded++
			continue
		}
		s.lastAccepted = c.T
		s.acceptClick(in, c, moves)
	}
}

func (s *State) acceptClick(in *tick, c ClickEvent, moves *cursor.Sampler) {
	cfg := in.cfg
	ep := &s.Episode
	if ep.Active &&
		math.Hypot(c.X-ep.LastX, c.Y-ep.LastY) <= cfg.ClusterRadius &&
		c.T-ep.LastClick <= cfg.ClusterWindow {
		ep.LastClick = c.T
		ep.LastX, ep.LastY = c.X, c.Y
		ep.Clicks++
		if c.Kind == DoubleClick {
			ep.Kind = DoubleClick
		}
		if c.Target != nil {
			ep.Target, ep.HasTarget = *c.Target, true
		}
	} else {
		speed := 0.0
		if len(in.moves) > 0 {
			vx, vy := moves.Velocity(c.T, in.moves, cfg.VelocityWindow, cfg.MaxCursorSpeed)
			speed = math.Hypot(vx, vy)
		}
		s.startEpisode(in, c, speed)
	}
	s.LastClick = math.Max(s.LastClick, c.T)
	s.LastIntent = math.Max(s.LastIntent, c.T)
	in.accepted = true
}

func (s *State) startEpisode(in *tick, c ClickEvent, speed float64) {
	s.Episodes++
	ep := Episode{
		ID:        s.Episodes,
		Active:    true,
		Start:     c.T,
		LastClick: c.T,
		X:         c.X,
		Y:         c.Y,
		LastX:     c.X,
		LastY:     c.Y,
		Kind:      c.Kind,
		Clicks:    1,
		Speed:     speed,
		FromScale: s.Realized.Scale,
		FromTX:    s.Realized.TranslateX,
		FromTY:    s.Realized.TranslateY,
	}
	if ep.Kind == "" {
		ep.Kind = Click
	}
	if c.Target != nil {
		ep.Target, ep.HasTarget = *c.Target, true
	}
	// Screen position of the clicked content point under the current view.
	ep.AnchorX = (c.X-0.5)*in.vp.Width*ep.FromScale + ep.FromTX
	ep.AnchorY = (c.Y-0.5)*in.vp.Height*ep.FromScale + ep.FromTY

	s.Episode = ep
	s.FocusStart = in.t
	s.focusX, s.focusY = ep.Focus()
}

// advance evaluates the mode transitions for this tick.
func (s *State) advance(in *tick) {
	cfg := in.cfg
	if in.hasCursor && in.speed >= cfg.DwellSpeed && (s.Mode == Focused || s.Mode == SoftFocus) {
		s.LastIntent = in.t
	}
	s.applyCommand(in)

	switch s.Mode {
	case Idle:
		switch {
		case in.accepted:
			s.enter(in, Focused)
		case cfg.EnableAnticipation && s.findUpcoming(in):
			s.enter(in, Anticipation)
		case s.dwelling(in):
			s.enter(in, SoftFocus)
		}

	case Anticipation:
		switch {
		case in.accepted:
			s.enter(in, Focused)
		case !s.findUpcoming(in):
			s.enter(in, Decay)
		}

	case SoftFocus:
		switch {
		case in.accepted:
			s.enter(in, Focused)
		case in.cmd.Kind == intent.Reset || in.t-s.lastMove >= cfg.SoftFocusTimeout:
			s.enter(in, Decay)
		}

	case Focused:
		switch {
		case in.cmd.Kind == intent.Reset:
			s.enter(in, Decay)
		case s.scaleConverged(cfg) && s.focusEnded(in):
			s.enter(in, Hold)
		}

	case Hold:
		switch {
		case in.accepted:
			s.enter(in, Focused)
		case in.cmd.Kind == intent.Reset || in.t-s.HoldStart >= cfg.HoldDuration:
			s.enter(in, Decay)
		}

	case Decay:
		switch {
		case in.accepted:
			s.enter(in, Focused)
		case s.decayDone(in.t, cfg) && s.nearNeutral(cfg):
			s.settle()
		}
	}
}

func (s *State) enter(in *tick, m Mode) {
	switch m {
	case Hold:
		s.HoldStart = in.t
		s.HoldTarget = s.Target
	case Decay:
		// Decay output is not ring-averaged, so the springs restart from
		// what is on screen.
		from := s.Transform
		from.Vignette = 0
		s.DecayStart = in.t
		s.DecayFrom = from
		s.Realized = from
		s.gestureZoom = 1
	case SoftFocus:
		s.followX, s.followY = in.cx, in.cy
	}
	s.Mode = m
}

// applyCommand folds a recognized gesture into the state. Reset is handled
// by the transitions.
func (s *State) applyCommand(in *tick) {
	cfg := in.cfg
	ep := &s.Episode
	engaged := ep.Active && (s.Mode == Focused || s.Mode == Hold)
	step := cfg.GestureZoomStep
	switch in.cmd.Kind {
	case intent.ZoomIn:
		if engaged {
			s.gestureZoom = math.Min(s.gestureZoom*step, step*step)
			s.LastIntent = in.t
			in.accepted = true
		} else if in.hasCursor && (s.Mode == Idle || s.Mode == SoftFocus || s.Mode == Decay) {
			s.startEpisode(in, ClickEvent{X: in.cx, Y: in.cy, T: in.t, Kind: Click}, in.speed)
			s.LastIntent = in.t
			in.accepted = true
		}
	case intent.ZoomOut:
		if engaged {
			s.gestureZoom = math.Max(s.gestureZoom/step, 1/(step*step))
			s.LastIntent = in.t
		}
	case intent.Pan:
		const reach = 0.25
		switch {
		case engaged:
			ep.PanX = clampAbs(ep.PanX+in.cmd.DX*cfg.GesturePanStep, reach)
			ep.PanY = clampAbs(ep.PanY+in.cmd.DY*cfg.GesturePanStep, reach)
			s.LastIntent = in.t
		case s.Mode == SoftFocus:
			s.followX += in.cmd.DX * cfg.GesturePanStep
			s.followY += in.cmd.DY * cfg.GesturePanStep
		}
	case intent.Emphasis:
		s.emphasisUntil = in.t + cfg.EmphasisDuration
	}
}

// dwelling tracks how long the cursor has been slow and reports whether it
// qualifies for soft focus: recently moved, and slow for at least DwellTime.
func (s *State) dwelling(in *tick) bool {
	cfg := in.cfg
	if !in.hasCursor || in.speed >= cfg.DwellSpeed {
		s.dwellStart = never
		return false
	}
	if s.dwellStart == never {
		s.dwellStart = in.t
	}
	return in.t-s.lastMove < cfg.SoftFocusTimeout && in.t-s.dwellStart >= cfg.DwellTime
}

// findUpcoming records the first unconsumed click just beyond the lead
// window.
func (s *State) findUpcoming(in *tick) bool {
	lo := in.t + in.cfg.ClickLead
	hi := lo + in.cfg.AnticipationWindow
	for i := range in.clicks {
		c := &in.clicks[i]
		if c.T <= s.consumedThrough || c.T <= lo {
			continue
		}
		if c.T > hi {
			break
		}
		in.upcoming = c
		return true
	}
	return false
}

// scaleConverged uses the previous tick's spring state.
func (s *State) scaleConverged(cfg *Config) bool {
	return math.Abs(s.Realized.Scale-s.Target.Scale) < cfg.ConvergeEpsilon &&
		math.Abs(s.Velocity.Scale) < cfg.ConvergeEpsilon
}

// focusEnded reports whether the user has moved on from the episode: idle
// for IdleTimeout, the cursor far from the focus, or no new click for
// ClusterEndGap.
func (s *State) focusEnded(in *tick) bool {
	cfg := in.cfg
	if in.t-s.LastIntent >= cfg.IdleTimeout {
		return true
	}
	if in.hasCursor {
		fx, fy := s.Episode.Focus()
		if math.Hypot(in.cx-fx, in.cy-fy) > cfg.FarDistance {
			return true
		}
	}
	return in.t-s.LastClick >= cfg.ClusterEndGap
}

func (s *State) decayDone(t float64, cfg *Config) bool {
	return t-s.DecayStart >= decayLength(s.DecayFrom.Scale, cfg)
}

func (s *State) nearNeutral(cfg *Config) bool {
	r := s.Realized
	return math.Abs(r.Scale-1) < cfg.NeutralEpsilon &&
		math.Abs(r.TranslateX) < cfg.NeutralPixels &&
		math.Abs(r.TranslateY) < cfg.NeutralPixels &&
		math.Abs(r.Rotation) < cfg.NeutralEpsilon
}

func clampAbs(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}
