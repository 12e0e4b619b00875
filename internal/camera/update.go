package camera

import (
	"fmt"
	"math"
	"sort"

	"github.com/ivlev/democam/internal/cursor"
	"github.com/ivlev/democam/internal/ease"
	"github.com/ivlev/democam/internal/effects"
	"github.com/ivlev/democam/internal/intent"
)

// Frame is everything one tick reads. Slices are borrowed and never
// modified.
type Frame struct {
	Time     float64
	Dt       float64
	Clicks   []ClickEvent
	Moves    []cursor.Sample
	Viewport Viewport
	Effects  []effects.Window
}

// Controller advances camera states for one recording. It owns the sorted
// copies of the event sequences, so a recording sorted once is reused on
// every tick. A Controller is not safe for concurrent use; use one per
// recording.
type Controller struct {
	cfg    Config
	moves  cursor.Sampler
	clicks clickCache
}

// NewController returns a controller for cfg after normalizing it.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg.Normalize()}
}

// Config returns the normalized configuration in use.
func (c *Controller) Config() Config { return c.cfg }

// Reset drops cached event sequences. Call it together with NewState when
// the host seeks or swaps recordings in place.
func (c *Controller) Reset() {
	c.moves.Invalidate()
	c.clicks = clickCache{}
}

// Update is the uncached form of Controller.Update.
func Update(s State, t, dt float64, clicks []ClickEvent, moves []cursor.Sample, vp Viewport, cfg Config) State {
	return NewController(cfg).Update(s, Frame{Time: t, Dt: dt, Clicks: clicks, Moves: moves, Viewport: vp})
}

// tick carries the per-update inputs derived once and shared by the
// machine, planner and integrator.
type tick struct {
	t, dt  float64
	cfg    *Config
	vp     Viewport
	clicks []ClickEvent
	moves  []cursor.Sample
	frame  *Frame

	hasCursor      bool
	cx, cy, vx, vy float64
	speed          float64
	preset         intent.Preset

	accepted bool // a click was accepted this tick
	cmd      intent.Command
	upcoming *ClickEvent
}

// Update advances s to f.Time and returns the new state.
//
// Time must not move backward; a host that seeks starts again from
// NewState. Non-finite time, non-positive dt and empty viewports yield a
// neutral idle camera.
func (c *Controller) Update(s State, f Frame) State {
	if !ease.Finite(f.Time) {
		s.settle()
		return s
	}
	if s.started && f.Time < s.Time {
		panic(fmt.Sprintf("camera: time moved backward from %.6f to %.6f without a reset", s.Time, f.Time))
	}
	s.started = true
	s.Time = f.Time
	if !ease.Finite(f.Dt) || f.Dt <= 0 || !f.Viewport.Valid() {
		s.settle()
		return s
	}

	in := c.newTick(&f)
	c.sampleCursor(&s, in)
	s.observeIntent(in)
	c.step(&s, in)
	return s
}

func (c *Controller) newTick(f *Frame) *tick {
	return &tick{
		t:      f.Time,
		dt:     math.Min(f.Dt, c.cfg.MaxDt),
		cfg:    &c.cfg,
		vp:     f.Viewport,
		clicks: c.clicks.sorted(f.Clicks),
		moves:  c.moves.Sorted(f.Moves),
		frame:  f,
		preset: intent.None.Preset(),
	}
}

// step runs the machine, planner and integrator for a prepared tick.
func (c *Controller) step(s *State, in *tick) {
	s.consumeClicks(in, &c.moves)
	s.advance(in)

	pol := policies[s.Mode]
	target, src := s.plan(in, pol)
	s.Target = ClampTarget(target, s.Target, in.vp, in.cfg)
	s.Source = src
	if s.Mode == Idle && src == FromIdle {
		s.Target = Neutral()
	}
	s.integrate(in, pol)
}

func (c *Controller) sampleCursor(s *State, in *tick) {
	if len(in.moves) == 0 {
		return
	}
	x, y, ok := c.moves.Position(in.t, in.moves)
	if !ok {
		return
	}
	in.hasCursor = true
	in.cx, in.cy = x, y
	in.vx, in.vy = c.moves.Velocity(in.t, in.moves, in.cfg.VelocityWindow, in.cfg.MaxCursorSpeed)
	in.speed = math.Hypot(in.vx, in.vy)
	if last, ok := c.moves.Last(in.t, in.moves); ok {
		s.lastMove = last.T
	}
}

func (s *State) observeIntent(in *tick) {
	if !in.hasCursor || (!in.cfg.EnableIntent && !in.cfg.EnableGestures) {
		s.IntentClass = intent.None
		return
	}
	s.analyzer.Observe(in.t, in.cx, in.cy, in.vx, in.vy)
	if in.cfg.EnableIntent {
		s.IntentClass = s.analyzer.Classify(in.t, in.cfg.Intent)
		in.preset = s.IntentClass.Preset()
	}
	if in.cfg.EnableGestures {
		in.cmd = s.analyzer.Recognize(in.t, in.cfg.Intent)
		if in.cmd.Kind != intent.NoCommand {
			s.LastCommand = in.cmd.Kind
		}
	}
}

// clickCache holds a sanitized, time-ordered copy of a click sequence keyed
// by slice identity.
type clickCache struct {
	src    *ClickEvent
	n      int
	events []ClickEvent
}

func (c *clickCache) sorted(clicks []ClickEvent) []ClickEvent {
	if len(clicks) == 0 {
		return nil
	}
	if c.src == &clicks[0] && c.n == len(clicks) {
		return c.events
	}
	c.src = &clicks[0]
	c.n = len(clicks)
	c.events = prepareClicks(clicks)
	return c.events
}

func prepareClicks(clicks []ClickEvent) []ClickEvent {
	out := make([]ClickEvent, 0, len(clicks))
	for _, ev := range clicks {
		if !ease.Finite(ev.X, ev.Y, ev.T) {
			continue
		}
		ev.X = ease.Clamp01(ev.X)
		ev.Y = ease.Clamp01(ev.Y)
		if ev.Target != nil {
			tg := *ev.Target
			if ease.Finite(tg.X, tg.Y, tg.W, tg.H) {
				ev.Target = &tg
			} else {
				ev.Target = nil
			}
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].T < out[j].T })
	return out
}
