package camera

import (
	"math"
	"testing"

	"github.com/ivlev/democam/internal/cursor"
	"github.com/ivlev/democam/internal/intent"
)

type transition struct{ from, to Mode }

// transitions runs the controller over [0, to] and records every mode
// change with the time it first happened.
func transitions(c *Controller, f Frame, to float64) (State, map[transition]float64) {
	seen := map[transition]float64{}
	prev := Idle
	s := run(c, NewState(), 0, to, f, func(s State) {
		if s.Mode != prev {
			tr := transition{prev, s.Mode}
			if _, ok := seen[tr]; !ok {
				seen[tr] = s.Time
			}
			prev = s.Mode
		}
	})
	return s, seen
}

func TestModeTransitions(t *testing.T) {
	anticipating := DefaultConfig()
	anticipating.EnableAnticipation = true

	tests := []struct {
		name   string
		cfg    Config
		clicks []ClickEvent
		want   []transition
	}{
		{
			name: "click during hold refocuses",
			cfg:  DefaultConfig(),
			clicks: []ClickEvent{
				{X: 0.3, Y: 0.3, T: 1.0},
				{X: 0.7, Y: 0.7, T: 2.6},
			},
			want: []transition{{Idle, Focused}, {Focused, Hold}, {Hold, Focused}},
		},
		{
			name: "click during decay refocuses",
			cfg:  DefaultConfig(),
			clicks: []ClickEvent{
				{X: 0.3, Y: 0.3, T: 1.0},
				{X: 0.7, Y: 0.7, T: 3.5},
			},
			want: []transition{{Idle, Focused}, {Focused, Hold}, {Hold, Decay}, {Decay, Focused}},
		},
		{
			name:   "anticipation hands over to focus",
			cfg:    anticipating,
			clicks: []ClickEvent{{X: 0.6, Y: 0.4, T: 1.0}},
			want:   []transition{{Idle, Anticipation}, {Anticipation, Focused}, {Focused, Hold}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.cfg)
			s, seen := transitions(c, Frame{Clicks: tt.clicks, Viewport: hd}, 12)
			t.Logf("transitions: %v", seen)
			for _, tr := range tt.want {
				if _, ok := seen[tr]; !ok {
					t.Errorf("missing transition %s -> %s", tr.from, tr.to)
				}
			}
			if _, ok := seen[transition{Idle, Focused}]; ok && tt.cfg.EnableAnticipation {
				t.Error("an anticipated click should not jump straight from idle to focus")
			}
			if s.Mode != Idle || s.Transform != Neutral() {
				t.Errorf("expected exact neutral idle at the end, got %s %+v", s.Mode, s.Transform)
			}
			if s.Episodes != len(tt.clicks) {
				t.Errorf("expected %d episodes, got %d", len(tt.clicks), s.Episodes)
			}
		})
	}
}

func TestAnticipationWindsUp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableAnticipation = true
	c := NewController(cfg)
	clicks := []ClickEvent{{X: 0.5, Y: 0.5, T: 1.0}}

	var wound float64
	run(c, NewState(), 0, 0.85, Frame{Clicks: clicks, Viewport: hd}, func(s State) {
		if s.Mode == Anticipation {
			wound = math.Max(wound, s.Target.Scale)
		}
	})
	full := 1 + (cfg.DefaultClickZoom-1)*cfg.ZoomStrength
	if wound <= 1 || wound > 1+(full-1)*cfg.AnticipationAmount+1e-9 {
		t.Errorf("anticipation target %.4f should stay within the wind-up share of %.4f", wound, full)
	}
}

func TestTwoStepDecay(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	small := &Target{X: 0.475, Y: 0.475, W: 0.05, H: 0.05}
	clicks := []ClickEvent{{X: 0.5, Y: 0.5, T: 1.0, Target: small}}

	var (
		from       Transform
		started    bool
		prevTarget = math.Inf(1)
		hitMid     bool
	)
	s := run(c, NewState(), 0, 8, Frame{Clicks: clicks, Viewport: hd}, func(s State) {
		if s.Mode != Decay {
			return
		}
		if !started {
			started, from = true, s.DecayFrom
		}
		if s.Target.Scale > prevTarget+1e-12 {
			t.Fatalf("t=%.3f: decay target grew from %.5f to %.5f", s.Time, prevTarget, s.Target.Scale)
		}
		prevTarget = s.Target.Scale
		if math.Abs(s.Time-s.DecayStart-cfg.IntermediateStage) < 0.5/fps {
			hitMid = math.Abs(s.Target.Scale-cfg.IntermediateScale) < 0.01
			t.Logf("t=%.3f: intermediate target %.4f", s.Time, s.Target.Scale)
		}
	})

	if !started {
		t.Fatal("camera never decayed")
	}
	if from.Scale <= cfg.IntermediateThreshold {
		t.Fatalf("decay should start above the intermediate threshold, got %.3f", from.Scale)
	}
	if !hitMid {
		t.Errorf("decay target should pause near %.2f after the first stage", cfg.IntermediateScale)
	}
	if s.Mode != Idle || s.Transform != Neutral() {
		t.Errorf("expected exact neutral idle, got %s %+v", s.Mode, s.Transform)
	}
}

// command ticks once at t with cmd injected as if the analyzer had just
// recognized it.
func command(c *Controller, s State, t float64, f Frame, cmd intent.Command) State {
	s.started = true
	s.Time = t
	f.Time, f.Dt = t, 1/fps
	in := c.newTick(&f)
	c.sampleCursor(&s, in)
	cmd.T = t
	in.cmd = cmd
	if cmd.Kind != intent.NoCommand {
		s.LastCommand = cmd.Kind
	}
	c.step(&s, in)
	return s
}

func TestGestureCommands(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	f := Frame{Moves: []cursor.Sample{{X: 0.3, Y: 0.4, T: 0}}, Viewport: hd}
	at := func(i int) float64 { return float64(i) / fps }

	s := command(c, NewState(), at(1), f, intent.Command{Kind: intent.ZoomIn})
	if s.Mode != Focused || s.Episodes != 1 {
		t.Fatalf("zoom-in from idle should start an episode, got %s with %d episodes", s.Mode, s.Episodes)
	}
	if s.Episode.X != 0.3 || s.Episode.Y != 0.4 {
		t.Errorf("episode should start at the cursor, got (%.2f, %.2f)", s.Episode.X, s.Episode.Y)
	}
	base := s.Target.Scale
	if math.Abs(base-cfg.DefaultClickZoom) > 1e-9 {
		t.Errorf("gesture episode zoom: got %.4f, want %.4f", base, cfg.DefaultClickZoom)
	}

	step := cfg.GestureZoomStep
	zoomAt := func(g float64) float64 { return 1 + (base-1)*g }
	steps := []struct {
		kind intent.CommandKind
		want float64
	}{
		{intent.ZoomIn, zoomAt(step)},
		{intent.ZoomIn, zoomAt(step * step)},
		{intent.ZoomIn, zoomAt(step * step)}, // capped
		{intent.ZoomOut, zoomAt(step)},
	}
	i := 2
	for _, st := range steps {
		s = command(c, s, at(i), f, intent.Command{Kind: st.kind})
		i++
		if s.Mode != Focused {
			t.Fatalf("%s: left focus (%s)", st.kind, s.Mode)
		}
		if math.Abs(s.Target.Scale-st.want) > 1e-9 {
			t.Errorf("%s: target scale %.5f, want %.5f", st.kind, s.Target.Scale, st.want)
		}
	}
	if s.Episodes != 1 {
		t.Errorf("zooming an engaged episode must not start another, got %d", s.Episodes)
	}

	s = command(c, s, at(i), f, intent.Command{Kind: intent.Emphasis})
	if want := at(i) + cfg.EmphasisDuration; s.emphasisUntil != want {
		t.Errorf("emphasis until %.3f, want %.3f", s.emphasisUntil, want)
	}
	i++
	s = command(c, s, at(i), f, intent.Command{})
	plain := cfg.VignetteStrength * (s.Transform.Scale - 1) / (cfg.ZoomMax - 1)
	if s.Transform.Vignette <= plain {
		t.Errorf("emphasis should pulse the vignette above %.4f, got %.4f", plain, s.Transform.Vignette)
	}
	i++

	// Reset mid-zoom: decay starts from what is on screen.
	prev := s
	s = command(c, s, at(i), f, intent.Command{Kind: intent.Reset})
	if s.Mode != Decay {
		t.Fatalf("reset should force decay, got %s", s.Mode)
	}
	want := prev.Transform
	want.Vignette = 0
	if s.DecayFrom != want {
		t.Errorf("decay should start from the output %+v, got %+v", want, s.DecayFrom)
	}
	if s.gestureZoom != 1 {
		t.Errorf("reset should drop the gesture zoom, got %.4f", s.gestureZoom)
	}
	jump := math.Abs(s.Transform.Scale - prev.Transform.Scale)
	if limit := math.Abs(prev.Velocity.Scale)/fps + 1e-9; jump > limit {
		t.Errorf("output jumped %.5f entering decay, at most %.5f expected", jump, limit)
	}

	i++
	s = command(c, s, at(i), f, intent.Command{Kind: intent.ZoomIn})
	if s.Mode != Focused || s.Episodes != 2 {
		t.Errorf("zoom-in during decay should start a new episode, got %s with %d", s.Mode, s.Episodes)
	}
}

func TestResetForcesDecay(t *testing.T) {
	c := NewController(DefaultConfig())

	// Hold: one click, camera settled on it.
	clicks := Frame{Clicks: []ClickEvent{{X: 0.3, Y: 0.3, T: 1.0}}, Viewport: hd}
	held := run(c, NewState(), 0, 2.5, clicks, nil)

	// Soft focus: cursor came to rest a second ago.
	moves := Frame{Moves: []cursor.Sample{{X: 0.2, Y: 0.2, T: 0}, {X: 0.6, Y: 0.4, T: 1.0}}, Viewport: hd}
	soft := run(NewController(DefaultConfig()), NewState(), 0, 2, moves, nil)

	tests := []struct {
		name string
		c    *Controller
		s    State
		f    Frame
		mode Mode
	}{
		{"hold", c, held, clicks, Hold},
		{"soft focus", NewController(DefaultConfig()), soft, moves, SoftFocus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.s.Mode != tt.mode {
				t.Fatalf("setup: expected %s, got %s", tt.mode, tt.s.Mode)
			}
			s := command(tt.c, tt.s, tt.s.Time+1/fps, tt.f, intent.Command{Kind: intent.Reset})
			if s.Mode != Decay {
				t.Errorf("reset from %s should decay, got %s", tt.mode, s.Mode)
			}
			if s.DecayFrom.Vignette != 0 {
				t.Errorf("decay start carries vignette %.3f", s.DecayFrom.Vignette)
			}
		})
	}
}
