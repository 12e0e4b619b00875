package camera

import (
	"math"

	"github.com/ivlev/democam/internal/intent"
)

// ringSize is the capacity of the output smoothing ring.
const ringSize = 8

// never marks a timer that has not fired yet.
var never = math.Inf(-1)

// Episode is one click-driven focus, possibly made of several merged clicks.
type Episode struct {
	ID        int
	Active    bool
	Start     float64 // timestamp of the first click
	LastClick float64
	X, Y      float64 // first click, normalized
	LastX     float64 // most recent click, normalized
	LastY     float64
	Kind      ClickKind
	Target    Target
	HasTarget bool
	Clicks    int
	Speed     float64 // cursor speed when the episode started

	// Gesture pan nudge, normalized.
	PanX, PanY float64

	// Anchored zoom: screen position (pixels from center) of the clicked
	// content point, and the realized view when the episode started.
	AnchorX, AnchorY float64
	FromScale        float64
	FromTX, FromTY   float64
}

// Focus returns the point the episode frames: the center of the clicked
// element when known, else the latest click.
func (e Episode) Focus() (x, y float64) {
	x, y = e.LastX, e.LastY
	if e.HasTarget && e.Target.Area() > 0 {
		x, y = e.Target.X+e.Target.W/2, e.Target.Y+e.Target.H/2
	}
	return x + e.PanX, y + e.PanY
}

// State is the complete camera state between ticks. It is a plain value:
// copying it snapshots the camera, and Update never retains references to
// its inputs.
type State struct {
	Mode      Mode
	Transform Transform // output for the renderer
	Realized  Transform // raw spring positions before ring averaging
	Target    Transform
	Velocity  Velocity
	Source    Source
	Time      float64

	FocusStart float64
	LastIntent float64
	LastClick  float64
	HoldStart  float64
	DecayStart float64
	DecayFrom  Transform
	HoldTarget Transform

	Episode   Episode
	Episodes  int // episodes started
	Discarded int // clicks dropped by debounce

	IntentClass intent.Class
	LastCommand intent.CommandKind

	started         bool
	consumedThrough float64
	lastAccepted    float64

	focusX, focusY   float64 // low-passed focus point
	followX, followY float64 // soft-focus follow point
	dwellStart       float64
	lastMove         float64

	analyzer      intent.Analyzer
	gestureZoom   float64
	emphasisUntil float64

	ring     [ringSize]Transform
	ringHead int
	ringLen  int
}

// NewState returns the initial camera: idle and neutral.
func NewState() State {
	return State{
		Mode:            Idle,
		Transform:       Neutral(),
		Realized:        Neutral(),
		Target:          Neutral(),
		FocusStart:      never,
		LastIntent:      never,
		LastClick:       never,
		HoldStart:       never,
		DecayStart:      never,
		DecayFrom:       Neutral(),
		HoldTarget:      Neutral(),
		consumedThrough: never,
		lastAccepted:    never,
		dwellStart:      never,
		lastMove:        never,
		gestureZoom:     1,
		emphasisUntil:   never,
	}
}

// Started reports whether the state has been advanced at least once.
func (s *State) Started() bool { return s.started }

// settle puts the camera back to exact neutral in IDLE. Click bookkeeping
// and counters survive so already consumed clicks are not replayed.
func (s *State) settle() {
	s.Mode = Idle
	s.Source = FromIdle
	s.Transform = Neutral()
	s.Realized = Neutral()
	s.Target = Neutral()
	s.Velocity = Velocity{}
	s.Episode.Active = false
	s.gestureZoom = 1
	s.dwellStart = never
	s.clearRing()
}

func (s *State) push(t Transform) {
	if s.ringLen < ringSize {
		s.ring[(s.ringHead+s.ringLen)%ringSize] = t
		s.ringLen++
		return
	}
	s.ring[s.ringHead] = t
	s.ringHead = (s.ringHead + 1) % ringSize
}

// average returns the mean of the last n pushed transforms.
func (s *State) average(n int) Transform {
	if n > s.ringLen {
		n = s.ringLen
	}
	if n <= 0 {
		return s.Realized
	}
	var out Transform
	for i := s.ringLen - n; i < s.ringLen; i++ {
		t := s.ring[(s.ringHead+i)%ringSize]
		out.Scale += t.Scale
		out.TranslateX += t.TranslateX
		out.TranslateY += t.TranslateY
		out.Rotation += t.Rotation
	}
	k := float64(n)
	out.Scale /= k
	out.TranslateX /= k
	out.TranslateY /= k
	out.Rotation /= k
	return out
}

func (s *State) clearRing() {
	s.ring = [ringSize]Transform{}
	s.ringHead = 0
	s.ringLen = 0
}
