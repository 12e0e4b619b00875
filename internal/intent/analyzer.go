package intent

import (
	"math"
)

// Capacity is the number of samples an Analyzer retains.
const Capacity = 96

// Sample is one observation of the pointer.
type Sample struct {
	T      float64
	X, Y   float64
	VX, VY float64
	AX, AY float64
}

// Speed returns the velocity magnitude.
func (s Sample) Speed() float64 { return math.Hypot(s.VX, s.VY) }

// Analyzer is a rolling window of pointer samples.
//
// It is a plain value (fixed array, no pointers), so copying an Analyzer
// copies its whole history. The camera state embeds one and relies on that.
type Analyzer struct {
	buf  [Capacity]Sample
	head int // index of the oldest sample
	n    int

	// lastCommand is when Recognize last emitted; older samples are ignored.
	lastCommand float64
	commanded   bool
}

// Observe appends a position/velocity observation and derives acceleration
// from the previous one. Observations that do not move forward in time are
// dropped.
func (a *Analyzer) Observe(t, x, y, vx, vy float64) {
	s := Sample{T: t, X: x, Y: y, VX: vx, VY: vy}
	if a.n > 0 {
		prev := a.at(a.n - 1)
		dt := t - prev.T
		if dt <= 0 {
			return
		}
		s.AX = (vx - prev.VX) / dt
		s.AY = (vy - prev.VY) / dt
	}
	if a.n < Capacity {
		a.buf[(a.head+a.n)%Capacity] = s
		a.n++
		return
	}
	a.buf[a.head] = s
	a.head = (a.head + 1) % Capacity
}

// Len returns the number of retained samples.
func (a *Analyzer) Len() int { return a.n }

// Reset clears the history.
func (a *Analyzer) Reset() { *a = Analyzer{} }

// Window returns the samples with T in [now-span, now], oldest first.
func (a *Analyzer) Window(now, span float64) []Sample {
	var out []Sample
	for i := 0; i < a.n; i++ {
		s := a.at(i)
		if s.T >= now-span && s.T <= now {
			out = append(out, s)
		}
	}
	return out
}

func (a *Analyzer) at(i int) Sample {
	return a.buf[(a.head+i)%Capacity]
}

// Classify infers the interaction style over the configured window.
func (a *Analyzer) Classify(now float64, cfg Config) Class {
	win := a.Window(now, cfg.Window)
	if len(win) < cfg.MinSamples {
		return None
	}

	var speed, accel float64
	for _, s := range win {
		speed += s.Speed()
		accel += math.Hypot(s.AX, s.AY)
	}
	speed /= float64(len(win))
	accel /= float64(len(win))

	span := win[len(win)-1].T - win[0].T
	if span <= 0 {
		return None
	}
	reversalRate := float64(reversals(win, cfg.MotionFloor)) / span

	switch {
	case reversalRate >= cfg.GestureReversals && speed >= cfg.ScanSpeed/2:
		return Gesturing
	case speed <= cfg.ReadSpeed:
		return Reading
	case accel >= cfg.TargetAccel:
		return Targeting
	default:
		return Scanning
	}
}

// reversals counts sign flips of the motion direction between consecutive
// moving samples.
func reversals(win []Sample, floor float64) int {
	count := 0
	var pvx, pvy float64
	have := false
	for _, s := range win {
		if s.Speed() < floor {
			continue
		}
		if have && s.VX*pvx+s.VY*pvy < 0 {
			count++
		}
		pvx, pvy = s.VX, s.VY
		have = true
	}
	return count
}

// Smoothness measures how steadily a path keeps its heading: 1 for a straight
// line, 0 for constant reversals. Paths too short to judge score 1.
func Smoothness(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	var sum float64
	var count int
	var pdx, pdy float64
	have := false
	for i := 1; i < n; i++ {
		dx, dy := xs[i]-xs[i-1], ys[i]-ys[i-1]
		l := math.Hypot(dx, dy)
		if l < 1e-6 {
			continue
		}
		dx, dy = dx/l, dy/l
		if have {
			sum += dx*pdx + dy*pdy
			count++
		}
		pdx, pdy = dx, dy
		have = true
	}
	if count == 0 {
		return 1
	}
	return (sum/float64(count) + 1) / 2
}
