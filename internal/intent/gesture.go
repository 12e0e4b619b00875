package intent

import (
	"math"
)

// CommandKind is a discrete camera instruction recognized from pointer shape.
type CommandKind int

const (
	NoCommand CommandKind = iota
	ZoomIn
	ZoomOut
	Pan
	Reset
	Emphasis
)

func (k CommandKind) String() string {
	switch k {
	case ZoomIn:
		return "zoom-in"
	case ZoomOut:
		return "zoom-out"
	case Pan:
		return "pan"
	case Reset:
		return "reset"
	case Emphasis:
		return "emphasis"
	default:
		return "none"
	}
}

// Command is a recognized gesture. DX, DY is the unit pan direction.
type Command struct {
	Kind   CommandKind
	DX, DY float64
	T      float64
}

// Recognize inspects recent positions for a gesture. At most one command is
// emitted per cooldown, and samples that led to a previous command are not
// reused.
func (a *Analyzer) Recognize(now float64, cfg Config) Command {
	if a.commanded && now-a.lastCommand < cfg.GestureCooldown {
		return Command{}
	}
	win := a.Window(now, cfg.GestureSpan)
	if a.commanded {
		win = after(win, a.lastCommand)
	}
	if len(win) < cfg.MinSamples {
		return Command{}
	}

	cmd := circle(win, cfg)
	if cmd.Kind == NoCommand {
		cmd = wiggle(win, cfg)
	}
	if cmd.Kind == NoCommand {
		cmd = jump(win, cfg)
	}
	if cmd.Kind == NoCommand {
		cmd = swipe(win, now, cfg)
	}
	if cmd.Kind != NoCommand {
		cmd.T = now
		a.lastCommand = now
		a.commanded = true
	}
	return cmd
}

func after(win []Sample, t float64) []Sample {
	for i, s := range win {
		if s.T > t {
			return win[i:]
		}
	}
	return nil
}

func pathLength(win []Sample) float64 {
	var l float64
	for i := 1; i < len(win); i++ {
		l += math.Hypot(win[i].X-win[i-1].X, win[i].Y-win[i-1].Y)
	}
	return l
}

// circle detects a closed loop. Screen coordinates grow downward, so a
// positive angular sweep is clockwise on screen and zooms in.
func circle(win []Sample, cfg Config) Command {
	l := pathLength(win)
	if l < cfg.MinPath {
		return Command{}
	}
	first, last := win[0], win[len(win)-1]
	if math.Hypot(last.X-first.X, last.Y-first.Y) > cfg.CircleClosure*l {
		return Command{}
	}

	var cx, cy float64
	for _, s := range win {
		cx += s.X
		cy += s.Y
	}
	cx /= float64(len(win))
	cy /= float64(len(win))

	var radius, sweep float64
	prev := math.Atan2(win[0].Y-cy, win[0].X-cx)
	for i, s := range win {
		radius += math.Hypot(s.X-cx, s.Y-cy)
		if i == 0 {
			continue
		}
		ang := math.Atan2(s.Y-cy, s.X-cx)
		d := ang - prev
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			d += 2 * math.Pi
		}
		sweep += d
		prev = ang
	}
	radius /= float64(len(win))

	if radius < cfg.CircleRadius || math.Abs(sweep) < cfg.CircleSweep {
		return Command{}
	}
	if sweep > 0 {
		return Command{Kind: ZoomIn}
	}
	return Command{Kind: ZoomOut}
}

// wiggle detects rapid back-and-forth motion inside a small box.
func wiggle(win []Sample, cfg Config) Command {
	if reversals(win, cfg.MotionFloor) < cfg.WiggleReversals {
		return Command{}
	}
	minX, maxX, minY, maxY := win[0].X, win[0].X, win[0].Y, win[0].Y
	for _, s := range win {
		minX = math.Min(minX, s.X)
		maxX = math.Max(maxX, s.X)
		minY = math.Min(minY, s.Y)
		maxY = math.Max(maxY, s.Y)
	}
	if math.Hypot(maxX-minX, maxY-minY) > cfg.WiggleExtent {
		return Command{}
	}
	return Command{Kind: Emphasis}
}

type run struct {
	moving     bool
	start, end int
}

func runs(win []Sample, floor float64) []run {
	var out []run
	for i, s := range win {
		moving := s.Speed() >= floor
		if len(out) > 0 && out[len(out)-1].moving == moving {
			out[len(out)-1].end = i
			continue
		}
		out = append(out, run{moving: moving, start: i, end: i})
	}
	return out
}

// jump detects a pause, one quick relocation, and a second pause that lasts
// until now.
func jump(win []Sample, cfg Config) Command {
	rs := runs(win, cfg.StationarySpeed)
	if len(rs) < 3 {
		return Command{}
	}
	before, move, settle := rs[len(rs)-3], rs[len(rs)-2], rs[len(rs)-1]
	if before.moving || !move.moving || settle.moving {
		return Command{}
	}
	dur := func(r run) float64 { return win[r.end].T - win[r.start].T }
	if dur(before) < cfg.StationaryMin || dur(settle) < cfg.StationaryMin {
		return Command{}
	}
	moveDur := win[settle.start].T - win[before.end].T
	if moveDur > cfg.JumpMax {
		return Command{}
	}
	from, to := win[before.end], win[settle.start]
	if math.Hypot(to.X-from.X, to.Y-from.Y) < cfg.JumpDistance {
		return Command{}
	}
	return Command{Kind: Reset}
}

// swipe detects a fast, nearly straight stroke over the last SwipeSpan.
func swipe(win []Sample, now float64, cfg Config) Command {
	var recent []Sample
	for _, s := range win {
		if s.T >= now-cfg.SwipeSpan {
			recent = append(recent, s)
		}
	}
	if len(recent) < 2 {
		return Command{}
	}
	first, last := recent[0], recent[len(recent)-1]
	dx, dy := last.X-first.X, last.Y-first.Y
	dist := math.Hypot(dx, dy)
	if dist < cfg.SwipeDistance {
		return Command{}
	}
	if dist/pathLength(recent) < cfg.SwipeStraight {
		return Command{}
	}
	return Command{Kind: Pan, DX: dx / dist, DY: dy / dist}
}
