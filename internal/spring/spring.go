// Package spring implements the damped second-order filter used to smooth
// every camera channel.
//
// Each channel is solved independently with its own parameters:
//
//	a = (-k·(x-target) - c·v) / m,  c = ζ·2·√(k·m)
//
// integrated with semi-implicit Euler. Large frame steps are clamped to
// MaxDt and split into sub-steps short enough to keep the discrete system
// free of oscillation when ζ ≥ 1.
package spring

import (
	"math"

	"github.com/ivlev/democam/internal/ease"
)

const (
	// MaxDt is the longest step accepted by Solve (seconds).
	MaxDt = 0.1

	// maxSubstep bounds a single integration step (seconds).
	maxSubstep = 1.0 / 120.0

	// maxPhase bounds ω·h for a single integration step.
	maxPhase = 0.25

	// maxDrag bounds c·h/m for a single integration step; the discrete
	// system stays monotone only while it is below 1.
	maxDrag = 0.5
)

// Params tunes one channel.
type Params struct {
	Stiffness float64 `yaml:"stiffness" json:"stiffness"` // k
	Damping   float64 `yaml:"damping" json:"damping"`     // ζ, 1.0 = critical
	Mass      float64 `yaml:"mass" json:"mass"`           // m
	Epsilon   float64 `yaml:"epsilon" json:"epsilon"`     // rest threshold for position error and velocity
}

// State is a channel value together with its velocity.
type State struct {
	Value    float64
	Velocity float64
}

// Scaled returns p with stiffness multiplied by ks and the damping ratio by kd.
func (p Params) Scaled(ks, kd float64) Params {
	p.Stiffness *= ks
	p.Damping *= kd
	return p
}

// Valid reports whether p can drive Solve.
func (p Params) Valid() bool {
	return ease.Finite(p.Stiffness, p.Damping, p.Mass, p.Epsilon) &&
		p.Stiffness > 0 && p.Damping >= 0 && p.Mass > 0 && p.Epsilon >= 0
}

// AtRest reports whether a channel is within epsilon of target and nearly still.
func (p Params) AtRest(current, target, velocity float64) bool {
	return math.Abs(current-target) < p.Epsilon && math.Abs(velocity) < p.Epsilon
}

// Solve advances a channel by dt toward target.
//
// Non-finite inputs or invalid parameters leave the value where it was (or at
// target if the current value itself is unusable) with zero velocity.
func Solve(current, target, velocity float64, p Params, dt float64) State {
	if !ease.Finite(current) {
		if ease.Finite(target) {
			return State{Value: target}
		}
		return State{}
	}
	if !ease.Finite(target, velocity, dt) || !p.Valid() {
		return State{Value: current}
	}
	if p.AtRest(current, target, velocity) {
		return State{Value: target}
	}
	if dt <= 0 {
		return State{Value: current, Velocity: velocity}
	}
	if dt > MaxDt {
		dt = MaxDt
	}

	omega := math.Sqrt(p.Stiffness / p.Mass)
	c := p.Damping * 2 * math.Sqrt(p.Stiffness*p.Mass)

	steps := int(math.Ceil(dt / maxSubstep))
	if n := int(math.Ceil(dt * omega / maxPhase)); n > steps {
		steps = n
	}
	if n := int(math.Ceil(dt * c / p.Mass / maxDrag)); n > steps {
		steps = n
	}
	h := dt / float64(steps)

	x, v := current, velocity
	for i := 0; i < steps; i++ {
		a := (-p.Stiffness*(x-target) - c*v) / p.Mass
		v += a * h
		x += v * h
	}

	if !ease.Finite(x, v) {
		return State{Value: current}
	}
	if p.AtRest(x, target, v) {
		return State{Value: target}
	}
	return State{Value: x, Velocity: v}
}
