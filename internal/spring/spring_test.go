package spring

import (
	"math"
	"testing"
)

func TestSolveNoOvershoot(t *testing.T) {
	tests := []struct {
		name          string
		start, target float64
		params        Params
		dt            float64
	}{
		{"scale up", 1.0, 1.5, Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4}, 1.0 / 60},
		{"pan down", 0, -480, Params{Stiffness: 90, Damping: 1, Mass: 1, Epsilon: 0.01}, 1.0 / 30},
		{"overdamped", 2.5, 1, Params{Stiffness: 60, Damping: 1.6, Mass: 1, Epsilon: 1e-4}, 0.05},
		{"stiff with long frames", 0, 10, Params{Stiffness: 900, Damping: 1, Mass: 2, Epsilon: 1e-4}, MaxDt},
		{"heavy damping", 5, -5, Params{Stiffness: 200, Damping: 4, Mass: 1, Epsilon: 1e-4}, 1.0 / 24},
		{"very stiff", 1, 2.5, Params{Stiffness: 1e5, Damping: 1, Mass: 1, Epsilon: 1e-4}, MaxDt},
		{"frame longer than MaxDt", 0, -300, Params{Stiffness: 2000, Damping: 1, Mass: 1, Epsilon: 0.01}, 0.5},
		{"stiff and overdamped", 2.5, 1, Params{Stiffness: 5000, Damping: 3, Mass: 1, Epsilon: 1e-4}, MaxDt},
		{"light mass", 0, 1, Params{Stiffness: 300, Damping: 1, Mass: 0.05, Epsilon: 1e-4}, 1.0 / 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := math.Min(tt.start, tt.target), math.Max(tt.start, tt.target)
			st := State{Value: tt.start}
			for i := 0; i < 2000; i++ {
				st = Solve(st.Value, tt.target, st.Velocity, tt.params, tt.dt)
				if st.Value < lo || st.Value > hi {
					t.Fatalf("step %d: value %.9f left [%.3f, %.3f]", i, st.Value, lo, hi)
				}
			}
			if st.Value != tt.target || st.Velocity != 0 {
				t.Errorf("expected exact rest at %.3f, got %.9f (v=%.9f)", tt.target, st.Value, st.Velocity)
			}
		})
	}
}

func TestSolveSnapsNearRest(t *testing.T) {
	p := Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-3}
	st := Solve(1.0004, 1.0, 0.0002, p, 1.0/60)
	if st.Value != 1.0 || st.Velocity != 0 {
		t.Errorf("expected snap to target, got %+v", st)
	}
}

func TestSolveSingleStepDoesNotConverge(t *testing.T) {
	p := Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4}
	st := Solve(1, 1.5, 0, p, 0.05)
	if st.Value <= 1 || st.Value >= 1.5 {
		t.Errorf("expected value strictly inside (1, 1.5), got %f", st.Value)
	}
	t.Logf("one 50ms step: value=%.4f velocity=%.4f", st.Value, st.Velocity)
}

func TestSolveClampsDt(t *testing.T) {
	p := Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4}
	long := Solve(0, 1, 0, p, 5)
	capped := Solve(0, 1, 0, p, MaxDt)
	if long != capped {
		t.Errorf("dt above MaxDt should behave like MaxDt: %+v vs %+v", long, capped)
	}
}

func TestSolveRejectsNonFinite(t *testing.T) {
	p := Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4}

	tests := []struct {
		name                      string
		current, target, velocity float64
		dt                        float64
		params                    Params
		want                      State
	}{
		{"nan target", 1.2, math.NaN(), 0.5, 0.016, p, State{Value: 1.2}},
		{"inf velocity", 1.2, 1.5, math.Inf(1), 0.016, p, State{Value: 1.2}},
		{"nan current", math.NaN(), 1.5, 0, 0.016, p, State{Value: 1.5}},
		{"nan dt", 1.2, 1.5, 0, math.NaN(), p, State{Value: 1.2}},
		{"bad params", 1.2, 1.5, 0, 0.016, Params{}, State{Value: 1.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Solve(tt.current, tt.target, tt.velocity, tt.params, tt.dt)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSolveZeroDtHolds(t *testing.T) {
	p := Params{Stiffness: 120, Damping: 1, Mass: 1, Epsilon: 1e-4}
	got := Solve(1.2, 1.5, 0.3, p, 0)
	if got.Value != 1.2 || got.Velocity != 0.3 {
		t.Errorf("zero dt should leave the channel untouched, got %+v", got)
	}
}
