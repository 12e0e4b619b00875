package effects

import (
	"errors"
	"math"
	"testing"
)

func TestActive(t *testing.T) {
	ws := []Window{
		{Start: 1, End: 4, Scale: 2, X: 0.25, Y: 0.75, Label: "intro"},
		{Start: 2, End: 3, Scale: 1.5, X: 0.8, Y: 0.2, Ease: EaseHold, Label: "detail"},
		{Start: 5, End: 4, Scale: 3, Label: "broken"},
	}

	tests := []struct {
		name  string
		t     float64
		ok    bool
		label string
		scale float64
	}{
		{"before everything", 0.5, false, "", 0},
		{"ramp start is neutral", 1, true, "intro", 1},
		{"after ramp", 1.5, true, "intro", 2},
		{"later window wins", 2.5, true, "detail", 1.5},
		{"end is exclusive", 4, false, "", 0},
		{"invalid window ignored", 4.5, false, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Active(ws, tt.t)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Label != tt.label {
				t.Errorf("label: got %q, want %q", got.Label, tt.label)
			}
			if math.Abs(got.Scale-tt.scale) > 1e-9 {
				t.Errorf("scale: got %.4f, want %.4f", got.Scale, tt.scale)
			}
		})
	}
}

func TestAtEasesTowardFraming(t *testing.T) {
	w := Window{Start: 0, End: 2, Scale: 2, X: 1, Y: 0, Ease: EaseLinear, Ramp: 1}
	mid := w.At(0.5)
	if math.Abs(mid.Scale-1.5) > 1e-9 || math.Abs(mid.X-0.75) > 1e-9 || math.Abs(mid.Y-0.25) > 1e-9 {
		t.Errorf("unexpected midpoint %+v", mid)
	}
}

func TestValidate(t *testing.T) {
	good := []Window{{Start: 0, End: 1, Scale: 1.2}}
	if err := Validate(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Window{
		{Start: 1, End: 1, Scale: 2},
		{Start: 0, End: 1, Scale: 0.5},
		{Start: 0, End: math.Inf(1), Scale: 2},
		{Start: 0, End: 1, Scale: 2, Ease: "bounce"},
	}
	for i, w := range bad {
		if err := Validate([]Window{w}); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("case %d: expected ErrInvalidWindow, got %v", i, err)
		}
	}
}
