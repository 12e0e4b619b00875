package renderer

import (
	"math"
	"strings"
	"testing"

	"github.com/ivlev/democam/internal/camera"
	"github.com/ivlev/democam/internal/director"
)

func TestInterpolateKeyframes(t *testing.T) {
	keyframes := []director.Keyframe{
		{Time: 0.0, Zoom: 1.0},
		{Time: 2.0, Zoom: 1.5, X: -200, Y: 100},
		{Time: 4.0, Zoom: 2.0, X: -400, Y: 0, Rotation: 1},
	}

	tests := []struct {
		time         float64
		expectedZoom float64
		expectedX    float64
	}{
		{-1.0, 1.0, 0},
		{0.0, 1.0, 0},
		{1.0, 1.25, -100},
		{2.0, 1.5, -200},
		{3.0, 1.75, -300},
		{4.0, 2.0, -400},
		{5.0, 2.0, -400},
	}

	for _, tt := range tests {
		state := InterpolateKeyframes(keyframes, tt.time)
		if math.Abs(state.Scale-tt.expectedZoom) > 1e-9 {
			t.Errorf("At time %.1f: expected zoom %.2f, got %.4f", tt.time, tt.expectedZoom, state.Scale)
		}
		if math.Abs(state.TranslateX-tt.expectedX) > 1e-9 {
			t.Errorf("At time %.1f: expected x %.1f, got %.4f", tt.time, tt.expectedX, state.TranslateX)
		}
	}

	if got := InterpolateKeyframes(nil, 1); got != camera.Neutral() {
		t.Errorf("empty track should be neutral, got %+v", got)
	}
}

func TestGenerateZoomPanFilter(t *testing.T) {
	keyframes := []director.Keyframe{
		{Time: 0.0, Zoom: 1.0},
		{Time: 2.0, Zoom: 2.0, X: -960},
	}

	filter := GenerateZoomPanFilter(keyframes, 30, 1920, 1080)
	for _, part := range []string{"zoompan", "z='", "x='", "y='", "s=1920x1080", "fps=30"} {
		if !strings.Contains(filter, part) {
			t.Errorf("Filter should contain %q", part)
		}
	}
	// At zoom 2 panned fully left the crop starts at the right half.
	if !strings.Contains(filter, "960.000000") {
		t.Errorf("expected the final crop origin 960 in %s", filter)
	}
	if strings.Count(filter, "(") != strings.Count(filter, ")") {
		t.Errorf("unbalanced parentheses in %s", filter)
	}
	t.Logf("Generated filter: %s", filter)

	if GenerateZoomPanFilter(nil, 30, 1920, 1080) != "" {
		t.Error("Expected empty filter without keyframes")
	}
}

func TestCropOrigin(t *testing.T) {
	tests := []struct {
		translate, zoom, dim, want float64
	}{
		{0, 1, 1920, 0},
		{0, 2, 1920, 480},
		{-960, 2, 1920, 960},
		{960, 2, 1920, 0},
	}
	for _, tt := range tests {
		if got := cropOrigin(tt.translate, tt.zoom, tt.dim); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("cropOrigin(%v, %v, %v) = %v, want %v", tt.translate, tt.zoom, tt.dim, got, tt.want)
		}
	}
}

func TestGenerateFilterChain(t *testing.T) {
	flat := []director.Keyframe{{Time: 0, Zoom: 1}, {Time: 1, Zoom: 1.2}}
	if chain := GenerateFilterChain(flat, 30, 1280, 720); strings.Contains(chain, "rotate") {
		t.Errorf("no rotation expected in %s", chain)
	}

	tilted := []director.Keyframe{{Time: 0, Zoom: 1}, {Time: 1, Zoom: 1.2, Rotation: 1.5}}
	chain := GenerateFilterChain(tilted, 30, 1280, 720)
	if !strings.Contains(chain, "zoompan=") || !strings.Contains(chain, ",rotate=a='") {
		t.Errorf("expected zoompan followed by rotate, got %s", chain)
	}
}
