// Package renderer bridges exported camera tracks to the encoder: it
// reconstructs transforms from keyframes and emits ffmpeg filter
// expressions. It never runs ffmpeg itself.
package renderer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/democam/internal/director"
)

// GenerateZoomPanFilter creates an FFmpeg zoompan filter that replays the
// track on a width x height input.
func GenerateZoomPanFilter(keyframes []director.Keyframe, fps int, width, height int) string {
	if len(keyframes) == 0 || fps <= 0 || width <= 0 || height <= 0 {
		return ""
	}

	zoomExpr := buildPiecewise(keyframes, "on", float64(fps), func(kf director.Keyframe) float64 {
		return zoomOf(kf)
	})
	// zoompan wants the top-left corner of the visible region.
	xExpr := buildPiecewise(keyframes, "on", float64(fps), func(kf director.Keyframe) float64 {
		return cropOrigin(kf.X, zoomOf(kf), float64(width))
	})
	yExpr := buildPiecewise(keyframes, "on", float64(fps), func(kf director.Keyframe) float64 {
		return cropOrigin(kf.Y, zoomOf(kf), float64(height))
	})

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=1:s=%dx%d:fps=%d",
		zoomExpr, xExpr, yExpr, width, height, fps)
}

// GenerateRotateFilter creates an FFmpeg rotate filter following the
// track's rotation, or "" when the track never rotates.
func GenerateRotateFilter(keyframes []director.Keyframe) string {
	rotates := false
	for _, kf := range keyframes {
		if kf.Rotation != 0 {
			rotates = true
			break
		}
	}
	if !rotates {
		return ""
	}
	expr := buildPiecewise(keyframes, "t", 1, func(kf director.Keyframe) float64 {
		return kf.Rotation * math.Pi / 180
	})
	return fmt.Sprintf("rotate=a='%s':ow=iw:oh=ih", expr)
}

// GenerateFilterChain joins the zoompan and rotate filters.
func GenerateFilterChain(keyframes []director.Keyframe, fps int, width, height int) string {
	parts := []string{}
	if zp := GenerateZoomPanFilter(keyframes, fps, width, height); zp != "" {
		parts = append(parts, zp)
	}
	if rot := GenerateRotateFilter(keyframes); rot != "" {
		parts = append(parts, rot)
	}
	return strings.Join(parts, ",")
}

func zoomOf(kf director.Keyframe) float64 {
	if kf.Zoom < 1 || math.IsNaN(kf.Zoom) {
		return 1
	}
	return kf.Zoom
}

// cropOrigin converts a translation into the top-left of the visible region
// along an axis of length dim.
func cropOrigin(translate, zoom, dim float64) float64 {
	return dim/2 - translate/zoom - dim/(2*zoom)
}

// buildPiecewise creates a nested if() expression that is linear in the
// variable v between keyframes. Keyframe times are multiplied by unit to
// get v (fps for frame numbers, 1 for seconds).
func buildPiecewise(keyframes []director.Keyframe, v string, unit float64, value func(director.Keyframe) float64) string {
	if len(keyframes) == 1 {
		return fmt.Sprintf("%.6f", value(keyframes[0]))
	}

	var expr strings.Builder
	open := 0
	for i := 0; i < len(keyframes)-1; i++ {
		start := keyframes[i].Time * unit
		end := keyframes[i+1].Time * unit
		if end <= start {
			continue
		}
		from, to := value(keyframes[i]), value(keyframes[i+1])
		fmt.Fprintf(&expr, "if(lte(%s,%.4f),%.6f+(%s-%.4f)/%.4f*(%.6f),",
			v, end, from, v, start, end-start, to-from)
		open++
	}
	fmt.Fprintf(&expr, "%.6f", value(keyframes[len(keyframes)-1]))
	expr.WriteString(strings.Repeat(")", open))
	return expr.String()
}
