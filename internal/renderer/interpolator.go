package renderer

import (
	"sort"

	"github.com/ivlev/democam/internal/camera"
	"github.com/ivlev/democam/internal/director"
	"github.com/ivlev/democam/internal/ease"
)

// InterpolateKeyframes calculates the camera transform at a given time.
// Keyframes come from a path reduced against linear interpolation, so
// reconstruction is linear as well.
func InterpolateKeyframes(keyframes []director.Keyframe, currentTime float64) camera.Transform {
	if len(keyframes) == 0 {
		return camera.Neutral()
	}

	// If before first keyframe, use first keyframe
	if currentTime <= keyframes[0].Time {
		return transformOf(keyframes[0])
	}

	// If after last keyframe, use last keyframe
	last := keyframes[len(keyframes)-1]
	if currentTime >= last.Time {
		return transformOf(last)
	}

	// First keyframe strictly after currentTime
	i := sort.Search(len(keyframes), func(i int) bool { return keyframes[i].Time > currentTime })
	prevKf, nextKf := keyframes[i-1], keyframes[i]

	timeDelta := nextKf.Time - prevKf.Time
	if timeDelta <= 0 {
		return transformOf(nextKf)
	}
	t := (currentTime - prevKf.Time) / timeDelta

	return camera.Transform{
		Scale:      ease.Lerp(prevKf.Zoom, nextKf.Zoom, t),
		TranslateX: ease.Lerp(prevKf.X, nextKf.X, t),
		TranslateY: ease.Lerp(prevKf.Y, nextKf.Y, t),
		Rotation:   ease.Lerp(prevKf.Rotation, nextKf.Rotation, t),
		Vignette:   ease.Lerp(prevKf.Vignette, nextKf.Vignette, t),
	}
}

func transformOf(kf director.Keyframe) camera.Transform {
	return camera.Transform{
		Scale:      kf.Zoom,
		TranslateX: kf.X,
		TranslateY: kf.Y,
		Rotation:   kf.Rotation,
		Vignette:   kf.Vignette,
	}
}
