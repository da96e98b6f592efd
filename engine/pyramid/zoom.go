package pyramid

import "github.com/Carmen-Shannon/oxy-pano/common"

// ZoomPolicy maps the camera's vertical field of view (radians) to the 0-100 zoom scale used to pick a level.
type ZoomPolicy func(fov float32) float64

// FinestZoom always selects the finest level, whatever the field of view.
//
// Parameters:
//   - fov: ignored
//
// Returns:
//   - float64: MaxZoom
func FinestZoom(float32) float64 {
	return MaxZoom
}

// FovZoom returns a policy mapping maxFov to zoom 0 and minFov to zoom 100, linearly in between.
// Values outside [minFov, maxFov] are clamped.
//
// Parameters:
//   - minFov: the narrowest field of view, in radians
//   - maxFov: the widest field of view, in radians
//
// Returns:
//   - ZoomPolicy: the policy
func FovZoom(minFov, maxFov float32) ZoomPolicy {
	if maxFov <= minFov {
		panic("pyramid: FovZoom requires minFov < maxFov")
	}
	span := float64(maxFov) - float64(minFov)
	return func(fov float32) float64 {
		z := (float64(maxFov) - float64(fov)) / span * MaxZoom
		return common.Clamp(z, MinZoom, MaxZoom)
	}
}
