package camera

import "github.com/Carmen-Shannon/oxy-pano/common"

// CameraController owns the look state of a panorama viewer: the camera sits at the centre of the
// sphere and only rotates (yaw, pitch) or zooms (field of view). The Camera reads from the controller
// and computes view/projection matrices.
type CameraController interface {
	// Yaw returns the horizontal look angle. 0 faces the middle of the panorama, positive turns right.
	//
	// Returns:
	//   - float32: yaw in radians
	Yaw() float32

	// SetYaw sets the horizontal look angle, wrapped to (-π, π].
	//
	// Parameters:
	//   - yaw: yaw in radians
	SetYaw(yaw float32)

	// Pitch returns the vertical look angle above the horizon.
	//
	// Returns:
	//   - float32: pitch in radians
	Pitch() float32

	// SetPitch sets the vertical look angle, clamped to [-π/2, π/2].
	//
	// Parameters:
	//   - pitch: pitch in radians
	SetPitch(pitch float32)

	// Fov returns the vertical field of view.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// SetFov sets the vertical field of view, clamped to [MinFov, MaxFov].
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// MinFov returns the narrowest allowed field of view.
	//
	// Returns:
	//   - float32: minimum field of view in radians
	MinFov() float32

	// MaxFov returns the widest allowed field of view.
	//
	// Returns:
	//   - float32: maximum field of view in radians
	MaxFov() float32

	// Drag rotates the view by a pointer movement of (dx, dy) pixels over a viewport of width x height pixels.
	// The rotation speed scales with 6*tan(fov/4) so that a narrow view turns slower.
	//
	// Parameters:
	//   - dx, dy: pointer movement in pixels
	//   - width, height: viewport size in pixels
	Drag(dx, dy, width, height float32)

	// Wheel zooms by a scroll delta. Positive delta widens the field of view by ZoomSpeed degrees per unit.
	//
	// Parameters:
	//   - delta: scroll amount
	Wheel(delta float32)

	// Turn adds to yaw and pitch directly.
	//
	// Parameters:
	//   - dYaw: yaw change in radians
	//   - dPitch: pitch change in radians
	Turn(dYaw, dPitch float32)

	// ZoomSpeed returns the wheel zoom speed in degrees per scroll unit.
	//
	// Returns:
	//   - float32: zoom speed
	ZoomSpeed() float32

	// Direction returns the unit look direction.
	//
	// Returns:
	//   - common.Vec3: the look direction
	Direction() common.Vec3
}
