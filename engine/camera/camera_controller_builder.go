package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithYaw sets the initial horizontal look angle.
//
// Parameters:
//   - yaw: yaw in radians (0 = middle of the panorama)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
	}
}

// WithPitch sets the initial vertical look angle.
//
// Parameters:
//   - pitch: pitch in radians (0 = horizon)
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitch = pitch
	}
}

// WithFov sets the initial vertical field of view.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the field of view
func WithFov(fov float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.fov = fov
	}
}

// WithFovRange sets the field of view bounds.
//
// Parameters:
//   - minFov: narrowest field of view in radians
//   - maxFov: widest field of view in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the bounds
func WithFovRange(minFov, maxFov float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minFov = minFov
		cc.maxFov = maxFov
	}
}

// WithZoomSpeed sets the wheel zoom speed.
//
// Parameters:
//   - degreesPerUnit: field of view change in degrees per scroll unit
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom speed
func WithZoomSpeed(degreesPerUnit float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = degreesPerUnit
	}
}
