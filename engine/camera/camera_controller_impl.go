package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

const (
	// DefaultMinFov is the narrowest default field of view, 30°.
	DefaultMinFov = float32(30 * math.Pi / 180)
	// DefaultMaxFov is the widest default field of view, 120°.
	DefaultMaxFov = float32(120 * math.Pi / 180)
	// DefaultFov is the initial field of view, 90°.
	DefaultFov = float32(90 * math.Pi / 180)
	// DefaultZoomSpeed is the wheel zoom speed in degrees per scroll unit.
	DefaultZoomSpeed = float32(0.1)

	maxPitch = float32(math.Pi / 2)
)

// cameraControllerImpl is the single implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	yaw   float32
	pitch float32
	fov   float32

	minFov    float32
	maxFov    float32
	zoomSpeed float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a look controller facing the middle of the panorama with a 90° field of view.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:        &sync.Mutex{},
		fov:       DefaultFov,
		minFov:    DefaultMinFov,
		maxFov:    DefaultMaxFov,
		zoomSpeed: DefaultZoomSpeed,
	}

	for _, option := range options {
		option(cc)
	}

	if cc.minFov > cc.maxFov {
		cc.minFov, cc.maxFov = cc.maxFov, cc.minFov
	}
	cc.yaw = wrapAngle(cc.yaw)
	cc.pitch = common.Clamp(cc.pitch, -maxPitch, maxPitch)
	cc.fov = common.Clamp(cc.fov, cc.minFov, cc.maxFov)
	return cc
}

// wrapAngle maps an angle to (-π, π].
func wrapAngle(a float32) float32 {
	w := math.Mod(float64(a)+math.Pi, 2*math.Pi)
	if w <= 0 {
		w += 2 * math.Pi
	}
	return float32(w - math.Pi)
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) SetYaw(yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = wrapAngle(yaw)
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetPitch(pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = common.Clamp(pitch, -maxPitch, maxPitch)
}

func (cc *cameraControllerImpl) Fov() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.fov
}

func (cc *cameraControllerImpl) SetFov(fov float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.fov = common.Clamp(fov, cc.minFov, cc.maxFov)
}

func (cc *cameraControllerImpl) MinFov() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minFov
}

func (cc *cameraControllerImpl) MaxFov() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxFov
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

func (cc *cameraControllerImpl) Drag(dx, dy, width, height float32) {
	if width <= 0 || height <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	speed := 6 * float32(math.Tan(float64(cc.fov)/4))
	cc.yaw = wrapAngle(cc.yaw - dx*speed/width)
	cc.pitch = common.Clamp(cc.pitch+dy*speed/height, -maxPitch, maxPitch)
}

func (cc *cameraControllerImpl) Wheel(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.fov = common.Clamp(cc.fov+delta*cc.zoomSpeed*math.Pi/180, cc.minFov, cc.maxFov)
}

func (cc *cameraControllerImpl) Turn(dYaw, dPitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = wrapAngle(cc.yaw + dYaw)
	cc.pitch = common.Clamp(cc.pitch+dPitch, -maxPitch, maxPitch)
}

func (cc *cameraControllerImpl) Direction() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return common.DirectionFromYawPitch(cc.yaw, cc.pitch)
}
