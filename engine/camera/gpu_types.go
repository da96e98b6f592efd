package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniform is the packed camera uniform a renderer uploads for the panorama shaders.
// Size: 80 bytes (std430 / WGSL aligned).
type GPUCameraUniform struct {
	ViewProj  [16]float32 // offset  0: combined view-projection matrix (mat4x4<f32>)
	Direction [3]float32  // offset 64: unit look direction (vec3<f32>)
	Fov       float32     // offset 76: vertical field of view in radians
}

// NewGPUCameraUniform packs a camera state.
//
// Parameters:
//   - s: the camera state
//
// Returns:
//   - GPUCameraUniform: the uniform
func NewGPUCameraUniform(s State) GPUCameraUniform {
	return GPUCameraUniform{ViewProj: s.ViewProjection, Direction: s.Direction, Fov: s.Fov}
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Direction[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.Fov))
	return buf
}
