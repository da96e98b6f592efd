package material

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithOpacity is an option builder that sets the opacity of the material.
//
// Parameters:
//   - opacity: opacity in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the opacity option to a material
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = common.Clamp(opacity, 0, 1)
	}
}

// WithTexture is an option builder that sets the decoded texture of the material.
//
// Parameters:
//   - texture: the decoded tile image
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(texture *common.TileImage) MaterialBuilderOption {
	return func(m *material) {
		m.texture = texture
	}
}

// WithMipmaps is an option builder that requests mipmapped sampling for the texture.
//
// Parameters:
//   - enabled: true to request mipmaps
//
// Returns:
//   - MaterialBuilderOption: a function that applies the mipmap option to a material
func WithMipmaps(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.mipmaps = enabled
	}
}

// WithLevel is an option builder that records the pyramid level the texture belongs to.
//
// Parameters:
//   - level: the level index
//
// Returns:
//   - MaterialBuilderOption: a function that applies the level option to a material
func WithLevel(level int) MaterialBuilderOption {
	return func(m *material) {
		m.level = level
	}
}

// AsErrorPlaceholder is an option builder that marks the material as the failed-tile placeholder.
//
// Returns:
//   - MaterialBuilderOption: a function that flags the material as an error placeholder
func AsErrorPlaceholder() MaterialBuilderOption {
	return func(m *material) {
		m.isError = true
		m.level = -1
	}
}
