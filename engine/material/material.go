package material

import (
	"github.com/Carmen-Shannon/oxy-pano/common"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	baseColor [4]float32
	opacity   float32
	texture   *common.TileImage
	mipmaps   bool
	isError   bool
	level     int
}

// Material describes what a renderer should draw on a sphere patch: a decoded tile texture
// and how it should be sampled. Materials are immutable once built and may be shared
// by every patch a tile covers.
type Material interface {
	// Name retrieves the material identifier, typically the tile key.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA color multiplied with the texture.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Opacity retrieves the material opacity. Patches that never received a tile use a fully transparent
	// material so the base panorama shows through.
	//
	// Returns:
	//   - float32: opacity in [0, 1]
	Opacity() float32

	// Texture retrieves the decoded texture, or nil if the material is untextured.
	//
	// Returns:
	//   - *common.TileImage: the texture, or nil
	Texture() *common.TileImage

	// Mipmaps reports whether the renderer should generate mipmaps and use trilinear filtering for the texture.
	//
	// Returns:
	//   - bool: true if mipmaps are requested
	Mipmaps() bool

	// IsError reports whether this is the placeholder shown for tiles that failed to load.
	//
	// Returns:
	//   - bool: true for the error placeholder
	IsError() bool

	// Level retrieves the pyramid level the texture was loaded from, or -1 for untextured and error materials.
	//
	// Returns:
	//   - int: the level index
	Level() int
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		opacity:   1.0,
		level:     -1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// NewTransparent returns the material patches carry before any tile is applied.
//
// Returns:
//   - Material: an untextured, fully transparent material
func NewTransparent() Material {
	return NewMaterial(WithName("transparent"), WithOpacity(0))
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Opacity() float32 {
	return m.opacity
}

func (m *material) Texture() *common.TileImage {
	return m.texture
}

func (m *material) Mipmaps() bool {
	return m.mipmaps
}

func (m *material) IsError() bool {
	return m.isError
}

func (m *material) Level() int {
	return m.level
}
