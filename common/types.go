// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// TileImage holds decoded RGBA pixel data for a tile or base panorama pending texture upload.
// The renderer collaborator owns the GPU side; the streaming core only passes these around.
type TileImage struct {
	// Pixels is the byte slice representing the actual pixel data. It is in RGBA format, with 4 bytes per pixel, row-major.
	Pixels []byte
	// Width is the width of the image in pixels.
	Width uint32
	// Height is the height of the image in pixels.
	Height uint32
}

// Bounds returns the image rectangle anchored at the origin.
//
// Returns:
//   - image.Rectangle: the bounds of the image
func (t *TileImage) Bounds() image.Rectangle {
	if t == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, int(t.Width), int(t.Height))
}

// RGBA wraps the pixel buffer in an *image.RGBA without copying.
//
// Returns:
//   - *image.RGBA: a view over Pixels
func (t *TileImage) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    t.Pixels,
		Stride: int(t.Width) * 4,
		Rect:   t.Bounds(),
	}
}

// NewTileImage converts any decoded image into a TileImage with tightly packed RGBA pixels.
// Reference: https://pkg.go.dev/golang.org/x/image/draw
//
// Parameters:
//   - img: the decoded source image
//
// Returns:
//   - *TileImage: the RGBA copy of the image
//   - error: error if the image is nil or empty
func NewTileImage(img image.Image) (*TileImage, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has empty bounds %v", bounds)
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	return &TileImage{
		Pixels: dst.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// Vec3 is a plain 3-component vector used for sphere vertices and view directions.
type Vec3 [3]float32

// UV is a single texture coordinate pair.
type UV [2]float32

// PanoData describes how an equirectangular image maps onto the full sphere.
// A cropped image only covers part of the full 2:1 canvas; the offsets place it.
type PanoData struct {
	// FullWidth is the width of the complete 360° canvas in pixels.
	FullWidth int
	// FullHeight is the height of the complete canvas, always FullWidth/2 after normalization.
	FullHeight int
	// CroppedWidth is the width of the actual image.
	CroppedWidth int
	// CroppedHeight is the height of the actual image.
	CroppedHeight int
	// CroppedX is the horizontal offset of the image inside the full canvas.
	CroppedX int
	// CroppedY is the vertical offset of the image inside the full canvas.
	CroppedY int
	// PoseHeading, PosePitch, PoseRoll rotate the panorama sphere, in radians.
	PoseHeading, PosePitch, PoseRoll float32
}
