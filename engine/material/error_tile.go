package material

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// DefaultErrorTileSize is the edge length in pixels of the generated error placeholder texture.
const DefaultErrorTileSize = 64

// NewErrorMaterial renders the placeholder texture shown on patches whose tile failed to load:
// a dark square crossed by a red X with a thin border, and wraps it in an error material.
//
// Parameters:
//   - size: edge length of the texture in pixels, DefaultErrorTileSize if <= 0
//
// Returns:
//   - Material: the error placeholder material
//   - error: error if the texture could not be rendered
func NewErrorMaterial(size int) (Material, error) {
	if size <= 0 {
		size = DefaultErrorTileSize
	}
	dc := gg.NewContext(size, size)
	defer dc.Close()

	s := float64(size)
	dc.ClearWithColor(gg.RGB(0.15, 0.15, 0.15))

	dc.SetRGB(0.35, 0.35, 0.35)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, s-2, s-2)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("failed to stroke error tile border: %w", err)
	}

	inset := s / 4
	dc.SetRGB(0.85, 0.2, 0.2)
	dc.SetLineWidth(s / 16)
	dc.DrawLine(inset, inset, s-inset, s-inset)
	dc.DrawLine(s-inset, inset, inset, s-inset)
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("failed to stroke error tile cross: %w", err)
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush error tile: %w", err)
	}

	tex, err := common.NewTileImage(dc.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to convert error tile: %w", err)
	}

	return NewMaterial(
		WithName("error"),
		WithTexture(tex),
		AsErrorPlaceholder(),
	), nil
}
