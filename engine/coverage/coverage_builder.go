package coverage

type coverageOptions struct {
	cellSize  int
	gridLines bool
}

// CoverageBuilderOption is a functional option for Render, EncodePNG and SavePNG.
type CoverageBuilderOption func(*coverageOptions)

// WithCellSize sets the patch cell edge length in pixels. Values <= 0 are ignored.
//
// Parameters:
//   - px: the cell size
//
// Returns:
//   - CoverageBuilderOption: option function to apply
func WithCellSize(px int) CoverageBuilderOption {
	return func(o *coverageOptions) {
		if px > 0 {
			o.cellSize = px
		}
	}
}

// WithGridLines toggles the lines drawn between cells. Enabled by default for cells of 4 pixels or more.
//
// Parameters:
//   - enabled: true to draw the lines
//
// Returns:
//   - CoverageBuilderOption: option function to apply
func WithGridLines(enabled bool) CoverageBuilderOption {
	return func(o *coverageOptions) {
		o.gridLines = enabled
	}
}
