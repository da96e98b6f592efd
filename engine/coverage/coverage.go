// Package coverage draws the per-patch resolution state of a streamed sphere as an image: one cell per
// patch, laid out like the equirectangular panorama, coloured by the level shown on the patch.
package coverage

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"

	"github.com/Carmen-Shannon/oxy-pano/engine/arbiter"
)

// DefaultCellSize is the edge length in pixels of one patch cell.
const DefaultCellSize = 8

var (
	emptyColor  = gg.RGB(0.12, 0.12, 0.12)
	errorColor  = gg.RGB(0.85, 0.2, 0.2)
	coarseColor = gg.RGB(0.15, 0.3, 0.8)
	fineColor   = gg.RGB(0.2, 0.85, 0.35)
	gridColor   = gg.RGBA2(0, 0, 0, 0.6)
)

// Grid is the state to draw.
type Grid struct {
	// Cols and Rows are the sphere patch grid.
	Cols, Rows int
	// LevelCount is the number of pyramid levels, used to spread the level colours.
	LevelCount int
	// Levels maps patch index (row*Cols+col) to level, arbiter.ErrorLevel for the error placeholder.
	// Absent patches show only the base image.
	Levels map[int]int
}

// Summary counts patches by state.
type Summary struct {
	// ByLevel maps level to patch count.
	ByLevel map[int]int
	// Errors counts patches showing the error placeholder.
	Errors int
	// Empty counts patches with no tile.
	Empty int
}

// Summarize counts the patches of g by state.
//
// Returns:
//   - Summary: the counts
func (g Grid) Summarize() Summary {
	s := Summary{ByLevel: make(map[int]int)}
	for i := 0; i < g.Cols*g.Rows; i++ {
		level, ok := g.Levels[i]
		switch {
		case !ok:
			s.Empty++
		case level == arbiter.ErrorLevel:
			s.Errors++
		default:
			s.ByLevel[level]++
		}
	}
	return s
}

// LevelColor returns the colour of a patch state: dark grey when absent, red for the error placeholder,
// and a blue to green ramp from the coarsest to the finest level.
//
// Parameters:
//   - level: the patch level
//   - present: false when the patch has no tile
//   - levelCount: number of pyramid levels
//
// Returns:
//   - gg.RGBA: the colour
func LevelColor(level int, present bool, levelCount int) gg.RGBA {
	if !present {
		return emptyColor
	}
	if level == arbiter.ErrorLevel {
		return errorColor
	}
	if levelCount <= 1 || level >= levelCount-1 {
		return fineColor
	}
	if level <= 0 {
		return coarseColor
	}
	t := float64(level) / float64(levelCount-1)
	return coarseColor.Lerp(fineColor, t)
}

// Render draws g.
//
// Parameters:
//   - g: the grid
//   - options: functional options
//
// Returns:
//   - image.Image: the coverage map
//   - error: error if the grid is empty or drawing fails
func Render(g Grid, options ...CoverageBuilderOption) (image.Image, error) {
	dc, err := draw(g, options...)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG draws g and writes it to w as PNG.
//
// Parameters:
//   - w: the destination
//   - g: the grid
//   - options: functional options
//
// Returns:
//   - error: error if drawing or encoding fails
func EncodePNG(w io.Writer, g Grid, options ...CoverageBuilderOption) error {
	dc, err := draw(g, options...)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

// SavePNG draws g into a PNG file.
//
// Parameters:
//   - path: the file path
//   - g: the grid
//   - options: functional options
//
// Returns:
//   - error: error if drawing or writing fails
func SavePNG(path string, g Grid, options ...CoverageBuilderOption) error {
	dc, err := draw(g, options...)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("coverage: %w", err)
	}
	return nil
}

func draw(g Grid, options ...CoverageBuilderOption) (*gg.Context, error) {
	if g.Cols <= 0 || g.Rows <= 0 {
		return nil, fmt.Errorf("coverage: empty grid %dx%d", g.Cols, g.Rows)
	}
	o := &coverageOptions{cellSize: DefaultCellSize, gridLines: true}
	for _, opt := range options {
		opt(o)
	}

	cell := float64(o.cellSize)
	dc := gg.NewContext(g.Cols*o.cellSize, g.Rows*o.cellSize)
	dc.ClearWithColor(emptyColor)

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			level, ok := g.Levels[row*g.Cols+col]
			if !ok {
				continue
			}
			c := LevelColor(level, true, g.LevelCount)
			dc.SetRGBA(c.R, c.G, c.B, c.A)
			dc.DrawRectangle(float64(col)*cell, float64(row)*cell, cell, cell)
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("coverage: fill patch %d,%d: %w", col, row, err)
			}
		}
	}

	if o.gridLines && o.cellSize >= 4 {
		dc.SetRGBA(gridColor.R, gridColor.G, gridColor.B, gridColor.A)
		dc.SetLineWidth(1)
		for col := 1; col < g.Cols; col++ {
			x := float64(col) * cell
			dc.DrawLine(x, 0, x, float64(g.Rows)*cell)
		}
		for row := 1; row < g.Rows; row++ {
			y := float64(row) * cell
			dc.DrawLine(0, y, float64(g.Cols)*cell, y)
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("coverage: grid lines: %w", err)
		}
	}

	if err := dc.FlushGPU(); err != nil {
		dc.Close()
		return nil, fmt.Errorf("coverage: flush: %w", err)
	}
	return dc, nil
}
