package pyramid

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// MinZoom and MaxZoom bound the normalized zoom scale the level ranges must cover.
const (
	MinZoom = 0.0
	MaxZoom = 100.0
)

// Level describes one resolution of the tile pyramid.
type Level struct {
	// ZoomRange is the closed [lo, hi] interval of the 0-100 zoom scale this level serves.
	ZoomRange [2]float64
	// Width is the width in pixels of the full panorama at this level.
	Width int
	// Cols is the number of tile columns, a power of two.
	Cols int
	// Rows is the number of tile rows, a power of two.
	Rows int
}

// TileConfig is a Level with the derived sizes needed to map sphere patches to tiles.
type TileConfig struct {
	Level
	// Index is the level's position in the pyramid, 0 is the coarsest.
	Index int
	// ColSize is the pixel width of one tile.
	ColSize float64
	// RowSize is the pixel height of one tile.
	RowSize float64
	// FacesByCol is how many sphere patch columns one tile spans.
	FacesByCol int
	// FacesByRow is how many sphere patch rows one tile spans.
	FacesByRow int
}

// TileKey formats the stable identifier of a tile, "<col>x<row>/<level>".
//
// Parameters:
//   - col: tile column
//   - row: tile row
//   - level: level index
//
// Returns:
//   - string: the tile key
func TileKey(col, row, level int) string {
	return fmt.Sprintf("%dx%d/%d", col, row, level)
}

// SingleLevel wraps a single-resolution panorama as a one level pyramid spanning the whole zoom range.
//
// Parameters:
//   - width: panorama width in pixels
//   - cols: tile columns
//   - rows: tile rows
//
// Returns:
//   - []Level: the one element level list
func SingleLevel(width, cols, rows int) []Level {
	return []Level{{ZoomRange: [2]float64{MinZoom, MaxZoom}, Width: width, Cols: cols, Rows: rows}}
}

// ValidateLevels checks that the levels form a usable pyramid for a sphere with the given patch grid.
// Each level must have non-zero width, cols and rows, power of two cols/rows not exceeding the patch grid,
// and the zoom ranges must be ordered, contiguous and cover exactly 0 to 100.
//
// Parameters:
//   - levels: the pyramid levels, coarsest first
//   - patchCols: horizontal patch count of the sphere
//   - patchRows: vertical patch count of the sphere
//
// Returns:
//   - error: a *common.ConfigError describing the first violation, nil if valid
func ValidateLevels(levels []Level, patchCols, patchRows int) error {
	if len(levels) == 0 {
		return common.NewConfigError("levels", "at least one level is required")
	}
	for i, l := range levels {
		if err := validateTile(l, patchCols, patchRows); err != nil {
			err.Field = fmt.Sprintf("levels[%d].%s", i, err.Field)
			return err
		}
	}

	previous := MinZoom
	for i, l := range levels {
		lo, hi := l.ZoomRange[0], l.ZoomRange[1]
		switch {
		case math.IsNaN(lo) || math.IsNaN(hi):
			return common.NewConfigError(fmt.Sprintf("levels[%d].zoomRange", i), "range is not a number")
		case lo >= hi:
			return common.NewConfigError(fmt.Sprintf("levels[%d].zoomRange", i), "lower bound %g is not below upper bound %g", lo, hi)
		case i == 0 && lo != MinZoom:
			return common.NewConfigError("levels[0].zoomRange", "first level must start at %g, got %g", MinZoom, lo)
		case lo != previous:
			return common.NewConfigError(fmt.Sprintf("levels[%d].zoomRange", i), "must start at %g where the previous level ends, got %g", previous, lo)
		case i == len(levels)-1 && hi != MaxZoom:
			return common.NewConfigError(fmt.Sprintf("levels[%d].zoomRange", i), "last level must end at %g, got %g", MaxZoom, hi)
		}
		previous = hi
	}
	return nil
}

func validateTile(l Level, patchCols, patchRows int) *common.ConfigError {
	switch {
	case l.Width <= 0 || l.Cols <= 0 || l.Rows <= 0:
		return common.NewConfigError("width", "width, cols and rows must be positive (got %d, %d, %d)", l.Width, l.Cols, l.Rows)
	case l.Cols > patchCols:
		return common.NewConfigError("cols", "must not be greater than %d, got %d", patchCols, l.Cols)
	case l.Rows > patchRows:
		return common.NewConfigError("rows", "must not be greater than %d, got %d", patchRows, l.Rows)
	case !common.IsPowerOfTwo(l.Cols) || !common.IsPowerOfTwo(l.Rows):
		return common.NewConfigError("cols", "cols and rows must be powers of 2 (got %d, %d)", l.Cols, l.Rows)
	case patchCols%l.Cols != 0 || patchRows%l.Rows != 0:
		return common.NewConfigError("cols", "%dx%d tiles do not evenly divide the %dx%d patch grid", l.Cols, l.Rows, patchCols, patchRows)
	}
	return nil
}

func computeTileConfig(l Level, index, patchCols, patchRows int) TileConfig {
	return TileConfig{
		Level:      l,
		Index:      index,
		ColSize:    float64(l.Width) / float64(l.Cols),
		RowSize:    float64(l.Width) / 2 / float64(l.Rows),
		FacesByCol: patchCols / l.Cols,
		FacesByRow: patchRows / l.Rows,
	}
}
