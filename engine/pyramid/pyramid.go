// Package pyramid models the multi-resolution tile grid of a panorama: its levels,
// the derived per-level tile geometry, and the mapping from the zoom scale to a level.
package pyramid

import "github.com/Carmen-Shannon/oxy-pano/common"

// TileURLFunc returns the URL of the tile at (col, row) for the given level index.
// The boolean is false when the tile has no image, in which case the tile is never requested.
type TileURLFunc func(col, row, level int) (string, bool)

type pyramidImpl struct {
	levels    []Level
	configs   []TileConfig
	patchCols int
	patchRows int
}

// Pyramid is a validated, immutable set of levels bound to a sphere patch grid.
type Pyramid interface {
	// Levels returns a copy of the configured levels, coarsest first.
	//
	// Returns:
	//   - []Level: the levels
	Levels() []Level

	// LevelCount returns the number of levels.
	//
	// Returns:
	//   - int: the level count
	LevelCount() int

	// PatchGrid returns the sphere patch grid the pyramid was validated against.
	//
	// Returns:
	//   - cols: horizontal patch count
	//   - rows: vertical patch count
	PatchGrid() (cols, rows int)

	// LevelForZoom returns the first level whose zoom range contains zoom.
	//
	// Parameters:
	//   - zoom: a value on the 0-100 zoom scale
	//
	// Returns:
	//   - TileConfig: the tile configuration of the matching level
	//   - error: a *common.ConfigError if no level contains zoom
	LevelForZoom(zoom float64) (TileConfig, error)

	// Level returns the tile configuration at index.
	//
	// Parameters:
	//   - index: the level index
	//
	// Returns:
	//   - TileConfig: the tile configuration
	//   - bool: false if index is out of range
	Level(index int) (TileConfig, bool)
}

var _ Pyramid = &pyramidImpl{}

// NewPyramid validates the levels against the sphere patch grid and precomputes each level's tile configuration.
//
// Parameters:
//   - levels: the levels, coarsest first
//   - patchCols: horizontal patch count of the sphere
//   - patchRows: vertical patch count of the sphere
//
// Returns:
//   - Pyramid: the validated pyramid
//   - error: a *common.ConfigError if the levels are invalid
func NewPyramid(levels []Level, patchCols, patchRows int) (Pyramid, error) {
	if patchCols <= 0 || patchRows <= 0 {
		return nil, common.NewConfigError("sphere", "patch grid must be positive, got %dx%d", patchCols, patchRows)
	}
	if err := ValidateLevels(levels, patchCols, patchRows); err != nil {
		return nil, err
	}

	p := &pyramidImpl{
		levels:    append([]Level(nil), levels...),
		configs:   make([]TileConfig, len(levels)),
		patchCols: patchCols,
		patchRows: patchRows,
	}
	for i, l := range p.levels {
		p.configs[i] = computeTileConfig(l, i, patchCols, patchRows)
	}
	return p, nil
}

func (p *pyramidImpl) Levels() []Level {
	return append([]Level(nil), p.levels...)
}

func (p *pyramidImpl) LevelCount() int {
	return len(p.levels)
}

func (p *pyramidImpl) PatchGrid() (int, int) {
	return p.patchCols, p.patchRows
}

func (p *pyramidImpl) LevelForZoom(zoom float64) (TileConfig, error) {
	for i, l := range p.levels {
		if zoom >= l.ZoomRange[0] && zoom <= l.ZoomRange[1] {
			return p.configs[i], nil
		}
	}
	return TileConfig{}, common.NewConfigError("zoom", "%g is not covered by any level", zoom)
}

func (p *pyramidImpl) Level(index int) (TileConfig, bool) {
	if index < 0 || index >= len(p.configs) {
		return TileConfig{}, false
	}
	return p.configs[index], true
}
