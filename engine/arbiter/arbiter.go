// Package arbiter decides, patch by patch, whether a freshly loaded tile may replace what the sphere
// currently shows, and applies the replacement.
package arbiter

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

// ErrorLevel is the recorded level of a patch showing the error placeholder.
const ErrorLevel = -1

// Surface is the mesh the arbiter mutates. model.Sphere satisfies it.
type Surface interface {
	// Segments returns the patch grid size.
	Segments() (cols, rows int)
	// Patch looks up a patch by grid position.
	Patch(row, col int) model.Patch
	// BindMaterial makes the patch draw with m.
	BindMaterial(p model.Patch, m material.Material)
	// SetUV replaces the texture coordinates of the patch vertices.
	SetUV(p model.Patch, uvs []common.UV)
}

// Tile identifies a loaded tile and the level configuration it belongs to.
type Tile struct {
	Col, Row int
	Config   pyramid.TileConfig
}

// Key returns the tile key.
//
// Returns:
//   - string: "<col>x<row>/<level>"
func (t Tile) Key() string {
	return pyramid.TileKey(t.Col, t.Row, t.Config.Index)
}

type arbiterImpl struct {
	mu        *sync.Mutex
	surface   Surface
	cols      int
	rows      int
	levels    map[int]int
	showError bool
	errorMat  material.Material
}

// Arbiter owns the per-patch resolution state.
type Arbiter interface {
	// Apply shows a loaded tile on every patch it covers, except patches already showing a finer level.
	//
	// Parameters:
	//   - tile: the loaded tile
	//   - m: the tile material
	//
	// Returns:
	//   - int: the number of patches updated
	Apply(tile Tile, m material.Material) int

	// ApplyError shows the error placeholder on the patches of a failed tile that show no valid level.
	// Does nothing when the placeholder is disabled.
	//
	// Parameters:
	//   - tile: the failed tile
	//
	// Returns:
	//   - int: the number of patches updated
	ApplyError(tile Tile) int

	// Level returns the recorded level of a patch, ErrorLevel for the placeholder.
	//
	// Parameters:
	//   - p: the patch
	//
	// Returns:
	//   - int: the level
	//   - bool: false if no tile was ever applied to the patch
	Level(p model.Patch) (int, bool)

	// Levels returns a copy of the state, keyed by patch index.
	//
	// Returns:
	//   - map[int]int: patch index to level
	Levels() map[int]int

	// ErrorMaterial returns the placeholder material, nil when the placeholder is disabled.
	//
	// Returns:
	//   - material.Material: the placeholder
	ErrorMaterial() material.Material

	// Reset forgets every recorded level and binds a transparent material to every patch it had changed.
	// Texture coordinates are left as is; they are rewritten by the next Apply.
	Reset()
}

var _ Arbiter = &arbiterImpl{}

// NewArbiter creates an arbiter over a surface. Unless configured otherwise the error placeholder is
// enabled and rendered with material.NewErrorMaterial.
//
// Parameters:
//   - surface: the mesh to mutate
//   - options: functional options
//
// Returns:
//   - Arbiter: the arbiter
func NewArbiter(surface Surface, options ...ArbiterBuilderOption) Arbiter {
	if surface == nil {
		panic("arbiter: surface is required")
	}
	cols, rows := surface.Segments()
	a := &arbiterImpl{
		mu:        &sync.Mutex{},
		surface:   surface,
		cols:      cols,
		rows:      rows,
		levels:    make(map[int]int),
		showError: true,
	}
	for _, opt := range options {
		opt(a)
	}

	if a.showError && a.errorMat == nil {
		m, err := material.NewErrorMaterial(material.DefaultErrorTileSize)
		if err != nil {
			common.Logger().Warn("arbiter: error tile rendering failed, using a flat placeholder", "error", err)
			m = material.NewMaterial(
				material.WithName("error"),
				material.WithBaseColor([4]float32{0.85, 0.2, 0.2, 1}),
				material.AsErrorPlaceholder(),
			)
		}
		a.errorMat = m
	}
	if !a.showError {
		a.errorMat = nil
	}
	return a
}

func (a *arbiterImpl) Apply(tile Tile, m material.Material) int {
	return a.swap(tile, m, false)
}

func (a *arbiterImpl) ApplyError(tile Tile) int {
	if !a.showError {
		return 0
	}
	return a.swap(tile, a.errorMat, true)
}

// swap walks the patches covered by tile and overwrites those the resolution rule allows.
func (a *arbiterImpl) swap(tile Tile, m material.Material, isError bool) int {
	cfg := tile.Config
	if cfg.FacesByCol <= 0 || cfg.FacesByRow <= 0 {
		panic(fmt.Sprintf("arbiter: tile %s has an empty patch footprint", tile.Key()))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	updated := 0
	for c := 0; c < cfg.FacesByCol; c++ {
		for r := 0; r < cfg.FacesByRow; r++ {
			row := tile.Row*cfg.FacesByRow + r
			col := tile.Col*cfg.FacesByCol + c
			if row >= a.rows || col >= a.cols {
				panic(fmt.Sprintf("arbiter: tile %s covers patch %d,%d outside the %dx%d grid", tile.Key(), col, row, a.cols, a.rows))
			}
			p := a.surface.Patch(row, col)

			if current, ok := a.levels[p.Index]; ok {
				if isError && current > ErrorLevel {
					continue
				}
				if current > cfg.Index {
					continue
				}
			}
			if isError {
				a.levels[p.Index] = ErrorLevel
			} else {
				a.levels[p.Index] = cfg.Index
			}

			a.surface.BindMaterial(p, m)
			a.surface.SetUV(p, patchUVs(p, a.rows, r, c, cfg))
			updated++
		}
	}

	common.Logger().Debug("arbiter: tile applied",
		"tile", tile.Key(),
		"error", isError,
		"patches", updated,
	)
	return updated
}

// patchUVs maps the patch at offset (r, c) inside its tile to the matching sub-rectangle of the tile texture.
func patchUVs(p model.Patch, rows, r, c int, cfg pyramid.TileConfig) []common.UV {
	top := 1 - float32(r)/float32(cfg.FacesByRow)
	bottom := 1 - float32(r+1)/float32(cfg.FacesByRow)
	left := float32(c) / float32(cfg.FacesByCol)
	right := float32(c+1) / float32(cfg.FacesByCol)

	switch p.Row {
	case 0:
		return []common.UV{
			{(left + right) / 2, top},
			{left, bottom},
			{right, bottom},
		}
	case rows - 1:
		return []common.UV{
			{right, top},
			{left, top},
			{(left + right) / 2, bottom},
		}
	default:
		return []common.UV{
			{right, top},
			{left, top},
			{right, bottom},
			{left, top},
			{left, bottom},
			{right, bottom},
		}
	}
}

func (a *arbiterImpl) Level(p model.Patch) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l, ok := a.levels[p.Index]
	return l, ok
}

func (a *arbiterImpl) Levels() map[int]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.levels)
}

func (a *arbiterImpl) ErrorMaterial() material.Material {
	return a.errorMat
}

func (a *arbiterImpl) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.levels) > 0 {
		blank := material.NewTransparent()
		for idx := range a.levels {
			a.surface.BindMaterial(a.surface.Patch(idx/a.cols, idx%a.cols), blank)
		}
	}
	clear(a.levels)
}
