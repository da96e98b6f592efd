// Package scanner determines, for one camera state, which tiles of which level should be loaded
// and how urgently.
package scanner

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
)

// FrustumTest reports whether a patch, given by its world-space vertices, is visible from the camera state.
type FrustumTest func(points []common.Vec3, state camera.State) bool

// Candidate is a tile the current view wants loaded.
type Candidate struct {
	// Key is the tile key, "<col>x<row>/<level>".
	Key string
	// Col and Row locate the tile in its level's grid.
	Col, Row int
	// Config is the tile configuration of the tile's level.
	Config pyramid.TileConfig
	// Priority is the angular urgency, lower is more urgent.
	Priority float64
	// URL is the image to fetch.
	URL string
}

// ScanResult is the output of one scan.
type ScanResult struct {
	// Candidates maps tile key to candidate; each key appears once with its minimum priority.
	Candidates map[string]Candidate
	// Config is the tile configuration selected by the zoom policy.
	Config pyramid.TileConfig
	// VisiblePatches counts the patches that passed the frustum test.
	VisiblePatches int
}

// Sorted returns the candidates ordered by ascending priority, ties broken by key.
//
// Returns:
//   - []Candidate: the ordered candidates
func (r ScanResult) Sorted() []Candidate {
	out := make([]Candidate, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Key < out[j].Key
	})
	return out
}

type scannerImpl struct {
	sphere   model.Sphere
	pyramid  pyramid.Pyramid
	tileURL  pyramid.TileURLFunc
	policy   pyramid.ZoomPolicy
	visible  FrustumTest
	fallback bool

	vertexBuf []common.Vec3
}

// Scanner computes the tile candidates for a camera state.
type Scanner interface {
	// Scan walks every sphere patch, keeps the visible ones, maps them to tiles of the level chosen by
	// the zoom policy and returns the deduplicated candidates. Tiles without a URL are dropped,
	// or replaced by the nearest coarser level with a URL when level fallback is enabled.
	//
	// Parameters:
	//   - state: the camera snapshot
	//
	// Returns:
	//   - ScanResult: the candidates of this frame
	Scan(state camera.State) ScanResult

	// Pyramid returns the level pyramid the scanner maps patches into.
	//
	// Returns:
	//   - pyramid.Pyramid: the pyramid
	Pyramid() pyramid.Pyramid
}

var _ Scanner = &scannerImpl{}

// NewScanner creates a scanner over a sphere and a pyramid validated against the sphere's patch grid.
// Panics if a collaborator is nil or the pyramid was built for another patch grid.
//
// Parameters:
//   - sphere: the tiles mesh
//   - pyr: the level pyramid
//   - tileURL: the tile URL provider
//   - options: functional options
//
// Returns:
//   - Scanner: the scanner
func NewScanner(sphere model.Sphere, pyr pyramid.Pyramid, tileURL pyramid.TileURLFunc, options ...ScannerBuilderOption) Scanner {
	if sphere == nil || pyr == nil || tileURL == nil {
		panic("scanner: sphere, pyramid and tile URL func are required")
	}
	sc, sr := sphere.Segments()
	pc, pr := pyr.PatchGrid()
	if sc != pc || sr != pr {
		panic(fmt.Sprintf("scanner: pyramid built for %dx%d patches, sphere has %dx%d", pc, pr, sc, sr))
	}

	s := &scannerImpl{
		sphere:  sphere,
		pyramid: pyr,
		tileURL: tileURL,
		policy:  pyramid.FinestZoom,
		visible: NewFrustumTest(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scannerImpl) Pyramid() pyramid.Pyramid {
	return s.pyramid
}

func (s *scannerImpl) Scan(state camera.State) ScanResult {
	zoom := common.Clamp(s.policy(state.Fov), pyramid.MinZoom, pyramid.MaxZoom)
	cfg, err := s.pyramid.LevelForZoom(zoom)
	if err != nil {
		// A validated pyramid covers the whole clamped range.
		panic(fmt.Sprintf("scanner: %v", err))
	}

	_, rows := s.sphere.Segments()
	result := ScanResult{
		Candidates: make(map[string]Candidate),
		Config:     cfg,
	}

	for _, p := range s.sphere.Patches() {
		s.vertexBuf = s.sphere.WorldVertices(p, s.vertexBuf[:0])
		if !s.visible(s.vertexBuf, state) {
			continue
		}
		result.VisiblePatches++

		priority := common.AngleBetween(s.sphere.WorldCenter(p), state.Direction)
		if p.Row == 0 || p.Row == rows-1 {
			priority *= 2
		}
		s.addCandidate(result.Candidates, p, cfg, priority)
	}

	common.Logger().Debug("scanner: scan complete",
		"level", cfg.Index,
		"visible_patches", result.VisiblePatches,
		"candidates", len(result.Candidates),
	)
	return result
}

// addCandidate maps a patch to its tile at cfg, merging with an existing candidate by keeping the lower
// priority. Without a URL the patch is dropped, or retried one level coarser when fallback is on.
func (s *scannerImpl) addCandidate(into map[string]Candidate, p model.Patch, cfg pyramid.TileConfig, priority float64) {
	for {
		col := p.Col / cfg.FacesByCol
		row := p.Row / cfg.FacesByRow
		key := pyramid.TileKey(col, row, cfg.Index)

		if existing, ok := into[key]; ok {
			if priority < existing.Priority {
				existing.Priority = priority
				into[key] = existing
			}
			return
		}

		if url, ok := s.tileURL(col, row, cfg.Index); ok && url != "" {
			into[key] = Candidate{
				Key:      key,
				Col:      col,
				Row:      row,
				Config:   cfg,
				Priority: priority,
				URL:      url,
			}
			return
		}

		if !s.fallback || cfg.Index == 0 {
			common.Logger().Debug("scanner: tile has no url", "tile", key)
			return
		}
		coarser, ok := s.pyramid.Level(cfg.Index - 1)
		if !ok {
			return
		}
		cfg = coarser
	}
}

// NewFrustumTest returns the default visibility test: a patch is visible unless all of its vertices lie
// outside the same frustum plane. A patch wider than the view is visible from inside it. The frustum is
// extracted once per distinct view-projection matrix.
//
// Returns:
//   - FrustumTest: the test
func NewFrustumTest() FrustumTest {
	var (
		cached  [16]float32
		frustum common.Frustum
		valid   bool
	)
	return func(points []common.Vec3, state camera.State) bool {
		if !valid || cached != state.ViewProjection {
			cached = state.ViewProjection
			frustum = state.Frustum()
			valid = true
		}
		return frustum.MayIntersect(points)
	}
}
