// Package panorama drives the streaming of one tiled panorama onto a sphere: it scans the view, schedules
// tile fetches, and arbitrates completed tiles onto the mesh.
package panorama

import (
	"context"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/tilecache"
)

// Panorama describes a tiled panorama.
type Panorama struct {
	// BaseURL is the low resolution image shown beneath the tiles. Optional.
	BaseURL string
	// Levels is the tile pyramid, coarsest first. Use pyramid.SingleLevel for a one-level panorama.
	Levels []pyramid.Level
	// TileURL returns the image of each tile.
	TileURL pyramid.TileURLFunc
}

// BaseSurface receives the base panorama. The renderer collaborator implements it.
type BaseSurface interface {
	// BindBase shows the base image, mapped on the sphere according to pd.
	//
	// Parameters:
	//   - m: the base material
	//   - pd: the mapping of the image on the sphere
	BindBase(m material.Material, pd common.PanoData)
}

// BaseLoader loads the base panorama. loader.Loader implements it.
type BaseLoader interface {
	// LoadBase fetches and decodes the base image.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - url: the image location
	//
	// Returns:
	//   - *loader.BaseImage: the decoded image
	//   - error: error if the image cannot be loaded
	LoadBase(ctx context.Context, url string) (*loader.BaseImage, error)
}

// Stats is a snapshot of a session.
type Stats struct {
	// Level is the level index selected by the last scan, -1 before the first scan.
	Level int
	// VisiblePatches is the visible patch count of the last scan.
	VisiblePatches int
	// Candidates is the candidate count of the last scan.
	Candidates int
	// Loaded counts tiles applied successfully and never requested again.
	Loaded int
	// Failed counts failed fetches.
	Failed uint64
	// PatchesUpdated counts patch overwrites performed by the arbiter.
	PatchesUpdated uint64
	// Queue holds the task queue counters.
	Queue queue.Stats
	// Cache holds the tile cache counters.
	Cache tilecache.Stats
}
