package panorama

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"github.com/Carmen-Shannon/oxy-pano/engine/arbiter"
	"github.com/Carmen-Shannon/oxy-pano/engine/camera"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/material"
	"github.com/Carmen-Shannon/oxy-pano/engine/model"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-pano/engine/queue"
	"github.com/Carmen-Shannon/oxy-pano/engine/scanner"
	"github.com/Carmen-Shannon/oxy-pano/engine/tilecache"
)

// tileResult travels from a fetch task back to the driving goroutine.
type tileResult struct {
	tile  arbiter.Tile
	key   string
	image *common.TileImage
}

type session struct {
	mu  *sync.Mutex
	id  string
	log *slog.Logger

	sphere      model.Sphere
	surface     arbiter.Surface
	fetcher     loader.Fetcher
	baseLoader  BaseLoader
	baseSurface BaseSurface

	queue   queue.Queue
	cache   tilecache.Cache
	arbiter arbiter.Arbiter
	scanner scanner.Scanner
	pyramid pyramid.Pyramid

	maxConcurrency int
	showErrorTile  bool
	antialias      bool
	levelFallback  bool
	zoomPolicy     pyramid.ZoomPolicy
	frustumTest    scanner.FrustumTest

	loaded       map[string]bool
	needsRedraw  bool
	needsRefresh bool
	closed      bool
	stats       Stats
}

// Session streams one panorama at a time onto a sphere.
//
// Refresh, ProcessCompletions, Configure and Close are meant to be called from one driving goroutine,
// typically the engine tick. Fetches run on a bounded worker pool.
type Session interface {
	// ID returns the session identifier used in logs.
	//
	// Returns:
	//   - string: the identifier
	ID() string

	// Configure validates and installs a panorama. Any previous panorama is dropped: pending fetches are
	// cancelled and the sphere is reset. The base image, when set, is loaded synchronously.
	//
	// Parameters:
	//   - ctx: cancels the base image load
	//   - p: the panorama
	//
	// Returns:
	//   - error: a *common.ConfigError for an invalid pyramid, or the base image load error
	Configure(ctx context.Context, p Panorama) error

	// Refresh scans the view and submits the wanted tiles to the queue. Tiles already applied are skipped.
	// Does nothing before Configure.
	//
	// Parameters:
	//   - state: the camera snapshot
	Refresh(state camera.State)

	// ProcessCompletions applies every fetch that finished since the last call. Failed tiles show the
	// error placeholder when enabled and are forgotten, so a later Refresh requests them again.
	//
	// Returns:
	//   - int: the number of completions processed
	ProcessCompletions() int

	// Notify returns a channel signalled when fetches complete.
	//
	// Returns:
	//   - <-chan struct{}: the signal channel
	Notify() <-chan struct{}

	// CancelTile cancels the fetch of one tile. Its result, if any, is never applied.
	//
	// Parameters:
	//   - key: the tile key
	//
	// Returns:
	//   - bool: true if a fetch was cancelled
	CancelTile(key string) bool

	// NeedsRefresh reports whether the session wants a Refresh even if the view did not change: after
	// Configure, and after a failed tile so that it is requested again.
	//
	// Returns:
	//   - bool: true if a refresh is wanted
	NeedsRefresh() bool

	// NeedsRedraw reports whether the sphere changed since the last MarkDrawn.
	//
	// Returns:
	//   - bool: true if a redraw is needed
	NeedsRedraw() bool

	// MarkDrawn clears the redraw flag.
	MarkDrawn()

	// Sphere returns the streamed mesh.
	//
	// Returns:
	//   - model.Sphere: the sphere
	Sphere() model.Sphere

	// Pyramid returns the installed pyramid, nil before Configure.
	//
	// Returns:
	//   - pyramid.Pyramid: the pyramid
	Pyramid() pyramid.Pyramid

	// Levels returns the resolution state per patch index.
	//
	// Returns:
	//   - map[int]int: patch index to level, arbiter.ErrorLevel for the placeholder
	Levels() map[int]int

	// Stats returns a snapshot of the session counters.
	//
	// Returns:
	//   - Stats: the counters
	Stats() Stats

	// Close cancels all fetches and waits for running ones to return.
	Close()
}

var _ Session = &session{}

// NewSession creates a session streaming onto sphere. By default tiles and the base image are fetched with
// loader.NewLoader and tile patches are mutated on the sphere itself.
//
// Parameters:
//   - sphere: the tiles mesh
//   - options: functional options
//
// Returns:
//   - Session: the session
func NewSession(sphere model.Sphere, options ...SessionBuilderOption) Session {
	if sphere == nil {
		panic("panorama: sphere is required")
	}
	s := &session{
		mu:             &sync.Mutex{},
		id:             uuid.NewString(),
		sphere:         sphere,
		surface:        sphere,
		maxConcurrency: queue.DefaultMaxConcurrency,
		showErrorTile:  true,
		antialias:      true,
		zoomPolicy:     pyramid.FinestZoom,
		loaded:         make(map[string]bool),
		stats:          Stats{Level: -1},
	}
	for _, opt := range options {
		opt(s)
	}

	if s.fetcher == nil || s.baseLoader == nil {
		l := loader.NewLoader()
		if s.fetcher == nil {
			s.fetcher = l
		}
		if s.baseLoader == nil {
			s.baseLoader = l
		}
	}
	if s.cache == nil {
		s.cache = tilecache.NewCache()
	}
	s.queue = queue.NewQueue(queue.WithMaxConcurrency(s.maxConcurrency))
	s.arbiter = arbiter.NewArbiter(s.surface, arbiter.WithErrorTile(s.showErrorTile))
	s.log = common.Logger().With("session", s.id)
	return s
}

func (s *session) ID() string {
	return s.id
}

func (s *session) Configure(ctx context.Context, p Panorama) error {
	if p.TileURL == nil {
		return common.NewConfigError("tileUrl", "is required")
	}
	cols, rows := s.sphere.Segments()
	pyr, err := pyramid.NewPyramid(p.Levels, cols, rows)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("panorama: session %s is closed", s.id)
	}

	s.queue.Clear()
	s.arbiter.Reset()
	s.sphere.Reset()
	s.cache.Clear()
	clear(s.loaded)
	s.pyramid = nil
	s.scanner = nil
	s.stats = Stats{Level: -1}

	if p.BaseURL != "" {
		base, err := s.baseLoader.LoadBase(ctx, p.BaseURL)
		if err != nil {
			return fmt.Errorf("panorama: %w", err)
		}
		pd := base.PanoData
		if pd.PoseHeading != 0 || pd.PosePitch != 0 || pd.PoseRoll != 0 {
			s.sphere.SetRotation(pd.PosePitch, pd.PoseHeading, pd.PoseRoll)
		}
		if s.baseSurface != nil {
			s.baseSurface.BindBase(material.NewMaterial(
				material.WithName("base"),
				material.WithTexture(base.Image),
			), pd)
		}
	}

	scanOpts := []scanner.ScannerBuilderOption{
		scanner.WithZoomPolicy(s.zoomPolicy),
		scanner.WithLevelFallback(s.levelFallback),
	}
	if s.frustumTest != nil {
		scanOpts = append(scanOpts, scanner.WithFrustumTest(s.frustumTest))
	}
	s.pyramid = pyr
	s.scanner = scanner.NewScanner(s.sphere, pyr, p.TileURL, scanOpts...)
	s.needsRedraw = true
	s.needsRefresh = true

	s.log.Info("panorama: configured",
		"levels", pyr.LevelCount(),
		"patch_cols", cols,
		"patch_rows", rows,
		"base", p.BaseURL != "",
	)
	return nil
}

func (s *session) Refresh(state camera.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanner == nil || s.closed {
		return
	}

	s.needsRefresh = false
	res := s.scanner.Scan(state)
	s.stats.Level = res.Config.Index
	s.stats.VisiblePatches = res.VisiblePatches
	s.stats.Candidates = len(res.Candidates)

	items := make([]queue.Item, 0, len(res.Candidates))
	for _, c := range res.Sorted() {
		if s.loaded[c.Key] {
			continue
		}
		items = append(items, queue.Item{
			Key:      c.Key,
			Priority: c.Priority,
			Work:     s.fetchWork(c),
		})
	}
	s.queue.Submit(items...)
	s.queue.Start()
}

// fetchWork builds the task body for one candidate: a deduplicated load through the tile cache.
func (s *session) fetchWork(c scanner.Candidate) queue.Work {
	res := tileResult{
		tile: arbiter.Tile{Col: c.Col, Row: c.Row, Config: c.Config},
		key:  c.Key,
	}
	url, fetcher, cache := c.URL, s.fetcher, s.cache
	return func(ctx context.Context) (any, error) {
		img, err := cache.Load(ctx, url, func(ctx context.Context) (*common.TileImage, error) {
			return fetcher.Fetch(ctx, url)
		})
		res.image = img
		return res, err
	}
}

func (s *session) ProcessCompletions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	done := s.queue.Drain()
	for _, c := range done {
		res, ok := c.Value.(tileResult)
		if !ok {
			continue
		}
		if c.Err != nil {
			if common.IsCancelled(c.Err) {
				continue
			}
			s.stats.Failed++
			s.needsRefresh = true
			s.log.Warn("panorama: tile failed", "tile", res.key, "error", c.Err)
			if n := s.arbiter.ApplyError(res.tile); n > 0 {
				s.stats.PatchesUpdated += uint64(n)
				s.needsRedraw = true
			}
			continue
		}

		level := res.tile.Config.Index
		m := material.NewMaterial(
			material.WithName(res.key),
			material.WithTexture(res.image),
			material.WithLevel(level),
			material.WithMipmaps(s.antialias && level > 0),
		)
		s.loaded[res.key] = true
		if n := s.arbiter.Apply(res.tile, m); n > 0 {
			s.stats.PatchesUpdated += uint64(n)
			s.needsRedraw = true
		}
		s.log.Debug("panorama: tile loaded", "tile", res.key, "priority", c.Priority)
	}
	return len(done)
}

func (s *session) Notify() <-chan struct{} {
	return s.queue.Notify()
}

func (s *session) CancelTile(key string) bool {
	return s.queue.Cancel(key)
}

func (s *session) NeedsRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRefresh
}

func (s *session) NeedsRedraw() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRedraw
}

func (s *session) MarkDrawn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsRedraw = false
}

func (s *session) Sphere() model.Sphere {
	return s.sphere
}

func (s *session) Pyramid() pyramid.Pyramid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pyramid
}

func (s *session) Levels() map[int]int {
	return s.arbiter.Levels()
}

func (s *session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Loaded = len(s.loaded)
	st.Queue = s.queue.Stats()
	st.Cache = s.cache.Stats()
	return st
}

func (s *session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.queue.Close()
	s.log.Info("panorama: session closed")
}
