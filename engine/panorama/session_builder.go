package panorama

import (
	"github.com/Carmen-Shannon/oxy-pano/engine/arbiter"
	"github.com/Carmen-Shannon/oxy-pano/engine/loader"
	"github.com/Carmen-Shannon/oxy-pano/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-pano/engine/scanner"
	"github.com/Carmen-Shannon/oxy-pano/engine/tilecache"
)

// SessionBuilderOption is a functional option for configuring a Session via NewSession.
type SessionBuilderOption func(*session)

// WithFetcher sets how tile images are fetched.
//
// Parameters:
//   - f: the tile fetcher
//
// Returns:
//   - SessionBuilderOption: a function that applies the fetcher to a session
func WithFetcher(f loader.Fetcher) SessionBuilderOption {
	return func(s *session) {
		s.fetcher = f
	}
}

// WithBaseLoader sets how the base panorama is loaded.
//
// Parameters:
//   - l: the base loader
//
// Returns:
//   - SessionBuilderOption: a function that applies the base loader to a session
func WithBaseLoader(l BaseLoader) SessionBuilderOption {
	return func(s *session) {
		s.baseLoader = l
	}
}

// WithLoader uses one loader.Loader for both tiles and the base panorama.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SessionBuilderOption: a function that applies the loader to a session
func WithLoader(l loader.Loader) SessionBuilderOption {
	return func(s *session) {
		s.fetcher = l
		s.baseLoader = l
	}
}

// WithBaseSurface sets the receiver of the base panorama.
//
// Parameters:
//   - b: the base surface
//
// Returns:
//   - SessionBuilderOption: a function that applies the base surface to a session
func WithBaseSurface(b BaseSurface) SessionBuilderOption {
	return func(s *session) {
		s.baseSurface = b
	}
}

// WithSurface routes tile material and UV updates to surface instead of the sphere.
// The surface must expose the same patch grid as the sphere. Configure makes every patch it had changed
// transparent again.
//
// Parameters:
//   - surface: the tile surface
//
// Returns:
//   - SessionBuilderOption: a function that applies the surface to a session
func WithSurface(surface arbiter.Surface) SessionBuilderOption {
	return func(s *session) {
		if surface != nil {
			s.surface = surface
		}
	}
}

// WithCache shares a tile cache between sessions. Configure on any of them clears it.
//
// Parameters:
//   - c: the cache
//
// Returns:
//   - SessionBuilderOption: a function that applies the cache to a session
func WithCache(c tilecache.Cache) SessionBuilderOption {
	return func(s *session) {
		s.cache = c
	}
}

// WithMaxConcurrency bounds the number of simultaneous tile fetches.
//
// Parameters:
//   - n: the bound
//
// Returns:
//   - SessionBuilderOption: a function that applies the bound to a session
func WithMaxConcurrency(n int) SessionBuilderOption {
	return func(s *session) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithErrorTile enables or disables the placeholder shown for failed tiles. Enabled by default.
//
// Parameters:
//   - enabled: true to show the placeholder
//
// Returns:
//   - SessionBuilderOption: a function that applies the option to a session
func WithErrorTile(enabled bool) SessionBuilderOption {
	return func(s *session) {
		s.showErrorTile = enabled
	}
}

// WithAntialias requests mipmapped sampling for tiles above level 0. Enabled by default.
//
// Parameters:
//   - enabled: true to request mipmaps
//
// Returns:
//   - SessionBuilderOption: a function that applies the option to a session
func WithAntialias(enabled bool) SessionBuilderOption {
	return func(s *session) {
		s.antialias = enabled
	}
}

// WithZoomPolicy sets how the field of view selects a level. Defaults to pyramid.FinestZoom.
//
// Parameters:
//   - policy: the zoom policy
//
// Returns:
//   - SessionBuilderOption: a function that applies the policy to a session
func WithZoomPolicy(policy pyramid.ZoomPolicy) SessionBuilderOption {
	return func(s *session) {
		if policy != nil {
			s.zoomPolicy = policy
		}
	}
}

// WithLevelFallback requests the nearest coarser tile when a tile has no URL.
//
// Parameters:
//   - enabled: true to enable the fallback
//
// Returns:
//   - SessionBuilderOption: a function that applies the option to a session
func WithLevelFallback(enabled bool) SessionBuilderOption {
	return func(s *session) {
		s.levelFallback = enabled
	}
}

// WithFrustumTest replaces the default patch visibility test.
//
// Parameters:
//   - test: the visibility test
//
// Returns:
//   - SessionBuilderOption: a function that applies the test to a session
func WithFrustumTest(test scanner.FrustumTest) SessionBuilderOption {
	return func(s *session) {
		s.frustumTest = test
	}
}
