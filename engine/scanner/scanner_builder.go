package scanner

import "github.com/Carmen-Shannon/oxy-pano/engine/pyramid"

// ScannerBuilderOption is a functional option for configuring a Scanner via NewScanner.
type ScannerBuilderOption func(*scannerImpl)

// WithZoomPolicy sets how the camera field of view maps to a pyramid level.
// The default, pyramid.FinestZoom, always requests the finest level.
//
// Parameters:
//   - policy: the zoom policy
//
// Returns:
//   - ScannerBuilderOption: a function that applies the policy to a scanner
func WithZoomPolicy(policy pyramid.ZoomPolicy) ScannerBuilderOption {
	return func(s *scannerImpl) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithFrustumTest replaces the default vertex-in-frustum visibility test.
//
// Parameters:
//   - test: the visibility test
//
// Returns:
//   - ScannerBuilderOption: a function that applies the test to a scanner
func WithFrustumTest(test FrustumTest) ScannerBuilderOption {
	return func(s *scannerImpl) {
		if test != nil {
			s.visible = test
		}
	}
}

// WithLevelFallback makes tiles without a URL fall back to the nearest coarser level that has one.
//
// Parameters:
//   - enabled: true to enable the fallback
//
// Returns:
//   - ScannerBuilderOption: a function that applies the fallback option to a scanner
func WithLevelFallback(enabled bool) ScannerBuilderOption {
	return func(s *scannerImpl) {
		s.fallback = enabled
	}
}
