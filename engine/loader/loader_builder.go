package loader

import (
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient is an option builder that routes http(s) URLs through the given client.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client == nil {
			return
		}
		hb := &httpLoaderBackend{client: client, userAgent: l.userAgent}
		l.backends["http"] = hb
		l.backends["https"] = hb
	}
}

// WithTimeout is an option builder that sets the per-request timeout of the default HTTP client.
// It has no effect together with WithHTTPClient.
//
// Parameters:
//   - timeout: the request timeout
//
// Returns:
//   - LoaderBuilderOption: a function that applies the timeout option to a loader
func WithTimeout(timeout time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithUserAgent is an option builder that sets the User-Agent header of the default HTTP client.
//
// Parameters:
//   - ua: the user agent
//
// Returns:
//   - LoaderBuilderOption: a function that applies the user agent option to a loader
func WithUserAgent(ua string) LoaderBuilderOption {
	return func(l *loader) {
		l.userAgent = ua
	}
}

// WithMaxTextureSize is an option builder that sets the widest base image kept without downscaling.
//
// Parameters:
//   - size: the width limit in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the size option to a loader
func WithMaxTextureSize(size int) LoaderBuilderOption {
	return func(l *loader) {
		if size > 0 {
			l.maxTextureSize = size
		}
	}
}

// WithMaxBytes is an option builder that bounds the encoded size of one image.
//
// Parameters:
//   - n: the limit in bytes
//
// Returns:
//   - LoaderBuilderOption: a function that applies the limit to a loader
func WithMaxBytes(n int64) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.maxBytes = n
		}
	}
}

// WithPanoData is an option builder that supplies explicit PanoData for the base image instead of
// deriving it from the image size. Incoherent values are still corrected.
//
// Parameters:
//   - pd: the panorama data
//
// Returns:
//   - LoaderBuilderOption: a function that applies the panorama data to a loader
func WithPanoData(pd common.PanoData) LoaderBuilderOption {
	return func(l *loader) {
		l.panoData = &pd
	}
}
