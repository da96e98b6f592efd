// Package loader fetches and decodes panorama images: the low-resolution base image and the tiles.
package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-pano/common"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxTextureSize is the widest base image kept without downscaling.
const DefaultMaxTextureSize = 8192

// DefaultMaxBytes bounds the size of a single encoded image.
const DefaultMaxBytes = 64 << 20

// Fetcher retrieves one decoded image. Implementations must honour ctx cancellation.
type Fetcher interface {
	// Fetch downloads and decodes the image at url.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - url: the image location
	//
	// Returns:
	//   - *common.TileImage: the decoded RGBA image
	//   - error: a *common.FetchError, or an error matching common.ErrCancelled when ctx ended
	Fetch(ctx context.Context, url string) (*common.TileImage, error)
}

// BaseImage is the decoded low-resolution panorama together with its sphere mapping.
type BaseImage struct {
	// Image is the decoded image, downscaled to the maximum texture size.
	Image *common.TileImage
	// PanoData places the image on the full sphere, computed from the original image size.
	PanoData common.PanoData
}

// loader is the implementation of the Loader interface.
type loader struct {
	backends       map[string]loaderBackend
	timeout        time.Duration
	userAgent      string
	maxTextureSize int
	maxBytes       int64
	panoData       *common.PanoData
}

// Loader fetches tiles and the base panorama over HTTP or from local files.
type Loader interface {
	Fetcher

	// LoadBase fetches the base panorama, computes its PanoData and downscales it when wider than the
	// maximum texture size.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - url: the base image location
	//
	// Returns:
	//   - *BaseImage: the decoded base image
	//   - error: error if the image cannot be fetched or decoded
	LoadBase(ctx context.Context, url string) (*BaseImage, error)

	// MaxTextureSize returns the width limit applied to the base image.
	//
	// Returns:
	//   - int: the limit in pixels
	MaxTextureSize() int
}

var _ Loader = &loader{}

// NewLoader creates a Loader with an HTTP backend for http(s) URLs and a file backend for everything else.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		backends:       make(map[string]loaderBackend),
		timeout:        DefaultHTTPTimeout,
		maxTextureSize: DefaultMaxTextureSize,
		maxBytes:       DefaultMaxBytes,
	}
	for _, option := range options {
		option(l)
	}

	if _, ok := l.backends["http"]; !ok {
		hb := newHTTPLoaderBackend(l.timeout)
		hb.userAgent = l.userAgent
		l.backends["http"] = hb
		l.backends["https"] = hb
	}
	if _, ok := l.backends["file"]; !ok {
		l.backends["file"] = fileLoaderBackend{}
	}
	return l
}

func (l *loader) MaxTextureSize() int {
	return l.maxTextureSize
}

func (l *loader) Fetch(ctx context.Context, url string) (*common.TileImage, error) {
	img, err := l.decode(ctx, url)
	if err != nil {
		return nil, err
	}
	tile, err := common.NewTileImage(img)
	if err != nil {
		return nil, &common.FetchError{URL: url, Err: err}
	}
	return tile, nil
}

func (l *loader) LoadBase(ctx context.Context, url string) (*BaseImage, error) {
	img, err := l.decode(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load base panorama: %w", err)
	}

	b := img.Bounds()
	pd := MergePanoData(b.Dx(), b.Dy(), l.panoData)

	scaled := Downscale(img, l.maxTextureSize)
	tile, err := common.NewTileImage(scaled)
	if err != nil {
		return nil, fmt.Errorf("failed to load base panorama: %w", &common.FetchError{URL: url, Err: err})
	}

	common.Logger().Info("loader: base panorama loaded",
		"url", url,
		"width", b.Dx(),
		"height", b.Dy(),
		"texture_width", tile.Width,
	)
	return &BaseImage{Image: tile, PanoData: pd}, nil
}

// decode opens url on the backend selected by its scheme and decodes the body.
func (l *loader) decode(ctx context.Context, url string) (image.Image, error) {
	backend, err := l.resolveBackend(url)
	if err != nil {
		return nil, err
	}

	body, err := backend.Open(ctx, url)
	if err != nil {
		return nil, cancellation(ctx, err)
	}
	defer body.Close()

	img, _, err := image.Decode(io.LimitReader(body, l.maxBytes))
	if err != nil {
		return nil, cancellation(ctx, &common.FetchError{URL: url, Err: fmt.Errorf("decode: %w", err)})
	}
	return img, nil
}

// resolveBackend selects a backend based on the URL scheme. URLs without a scheme are local paths,
// and so are single-letter schemes (Windows drive letters).
func (l *loader) resolveBackend(rawURL string) (loaderBackend, error) {
	scheme := "file"
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		scheme = strings.ToLower(u.Scheme)
	}
	backend, ok := l.backends[scheme]
	if !ok {
		return nil, &common.FetchError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", scheme)}
	}
	return backend, nil
}

// cancellation turns any failure that happened after ctx ended into common.ErrCancelled.
func cancellation(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	if errors.Is(err, common.ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
}
