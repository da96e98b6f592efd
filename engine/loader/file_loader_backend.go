package loader

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/Carmen-Shannon/oxy-pano/common"
)

// fileLoaderBackend reads images from the local filesystem, for "file://" URLs and plain paths.
type fileLoaderBackend struct{}

var _ loaderBackend = fileLoaderBackend{}

func (fileLoaderBackend) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &common.FetchError{URL: rawURL, Err: err}
	}
	return f, nil
}
