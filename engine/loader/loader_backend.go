package loader

import (
	"context"
	"io"
)

// loaderBackend opens the raw byte stream behind an image URL.
// Concrete implementations (httpLoaderBackend, fileLoaderBackend) handle transport specifics.
type loaderBackend interface {
	// Open starts reading the resource at url. The caller closes the returned reader.
	//
	// Parameters:
	//   - ctx: cancels the transfer
	//   - url: the resource location
	//
	// Returns:
	//   - io.ReadCloser: the resource bytes
	//   - error: a *common.FetchError on transport or status failure
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}
