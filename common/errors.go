package common

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled is returned by fetches whose task was cancelled before the result could be used.
// It is expected during normal streaming and is dropped silently.
var ErrCancelled = errors.New("tile fetch cancelled")

// ConfigError reports an invalid panorama or level pyramid configuration.
// It is fatal: it surfaces once at setup and aborts initialization.
type ConfigError struct {
	// Field names the offending setting, e.g. "levels[1].zoomRange".
	Field string
	// Reason is a human readable explanation.
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid panorama configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid panorama configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for the given field.
//
// Parameters:
//   - field: the offending setting
//   - format: fmt-style reason
//   - args: format arguments
//
// Returns:
//   - *ConfigError: the error
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// FetchError reports a network or decode failure for a single image URL.
// It is recovered locally by the streaming core and never returned from Refresh.
type FetchError struct {
	// URL is the image that failed.
	URL string
	// Status is the HTTP status code when the server answered, 0 otherwise.
	Status int
	// Err is the underlying cause.
	Err error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is a cancellation, either ErrCancelled or a context cancellation.
//
// Parameters:
//   - err: the error to inspect
//
// Returns:
//   - bool: true if the error stems from cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
