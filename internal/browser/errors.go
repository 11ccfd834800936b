package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch indicates the page could not be loaded.
	ErrFetch = errors.New("failed to fetch page")

	// ErrImageDownload indicates one image could not be downloaded. It is
	// never returned by Fetch; the image is skipped instead.
	ErrImageDownload = errors.New("failed to download image")

	// ErrEmptyDocument indicates the target returned no content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrSessionClosed is returned by Fetch after Close.
	ErrSessionClosed = errors.New("browser session is closed")
)

// FetchError carries the URL of a failed page load.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrFetch as a match so callers need not use errors.As.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}
