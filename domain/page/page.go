// Package page provides the domain interface for fetching remote web pages.
package page

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher retrieves the body of a remote page.
type Fetcher interface {
	// Fetch performs a single GET request and returns the response body as text.
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// ErrFetchFailed is matched by every FetchError.
var ErrFetchFailed = errors.New("page fetch failed")

// FetchError describes a failed fetch.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return "fetch " + e.URL + ": failed"
}

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetchFailed) true for any FetchError.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
