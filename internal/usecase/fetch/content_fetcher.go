package fetch

import (
	"context"
	"errors"
)

// ContentFetcher extracts the readable text of an article page. It is used to
// fill summaries that the feed left short.
//
// Implementations must refuse private addresses, enforce a body size limit and
// validate redirect targets.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Sentinel errors for content fetching. Callers treat all of them as "keep
// the feed summary".
var (
	// ErrInvalidURL indicates the URL is malformed or not http(s).
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a loopback, private or link-local address.
	ErrPrivateIP = errors.New("private IP access denied")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded its timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrReadabilityFailed indicates no readable content could be extracted.
	ErrReadabilityFailed = errors.New("content extraction failed")
)
