// Package fetch implements the external source pipeline: fetch the feeds of
// registered sources concurrently, normalize their entries into articles and
// store them with first-write-wins deduplication.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrFeedFetchFailed indicates that fetching a feed from the source URL failed.
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// ErrInvalidFeedFormat indicates that the feed content could not be parsed
	// as RSS or Atom. Per-source failures carry code MalformedFeed.
	ErrInvalidFeedFormat = errors.New("invalid feed format")

	// ErrSourceNotFound indicates that a single-source fetch named an unknown source.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSourceFetchFailed indicates that the one source of FetchOne failed.
	ErrSourceFetchFailed = errors.New("source fetch failed")

	// ErrAllSourcesFailed indicates that at least one source ran and every source failed.
	ErrAllSourcesFailed = errors.New("all sources failed")
)
