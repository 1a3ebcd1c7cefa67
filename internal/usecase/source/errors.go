// Package source manages the registry of external news sources: validation at
// the CRUD boundary and delegation of persistence to the source repository.
package source

import "errors"

// Sentinel errors for source use case operations.
var (
	// ErrSourceNotFound indicates that the requested source does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrDuplicateSource indicates that another source already uses the RSS URL.
	ErrDuplicateSource = errors.New("source with this rss url already exists")
)
