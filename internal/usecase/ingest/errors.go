// Package ingest implements the daily digest pipeline: obtain the PDF for a
// date, split it into articles and images, and store them idempotently.
package ingest

import "errors"

// Sentinel errors for digest ingestion.
var (
	// ErrPdfNotFound indicates that no archived digest exists for the requested date.
	ErrPdfNotFound = errors.New("pdf not found for date")

	// ErrDownloadFailed indicates that the current digest could not be downloaded.
	ErrDownloadFailed = errors.New("digest download failed")

	// ErrParseFailed indicates invalid PDF bytes or a digest without any content.
	ErrParseFailed = errors.New("digest parse failed")
)
