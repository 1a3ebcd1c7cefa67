// Package extraction runs the digest and external-source pipelines as tracked
// jobs: single-flight per scope, bounded queue, journaled lifecycle.
package extraction

import (
	"errors"

	"digest-extractor/internal/usecase/fetch"
	"digest-extractor/internal/usecase/ingest"
)

var (
	// ErrAlreadyInProgress is returned by Trigger when the scope already has an active job.
	ErrAlreadyInProgress = errors.New("extraction already in progress")

	// ErrInvalidDate indicates a malformed or future target date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrQueueFull indicates that the run queue has no free slot.
	ErrQueueFull = errors.New("extraction queue is full")

	// ErrInvalidKind indicates an unknown job kind or an option the kind does not take.
	ErrInvalidKind = errors.New("invalid job kind")

	// ErrJobNotFound indicates that no job exists with the requested id.
	ErrJobNotFound = errors.New("job not found")

	// ErrShuttingDown is returned by Trigger after Shutdown has begun.
	ErrShuttingDown = errors.New("orchestrator is shutting down")

	// ErrPdfNotFound is returned by Trigger when the archive has no PDF for the target date.
	ErrPdfNotFound = ingest.ErrPdfNotFound

	// ErrSourceNotFound is returned by Trigger for a single-source fetch of an unknown source.
	ErrSourceNotFound = fetch.ErrSourceNotFound

	errPipelineCrashed = errors.New("pipeline crashed")
)
