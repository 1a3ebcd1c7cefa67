package extraction

import (
	"context"
	"errors"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/usecase/fetch"
	"digest-extractor/internal/usecase/ingest"
)

// classify maps a pipeline error to the code stored on the failed job.
// Deadline errors win over whatever the pipeline wrapped around them.
func classify(err error) entity.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return entity.CodeTimeout
	case errors.Is(err, errPipelineCrashed):
		return entity.CodePipelineCrashed
	case errors.Is(err, context.Canceled):
		return entity.CodeInterruptedByRestart
	case errors.Is(err, ErrQueueFull):
		return entity.CodeQueueFull
	case errors.Is(err, ingest.ErrPdfNotFound):
		return entity.CodePdfNotFound
	case errors.Is(err, ingest.ErrDownloadFailed):
		return entity.CodeDownloadFailed
	case errors.Is(err, ingest.ErrParseFailed):
		return entity.CodeParseFailed
	case errors.Is(err, fetch.ErrAllSourcesFailed),
		errors.Is(err, fetch.ErrSourceFetchFailed),
		errors.Is(err, fetch.ErrSourceNotFound):
		return entity.CodeSourceFetchFailed
	default:
		return entity.CodeInternal
	}
}
