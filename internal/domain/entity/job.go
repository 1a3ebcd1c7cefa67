package entity

import (
	"fmt"
	"strconv"
	"time"
)

// JobKind identifies the pipeline an extraction job runs.
type JobKind string

const (
	KindPdfIngestion  JobKind = "pdf_ingestion"
	KindExternalFetch JobKind = "external_fetch"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	return k == KindPdfIngestion || k == KindExternalFetch
}

// JobStatus is the lifecycle state of an extraction job.
//
//	pending -> in_progress -> completed | failed
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs never change again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrorCode is the machine-readable failure reason stored on a failed job.
type ErrorCode string

const (
	CodeAlreadyInProgress    ErrorCode = "AlreadyInProgress"
	CodePdfNotFound          ErrorCode = "PdfNotFound"
	CodeDownloadFailed       ErrorCode = "DownloadFailed"
	CodeParseFailed          ErrorCode = "ParseFailed"
	CodeSourceFetchFailed    ErrorCode = "SourceFetchFailed"
	CodeTimeout              ErrorCode = "Timeout"
	CodeInterruptedByRestart ErrorCode = "InterruptedByRestart"
	CodePipelineCrashed      ErrorCode = "PipelineCrashed"
	CodeQueueFull            ErrorCode = "QueueFull"
	CodeInternal             ErrorCode = "Internal"

	// Per-source failure details inside a fetch result.
	CodeHTTPStatus    ErrorCode = "HTTPStatus"
	CodeMalformedFeed ErrorCode = "MalformedFeed"
	CodeStorageError  ErrorCode = "StorageError"
)

// JobError is the structured failure reason of a failed job.
type JobError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SourceFailure records one external source that could not be fetched during a run.
type SourceFailure struct {
	SourceID   int64     `json:"sourceId"`
	SourceName string    `json:"sourceName"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
}

// JobResult carries the counters produced by a pipeline run.
type JobResult struct {
	ArticlesCreated          int             `json:"articlesCreated"`
	ImagesCreated            int             `json:"imagesCreated"`
	ArticlesSkippedDuplicate int             `json:"articlesSkippedDuplicate"`
	ImagesSkippedDuplicate   int             `json:"imagesSkippedDuplicate"`
	SourcesFetched           int             `json:"sourcesFetched"`
	SourceFailures           []SourceFailure `json:"sourceFailures,omitempty"`
}

// Merge adds the counters of o into r.
func (r *JobResult) Merge(o JobResult) {
	r.ArticlesCreated += o.ArticlesCreated
	r.ImagesCreated += o.ImagesCreated
	r.ArticlesSkippedDuplicate += o.ArticlesSkippedDuplicate
	r.ImagesSkippedDuplicate += o.ImagesSkippedDuplicate
	r.SourcesFetched += o.SourcesFetched
	r.SourceFailures = append(r.SourceFailures, o.SourceFailures...)
}

// ExtractionJob is one triggered pipeline run.
type ExtractionJob struct {
	ID     string
	Kind   JobKind
	Scope  string
	Status JobStatus
	// TargetDate is empty when the run downloads the current digest.
	TargetDate  string
	SourceID    *int64
	RequestedBy string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       *JobError
	Result      *JobResult
}

// JobScope returns the single-flight scope for a job. PDF ingestion has a single
// scope; external fetches are scoped per source, with "*" meaning all sources.
func JobScope(kind JobKind, sourceID *int64) string {
	if kind == KindExternalFetch && sourceID != nil {
		return string(kind) + ":" + strconv.FormatInt(*sourceID, 10)
	}
	return string(kind) + ":*"
}
