package repository

import (
	"context"
	"time"

	"digest-extractor/internal/domain/entity"
)

// JobFilter narrows a job history listing. Zero values mean "any".
type JobFilter struct {
	Kind   entity.JobKind
	Status entity.JobStatus
	Limit  int
}

// JobRepository persists extraction jobs.
type JobRepository interface {
	// Create inserts a new job in pending state.
	Create(ctx context.Context, job *entity.ExtractionJob) error
	// Start moves a pending job to in_progress.
	Start(ctx context.Context, id string, startedAt time.Time) error
	// Finish writes the terminal state. Jobs that are already terminal are left
	// unchanged and Finish reports updated=false.
	Finish(ctx context.Context, job *entity.ExtractionJob) (updated bool, err error)
	// Get returns (nil, nil) when the job does not exist.
	Get(ctx context.Context, id string) (*entity.ExtractionJob, error)
	// Latest returns the most recently created job of kind, or (nil, nil).
	Latest(ctx context.Context, kind entity.JobKind) (*entity.ExtractionJob, error)
	// ActiveByScope returns the non-terminal job holding scope, or (nil, nil).
	ActiveByScope(ctx context.Context, scope string) (*entity.ExtractionJob, error)
	ListActive(ctx context.Context) ([]*entity.ExtractionJob, error)
	List(ctx context.Context, filter JobFilter) ([]*entity.ExtractionJob, error)
}
