package repository

import (
	"context"
	"time"

	"digest-extractor/internal/domain/entity"
)

// LogQuery contains optional filters for reading the extraction log.
type LogQuery struct {
	Level  entity.LogLevel // Optional: exact level
	Module string          // Optional: exact module
	JobID  string          // Optional: entries of one job
	From   *time.Time      // Optional: Timestamp >= From
	To     *time.Time      // Optional: Timestamp < To
	Search string          // Optional: case-insensitive substring of the message
	Offset int
	Limit  int
}

// LogRepository is the append-only extraction log.
type LogRepository interface {
	Append(ctx context.Context, entry *entity.LogEntry) error
	// Query returns one page of entries, newest first, and the total number of matches.
	Query(ctx context.Context, q LogQuery) ([]*entity.LogEntry, int64, error)
	// Modules lists the distinct modules present in the log.
	Modules(ctx context.Context) ([]string, error)
}
