package repository

import (
	"context"

	"digest-extractor/internal/domain/entity"
)

// ContentCounts reports article and image row counts for one ingestion date.
type ContentCounts struct {
	Articles int64
	Images   int64
}

// ContentRepository stores articles and images keyed by their dedupe key.
//
// Insert methods are first-write-wins: when a row with the same dedupe key
// already exists the call returns created=false and a nil error, and the
// existing row is left untouched.
type ContentRepository interface {
	InsertArticle(ctx context.Context, article *entity.Article) (created bool, err error)
	InsertImage(ctx context.Context, image *entity.Image) (created bool, err error)
	// DeleteByIngestionDate removes every article and image filed under date (YYYY-MM-DD).
	DeleteByIngestionDate(ctx context.Context, date string) (ContentCounts, error)
	CountByIngestionDate(ctx context.Context, date string) (ContentCounts, error)
}
