package repository

import (
	"context"
	"time"

	"digest-extractor/internal/domain/entity"
)

// SourceRepository persists the external source registry.
// Get returns (nil, nil) when the source does not exist.
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.Source, error)
	GetByRSSURL(ctx context.Context, rssURL string) (*entity.Source, error)
	List(ctx context.Context) ([]*entity.Source, error)
	ListActive(ctx context.Context) ([]*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	Update(ctx context.Context, source *entity.Source) error
	Delete(ctx context.Context, id int64) error
	// TouchLastFetch records a successful fetch of the source at t.
	TouchLastFetch(ctx context.Context, id int64, t time.Time) error
}
