package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

type ContentRepo struct{ db *sql.DB }

func NewContentRepo(db *sql.DB) repository.ContentRepository {
	return &ContentRepo{db: db}
}

// InsertArticle relies on the unique dedupe_key: a conflicting insert affects
// zero rows and is reported as created=false.
func (repo *ContentRepo) InsertArticle(ctx context.Context, a *entity.Article) (bool, error) {
	const query = `
INSERT INTO articles (
    dedupe_key, origin, source_id, source_label, source_url, section,
    title, summary, url, publication_date, ingestion_date
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (dedupe_key) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, query,
		a.DedupeKey, string(a.Origin), a.SourceID, a.SourceLabel, a.SourceURL, a.Section,
		a.Title, a.Summary, a.URL, a.PublicationDate, a.IngestionDate,
	)
	if err != nil {
		return false, fmt.Errorf("InsertArticle: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertArticle: rows affected: %w", err)
	}
	return n == 1, nil
}

func (repo *ContentRepo) InsertImage(ctx context.Context, img *entity.Image) (bool, error) {
	const query = `
INSERT INTO images (dedupe_key, ingestion_date, page, idx, blob_ref, content_type, size_bytes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (dedupe_key) DO NOTHING`
	res, err := repo.db.ExecContext(ctx, query,
		img.DedupeKey, img.IngestionDate, img.Page, img.Index, img.BlobRef, img.ContentType, img.SizeBytes,
	)
	if err != nil {
		return false, fmt.Errorf("InsertImage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertImage: rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteByIngestionDate removes both tables' rows in one transaction.
func (repo *ContentRepo) DeleteByIngestionDate(ctx context.Context, date string) (repository.ContentCounts, error) {
	var counts repository.ContentCounts

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return counts, fmt.Errorf("DeleteByIngestionDate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE ingestion_date = $1`, date)
	if err != nil {
		return counts, fmt.Errorf("DeleteByIngestionDate: articles: %w", err)
	}
	counts.Articles, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM images WHERE ingestion_date = $1`, date)
	if err != nil {
		return repository.ContentCounts{}, fmt.Errorf("DeleteByIngestionDate: images: %w", err)
	}
	counts.Images, _ = res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return repository.ContentCounts{}, fmt.Errorf("DeleteByIngestionDate: commit: %w", err)
	}
	return counts, nil
}

func (repo *ContentRepo) CountByIngestionDate(ctx context.Context, date string) (repository.ContentCounts, error) {
	const query = `
SELECT
    (SELECT COUNT(*) FROM articles WHERE ingestion_date = $1),
    (SELECT COUNT(*) FROM images   WHERE ingestion_date = $1)`
	var counts repository.ContentCounts
	if err := repo.db.QueryRowContext(ctx, query, date).Scan(&counts.Articles, &counts.Images); err != nil {
		return counts, fmt.Errorf("CountByIngestionDate: %w", err)
	}
	return counts, nil
}
