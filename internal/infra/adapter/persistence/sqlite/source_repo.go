package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, name, base_url, rss_url, logo_url, fetch_frequency_minutes, is_active, last_fetch, created_at`

func scanSource(row rowScanner) (*entity.Source, error) {
	var (
		source    entity.Source
		lastFetch sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&source.ID, &source.Name, &source.BaseURL, &source.RSSURL, &source.LogoURL,
		&source.FetchFrequencyMinutes, &source.IsActive, &lastFetch, &createdAt,
	); err != nil {
		return nil, err
	}
	var err error
	if source.LastFetch, err = parseTimePtr(lastFetch); err != nil {
		return nil, err
	}
	if source.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &source, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = ? LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) GetByRSSURL(ctx context.Context, rssURL string) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE rss_url = ? LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, rssURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByRSSURL: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) List(ctx context.Context) ([]*entity.Source, error) {
	return repo.list(ctx, "List", `SELECT `+sourceColumns+` FROM sources ORDER BY id ASC`)
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.Source, error) {
	return repo.list(ctx, "ListActive", `SELECT `+sourceColumns+` FROM sources WHERE is_active = 1 ORDER BY id ASC`)
}

func (repo *SourceRepo) list(ctx context.Context, op, query string) ([]*entity.Source, error) {
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 16)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.Source) error {
	const query = `
INSERT INTO sources (name, base_url, rss_url, logo_url, fetch_frequency_minutes, is_active, last_fetch, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	created := time.Now().UTC()
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.BaseURL, source.RSSURL, source.LogoURL,
		source.FetchFrequencyMinutes, source.IsActive, formatTimePtr(source.LastFetch), formatTime(created),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("Create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: last insert id: %w", err)
	}
	source.ID = id
	source.CreatedAt = created
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, source *entity.Source) error {
	const query = `
UPDATE sources SET
       name                    = ?,
       base_url                = ?,
       rss_url                 = ?,
       logo_url                = ?,
       fetch_frequency_minutes = ?,
       is_active               = ?
WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.BaseURL, source.RSSURL, source.LogoURL,
		source.FetchFrequencyMinutes, source.IsActive, source.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Update: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: %w", repository.ErrNoRows)
	}
	return nil
}

func (repo *SourceRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: %w", repository.ErrNoRows)
	}
	return nil
}

func (repo *SourceRepo) TouchLastFetch(ctx context.Context, id int64, t time.Time) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE sources SET last_fetch = ? WHERE id = ?`, formatTime(t), id); err != nil {
		return fmt.Errorf("TouchLastFetch: %w", err)
	}
	return nil
}
