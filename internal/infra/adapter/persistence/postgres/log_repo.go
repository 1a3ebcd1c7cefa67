package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

type LogRepo struct {
	db *sql.DB
	qb *LogQueryBuilder
}

func NewLogRepo(db *sql.DB) repository.LogRepository {
	return &LogRepo{db: db, qb: NewLogQueryBuilder()}
}

func (repo *LogRepo) Append(ctx context.Context, entry *entity.LogEntry) error {
	var details []byte
	if len(entry.Details) > 0 {
		var err error
		if details, err = json.Marshal(entry.Details); err != nil {
			return fmt.Errorf("Append: marshal details: %w", err)
		}
	}

	const query = `
INSERT INTO extraction_logs (ts, level, module, message, job_id, details)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		entry.Timestamp, string(entry.Level), entry.Module, entry.Message, entry.JobID, details,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *LogRepo) Query(ctx context.Context, q repository.LogQuery) ([]*entity.LogEntry, int64, error) {
	where, args := repo.qb.BuildWhereClause(q)

	var total int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extraction_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("Query: count: %w", err)
	}

	query := fmt.Sprintf(`
SELECT id, ts, level, module, message, job_id, details
FROM extraction_logs
%s
ORDER BY ts DESC, id DESC
LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	rows, err := repo.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.LogEntry, 0, q.Limit)
	for rows.Next() {
		var (
			e       entity.LogEntry
			level   string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &level, &e.Module, &e.Message, &e.JobID, &details); err != nil {
			return nil, 0, fmt.Errorf("Query: scan: %w", err)
		}
		e.Level = entity.LogLevel(level)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, 0, fmt.Errorf("Query: unmarshal details: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}

func (repo *LogRepo) Modules(ctx context.Context) ([]string, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT DISTINCT module FROM extraction_logs ORDER BY module`)
	if err != nil {
		return nil, fmt.Errorf("Modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var modules []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("Modules: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}
