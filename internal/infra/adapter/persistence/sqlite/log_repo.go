package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

type LogRepo struct{ db *sql.DB }

func NewLogRepo(db *sql.DB) repository.LogRepository {
	return &LogRepo{db: db}
}

// buildLogWhere mirrors the PostgreSQL builder with ? placeholders. SQLite LIKE
// is case-insensitive for ASCII, so it stands in for ILIKE.
func buildLogWhere(q repository.LogQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, string(q.Level))
	}
	if q.Module != "" {
		conds = append(conds, "module = ?")
		args = append(args, q.Module)
	}
	if q.JobID != "" {
		conds = append(conds, "job_id = ?")
		args = append(args, q.JobID)
	}
	if q.From != nil {
		conds = append(conds, "ts >= ?")
		args = append(args, formatTime(*q.From))
	}
	if q.To != nil {
		conds = append(conds, "ts < ?")
		args = append(args, formatTime(*q.To))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		conds = append(conds, `message LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(s)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (repo *LogRepo) Append(ctx context.Context, entry *entity.LogEntry) error {
	var details any
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("Append: marshal details: %w", err)
		}
		details = string(b)
	}

	const query = `
INSERT INTO extraction_logs (ts, level, module, message, job_id, details)
VALUES (?, ?, ?, ?, ?, ?)`
	res, err := repo.db.ExecContext(ctx, query,
		formatTime(entry.Timestamp), string(entry.Level), entry.Module, entry.Message, entry.JobID, details,
	)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	if entry.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("Append: last insert id: %w", err)
	}
	return nil
}

func (repo *LogRepo) Query(ctx context.Context, q repository.LogQuery) ([]*entity.LogEntry, int64, error) {
	where, args := buildLogWhere(q)

	var total int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extraction_logs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("Query: count: %w", err)
	}

	query := `
SELECT id, ts, level, module, message, job_id, details
FROM extraction_logs
` + where + `
ORDER BY ts DESC, id DESC
LIMIT ? OFFSET ?`
	rows, err := repo.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("Query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.LogEntry, 0, q.Limit)
	for rows.Next() {
		var (
			e       entity.LogEntry
			ts      string
			level   string
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &level, &e.Module, &e.Message, &e.JobID, &details); err != nil {
			return nil, 0, fmt.Errorf("Query: scan: %w", err)
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, 0, fmt.Errorf("Query: %w", err)
		}
		e.Level = entity.LogLevel(level)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &e.Details); err != nil {
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
