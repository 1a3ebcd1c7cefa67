package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

type JobRepo struct{ db *sql.DB }

func NewJobRepo(db *sql.DB) repository.JobRepository {
	return &JobRepo{db: db}
}

const jobColumns = `id, kind, scope, status, target_date, source_id, requested_by,
       created_at, started_at, completed_at, error_code, error_message, result`

func scanJob(row rowScanner) (*entity.ExtractionJob, error) {
	var (
		job                    entity.ExtractionJob
		kind, status           string
		targetDate             sql.NullString
		sourceID               sql.NullInt64
		startedAt, completedAt sql.NullTime
		errCode, errMsg        sql.NullString
		result                 []byte
	)
	if err := row.Scan(
		&job.ID, &kind, &job.Scope, &status, &targetDate, &sourceID, &job.RequestedBy,
		&job.CreatedAt, &startedAt, &completedAt, &errCode, &errMsg, &result,
	); err != nil {
		return nil, err
	}
	job.Kind = entity.JobKind(kind)
	job.Status = entity.JobStatus(status)
	job.TargetDate = targetDate.String
	if sourceID.Valid {
		id := sourceID.Int64
		job.SourceID = &id
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if errCode.Valid {
		job.Error = &entity.JobError{Code: entity.ErrorCode(errCode.String), Message: errMsg.String}
	}
	if len(result) > 0 {
		var r entity.JobResult
		if err := json.Unmarshal(result, &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		job.Result = &r
	}
	return &job, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (repo *JobRepo) Create(ctx context.Context, job *entity.ExtractionJob) error {
	const query = `
INSERT INTO extraction_jobs (id, kind, scope, status, target_date, source_id, requested_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, query,
		job.ID, string(job.Kind), job.Scope, string(job.Status),
		nullString(job.TargetDate), job.SourceID, job.RequestedBy, job.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", repository.ErrActiveJobExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *JobRepo) Start(ctx context.Context, id string, startedAt time.Time) error {
	const query = `
UPDATE extraction_jobs SET status = 'in_progress', started_at = $2
WHERE id = $1 AND status = 'pending'`
	res, err := repo.db.ExecContext(ctx, query, id, startedAt)
	if err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Start: %w", repository.ErrNoRows)
	}
	return nil
}

func (repo *JobRepo) Finish(ctx context.Context, job *entity.ExtractionJob) (bool, error) {
	var result []byte
	if job.Result != nil {
		var err error
		if result, err = json.Marshal(job.Result); err != nil {
			return false, fmt.Errorf("Finish: marshal result: %w", err)
		}
	}
	var code, msg sql.NullString
	if job.Error != nil {
		code = nullString(string(job.Error.Code))
		msg = sql.NullString{String: job.Error.Message, Valid: true}
	}

	const query = `
UPDATE extraction_jobs SET
       status        = $2,
       completed_at  = $3,
       error_code    = $4,
       error_message = $5,
       result        = $6
WHERE id = $1 AND status IN ('pending', 'in_progress')`
	res, err := repo.db.ExecContext(ctx, query,
		job.ID, string(job.Status), job.CompletedAt, code, msg, result,
	)
	if err != nil {
		return false, fmt.Errorf("Finish: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Finish: rows affected: %w", err)
	}
	return n == 1, nil
}

func (repo *JobRepo) Get(ctx context.Context, id string) (*entity.ExtractionJob, error) {
	return repo.one(ctx, "Get", `SELECT `+jobColumns+` FROM extraction_jobs WHERE id = $1`, id)
}

func (repo *JobRepo) Latest(ctx context.Context, kind entity.JobKind) (*entity.ExtractionJob, error) {
	return repo.one(ctx, "Latest", `SELECT `+jobColumns+` FROM extraction_jobs
WHERE kind = $1 ORDER BY created_at DESC LIMIT 1`, string(kind))
}

func (repo *JobRepo) ActiveByScope(ctx context.Context, scope string) (*entity.ExtractionJob, error) {
	return repo.one(ctx, "ActiveByScope", `SELECT `+jobColumns+` FROM extraction_jobs
WHERE scope = $1 AND status IN ('pending', 'in_progress') LIMIT 1`, scope)
}

func (repo *JobRepo) one(ctx context.Context, op, query string, args ...any) (*entity.ExtractionJob, error) {
	job, err := scanJob(repo.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return job, nil
}

func (repo *JobRepo) ListActive(ctx context.Context) ([]*entity.ExtractionJob, error) {
	return repo.many(ctx, "ListActive", `SELECT `+jobColumns+` FROM extraction_jobs
WHERE status IN ('pending', 'in_progress') ORDER BY created_at ASC`)
}

func (repo *JobRepo) List(ctx context.Context, f repository.JobFilter) ([]*entity.ExtractionJob, error) {
	var (
		conds []string
		args  []any
	)
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM extraction_jobs %s ORDER BY created_at DESC LIMIT $%d`, jobColumns, where, len(args))
	return repo.many(ctx, "List", query, args...)
}

func (repo *JobRepo) many(ctx context.Context, op, query string, args ...any) ([]*entity.ExtractionJob, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*entity.ExtractionJob, 0, 8)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}
