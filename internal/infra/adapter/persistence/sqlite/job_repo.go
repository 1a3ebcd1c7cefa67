package sqlite

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
		createdAt              string
		startedAt, completedAt sql.NullString
		errCode, errMsg        sql.NullString
		result                 sql.NullString
	)
	if err := row.Scan(
		&job.ID, &kind, &job.Scope, &status, &targetDate, &sourceID, &job.RequestedBy,
		&createdAt, &startedAt, &completedAt, &errCode, &errMsg, &result,
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

	var err error
	if job.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if job.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, err
	}
	if job.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if errCode.Valid {
		job.Error = &entity.JobError{Code: entity.ErrorCode(errCode.String), Message: errMsg.String}
	}
	if result.Valid && result.String != "" {
		var r entity.JobResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		job.Result = &r
	}
	return &job, nil
}

func (repo *JobRepo) Create(ctx context.Context, job *entity.ExtractionJob) error {
	const query = `
INSERT INTO extraction_jobs (id, kind, scope, status, target_date, source_id, requested_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := repo.db.ExecContext(ctx, query,
		job.ID, string(job.Kind), job.Scope, string(job.Status),
		nullableString(job.TargetDate), nullableInt(job.SourceID), job.RequestedBy, formatTime(job.CreatedAt),
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
UPDATE extraction_jobs SET status = 'in_progress', started_at = ?
WHERE id = ? AND status = 'pending'`
	res, err := repo.db.ExecContext(ctx, query, formatTime(startedAt), id)
	if err != nil {
		return fmt.Errorf("Start: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Start: %w", repository.ErrNoRows)
	}
	return nil
}

func (repo *JobRepo) Finish(ctx context.Context, job *entity.ExtractionJob) (bool, error) {
	var result any
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return false, fmt.Errorf("Finish: marshal result: %w", err)
		}
		result = string(b)
	}
	var code, msg any
	if job.Error != nil {
		code = nullableString(string(job.Error.Code))
		msg = job.Error.Message
	}

	const query = `
UPDATE extraction_jobs SET
       status        = ?,
       completed_at  = ?,
       error_code    = ?,
       error_message = ?,
       result        = ?
WHERE id = ? AND status IN ('pending', 'in_progress')`
	res, err := repo.db.ExecContext(ctx, query,
		string(job.Status), formatTimePtr(job.CompletedAt), code, msg, result, job.ID,
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
	return repo.one(ctx, "Get", `SELECT `+jobColumns+` FROM extraction_jobs WHERE id = ?`, id)
}

func (repo *JobRepo) Latest(ctx context.Context, kind entity.JobKind) (*entity.ExtractionJob, error) {
	return repo.one(ctx, "Latest", `SELECT `+jobColumns+` FROM extraction_jobs
WHERE kind = ? ORDER BY created_at DESC LIMIT 1`, string(kind))
}

func (repo *JobRepo) ActiveByScope(ctx context.Context, scope string) (*entity.ExtractionJob, error) {
	return repo.one(ctx, "ActiveByScope", `SELECT `+jobColumns+` FROM extraction_jobs
WHERE scope = ? AND status IN ('pending', 'in_progress') LIMIT 1`, scope)
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
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
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
	query := fmt.Sprintf(`SELECT %s FROM extraction_jobs %s ORDER BY created_at DESC LIMIT ?`, jobColumns, where)
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
