package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
)

const journalWriteTimeout = 5 * time.Second

// Journal records the job lifecycle in the extraction log and mirrors every
// entry to slog. A failed log write is reported on slog and otherwise ignored.
type Journal struct {
	repo   repository.LogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewJournal creates a Journal. A nil logger uses slog.Default().
func NewJournal(repo repository.LogRepository, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{repo: repo, logger: logger, now: time.Now}
}

func (j *Journal) write(ctx context.Context, level entity.LogLevel, module, jobID, msg string, details map[string]string) {
	attrs := make([]slog.Attr, 0, len(details)+2)
	attrs = append(attrs, slog.String("module", module))
	if jobID != "" {
		attrs = append(attrs, slog.String("job_id", jobID))
	}
	for k, v := range details {
		attrs = append(attrs, slog.String(k, v))
	}
	j.logger.LogAttrs(ctx, slogLevel(level), msg, attrs...)

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
	defer cancel()
	err := j.repo.Append(wctx, &entity.LogEntry{
		Timestamp: j.now().UTC(),
		Level:     level,
		Module:    module,
		Message:   msg,
		JobID:     jobID,
		Details:   details,
	})
	if err != nil {
		j.logger.Error("failed to write extraction log entry",
			slog.String("module", module),
			slog.String("job_id", jobID),
			slog.Any("error", err))
	}
}

func slogLevel(l entity.LogLevel) slog.Level {
	switch l {
	case entity.LogDebug:
		return slog.LevelDebug
	case entity.LogWarn:
		return slog.LevelWarn
	case entity.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func moduleOf(kind entity.JobKind) string {
	if kind == entity.KindExternalFetch {
		return entity.ModuleExternalFetch
	}
	return entity.ModulePdfIngestion
}

func jobDetails(job *entity.ExtractionJob) map[string]string {
	d := map[string]string{
		"kind":         string(job.Kind),
		"scope":        job.Scope,
		"requested_by": job.RequestedBy,
	}
	if job.TargetDate != "" {
		d["target_date"] = job.TargetDate
	}
	if job.SourceID != nil {
		d["source_id"] = strconv.FormatInt(*job.SourceID, 10)
	}
	return d
}

// Accepted records a job that passed validation and holds its scope.
func (j *Journal) Accepted(ctx context.Context, job *entity.ExtractionJob) {
	j.write(ctx, entity.LogInfo, entity.ModuleOrchestrator, job.ID, "Extraction job accepted", jobDetails(job))
}

// Rejected records a trigger refused because holderID already runs the scope.
func (j *Journal) Rejected(ctx context.Context, kind entity.JobKind, scope, holderID, requestedBy string) {
	j.write(ctx, entity.LogWarn, entity.ModuleOrchestrator, holderID, "Extraction already in progress", map[string]string{
		"kind":         string(kind),
		"scope":        scope,
		"requested_by": requestedBy,
	})
}

// Started records a worker picking up the job.
func (j *Journal) Started(ctx context.Context, job *entity.ExtractionJob) {
	j.write(ctx, entity.LogInfo, moduleOf(job.Kind), job.ID, "Extraction started", jobDetails(job))
}

// Finished records the terminal state of the job and one entry per failed source.
func (j *Journal) Finished(ctx context.Context, job *entity.ExtractionJob, elapsed time.Duration) {
	module := moduleOf(job.Kind)
	d := jobDetails(job)
	d["duration_ms"] = strconv.FormatInt(elapsed.Milliseconds(), 10)
	if r := job.Result; r != nil {
		d["articles_created"] = strconv.Itoa(r.ArticlesCreated)
		d["articles_skipped"] = strconv.Itoa(r.ArticlesSkippedDuplicate)
		d["images_created"] = strconv.Itoa(r.ImagesCreated)
		d["images_skipped"] = strconv.Itoa(r.ImagesSkippedDuplicate)
		if job.Kind == entity.KindExternalFetch {
			d["sources_fetched"] = strconv.Itoa(r.SourcesFetched)
			d["sources_failed"] = strconv.Itoa(len(r.SourceFailures))
		}

		for _, f := range r.SourceFailures {
			j.write(ctx, entity.LogWarn, entity.ModuleExternalFetch, job.ID,
				fmt.Sprintf("%s(%s)", entity.CodeSourceFetchFailed, f.Code),
				map[string]string{
					"source_id":   strconv.FormatInt(f.SourceID, 10),
					"source_name": f.SourceName,
					"code":        string(f.Code),
					"error":       f.Message,
				})
		}
	}

	if job.Status == entity.StatusFailed && job.Error != nil {
		d["code"] = string(job.Error.Code)
		d["error"] = job.Error.Message
		j.write(ctx, entity.LogError, module, job.ID, "Extraction failed", d)
		return
	}
	j.write(ctx, entity.LogInfo, module, job.ID, "Extraction completed", d)
}

// Reconciled records the jobs marked interrupted at startup.
func (j *Journal) Reconciled(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		j.write(ctx, entity.LogWarn, entity.ModuleOrchestrator, id, "Job interrupted by restart",
			map[string]string{"code": string(entity.CodeInterruptedByRestart)})
	}
}

// ContentDeleted records a content deletion for date.
func (j *Journal) ContentDeleted(ctx context.Context, date string, res DeleteResult) {
	j.write(ctx, entity.LogInfo, entity.ModuleContent, "", "Content deleted", map[string]string{
		"date":             date,
		"articles_deleted": strconv.FormatInt(res.ArticlesDeleted, 10),
		"images_deleted":   strconv.FormatInt(res.ImagesDeleted, 10),
	})
}
