package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"digest-extractor/internal/common/pagination"
	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/observability/metrics"
	"digest-extractor/internal/observability/tracing"
	"digest-extractor/internal/repository"
	"digest-extractor/internal/usecase/fetch"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// RequestedByScheduler is the RequestedBy value of cron-triggered jobs.
const RequestedByScheduler = "scheduler"

const finalizeTimeout = 10 * time.Second

// PdfPipeline ingests the digest of a date, or today's when date is nil.
type PdfPipeline interface {
	Ingest(ctx context.Context, date *time.Time) (entity.JobResult, error)
}

// FetchPipeline fetches external sources.
type FetchPipeline interface {
	FetchAll(ctx context.Context, opts fetch.FetchOptions) (entity.JobResult, error)
	FetchOne(ctx context.Context, sourceID int64) (entity.JobResult, error)
}

// PdfArchive is the read side of the digest archive.
type PdfArchive interface {
	Exists(ctx context.Context, date string) (bool, error)
	ListDates(ctx context.Context) ([]string, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Jobs    repository.JobRepository
	Logs    repository.LogRepository
	Content repository.ContentRepository
	Sources repository.SourceRepository
	Archive PdfArchive
	Pdf     PdfPipeline
	Fetch   FetchPipeline
	// Pagination bounds GetLogs pages. Zero value uses pagination.DefaultConfig().
	Pagination pagination.Config
	Logger     *slog.Logger
}

// TriggerRequest asks for one pipeline run.
type TriggerRequest struct {
	Kind entity.JobKind
	// TargetDate (YYYY-MM-DD) re-processes an archived digest. Empty means today.
	TargetDate string
	// SourceID restricts an external fetch to one source.
	SourceID *int64
	// DueOnly limits an external fetch to sources whose cadence has elapsed.
	DueOnly     bool
	RequestedBy string
}

// TriggerResult identifies the job a trigger created or collided with.
type TriggerResult struct {
	JobID  string
	Status entity.JobStatus
}

// LogFilter selects extraction log entries. Dates are YYYY-MM-DD and inclusive.
type LogFilter struct {
	Level     string
	Module    string
	JobID     string
	StartDate string
	EndDate   string
	Search    string
	Page      int
	Limit     int
}

// LogPage is one page of extraction log entries, newest first.
type LogPage struct {
	Entries    []*entity.LogEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	Modules    []string
}

// DeleteResult reports how much content a deletion removed.
type DeleteResult struct {
	ArticlesDeleted int64 `json:"articlesDeleted"`
	ImagesDeleted   int64 `json:"imagesDeleted"`
}

// ContentSummary reports how much content is stored for one ingestion date.
type ContentSummary struct {
	Date     string `json:"date"`
	Articles int64  `json:"articles"`
	Images   int64  `json:"images"`
}

type task struct {
	job *entity.ExtractionJob
	req TriggerRequest
}

// Orchestrator accepts extraction triggers and runs them on a fixed worker pool.
// At most one job per scope is active at a time.
type Orchestrator struct {
	deps    Deps
	cfg     Config
	journal *Journal
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]string // scope -> job id
	closed bool

	queue   chan task
	wg      sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewOrchestrator creates an Orchestrator and starts its workers. Zero config
// fields take their defaults.
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if deps.Pagination.MaxLimit <= 0 {
		deps.Pagination = pagination.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		deps:    deps,
		cfg:     cfg,
		journal: NewJournal(deps.Logs, logger),
		logger:  logger,
		now:     time.Now,
		active:  make(map[string]string),
		queue:   make(chan task, cfg.QueueSize),
		baseCtx: baseCtx,
		cancel:  cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}
	return o
}

// Trigger validates req, takes the scope lock, persists the job as in_progress
// and queues the run. It returns as soon as the job is queued.
//
// When the scope is held, the holder's id is returned with ErrAlreadyInProgress.
func (o *Orchestrator) Trigger(ctx context.Context, req TriggerRequest) (TriggerResult, error) {
	if err := o.validate(ctx, req); err != nil {
		switch {
		case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidKind):
			metrics.RecordTriggerRejected(string(req.Kind), "invalid")
		case errors.Is(err, ErrPdfNotFound), errors.Is(err, ErrSourceNotFound):
			metrics.RecordTriggerRejected(string(req.Kind), "not_found")
		}
		return TriggerResult{}, err
	}

	scope := entity.JobScope(req.Kind, req.SourceID)
	id := uuid.NewString()

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return TriggerResult{}, ErrShuttingDown
	}
	if holder, ok := o.active[scope]; ok {
		o.mu.Unlock()
		return o.rejectBusy(ctx, req, scope, holder)
	}
	o.active[scope] = id
	o.mu.Unlock()

	now := o.now()
	job := &entity.ExtractionJob{
		ID:          id,
		Kind:        req.Kind,
		Scope:       scope,
		Status:      entity.StatusPending,
		TargetDate:  req.TargetDate,
		SourceID:    req.SourceID,
		RequestedBy: req.RequestedBy,
		CreatedAt:   now,
	}

	if err := o.deps.Jobs.Create(ctx, job); err != nil {
		o.release(scope, id)
		if errors.Is(err, repository.ErrActiveJobExists) {
			holder, gerr := o.deps.Jobs.ActiveByScope(ctx, scope)
			if gerr == nil && holder != nil {
				return o.rejectBusy(ctx, req, scope, holder.ID)
			}
			return TriggerResult{Status: entity.StatusInProgress}, ErrAlreadyInProgress
		}
		return TriggerResult{}, fmt.Errorf("Trigger: create job: %w", err)
	}

	startedAt := o.now()
	if err := o.deps.Jobs.Start(ctx, id, startedAt); err != nil {
		o.finalize(ctx, job, entity.JobResult{}, fmt.Errorf("start job: %w", err), 0)
		return TriggerResult{}, fmt.Errorf("Trigger: start job: %w", err)
	}
	job.Status = entity.StatusInProgress
	job.StartedAt = &startedAt
	o.journal.Accepted(ctx, job)

	o.mu.Lock()
	queued := false
	if !o.closed {
		select {
		case o.queue <- task{job: job, req: req}:
			queued = true
		default:
		}
	}
	o.mu.Unlock()

	if !queued {
		metrics.RecordTriggerRejected(string(req.Kind), "queue_full")
		o.finalize(ctx, job, entity.JobResult{}, ErrQueueFull, 0)
		return TriggerResult{JobID: id, Status: entity.StatusFailed}, ErrQueueFull
	}

	o.logger.Info("extraction job queued",
		slog.String("job_id", id),
		slog.String("kind", string(req.Kind)),
		slog.String("scope", scope),
		slog.String("requested_by", req.RequestedBy))
	return TriggerResult{JobID: id, Status: entity.StatusInProgress}, nil
}

func (o *Orchestrator) rejectBusy(ctx context.Context, req TriggerRequest, scope, holder string) (TriggerResult, error) {
	metrics.RecordTriggerRejected(string(req.Kind), "in_progress")
	o.journal.Rejected(ctx, req.Kind, scope, holder, req.RequestedBy)
	return TriggerResult{JobID: holder, Status: entity.StatusInProgress}, ErrAlreadyInProgress
}

func (o *Orchestrator) validate(ctx context.Context, req TriggerRequest) error {
	if !req.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, req.Kind)
	}
	if req.TargetDate != "" {
		if req.Kind != entity.KindPdfIngestion {
			return fmt.Errorf("%w: target date applies to %s only", ErrInvalidKind, entity.KindPdfIngestion)
		}
		if err := o.checkDate(req.TargetDate); err != nil {
			return err
		}
		ok, err := o.deps.Archive.Exists(ctx, req.TargetDate)
		if err != nil {
			return fmt.Errorf("Trigger: archive: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrPdfNotFound, req.TargetDate)
		}
	}
	if req.SourceID != nil {
		if req.Kind != entity.KindExternalFetch {
			return fmt.Errorf("%w: source id applies to %s only", ErrInvalidKind, entity.KindExternalFetch)
		}
		src, err := o.deps.Sources.Get(ctx, *req.SourceID)
		if err != nil {
			return fmt.Errorf("Trigger: get source: %w", err)
		}
		if src == nil {
			return fmt.Errorf("%w: %d", ErrSourceNotFound, *req.SourceID)
		}
	}
	return nil
}

// checkDate accepts a YYYY-MM-DD date that is not after today in the configured zone.
func (o *Orchestrator) checkDate(date string) error {
	if _, err := entity.ParseDate(date); err != nil {
		return fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, date)
	}
	if date > entity.Today(o.now(), o.cfg.Location) {
		return fmt.Errorf("%w: %s is in the future", ErrInvalidDate, date)
	}
	return nil
}

func (o *Orchestrator) release(scope, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[scope] == id {
		delete(o.active, scope)
	}
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for t := range o.queue {
		o.run(t)
	}
}

func (o *Orchestrator) run(t task) {
	job := t.job
	kind := string(job.Kind)
	start := time.Now()
	metrics.JobStarted(kind)
	defer metrics.JobDone(kind)

	ctx, cancel := context.WithTimeout(o.baseCtx, o.cfg.JobTimeout)
	defer cancel()
	ctx, span := tracing.StartSpan(ctx, "extraction.run",
		attribute.String("job_id", job.ID),
		attribute.String("kind", kind),
		attribute.String("scope", job.Scope))

	o.journal.Started(ctx, job)

	res, err := o.execute(ctx, t)
	if err != nil && ctx.Err() == context.DeadlineExceeded && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	tracing.End(span, err)

	o.finalize(ctx, job, res, err, time.Since(start))
}

// execute runs the pipeline of t. A panic is returned as an error.
func (o *Orchestrator) execute(ctx context.Context, t task) (res entity.JobResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("extraction pipeline panicked",
				slog.String("job_id", t.job.ID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", errPipelineCrashed, r)
		}
	}()

	switch t.job.Kind {
	case entity.KindPdfIngestion:
		var date *time.Time
		if t.job.TargetDate != "" {
			d, perr := entity.ParseDate(t.job.TargetDate)
			if perr != nil {
				return res, fmt.Errorf("%w: %v", ErrInvalidDate, perr)
			}
			date = &d
		}
		return o.deps.Pdf.Ingest(ctx, date)
	case entity.KindExternalFetch:
		if t.job.SourceID != nil {
			return o.deps.Fetch.FetchOne(ctx, *t.job.SourceID)
		}
		return o.deps.Fetch.FetchAll(ctx, fetch.FetchOptions{DueOnly: t.req.DueOnly})
	default:
		return res, fmt.Errorf("%w: %q", ErrInvalidKind, t.job.Kind)
	}
}

// finalize writes the terminal state of job and releases its scope. It runs
// detached from ctx cancellation so a timed-out job is still recorded.
func (o *Orchestrator) finalize(ctx context.Context, job *entity.ExtractionJob, res entity.JobResult, runErr error, elapsed time.Duration) {
	defer o.release(job.Scope, job.ID)

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	completedAt := o.now()
	job.CompletedAt = &completedAt
	job.Result = &res
	if runErr != nil {
		job.Status = entity.StatusFailed
		job.Error = &entity.JobError{Code: classify(runErr), Message: runErr.Error()}
	} else {
		job.Status = entity.StatusCompleted
	}

	if _, err := o.deps.Jobs.Finish(fctx, job); err != nil {
		o.logger.Error("failed to finalize extraction job",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
			slog.Any("error", err))
	}

	metrics.RecordJob(string(job.Kind), string(job.Status), elapsed)
	o.journal.Finished(fctx, job, elapsed)
}

// ActiveJobs returns the job id holding each busy scope.
func (o *Orchestrator) ActiveJobs() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.active))
	for scope, id := range o.active {
		out[scope] = id
	}
	return out
}

// GetStatus returns the most recent job of kind, or nil when none exists.
func (o *Orchestrator) GetStatus(ctx context.Context, kind entity.JobKind) (*entity.ExtractionJob, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	job, err := o.deps.Jobs.Latest(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("GetStatus: %w", err)
	}
	return job, nil
}

// GetJob returns the job with id, or ErrJobNotFound.
func (o *Orchestrator) GetJob(ctx context.Context, id string) (*entity.ExtractionJob, error) {
	job, err := o.deps.Jobs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetJob: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

const (
	defaultJobListLimit = 20
	maxJobListLimit     = 100
)

// ListJobs returns the job history, newest first.
func (o *Orchestrator) ListJobs(ctx context.Context, filter repository.JobFilter) ([]*entity.ExtractionJob, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, filter.Kind)
	}
	if filter.Status != "" {
		switch filter.Status {
		case entity.StatusPending, entity.StatusInProgress, entity.StatusCompleted, entity.StatusFailed:
		default:
			return nil, &entity.ValidationError{Field: "status", Message: fmt.Sprintf("invalid status %q", filter.Status)}
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultJobListLimit
	}
	if filter.Limit > maxJobListLimit {
		filter.Limit = maxJobListLimit
	}
	jobs, err := o.deps.Jobs.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ListJobs: %w", err)
	}
	return jobs, nil
}

var knownModules = map[string]bool{
	entity.ModuleOrchestrator:  true,
	entity.ModulePdfIngestion:  true,
	entity.ModuleExternalFetch: true,
	entity.ModuleContent:       true,
}

// GetLogs returns one page of the extraction log.
func (o *Orchestrator) GetLogs(ctx context.Context, f LogFilter) (*LogPage, error) {
	q := repository.LogQuery{
		JobID:  strings.TrimSpace(f.JobID),
		Search: strings.TrimSpace(f.Search),
	}
	if f.Level != "" {
		level, err := entity.ParseLogLevel(f.Level)
		if err != nil {
			return nil, err
		}
		q.Level = level
	}
	if f.Module != "" {
		if !knownModules[f.Module] {
			return nil, &entity.ValidationError{Field: "module", Message: fmt.Sprintf("invalid module %q", f.Module)}
		}
		q.Module = f.Module
	}
	if f.StartDate != "" {
		from, err := entity.ParseDate(f.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: startDate %q", ErrInvalidDate, f.StartDate)
		}
		q.From = &from
	}
	if f.EndDate != "" {
		end, err := entity.ParseDate(f.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: endDate %q", ErrInvalidDate, f.EndDate)
		}
		to := end.AddDate(0, 0, 1)
		q.To = &to
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return nil, fmt.Errorf("%w: startDate is after endDate", ErrInvalidDate)
	}

	params := pagination.Params{Page: f.Page, Limit: f.Limit}.WithDefaults(o.deps.Pagination)
	q.Offset = pagination.Offset(params.Page, params.Limit)
	q.Limit = params.Limit

	entries, total, err := o.deps.Logs.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("GetLogs: %w", err)
	}
	modules, err := o.deps.Logs.Modules(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetLogs: modules: %w", err)
	}
	return &LogPage{
		Entries:    entries,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.TotalPages(total, params.Limit),
		Modules:    modules,
	}, nil
}

// DeleteContent removes every article and image filed under date. Deleting a
// date without content succeeds with zero counts.
func (o *Orchestrator) DeleteContent(ctx context.Context, date string) (DeleteResult, error) {
	if _, err := entity.ParseDate(date); err != nil {
		return DeleteResult{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, date)
	}
	counts, err := o.deps.Content.DeleteByIngestionDate(ctx, date)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("DeleteContent: %w", err)
	}
	res := DeleteResult{ArticlesDeleted: counts.Articles, ImagesDeleted: counts.Images}
	metrics.RecordContentDeleted(res.ArticlesDeleted, res.ImagesDeleted)
	o.journal.ContentDeleted(ctx, date, res)
	return res, nil
}

// ContentCounts returns the number of articles and images stored for date.
func (o *Orchestrator) ContentCounts(ctx context.Context, date string) (ContentSummary, error) {
	if _, err := entity.ParseDate(date); err != nil {
		return ContentSummary{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, date)
	}
	counts, err := o.deps.Content.CountByIngestionDate(ctx, date)
	if err != nil {
		return ContentSummary{}, fmt.Errorf("ContentCounts: %w", err)
	}
	return ContentSummary{Date: date, Articles: counts.Articles, Images: counts.Images}, nil
}

// AvailablePdfs lists the archived digest dates, newest first.
func (o *Orchestrator) AvailablePdfs(ctx context.Context) ([]string, error) {
	dates, err := o.deps.Archive.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("AvailablePdfs: %w", err)
	}
	return dates, nil
}

// Reconcile fails every persisted job left pending or in_progress by a previous
// process and returns how many were marked. Jobs this process is running are skipped.
func (o *Orchestrator) Reconcile(ctx context.Context) (int, error) {
	jobs, err := o.deps.Jobs.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("Reconcile: %w", err)
	}

	now := o.now()
	var ids []string
	for _, job := range jobs {
		o.mu.Lock()
		running := o.active[job.Scope] == job.ID
		o.mu.Unlock()
		if running {
			continue
		}

		completedAt := now
		job.Status = entity.StatusFailed
		job.CompletedAt = &completedAt
		job.Error = &entity.JobError{
			Code:    entity.CodeInterruptedByRestart,
			Message: "job was still running when the service stopped",
		}
		updated, err := o.deps.Jobs.Finish(ctx, job)
		if err != nil {
			return len(ids), fmt.Errorf("Reconcile: finish %s: %w", job.ID, err)
		}
		if updated {
			ids = append(ids, job.ID)
		}
	}

	metrics.RecordReconciled(len(ids))
	o.journal.Reconciled(ctx, ids)
	if len(ids) > 0 {
		o.logger.Warn("reconciled interrupted extraction jobs", slog.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Shutdown stops accepting triggers and waits for queued and running jobs.
// When ctx ends first the running jobs are canceled and Shutdown waits for
// them to record their terminal state.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.cancel()
		return nil
	case <-ctx.Done():
		o.logger.Warn("shutdown deadline reached, canceling running extraction jobs")
		o.cancel()
		<-done
		return ctx.Err()
	}
}
