// Package extraction exposes the job orchestrator over HTTP: triggering runs,
// reading the last status, job history and the extraction log, listing
// archived digests and counting or deleting a day's content.
package extraction

import (
	"context"
	"net/http"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/repository"
	extUC "digest-extractor/internal/usecase/extraction"
)

// Orchestrator is the subset of *extraction.Orchestrator the handlers call.
type Orchestrator interface {
	Trigger(ctx context.Context, req extUC.TriggerRequest) (extUC.TriggerResult, error)
	GetStatus(ctx context.Context, kind entity.JobKind) (*entity.ExtractionJob, error)
	GetJob(ctx context.Context, id string) (*entity.ExtractionJob, error)
	ListJobs(ctx context.Context, filter repository.JobFilter) ([]*entity.ExtractionJob, error)
	GetLogs(ctx context.Context, f extUC.LogFilter) (*extUC.LogPage, error)
	ContentCounts(ctx context.Context, date string) (extUC.ContentSummary, error)
	DeleteContent(ctx context.Context, date string) (extUC.DeleteResult, error)
	AvailablePdfs(ctx context.Context) ([]string, error)
}

// Schedule reports the next scheduled run of a kind, or nil when none is planned.
type Schedule interface {
	Next(kind entity.JobKind) *time.Time
}

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Register mounts the extraction routes and the external fetch triggers on mux.
// Every route goes through authz; routes that start jobs also go through throttle.
func Register(mux *http.ServeMux, orch Orchestrator, sched Schedule, authz, throttle Middleware) {
	trigger := func(h http.Handler) http.Handler { return authz(throttle(h)) }

	mux.Handle("POST /extraction/run", trigger(RunHandler{orch}))
	mux.Handle("GET /extraction/status", authz(StatusHandler{orch, sched}))
	mux.Handle("GET /extraction/logs", authz(LogsHandler{orch}))
	mux.Handle("GET /extraction/available-pdfs", authz(AvailablePdfsHandler{orch}))
	mux.Handle("GET /extraction/jobs", authz(ListJobsHandler{orch}))
	mux.Handle("GET /extraction/jobs/{id}", authz(GetJobHandler{orch}))
	mux.Handle("GET /extraction/content/{date}", authz(ContentCountsHandler{orch}))
	mux.Handle("DELETE /extraction/content/{date}", authz(DeleteContentHandler{orch}))

	mux.Handle("POST /external-sources/fetch", trigger(FetchAllHandler{orch}))
	mux.Handle("POST /external-sources/{id}/fetch", trigger(FetchSourceHandler{orch}))
}
