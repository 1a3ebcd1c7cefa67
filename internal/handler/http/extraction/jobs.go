package extraction

import (
	"errors"
	"net/http"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/handler/http/respond"
	"digest-extractor/internal/repository"
	extUC "digest-extractor/internal/usecase/extraction"
)

// ListJobsHandler returns the job history, newest first.
type ListJobsHandler struct{ Orch Orchestrator }

func (h ListJobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	jobs, err := h.Orch.ListJobs(r.Context(), repository.JobFilter{
		Kind:   entity.JobKind(q.Get("kind")),
		Status: entity.JobStatus(q.Get("status")),
		Limit:  limit,
	})
	if err != nil {
		respond.SafeError(w, clientErrorCode(err), err)
		return
	}

	out := make([]JobDTO, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobDTO(j))
	}
	respond.JSON(w, http.StatusOK, out)
}

// GetJobHandler returns one job by id.
type GetJobHandler struct{ Orch Orchestrator }

func (h GetJobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	job, err := h.Orch.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, extUC.ErrJobNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toJobDTO(job))
}
