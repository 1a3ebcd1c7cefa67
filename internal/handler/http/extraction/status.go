package extraction

import (
	"errors"
	"net/http"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/handler/http/respond"
	extUC "digest-extractor/internal/usecase/extraction"
)

// StatusHandler returns the last job of a kind and the next scheduled run.
type StatusHandler struct {
	Orch     Orchestrator
	Schedule Schedule
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	kind := entity.KindPdfIngestion
	if k := r.URL.Query().Get("kind"); k != "" {
		kind = entity.JobKind(k)
	}

	job, err := h.Orch.GetStatus(r.Context(), kind)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, extUC.ErrInvalidKind) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	resp := StatusResponse{}
	if job != nil {
		resp.LastExtraction = toLastExtraction(job)
	}
	if h.Schedule != nil {
		resp.NextExtraction = h.Schedule.Next(kind)
	}
	respond.JSON(w, http.StatusOK, resp)
}
