package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/handler/http/auth"
	"digest-extractor/internal/handler/http/pathutil"
	"digest-extractor/internal/handler/http/respond"
	extUC "digest-extractor/internal/usecase/extraction"
)

// RunHandler starts a digest ingestion, for today or for an archived date.
type RunHandler struct{ Orch Orchestrator }

func (h RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	res, err := h.Orch.Trigger(r.Context(), extUC.TriggerRequest{
		Kind:        entity.KindPdfIngestion,
		TargetDate:  req.Date,
		RequestedBy: auth.UserFromContext(r.Context()),
	})
	writeTrigger(w, res, err)
}

// FetchAllHandler fetches every active source regardless of cadence.
type FetchAllHandler struct{ Orch Orchestrator }

func (h FetchAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orch.Trigger(r.Context(), extUC.TriggerRequest{
		Kind:        entity.KindExternalFetch,
		RequestedBy: auth.UserFromContext(r.Context()),
	})
	writeTrigger(w, res, err)
}

// FetchSourceHandler fetches a single source.
type FetchSourceHandler struct{ Orch Orchestrator }

func (h FetchSourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Orch.Trigger(r.Context(), extUC.TriggerRequest{
		Kind:        entity.KindExternalFetch,
		SourceID:    &id,
		RequestedBy: auth.UserFromContext(r.Context()),
	})
	writeTrigger(w, res, err)
}

// writeTrigger maps a Trigger outcome to the response envelope. Storage
// failures are the only 5xx besides a full queue.
func writeTrigger(w http.ResponseWriter, res extUC.TriggerResult, err error) {
	if err == nil {
		respond.JSON(w, http.StatusAccepted, TriggerResponse{
			Success: true,
			Message: "extraction started",
			JobID:   res.JobID,
			Status:  string(res.Status),
		})
		return
	}

	var code int
	switch {
	case errors.Is(err, extUC.ErrAlreadyInProgress):
		code = http.StatusConflict
	case errors.Is(err, extUC.ErrPdfNotFound), errors.Is(err, extUC.ErrSourceNotFound):
		code = http.StatusNotFound
	case errors.Is(err, extUC.ErrInvalidDate), errors.Is(err, extUC.ErrInvalidKind):
		code = http.StatusBadRequest
	case errors.Is(err, extUC.ErrQueueFull), errors.Is(err, extUC.ErrShuttingDown):
		code = http.StatusServiceUnavailable
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, code, TriggerResponse{
		Success: false,
		Message: err.Error(),
		JobID:   res.JobID,
		Status:  string(res.Status),
	})
}
