package extraction

import (
	"errors"
	"net/http"
	"strconv"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/handler/http/respond"
	extUC "digest-extractor/internal/usecase/extraction"
)

// LogsHandler pages through the extraction log.
type LogsHandler struct{ Orch Orchestrator }

func (h LogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Orch.GetLogs(r.Context(), extUC.LogFilter{
		Level:     q.Get("level"),
		Module:    q.Get("module"),
		JobID:     q.Get("jobId"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Search:    q.Get("search"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respond.SafeError(w, clientErrorCode(err), err)
		return
	}

	logs := make([]LogDTO, 0, len(res.Entries))
	for _, e := range res.Entries {
		logs = append(logs, LogDTO{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Level:     string(e.Level),
			Module:    e.Module,
			Message:   e.Message,
			JobID:     e.JobID,
			Details:   e.Details,
		})
	}
	modules := res.Modules
	if modules == nil {
		modules = []string{}
	}

	respond.JSON(w, http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
		Modules:    modules,
	})
}

// optionalInt parses a positive integer query value; "" yields 0.
func optionalInt(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, &entity.ValidationError{Field: field, Message: "must be a positive integer"}
	}
	return n, nil
}

// clientErrorCode returns 400 for filter validation failures and 500 otherwise.
func clientErrorCode(err error) int {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, extUC.ErrInvalidDate),
		errors.Is(err, extUC.ErrInvalidKind),
		errors.Is(err, entity.ErrInvalidDate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
