package extraction

import (
	"net/http"

	"digest-extractor/internal/handler/http/respond"
)

// ContentCountsHandler reports the articles and images stored for one ingestion date.
type ContentCountsHandler struct{ Orch Orchestrator }

func (h ContentCountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orch.ContentCounts(r.Context(), r.PathValue("date"))
	if err != nil {
		respond.SafeError(w, clientErrorCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// DeleteContentHandler removes the articles and images of one ingestion date.
type DeleteContentHandler struct{ Orch Orchestrator }

func (h DeleteContentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.Orch.DeleteContent(r.Context(), r.PathValue("date"))
	if err != nil {
		respond.SafeError(w, clientErrorCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// AvailablePdfsHandler lists the archived digest dates, newest first.
type AvailablePdfsHandler struct{ Orch Orchestrator }

func (h AvailablePdfsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dates, err := h.Orch.AvailablePdfs(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	respond.JSON(w, http.StatusOK, dates)
}
