package source

import (
	"net/http"

	"digest-extractor/internal/handler/http/pathutil"
	"digest-extractor/internal/handler/http/respond"
	srcUC "digest-extractor/internal/usecase/source"
)

type DeleteHandler struct{ Svc *srcUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		respond.SafeError(w, errorCode(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
