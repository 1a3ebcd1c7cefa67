package source

import (
	"net/http"

	"digest-extractor/internal/handler/http/pathutil"
	"digest-extractor/internal/handler/http/respond"
	srcUC "digest-extractor/internal/usecase/source"
)

type ListHandler struct{ Svc *srcUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetHandler struct{ Svc *srcUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	src, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		respond.SafeError(w, errorCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(src))
}
