package source

import (
	"net/http"

	srcUC "digest-extractor/internal/usecase/source"
)

// Register mounts the external source CRUD routes, all behind authz. The fetch
// triggers under /external-sources are registered by the extraction handlers.
func Register(mux *http.ServeMux, svc *srcUC.Service, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /external-sources", authz(ListHandler{svc}))
	mux.Handle("GET /external-sources/{id}", authz(GetHandler{svc}))
	mux.Handle("POST /external-sources", authz(CreateHandler{svc}))
	mux.Handle("PUT /external-sources/{id}", authz(UpdateHandler{svc}))
	mux.Handle("DELETE /external-sources/{id}", authz(DeleteHandler{svc}))
}
