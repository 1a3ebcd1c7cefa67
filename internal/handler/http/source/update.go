package source

import (
	"encoding/json"
	"fmt"
	"net/http"

	"digest-extractor/internal/handler/http/pathutil"
	"digest-extractor/internal/handler/http/respond"
	srcUC "digest-extractor/internal/usecase/source"
)

// UpdateHandler applies a partial update: omitted fields keep their value.
type UpdateHandler struct{ Svc *srcUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name                  *string `json:"name"`
		BaseURL               *string `json:"baseUrl"`
		RSSURL                *string `json:"rssUrl"`
		LogoURL               *string `json:"logoUrl"`
		FetchFrequencyMinutes *int    `json:"fetchFrequencyMinutes"`
		IsActive              *bool   `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	src, err := h.Svc.Update(r.Context(), srcUC.UpdateInput{
		ID:                    id,
		Name:                  req.Name,
		BaseURL:               req.BaseURL,
		RSSURL:                req.RSSURL,
		LogoURL:               req.LogoURL,
		FetchFrequencyMinutes: req.FetchFrequencyMinutes,
		IsActive:              req.IsActive,
	})
	if err != nil {
		respond.SafeError(w, errorCode(err), err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(src))
}
