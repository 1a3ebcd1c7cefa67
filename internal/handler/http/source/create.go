package source

import (
	"encoding/json"
	"fmt"
	"net/http"

	"digest-extractor/internal/handler/http/respond"
	srcUC "digest-extractor/internal/usecase/source"
)

type CreateHandler struct{ Svc *srcUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                  string `json:"name"`
		BaseURL               string `json:"baseUrl"`
		RSSURL                string `json:"rssUrl"`
		LogoURL               string `json:"logoUrl"`
		FetchFrequencyMinutes int    `json:"fetchFrequencyMinutes"`
		IsActive              *bool  `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	src, err := h.Svc.Create(r.Context(), srcUC.CreateInput{
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
	respond.JSON(w, http.StatusCreated, toDTO(src))
}
