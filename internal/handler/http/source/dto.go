// Package source serves CRUD for the registry of external news sources.
package source

import (
	"errors"
	"net/http"
	"time"

	"digest-extractor/internal/domain/entity"
	srcUC "digest-extractor/internal/usecase/source"
)

type DTO struct {
	ID                    int64      `json:"id"`
	Name                  string     `json:"name"`
	BaseURL               string     `json:"baseUrl"`
	RSSURL                string     `json:"rssUrl"`
	LogoURL               string     `json:"logoUrl"`
	FetchFrequencyMinutes int        `json:"fetchFrequencyMinutes"`
	IsActive              bool       `json:"isActive"`
	LastFetch             *time.Time `json:"lastFetch,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

func toDTO(s *entity.Source) DTO {
	return DTO{
		ID:                    s.ID,
		Name:                  s.Name,
		BaseURL:               s.BaseURL,
		RSSURL:                s.RSSURL,
		LogoURL:               s.LogoURL,
		FetchFrequencyMinutes: s.FetchFrequencyMinutes,
		IsActive:              s.IsActive,
		LastFetch:             s.LastFetch,
		CreatedAt:             s.CreatedAt,
	}
}

// errorCode maps source use case errors to HTTP status codes.
func errorCode(err error) int {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, srcUC.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, srcUC.ErrDuplicateSource):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
