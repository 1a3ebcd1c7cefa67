package entity

import (
	"fmt"
	"time"
)

// MinFetchFrequencyMinutes is the lowest allowed fetch cadence for an external source.
const MinFetchFrequencyMinutes = 15

// Source represents an external news source polled by the fetch pipeline.
type Source struct {
	ID                    int64
	Name                  string
	BaseURL               string
	RSSURL                string
	LogoURL               string
	FetchFrequencyMinutes int
	IsActive              bool
	LastFetch             *time.Time
	CreatedAt             time.Time
}

// Validate validates the Source entity fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if s.RSSURL == "" {
		return &ValidationError{Field: "rssUrl", Message: "is required"}
	}
	if err := ValidateURL(s.RSSURL); err != nil {
		return err
	}
	if s.BaseURL != "" {
		if err := ValidateURL(s.BaseURL); err != nil {
			return err
		}
	}
	if s.FetchFrequencyMinutes < MinFetchFrequencyMinutes {
		return &ValidationError{
			Field:   "fetchFrequencyMinutes",
			Message: fmt.Sprintf("must be at least %d", MinFetchFrequencyMinutes),
		}
	}
	return nil
}

// Due reports whether the source should be fetched at now according to its cadence.
// A source that has never been fetched is always due.
func (s *Source) Due(now time.Time) bool {
	if s.LastFetch == nil {
		return true
	}
	return now.Sub(*s.LastFetch) >= time.Duration(s.FetchFrequencyMinutes)*time.Minute
}
