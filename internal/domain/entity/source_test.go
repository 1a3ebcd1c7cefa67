package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSource() Source {
	return Source{
		Name:                  "Court News",
		BaseURL:               "https://courtnews.example.com",
		RSSURL:                "https://courtnews.example.com/rss",
		FetchFrequencyMinutes: 30,
		IsActive:              true,
	}
}

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Source)
		wantField string
	}{
		{name: "valid", mutate: func(*Source) {}},
		{name: "missing name", mutate: func(s *Source) { s.Name = "" }, wantField: "name"},
		{name: "missing rss url", mutate: func(s *Source) { s.RSSURL = "" }, wantField: "rssUrl"},
		{name: "ftp rss url", mutate: func(s *Source) { s.RSSURL = "ftp://example.com/feed" }, wantField: "url"},
		{name: "private base url", mutate: func(s *Source) { s.BaseURL = "http://127.0.0.1/" }, wantField: "url"},
		{name: "frequency below minimum", mutate: func(s *Source) { s.FetchFrequencyMinutes = 14 }, wantField: "fetchFrequencyMinutes"},
		{name: "frequency at minimum", mutate: func(s *Source) { s.FetchFrequencyMinutes = 15 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := validSource()
			tt.mutate(&src)
			err := src.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			if assert.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err) {
				assert.Equal(t, tt.wantField, vErr.Field)
			}
		})
	}
}

func TestSource_Due(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src := validSource()

	assert.True(t, src.Due(now), "never fetched")

	last := now.Add(-29 * time.Minute)
	src.LastFetch = &last
	assert.False(t, src.Due(now))

	last = now.Add(-30 * time.Minute)
	src.LastFetch = &last
	assert.True(t, src.Due(now))
}
