package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/usecase/source"

	"gopkg.in/yaml.v3"
)

// SourceSeed is one entry of the SOURCES_FILE document:
//
//	sources:
//	  - name: Example News
//	    base_url: https://example.com
//	    rss_url: https://example.com/feed.xml
//	    fetch_frequency_minutes: 30
type SourceSeed struct {
	Name                  string `yaml:"name"`
	BaseURL               string `yaml:"base_url"`
	RSSURL                string `yaml:"rss_url"`
	LogoURL               string `yaml:"logo_url"`
	FetchFrequencyMinutes int    `yaml:"fetch_frequency_minutes"`
	IsActive              *bool  `yaml:"is_active"`
}

type sourcesFile struct {
	Sources []SourceSeed `yaml:"sources"`
}

// LoadSourceSeeds parses the seed file at path. Unknown keys are an error so
// that typos do not silently drop settings.
func LoadSourceSeeds(path string) ([]SourceSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc sourcesFile
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(doc.Sources))
	for i, s := range doc.Sources {
		if s.RSSURL == "" {
			return nil, fmt.Errorf("sources[%d]: rss_url is required", i)
		}
		if seen[s.RSSURL] {
			return nil, fmt.Errorf("sources[%d]: duplicate rss_url %q", i, s.RSSURL)
		}
		seen[s.RSSURL] = true
	}
	return doc.Sources, nil
}

// SourceUpserter creates or updates a source keyed by its RSS URL.
type SourceUpserter interface {
	Upsert(ctx context.Context, in source.CreateInput) (*entity.Source, bool, error)
}

// SeedSources upserts every seed. A seed rejected by validation is logged and
// skipped; any other error stops the run.
func SeedSources(ctx context.Context, svc SourceUpserter, seeds []SourceSeed, logger *slog.Logger) (created, updated int, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range seeds {
		_, isNew, err := svc.Upsert(ctx, source.CreateInput{
			Name:                  s.Name,
			BaseURL:               s.BaseURL,
			RSSURL:                s.RSSURL,
			LogoURL:               s.LogoURL,
			FetchFrequencyMinutes: s.FetchFrequencyMinutes,
			IsActive:              s.IsActive,
		})
		var vErr *entity.ValidationError
		switch {
		case errors.As(err, &vErr):
			logger.Warn("skipping invalid source seed",
				slog.String("rss_url", s.RSSURL),
				slog.String("field", vErr.Field),
				slog.String("reason", vErr.Message))
			continue
		case err != nil:
			return created, updated, fmt.Errorf("seed source %s: %w", s.RSSURL, err)
		case isNew:
			created++
		default:
			updated++
		}
	}
	logger.Info("source seed applied", slog.Int("created", created), slog.Int("updated", updated))
	return created, updated, nil
}
