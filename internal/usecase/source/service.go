package source

import (
	"context"
	"errors"
	"fmt"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/observability/metrics"
	"digest-extractor/internal/repository"
)

// DefaultFetchFrequencyMinutes applies when a create request leaves the cadence unset.
const DefaultFetchFrequencyMinutes = 60

// CreateInput represents the input parameters for registering a source.
// A zero FetchFrequencyMinutes means the default cadence and a nil IsActive means active.
type CreateInput struct {
	Name                  string
	BaseURL               string
	RSSURL                string
	LogoURL               string
	FetchFrequencyMinutes int
	IsActive              *bool
}

// UpdateInput is a partial update: nil fields are left unchanged.
type UpdateInput struct {
	ID                    int64
	Name                  *string
	BaseURL               *string
	RSSURL                *string
	LogoURL               *string
	FetchFrequencyMinutes *int
	IsActive              *bool
}

// Service provides source management use cases.
type Service struct {
	Repo repository.SourceRepository
}

func (s *Service) List(ctx context.Context) ([]*entity.Source, error) {
	sources, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	metrics.UpdateSourcesTotal(len(sources))
	return sources, nil
}

// Get returns ErrSourceNotFound when id does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Source, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	src, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return nil, ErrSourceNotFound
	}
	return src, nil
}

// Create validates and stores a new source.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Source, error) {
	src := &entity.Source{
		Name:                  in.Name,
		BaseURL:               in.BaseURL,
		RSSURL:                in.RSSURL,
		LogoURL:               in.LogoURL,
		FetchFrequencyMinutes: in.FetchFrequencyMinutes,
		IsActive:              true,
	}
	if src.FetchFrequencyMinutes == 0 {
		src.FetchFrequencyMinutes = DefaultFetchFrequencyMinutes
	}
	if in.IsActive != nil {
		src.IsActive = *in.IsActive
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, src); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateSource
		}
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Update applies the non-nil fields of in and revalidates the source.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.Source, error) {
	src, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		src.Name = *in.Name
	}
	if in.BaseURL != nil {
		src.BaseURL = *in.BaseURL
	}
	if in.RSSURL != nil {
		src.RSSURL = *in.RSSURL
	}
	if in.LogoURL != nil {
		src.LogoURL = *in.LogoURL
	}
	if in.FetchFrequencyMinutes != nil {
		src.FetchFrequencyMinutes = *in.FetchFrequencyMinutes
	}
	if in.IsActive != nil {
		src.IsActive = *in.IsActive
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, src); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateSource
		case errors.Is(err, repository.ErrNoRows):
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("update source: %w", err)
	}
	return src, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

// Upsert creates the source or, when its RSS URL is already registered,
// overwrites the stored fields with in. created reports which happened.
func (s *Service) Upsert(ctx context.Context, in CreateInput) (src *entity.Source, created bool, err error) {
	existing, err := s.Repo.GetByRSSURL(ctx, in.RSSURL)
	if err != nil {
		return nil, false, fmt.Errorf("upsert source: %w", err)
	}
	if existing == nil {
		src, err = s.Create(ctx, in)
		return src, err == nil, err
	}

	freq := in.FetchFrequencyMinutes
	if freq == 0 {
		freq = DefaultFetchFrequencyMinutes
	}
	src, err = s.Update(ctx, UpdateInput{
		ID:                    existing.ID,
		Name:                  &in.Name,
		BaseURL:               &in.BaseURL,
		LogoURL:               &in.LogoURL,
		FetchFrequencyMinutes: &freq,
		IsActive:              in.IsActive,
	})
	return src, false, err
}
