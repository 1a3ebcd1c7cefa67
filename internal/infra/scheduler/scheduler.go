// Package scheduler triggers extraction jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/pkg/config"
	"digest-extractor/internal/usecase/extraction"

	"github.com/robfig/cron/v3"
)

const triggerTimeout = 30 * time.Second

// Triggerer starts extraction jobs.
type Triggerer interface {
	Trigger(ctx context.Context, req extraction.TriggerRequest) (extraction.TriggerResult, error)
}

// Scheduler fires one cron entry per job kind.
type Scheduler struct {
	cfg     Config
	trigger Triggerer
	logger  *slog.Logger
	cron    *cron.Cron

	mu      sync.RWMutex
	entries map[entity.JobKind]cron.EntryID
	running bool
}

// New registers the schedules of cfg. Nothing fires until Start.
func New(cfg Config, trigger Triggerer, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	s := &Scheduler{
		cfg:     cfg,
		trigger: trigger,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(config.CronParser)),
		entries: make(map[entity.JobKind]cron.EntryID),
	}
	schedules := map[entity.JobKind]string{
		entity.KindPdfIngestion:  cfg.PdfCron,
		entity.KindExternalFetch: cfg.ExternalFetchCron,
	}
	for kind, spec := range schedules {
		id, err := s.cron.AddFunc(spec, func() { s.fire(kind) })
		if err != nil {
			return nil, fmt.Errorf("scheduler: add %s: %w", kind, err)
		}
		s.entries[kind] = id
	}
	return s, nil
}

// Start begins firing when the scheduler is enabled.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, only manual triggers will run")
		return
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("pdf_cron", s.cfg.PdfCron),
		slog.String("external_fetch_cron", s.cfg.ExternalFetchCron),
		slog.String("timezone", s.cfg.Timezone))
}

// Stop prevents new firings and waits, up to ctx, for a firing in progress.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the scheduler is firing.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Next returns the next firing time of kind, or nil when the scheduler is not running.
func (s *Scheduler) Next(kind entity.JobKind) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return nil
	}
	id, ok := s.entries[kind]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	if next.IsZero() {
		return nil
	}
	return &next
}

func (s *Scheduler) fire(kind entity.JobKind) {
	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	res, err := s.trigger.Trigger(ctx, extraction.TriggerRequest{
		Kind:        kind,
		DueOnly:     kind == entity.KindExternalFetch,
		RequestedBy: extraction.RequestedByScheduler,
	})
	switch {
	case err == nil:
		TicksTotal.WithLabelValues(string(kind), "triggered").Inc()
		LastTriggerTimestamp.WithLabelValues(string(kind)).SetToCurrentTime()
		s.logger.Info("scheduled extraction triggered",
			slog.String("kind", string(kind)),
			slog.String("job_id", res.JobID))
	case errors.Is(err, extraction.ErrAlreadyInProgress):
		TicksTotal.WithLabelValues(string(kind), "busy").Inc()
		s.logger.Info("scheduled extraction skipped, previous run still in progress",
			slog.String("kind", string(kind)),
			slog.String("job_id", res.JobID))
	default:
		TicksTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.Error("scheduled extraction failed to start",
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}
}
