package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/usecase/extraction"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTrigger struct {
	mu   sync.Mutex
	reqs []extraction.TriggerRequest
	err  error
}

func (r *recordingTrigger) Trigger(_ context.Context, req extraction.TriggerRequest) (extraction.TriggerResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return extraction.TriggerResult{JobID: "holder", Status: entity.StatusInProgress}, r.err
	}
	return extraction.TriggerResult{JobID: "job-1", Status: entity.StatusInProgress}, nil
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PdfCron = "every morning"
	_, err := New(cfg, &recordingTrigger{}, nil)
	assert.Error(t, err)
}

func TestScheduler_NextWhileRunning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Asia/Tokyo"
	s, err := New(cfg, &recordingTrigger{}, nil)
	require.NoError(t, err)

	assert.Nil(t, s.Next(entity.KindPdfIngestion), "no next run before Start")

	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()
	assert.True(t, s.Running())

	require.Eventually(t, func() bool { return s.Next(entity.KindPdfIngestion) != nil }, time.Second, 5*time.Millisecond)
	next := s.Next(entity.KindPdfIngestion)
	assert.True(t, next.After(time.Now()))
	tokyo, _ := time.LoadLocation("Asia/Tokyo")
	assert.Equal(t, 6, next.In(tokyo).Hour())
	assert.Equal(t, 0, next.In(tokyo).Minute())

	fetchNext := s.Next(entity.KindExternalFetch)
	require.NotNil(t, fetchNext)
	assert.Zero(t, fetchNext.Minute()%15)
}

func TestScheduler_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	s, err := New(cfg, &recordingTrigger{}, nil)
	require.NoError(t, err)

	s.Start()
	assert.False(t, s.Running())
	assert.Nil(t, s.Next(entity.KindExternalFetch))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_Fire(t *testing.T) {
	trig := &recordingTrigger{}
	s, err := New(DefaultConfig(), trig, nil)
	require.NoError(t, err)

	before := testutil.ToFloat64(TicksTotal.WithLabelValues("external_fetch", "triggered"))
	s.fire(entity.KindExternalFetch)
	s.fire(entity.KindPdfIngestion)

	require.Len(t, trig.reqs, 2)
	assert.Equal(t, extraction.TriggerRequest{
		Kind: entity.KindExternalFetch, DueOnly: true, RequestedBy: extraction.RequestedByScheduler,
	}, trig.reqs[0])
	assert.Equal(t, extraction.TriggerRequest{
		Kind: entity.KindPdfIngestion, RequestedBy: extraction.RequestedByScheduler,
	}, trig.reqs[1])
	assert.Equal(t, before+1, testutil.ToFloat64(TicksTotal.WithLabelValues("external_fetch", "triggered")))
}

func TestScheduler_FireBusyAndError(t *testing.T) {
	trig := &recordingTrigger{err: extraction.ErrAlreadyInProgress}
	s, err := New(DefaultConfig(), trig, nil)
	require.NoError(t, err)

	busy := testutil.ToFloat64(TicksTotal.WithLabelValues("pdf_ingestion", "busy"))
	s.fire(entity.KindPdfIngestion)
	assert.Equal(t, busy+1, testutil.ToFloat64(TicksTotal.WithLabelValues("pdf_ingestion", "busy")))

	trig.err = errors.New("database unavailable")
	failed := testutil.ToFloat64(TicksTotal.WithLabelValues("pdf_ingestion", "error"))
	s.fire(entity.KindPdfIngestion)
	assert.Equal(t, failed+1, testutil.ToFloat64(TicksTotal.WithLabelValues("pdf_ingestion", "error")))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := Config{PdfCron: "bad", ExternalFetchCron: "@hourly", Timezone: "Nowhere/City"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf cron")
	assert.Contains(t, err.Error(), "timezone")
	assert.NotContains(t, err.Error(), "external fetch cron")
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PDF_CRON", "30 5 * * 1-5")
	t.Setenv("EXTERNAL_FETCH_CRON", "not a cron")
	t.Setenv("EXTRACTION_TIMEZONE", "Europe/Berlin")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg := LoadConfigFromEnv(nil, nil)
	assert.Equal(t, "30 5 * * 1-5", cfg.PdfCron)
	assert.Equal(t, DefaultConfig().ExternalFetchCron, cfg.ExternalFetchCron)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.False(t, cfg.Enabled)
	assert.NoError(t, cfg.Validate())
}
