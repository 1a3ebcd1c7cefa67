package scheduler

import (
	"fmt"
	"log/slog"

	"digest-extractor/internal/pkg/config"
)

// Config holds the cron settings of the scheduler.
//
// Schedules use the standard 5-field cron format ("minute hour day month weekday")
// or a descriptor such as "@hourly", evaluated in Timezone.
type Config struct {
	// PdfCron triggers the daily digest ingestion.
	// Default: "0 6 * * *"
	PdfCron string

	// ExternalFetchCron triggers a fetch of the due external sources.
	// Default: "*/15 * * * *"
	ExternalFetchCron string

	// Timezone is the IANA name the schedules are evaluated in.
	// Default: "UTC"
	Timezone string

	// Enabled turns the scheduler on. Manual triggers work either way.
	// Default: true
	Enabled bool
}

// DefaultConfig returns the scheduler defaults.
func DefaultConfig() Config {
	return Config{
		PdfCron:           "0 6 * * *",
		ExternalFetchCron: "*/15 * * * *",
		Timezone:          "UTC",
		Enabled:           true,
	}
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.PdfCron); err != nil {
		errs = append(errs, fmt.Errorf("pdf cron: %w", err))
	}
	if err := config.ValidateCronSchedule(c.ExternalFetchCron); err != nil {
		errs = append(errs, fmt.Errorf("external fetch cron: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the scheduler configuration from the environment.
//
// Environment variables:
//   - PDF_CRON: cron expression (default "0 6 * * *")
//   - EXTERNAL_FETCH_CRON: cron expression (default "*/15 * * * *")
//   - EXTRACTION_TIMEZONE: IANA timezone name (default "UTC")
//   - SCHEDULER_ENABLED: boolean (default true)
//
// Invalid values fall back to their default; every fallback is logged and
// counted in m. The returned configuration is always valid.
func LoadConfigFromEnv(logger *slog.Logger, m *config.ConfigMetrics) Config {
	cfg := DefaultConfig()
	fallback := false

	var applied bool
	cfg.PdfCron, applied = config.Report(
		config.LoadEnvWithFallback("PDF_CRON", cfg.PdfCron, config.ValidateCronSchedule),
		"pdf_cron", logger, m)
	fallback = fallback || applied

	cfg.ExternalFetchCron, applied = config.Report(
		config.LoadEnvWithFallback("EXTERNAL_FETCH_CRON", cfg.ExternalFetchCron, config.ValidateCronSchedule),
		"external_fetch_cron", logger, m)
	fallback = fallback || applied

	cfg.Timezone, applied = config.Report(
		config.LoadEnvWithFallback("EXTRACTION_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		"timezone", logger, m)
	fallback = fallback || applied

	cfg.Enabled, applied = config.Report(config.LoadEnvBool("SCHEDULER_ENABLED", cfg.Enabled), "scheduler_enabled", logger, m)
	fallback = fallback || applied

	if m != nil {
		m.SetFallbackActive(fallback)
		m.RecordLoadTimestamp()
	}
	return cfg
}
