package extraction

import (
	"log/slog"
	"time"

	"digest-extractor/internal/pkg/config"
)

// Config holds the orchestrator settings.
type Config struct {
	// Workers is the number of jobs run at the same time.
	Workers int
	// QueueSize is the number of accepted jobs that may wait for a worker.
	QueueSize int
	// JobTimeout bounds one pipeline run.
	JobTimeout time.Duration
	// SourceTimeout and FetchConcurrency configure the external fetch fan-out.
	SourceTimeout    time.Duration
	FetchConcurrency int
	// Location decides "today" for date validation.
	Location *time.Location
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		Workers:          2,
		QueueSize:        8,
		JobTimeout:       30 * time.Minute,
		SourceTimeout:    30 * time.Second,
		FetchConcurrency: 4,
		Location:         time.UTC,
	}
}

// LoadConfig reads the EXTRACTION_* settings. Invalid values fall back to
// DefaultConfig and are reported through logger and m (both may be nil).
func LoadConfig(logger *slog.Logger, m *config.ConfigMetrics) Config {
	def := DefaultConfig()
	intIn := func(min, max int) func(int) error {
		return func(v int) error { return config.ValidateIntRange(v, min, max) }
	}
	durIn := func(min, max time.Duration) func(time.Duration) error {
		return func(d time.Duration) error { return config.ValidateDuration(d, min, max) }
	}

	cfg := def
	cfg.Workers, _ = config.Report(config.LoadEnvInt("EXTRACTION_WORKERS", def.Workers, intIn(1, 32)),
		"EXTRACTION_WORKERS", logger, m)
	cfg.QueueSize, _ = config.Report(config.LoadEnvInt("EXTRACTION_QUEUE_SIZE", def.QueueSize, intIn(1, 1024)),
		"EXTRACTION_QUEUE_SIZE", logger, m)
	cfg.JobTimeout, _ = config.Report(config.LoadEnvDuration("JOB_TIMEOUT", def.JobTimeout, durIn(time.Second, 24*time.Hour)),
		"JOB_TIMEOUT", logger, m)
	cfg.SourceTimeout, _ = config.Report(config.LoadEnvDuration("SOURCE_TIMEOUT", def.SourceTimeout, durIn(time.Second, time.Hour)),
		"SOURCE_TIMEOUT", logger, m)
	cfg.FetchConcurrency, _ = config.Report(config.LoadEnvInt("FETCH_CONCURRENCY", def.FetchConcurrency, intIn(1, 64)),
		"FETCH_CONCURRENCY", logger, m)

	tz, _ := config.Report(config.LoadEnvWithFallback("EXTRACTION_TIMEZONE", "UTC", config.ValidateTimezone),
		"EXTRACTION_TIMEZONE", logger, m)
	if loc, err := time.LoadLocation(tz); err == nil {
		cfg.Location = loc
	}
	return cfg
}
