package fetcher

import (
	"fmt"
	"log/slog"
	"time"

	"digest-extractor/internal/pkg/config"
	"digest-extractor/internal/resilience/retry"
)

// EnrichConfig controls readability-based summary enrichment.
type EnrichConfig struct {
	// Enabled turns enrichment on; the fetch pipeline gets no ContentFetcher otherwise.
	Enabled bool
	// Threshold is the summary length in runes below which a page is fetched.
	Threshold int
	// Timeout bounds one page request.
	Timeout time.Duration
	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64
	// MaxRedirects caps the redirect chain; every hop is revalidated.
	MaxRedirects int
	// DenyPrivateIPs rejects targets resolving to internal addresses.
	DenyPrivateIPs bool
}

// DefaultEnrichConfig returns enrichment disabled with production limits.
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{
		Enabled:        false,
		Threshold:      80,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks the limits of c.
func (c EnrichConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 || c.MaxBodySize > 100*1024*1024 {
		return fmt.Errorf("max body size must be between 1KB and 100MB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadEnrichConfig reads SUMMARY_ENRICH_* variables. Invalid values fall back
// to the defaults and are reported to m (nil allowed).
func LoadEnrichConfig(logger *slog.Logger, m *config.ConfigMetrics) EnrichConfig {
	def := DefaultEnrichConfig()
	cfg := def

	cfg.Enabled, _ = config.Report(config.LoadEnvBool("SUMMARY_ENRICH_ENABLED", def.Enabled), "summary_enrich_enabled", logger, m)
	cfg.Threshold, _ = config.Report(config.LoadEnvInt("SUMMARY_ENRICH_THRESHOLD", def.Threshold, func(v int) error {
		return config.ValidateIntRange(v, 0, 10000)
	}), "summary_enrich_threshold", logger, m)
	cfg.Timeout, _ = config.Report(config.LoadEnvDuration("SUMMARY_ENRICH_TIMEOUT", def.Timeout, config.ValidatePositiveDuration),
		"summary_enrich_timeout", logger, m)
	maxBody, _ := config.Report(config.LoadEnvInt("SUMMARY_ENRICH_MAX_BODY_SIZE", int(def.MaxBodySize), func(v int) error {
		return config.ValidateIntRange(v, 1024, 100*1024*1024)
	}), "summary_enrich_max_body_size", logger, m)
	cfg.MaxBodySize = int64(maxBody)
	cfg.MaxRedirects, _ = config.Report(config.LoadEnvInt("SUMMARY_ENRICH_MAX_REDIRECTS", def.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	}), "summary_enrich_max_redirects", logger, m)
	cfg.DenyPrivateIPs, _ = config.Report(config.LoadEnvBool("SUMMARY_ENRICH_DENY_PRIVATE_IPS", def.DenyPrivateIPs),
		"summary_enrich_deny_private_ips", logger, m)
	return cfg
}

// DigestConfig controls the digest downloader.
type DigestConfig struct {
	// URLTemplate contains {date} (2006-01-02) and/or {compact} (20060102).
	URLTemplate string
	// Timeout is the HTTP client timeout of one attempt.
	Timeout     time.Duration
	MaxBodySize int64
	Retry       retry.Config
}

// DefaultDigestConfig returns the downloader defaults without a URL template.
func DefaultDigestConfig() DigestConfig {
	return DigestConfig{
		Timeout:     60 * time.Second,
		MaxBodySize: 64 * 1024 * 1024,
		Retry:       retry.DigestDownloadConfig(),
	}
}

// LoadDigestConfig reads DIGEST_URL_TEMPLATE, DIGEST_TIMEOUT and DIGEST_MAX_BODY_SIZE.
func LoadDigestConfig(logger *slog.Logger, m *config.ConfigMetrics) DigestConfig {
	cfg := DefaultDigestConfig()
	cfg.URLTemplate, _ = config.Report(config.LoadEnvWithFallback("DIGEST_URL_TEMPLATE", "", config.ValidateURLTemplate),
		"digest_url_template", logger, m)
	cfg.Timeout, _ = config.Report(config.LoadEnvDuration("DIGEST_TIMEOUT", cfg.Timeout, config.ValidatePositiveDuration),
		"digest_timeout", logger, m)
	maxBody, _ := config.Report(config.LoadEnvInt("DIGEST_MAX_BODY_SIZE", int(cfg.MaxBodySize), func(v int) error {
		return config.ValidateIntRange(v, 1024, 1024*1024*1024)
	}), "digest_max_body_size", logger, m)
	cfg.MaxBodySize = int64(maxBody)
	return cfg
}
