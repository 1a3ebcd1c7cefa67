// Package pagination holds the page/limit handling shared by the paginated
// read endpoints (the extraction log).
package pagination

import (
	"digest-extractor/internal/pkg/config"
)

// Config holds pagination settings.
type Config struct {
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns page=1, limit=50, max=200.
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 50,
		MaxLimit:     200,
	}
}

// LoadFromEnv reads LOG_PAGE_DEFAULT_LIMIT and LOG_PAGE_MAX_LIMIT. Invalid
// values fall back to DefaultConfig.
func LoadFromEnv() Config {
	def := DefaultConfig()
	positive := func(n int) error { return config.ValidateIntRange(n, 1, 10000) }

	limit, _ := config.Report(config.LoadEnvInt("LOG_PAGE_DEFAULT_LIMIT", def.DefaultLimit, positive),
		"LOG_PAGE_DEFAULT_LIMIT", nil, nil)
	maxLimit, _ := config.Report(config.LoadEnvInt("LOG_PAGE_MAX_LIMIT", def.MaxLimit, positive),
		"LOG_PAGE_MAX_LIMIT", nil, nil)

	cfg := Config{
		DefaultPage:  def.DefaultPage,
		DefaultLimit: limit,
		MaxLimit:     maxLimit,
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return cfg
}
