package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/observability/metrics"
	"digest-extractor/internal/resilience/circuitbreaker"
	"digest-extractor/internal/resilience/retry"
	"digest-extractor/internal/usecase/ingest"
)

// ErrDigestTooLarge is returned when a digest exceeds DigestConfig.MaxBodySize.
var ErrDigestTooLarge = errors.New("digest exceeds size limit")

var _ ingest.Downloader = (*DigestDownloader)(nil)

// DigestDownloader fetches the published digest PDF of a date from a URL template.
// Attempts are retried with backoff and guarded by one circuit breaker.
type DigestDownloader struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         DigestConfig
}

// NewDigestDownloader creates a downloader. A nil client gets a default one
// using cfg.Timeout.
func NewDigestDownloader(client *http.Client, cfg DigestConfig) *DigestDownloader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &DigestDownloader{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.DigestDownloadConfig()),
		config:         cfg,
	}
}

// URLFor expands the template for date; it returns "" without a template.
func (d *DigestDownloader) URLFor(date time.Time) string {
	if d.config.URLTemplate == "" {
		return ""
	}
	return strings.NewReplacer(
		"{date}", entity.FormatDate(date),
		"{compact}", date.Format("20060102"),
	).Replace(d.config.URLTemplate)
}

// Download returns the digest bytes of date. Every failure wraps
// ingest.ErrDownloadFailed together with its cause.
func (d *DigestDownloader) Download(ctx context.Context, date time.Time) ([]byte, error) {
	u := d.URLFor(date)
	if u == "" {
		metrics.RecordDigestDownload(false, 0)
		return nil, fmt.Errorf("%w: DIGEST_URL_TEMPLATE is not configured", ingest.ErrDownloadFailed)
	}

	var body []byte
	err := retry.WithBackoff(ctx, d.config.Retry, func() error {
		res, err := d.circuitBreaker.Execute(func() (interface{}, error) {
			return d.get(ctx, u)
		})
		if err != nil {
			return err
		}
		body = res.([]byte)
		return nil
	})
	if err != nil {
		metrics.RecordDigestDownload(false, 0)
		slog.Warn("digest download failed",
			slog.String("url", u),
			slog.String("breaker_state", d.circuitBreaker.State().String()),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ingest.ErrDownloadFailed, err)
	}

	metrics.RecordDigestDownload(true, len(body))
	slog.Info("digest downloaded", slog.String("url", u), slog.Int("bytes", len(body)))
	return body, nil
}

func (d *DigestDownloader) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > d.config.MaxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrDigestTooLarge, d.config.MaxBodySize)
	}
	return data, nil
}
