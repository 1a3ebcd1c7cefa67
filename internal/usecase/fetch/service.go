package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"digest-extractor/internal/domain/entity"
	"digest-extractor/internal/observability/metrics"
	"digest-extractor/internal/observability/tracing"
	"digest-extractor/internal/repository"
	"digest-extractor/internal/resilience/retry"
	"digest-extractor/internal/utils/text"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// MaxSummaryRunes bounds the stored summary of an external article.
const MaxSummaryRunes = 1000

// FeedFetcher is an interface for fetching RSS/Atom feeds from a URL.
// Parse failures wrap ErrInvalidFeedFormat and non-2xx responses surface as
// *retry.HTTPError.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedItem, error)
}

// FeedItem represents a single item from an RSS/Atom feed. Content is plain text.
type FeedItem struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}

// Config holds the fan-out settings of the pipeline.
type Config struct {
	// Workers is the number of sources fetched concurrently.
	Workers int
	// SourceTimeout bounds one source: feed fetch, enrichment and storage.
	SourceTimeout time.Duration
	// Location decides the calendar day used as IngestionDate.
	Location *time.Location
	// EnrichThreshold is the summary length in runes below which the linked
	// page is fetched. Used only when a ContentFetcher is set.
	EnrichThreshold int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		SourceTimeout:   30 * time.Second,
		Location:        time.UTC,
		EnrichThreshold: 80,
	}
}

// FetchOptions selects the sources of a FetchAll run.
type FetchOptions struct {
	// DueOnly keeps only sources whose fetch cadence has elapsed.
	DueOnly bool
}

// Service fetches external sources into the content store.
type Service struct {
	SourceRepo  repository.SourceRepository
	ContentRepo repository.ContentRepository
	FeedFetcher FeedFetcher
	// ContentFetcher enables summary enrichment; nil disables it.
	ContentFetcher ContentFetcher

	cfg Config
	now func() time.Time
}

// NewService creates a fetch Service. Zero config fields take their defaults.
func NewService(
	sourceRepo repository.SourceRepository,
	contentRepo repository.ContentRepository,
	feedFetcher FeedFetcher,
	contentFetcher ContentFetcher,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = def.SourceTimeout
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.EnrichThreshold <= 0 {
		cfg.EnrichThreshold = def.EnrichThreshold
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		SourceRepo:     sourceRepo,
		ContentRepo:    contentRepo,
		FeedFetcher:    feedFetcher,
		ContentFetcher: contentFetcher,
		cfg:            cfg,
		now:            now,
	}
}

// sourceOutcome is the result of one source.
type sourceOutcome struct {
	created int
	skipped int
	failure *entity.SourceFailure
}

// FetchAll fetches every active source (or only the due ones) with bounded
// concurrency. A failing source is recorded in SourceFailures and never stops
// the others. The error is ErrAllSourcesFailed only when every source that ran
// failed; zero sources is a successful empty run. Every source of the run is
// checked and stamped with the run's start time.
func (s *Service) FetchAll(ctx context.Context, opts FetchOptions) (res entity.JobResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "fetch.FetchAll", attribute.Bool("due_only", opts.DueOnly))
	defer func() { tracing.End(span, err) }()

	runStart := s.now()
	srcs, err := s.SourceRepo.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("FetchAll: list active sources: %w", err)
	}
	if opts.DueOnly {
		due := srcs[:0:0]
		for _, src := range srcs {
			if src.Due(runStart) {
				due = append(due, src)
			}
		}
		srcs = due
	}
	span.SetAttributes(attribute.Int("sources", len(srcs)))
	if len(srcs) == 0 {
		slog.Info("no sources to fetch", slog.Bool("due_only", opts.DueOnly))
		return res, nil
	}

	var (
		mu sync.Mutex
		eg errgroup.Group
	)
	eg.SetLimit(s.cfg.Workers)
	for _, src := range srcs {
		eg.Go(func() error {
			out := s.fetchSource(ctx, src, runStart)
			mu.Lock()
			defer mu.Unlock()
			s.merge(&res, out)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(res.SourceFailures, func(i, j int) bool {
		return res.SourceFailures[i].SourceID < res.SourceFailures[j].SourceID
	})

	slog.Info("external fetch completed",
		slog.Int("sources", len(srcs)),
		slog.Int("sources_fetched", res.SourcesFetched),
		slog.Int("sources_failed", len(res.SourceFailures)),
		slog.Int("articles_created", res.ArticlesCreated),
		slog.Int("articles_skipped", res.ArticlesSkippedDuplicate))

	if ctx.Err() != nil {
		return res, fmt.Errorf("FetchAll: %w", ctx.Err())
	}
	if len(res.SourceFailures) == len(srcs) {
		return res, fmt.Errorf("FetchAll: %w", ErrAllSourcesFailed)
	}
	return res, nil
}

// FetchOne fetches a single source regardless of its cadence or active flag.
func (s *Service) FetchOne(ctx context.Context, sourceID int64) (res entity.JobResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "fetch.FetchOne", attribute.Int64("source_id", sourceID))
	defer func() { tracing.End(span, err) }()

	src, err := s.SourceRepo.Get(ctx, sourceID)
	if err != nil {
		return res, fmt.Errorf("FetchOne: get source: %w", err)
	}
	if src == nil {
		return res, fmt.Errorf("FetchOne: %w", ErrSourceNotFound)
	}

	out := s.fetchSource(ctx, src, s.now())
	s.merge(&res, out)
	if out.failure != nil {
		return res, fmt.Errorf("FetchOne: %w: %s: %s", ErrSourceFetchFailed, out.failure.Code, out.failure.Message)
	}
	return res, nil
}

func (s *Service) merge(res *entity.JobResult, out sourceOutcome) {
	res.ArticlesCreated += out.created
	res.ArticlesSkippedDuplicate += out.skipped
	if out.failure != nil {
		res.SourceFailures = append(res.SourceFailures, *out.failure)
		return
	}
	res.SourcesFetched++
}

// fetchSource runs one source under SourceTimeout. Articles stored before a
// storage failure stay stored and are counted. lastFetch is stamped with now
// truncated to the minute, the unit of fetch cadences, so a run that starts a
// few seconds after its tick is still due on the next one.
func (s *Service) fetchSource(parent context.Context, src *entity.Source, now time.Time) (out sourceOutcome) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.SourceTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "fetch.source",
		attribute.Int64("source_id", src.ID),
		attribute.String("source_name", src.Name))
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	logger := slog.Default().With(slog.Int64("source_id", src.ID), slog.String("source_name", src.Name))

	fail := func(code entity.ErrorCode, err error) sourceOutcome {
		spanErr = err
		out.failure = &entity.SourceFailure{
			SourceID:   src.ID,
			SourceName: src.Name,
			Code:       code,
			Message:    err.Error(),
		}
		metrics.RecordSourceFetch(src.ID, string(code), time.Since(start))
		logger.Warn("source fetch failed", slog.String("code", string(code)), slog.Any("error", err))
		return out
	}

	items, err := s.FeedFetcher.Fetch(ctx, src.RSSURL)
	if err != nil {
		return fail(failureCode(ctx, err), err)
	}

	for _, item := range items {
		art := s.normalize(ctx, src, item, now)
		if art == nil {
			continue
		}
		created, err := s.ContentRepo.InsertArticle(ctx, art)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fail(entity.CodeTimeout, err)
			}
			return fail(entity.CodeStorageError, err)
		}
		if created {
			out.created++
		} else {
			out.skipped++
		}
	}
	metrics.RecordContent("article", out.created, out.skipped)

	if err := s.SourceRepo.TouchLastFetch(context.WithoutCancel(ctx), src.ID, now.Truncate(time.Minute)); err != nil {
		return fail(entity.CodeStorageError, err)
	}

	metrics.RecordSourceFetch(src.ID, "ok", time.Since(start))
	logger.Info("source fetch completed",
		slog.Int("feed_items", len(items)),
		slog.Int("created", out.created),
		slog.Int("skipped", out.skipped),
		slog.Duration("duration", time.Since(start)))
	return out
}

// failureCode maps a feed fetch error to a per-source failure code.
func failureCode(ctx context.Context, err error) entity.ErrorCode {
	var httpErr *retry.HTTPError
	switch {
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() == context.DeadlineExceeded:
		return entity.CodeTimeout
	case errors.As(err, &httpErr):
		return entity.CodeHTTPStatus
	case errors.Is(err, ErrInvalidFeedFormat):
		return entity.CodeMalformedFeed
	default:
		return entity.CodeSourceFetchFailed
	}
}

// normalize turns a feed item into an article, or nil when the item has no
// title or link.
func (s *Service) normalize(ctx context.Context, src *entity.Source, item FeedItem, now time.Time) *entity.Article {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.URL)
	if title == "" || link == "" {
		return nil
	}

	summary := text.Truncate(text.CollapseSpace(item.Content), MaxSummaryRunes)
	summary = s.enrich(ctx, link, summary)

	published := item.PublishedAt
	if published.IsZero() {
		published = now
	}

	sourceID := src.ID
	return &entity.Article{
		DedupeKey:       entity.ExternalArticleKey(src.ID, link),
		Origin:          entity.OriginExternal,
		SourceID:        &sourceID,
		SourceLabel:     src.Name,
		SourceURL:       src.BaseURL,
		Title:           title,
		Summary:         summary,
		URL:             link,
		PublicationDate: published,
		IngestionDate:   entity.Today(now, s.cfg.Location),
		CreatedAt:       now,
	}
}

// enrich replaces a short summary with the readable text of the linked page.
// Any failure keeps the feed summary.
func (s *Service) enrich(ctx context.Context, link, summary string) string {
	if s.ContentFetcher == nil {
		return summary
	}
	if text.CountRunes(summary) >= s.cfg.EnrichThreshold {
		metrics.RecordSummaryEnrich("skipped")
		return summary
	}

	page, err := s.ContentFetcher.FetchContent(ctx, link)
	if err != nil {
		metrics.RecordSummaryEnrich("failure")
		slog.Debug("summary enrichment failed, keeping feed summary",
			slog.String("url", link),
			slog.Any("error", err))
		return summary
	}
	metrics.RecordSummaryEnrich("success")

	page = text.Truncate(text.CollapseSpace(page), MaxSummaryRunes)
	if text.CountRunes(page) > text.CountRunes(summary) {
		return page
	}
	return summary
}
