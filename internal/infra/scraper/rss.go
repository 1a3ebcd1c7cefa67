// Package scraper fetches external RSS/Atom feeds with gofeed. Every remote host
// gets its own rate limiter and circuit breaker so one slow or failing site
// never starves the others.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"digest-extractor/internal/resilience/circuitbreaker"
	"digest-extractor/internal/resilience/retry"
	"digest-extractor/internal/usecase/fetch"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const userAgent = "DigestExtractorBot/1.0"

var _ fetch.FeedFetcher = (*RSSFetcher)(nil)

// Config tunes the feed fetcher.
type Config struct {
	// RatePerHost is the sustained request rate allowed against one host.
	RatePerHost rate.Limit
	// Burst is the number of requests a host may receive at once.
	Burst int
	// MaxBodySize bounds a feed document.
	MaxBodySize int64
	Retry       retry.Config
}

// DefaultConfig allows one request per second per host with a burst of two.
func DefaultConfig() Config {
	return Config{
		RatePerHost: rate.Limit(1),
		Burst:       2,
		MaxBodySize: 5 * 1024 * 1024,
		Retry:       retry.FeedFetchConfig(),
	}
}

type hostGuard struct {
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
}

// RSSFetcher implements fetch.FeedFetcher.
type RSSFetcher struct {
	client *http.Client
	config Config

	mu     sync.Mutex
	guards map[string]*hostGuard
}

// NewRSSFetcher creates a fetcher using client for all hosts.
func NewRSSFetcher(client *http.Client, cfg Config) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RSSFetcher{
		client: client,
		config: cfg,
		guards: make(map[string]*hostGuard),
	}
}

func (f *RSSFetcher) guard(host string) *hostGuard {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guards[host]
	if !ok {
		g = &hostGuard{
			limiter: rate.NewLimiter(f.config.RatePerHost, f.config.Burst),
			breaker: circuitbreaker.New(circuitbreaker.FeedHostConfig(host)),
		}
		f.guards[host] = g
	}
	return g
}

// Fetch retrieves and parses the feed at feedURL.
// Non-2xx responses surface as *retry.HTTPError and unparseable documents wrap
// fetch.ErrInvalidFeedFormat.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid feed url %q", fetch.ErrFeedFetchFailed, feedURL)
	}
	g := f.guard(strings.ToLower(u.Host))

	var items []fetch.FeedItem
	err = retry.WithBackoff(ctx, f.config.Retry, func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("rate limit wait: %w: %v", context.DeadlineExceeded, err)
		}

		res, err := g.breaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("circuit", g.breaker.Name()),
					slog.String("url", feedURL))
			}
			return err
		}
		items = res.([]fetch.FeedItem)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]fetch.FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrFeedFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, f.config.MaxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", fetch.ErrInvalidFeedFormat, err)
	}

	items := make([]fetch.FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		var published time.Time
		switch {
		case it.PublishedParsed != nil:
			published = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			published = *it.UpdatedParsed
		}

		// description first; full content only when the feed has no description
		summary := it.Description
		if strings.TrimSpace(summary) == "" {
			summary = it.Content
		}

		items = append(items, fetch.FeedItem{
			Title:       htmlToText(it.Title),
			URL:         it.Link,
			Content:     htmlToText(summary),
			PublishedAt: published,
		})
	}
	return items, nil
}

// htmlToText returns the visible text of an HTML fragment with whitespace collapsed.
func htmlToText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
