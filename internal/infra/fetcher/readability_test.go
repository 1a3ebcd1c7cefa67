package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"digest-extractor/internal/usecase/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Test Article</title></head>
<body>
	<nav>Home | About</nav>
	<article>
		<h1>Test Article Title</h1>
		<p>This is the first paragraph of the article content, long enough to be kept.</p>
		<p>This is the second paragraph with more important information about the topic.</p>
		<p>This is the third paragraph to ensure we have enough content for extraction.</p>
	</article>
</body>
</html>`

func localConfig() EnrichConfig {
	cfg := DefaultEnrichConfig()
	cfg.Enabled = true
	cfg.DenyPrivateIPs = false
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestFetchContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	content, err := NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, content, "first paragraph")
	assert.Equal(t, strings.TrimSpace(content), content)
}

func TestFetchContent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		mutate  func(*EnrichConfig)
		wantErr error
	}{
		{
			name: "body too large",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
			},
			mutate:  func(c *EnrichConfig) { c.MaxBodySize = 1024 },
			wantErr: fetch.ErrBodyTooLarge,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			mutate:  func(c *EnrichConfig) { c.Timeout = 50 * time.Millisecond },
			wantErr: fetch.ErrTimeout,
		},
		{
			name: "empty page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html><body></body></html>"))
			},
			wantErr: fetch.ErrReadabilityFailed,
		},
		{
			name: "too many redirects",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/loop", http.StatusFound)
			},
			mutate:  func(c *EnrichConfig) { c.MaxRedirects = 2 },
			wantErr: fetch.ErrTooManyRedirects,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cfg := localConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := NewReadabilityFetcher(cfg).FetchContent(context.Background(), server.URL)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchContent_NonOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewReadabilityFetcher(localConfig()).FetchContent(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchContent_PrivateTargetsDenied(t *testing.T) {
	cfg := DefaultEnrichConfig()
	f := NewReadabilityFetcher(cfg)

	for _, u := range []string{"http://127.0.0.1/a", "http://10.0.0.8/", "http://[::1]/", "http://169.254.169.254/latest"} {
		_, err := f.FetchContent(context.Background(), u)
		assert.ErrorIs(t, err, fetch.ErrPrivateIP, u)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		deny    bool
		wantErr error
	}{
		{url: "https://93.184.215.14/page", deny: true},
		{url: "http://192.168.1.1/", deny: false},
		{url: "ftp://example.com/file", deny: false, wantErr: fetch.ErrInvalidURL},
		{url: "not a url at all\x7f", deny: false, wantErr: fetch.ErrInvalidURL},
		{url: "http:///nohost", deny: false, wantErr: fetch.ErrInvalidURL},
		{url: "http://172.16.4.4/", deny: true, wantErr: fetch.ErrPrivateIP},
	}
	for _, tt := range tests {
		err := validateURL(context.Background(), tt.url, tt.deny)
		if tt.wantErr == nil {
			assert.NoError(t, err, tt.url)
			continue
		}
		assert.ErrorIs(t, err, tt.wantErr, tt.url)
	}
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.1.2.3", "172.31.255.255", "192.168.0.1", "169.254.1.1", "::1", "fd00::1", "fe80::1", "0.0.0.0"}
	public := []string{"8.8.8.8", "1.1.1.1", "2001:4860:4860::8888"}

	for _, s := range private {
		assert.True(t, isPrivateIP(net.ParseIP(s)), s)
	}
	for _, s := range public {
		assert.False(t, isPrivateIP(net.ParseIP(s)), s)
	}
}

func TestEnrichConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultEnrichConfig().Validate())

	bad := []func(*EnrichConfig){
		func(c *EnrichConfig) { c.Threshold = -1 },
		func(c *EnrichConfig) { c.Timeout = 0 },
		func(c *EnrichConfig) { c.MaxBodySize = 10 },
		func(c *EnrichConfig) { c.MaxRedirects = 11 },
	}
	for i, mutate := range bad {
		cfg := DefaultEnrichConfig()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestLoadEnrichConfig(t *testing.T) {
	t.Setenv("SUMMARY_ENRICH_ENABLED", "true")
	t.Setenv("SUMMARY_ENRICH_THRESHOLD", "120")
	t.Setenv("SUMMARY_ENRICH_TIMEOUT", "oops")
	t.Setenv("SUMMARY_ENRICH_MAX_BODY_SIZE", "")
	t.Setenv("SUMMARY_ENRICH_MAX_REDIRECTS", "50")
	t.Setenv("SUMMARY_ENRICH_DENY_PRIVATE_IPS", "false")

	cfg := LoadEnrichConfig(nil, nil)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 120, cfg.Threshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout, "invalid duration falls back")
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 5, cfg.MaxRedirects, "out of range falls back")
	assert.False(t, cfg.DenyPrivateIPs)
	assert.NoError(t, cfg.Validate())
}

func TestFetchContent_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReadabilityFetcher(localConfig()).FetchContent(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "canceled"))
}
