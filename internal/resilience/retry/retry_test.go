package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   5 * time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff(t *testing.T) {
	serverErr := &HTTPError{StatusCode: 503, Message: "Service Unavailable"}
	notFound := &HTTPError{StatusCode: 404, Message: "Not Found"}

	tests := []struct {
		name         string
		attempts     int
		failures     int
		failWith     error
		wantErr      bool
		wantAttempts int
	}{
		{name: "first call succeeds", attempts: 3, failures: 0, wantAttempts: 1},
		{name: "succeeds after transient failures", attempts: 3, failures: 2, failWith: serverErr, wantAttempts: 3},
		{name: "exhausts attempts", attempts: 3, failures: 10, failWith: serverErr, wantErr: true, wantAttempts: 3},
		{name: "permanent error stops immediately", attempts: 3, failures: 10, failWith: notFound, wantErr: true, wantAttempts: 1},
		{name: "zero attempts still calls once", attempts: 0, failures: 10, failWith: serverErr, wantErr: true, wantAttempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastConfig(tt.attempts), func() error {
				calls++
				if calls <= tt.failures {
					return tt.failWith
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantAttempts {
				t.Errorf("calls = %d, want %d", calls, tt.wantAttempts)
			}
			if tt.wantErr && !errors.Is(err, tt.failWith) {
				t.Errorf("returned error %v does not wrap %v", err, tt.failWith)
			}
		})
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = time.Second

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, func() error {
			calls++
			return &HTTPError{StatusCode: 500}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WithBackoff did not return after cancel")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"500", &HTTPError{StatusCode: 500}, true},
		{"502 wrapped", fmt.Errorf("download: %w", &HTTPError{StatusCode: 502}), true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"408", &HTTPError{StatusCode: 408}, true},
		{"404", &HTTPError{StatusCode: 404}, false},
		{"plain error", errors.New("malformed feed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for name, cfg := range map[string]Config{
		"default": DefaultConfig(),
		"digest":  DigestDownloadConfig(),
		"feed":    FeedFetchConfig(),
	} {
		if cfg.MaxAttempts < 1 || cfg.InitialDelay <= 0 || cfg.MaxDelay < cfg.InitialDelay || cfg.Multiplier < 1 {
			t.Errorf("%s preset is inconsistent: %+v", name, cfg)
		}
	}
}

func TestHTTPError_Error(t *testing.T) {
	err := &HTTPError{StatusCode: 500, Message: "Internal Server Error"}
	if got := err.Error(); got != "HTTP 500: Internal Server Error" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAddJitter(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 10; i++ {
		got := addJitter(d, 0.2)
		if got < d || got > time.Duration(float64(d)*1.2) {
			t.Errorf("addJitter = %v, outside [%v, %v]", got, d, time.Duration(float64(d)*1.2))
		}
	}
	if got := addJitter(d, 0); got != d {
		t.Errorf("zero fraction changed delay: %v", got)
	}
}
