package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          100 * time.Millisecond,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())
	if cb.Name() != "test-circuit" {
		t.Errorf("Name() = %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed || cb.IsOpen() {
		t.Errorf("new breaker must be closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) { return "ok", nil })
	if err != nil || result != "ok" {
		t.Fatalf("Execute = (%v, %v)", result, err)
	}

	boom := errors.New("boom")
	if _, err := cb.Execute(func() (interface{}, error) { return nil, boom }); err != boom {
		t.Fatalf("Execute err = %v, want %v", err, boom)
	}
}

func TestCircuitBreaker_TripsAndRecovers(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, boom })
	}
	if !cb.IsOpen() {
		t.Fatalf("breaker should be open after 5 failures, got %v", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (interface{}, error) { called = true; return nil, nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if called {
		t.Fatal("open breaker must not call fn")
	}

	time.Sleep(150 * time.Millisecond)
	if _, err := cb.Execute(func() (interface{}, error) { return "probe", nil }); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state after successful probe = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_BelowMinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.MinRequests = 10
	cb := New(cfg)

	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errors.New("x") })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed below MinRequests", cb.State())
	}
}

func TestPresets(t *testing.T) {
	if got := DefaultConfig("x").Name; got != "x" {
		t.Errorf("DefaultConfig name = %q", got)
	}
	if got := DigestDownloadConfig().Name; got != "digest-download" {
		t.Errorf("DigestDownloadConfig name = %q", got)
	}
	feed := FeedHostConfig("news.example.com")
	if feed.Name != "feed:news.example.com" {
		t.Errorf("FeedHostConfig name = %q", feed.Name)
	}
	if feed.FailureThreshold <= 0 || feed.FailureThreshold > 1 {
		t.Errorf("FeedHostConfig threshold = %v", feed.FailureThreshold)
	}
}
