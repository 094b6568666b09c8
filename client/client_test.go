package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name": "warmask"}`))
	}))
	defer srv.Close()

	c := NewClient(WithMaxRetries(0))
	var out struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "warmask" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	if _, err := c.GetBody(context.Background(), srv.URL); err != nil {
		t.Fatalf("GetBody failed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests, want 3", got)
	}
}

func TestDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	_, err := c.GetBody(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBody = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests, want 1 (no retries on 404)", got)
	}
}

func TestRateLimitDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(WithMaxRetries(0))
	_, err := c.GetBody(context.Background(), srv.URL)

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("GetBody = %v, want RateLimitError", err)
	}
	if rle.RetryAfter != 7 {
		t.Errorf("retry_after = %d, want 7", rle.RetryAfter)
	}
}

func TestSetsUserAgentAndAuthHeader(t *testing.T) {
	var gotUA, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(
		WithMaxRetries(0),
		WithAuthFunc(func(url string) (string, string) {
			return "Authorization", "token secret"
		}),
	).WithUserAgent("test-agent/1.0")

	if _, err := c.GetBody(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("user-agent = %q", gotUA)
	}
	if gotAuth != "token secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
}

func TestHTTPErrorUnwrapsToNotFoundOnlyFor404(t *testing.T) {
	notFound := &HTTPError{StatusCode: 404, URL: "https://example.com/x"}
	if !errors.Is(notFound, ErrNotFound) {
		t.Error("404 HTTPError should match ErrNotFound")
	}
	if !notFound.IsNotFound() {
		t.Error("IsNotFound() = false for 404")
	}

	server := &HTTPError{StatusCode: 500, URL: "https://example.com/x"}
	if errors.Is(server, ErrNotFound) {
		t.Error("500 HTTPError should not match ErrNotFound")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bc := NewBreakerClient(NewClient(WithMaxRetries(0), WithBaseDelay(time.Millisecond)))

	for i := 0; i < 5; i++ {
		if _, err := bc.GetBody(context.Background(), srv.URL); err == nil {
			t.Fatal("GetBody = nil error from failing server")
		}
	}

	_, err := bc.GetBody(context.Background(), srv.URL)
	if !errors.Is(err, ErrUpstreamDown) {
		t.Errorf("GetBody with open breaker = %v, want ErrUpstreamDown", err)
	}

	host := extractHost(srv.URL)
	if state := bc.BreakerState()[host]; state != "open" {
		t.Errorf("breaker state = %q, want open", state)
	}
}

func TestBreakerIsolatesHosts(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer good.Close()

	bc := NewBreakerClient(NewClient(WithMaxRetries(0), WithBaseDelay(time.Millisecond)))

	for i := 0; i < 6; i++ {
		bc.GetBody(context.Background(), bad.URL)
	}

	if _, err := bc.GetBody(context.Background(), good.URL); err != nil {
		t.Errorf("healthy host affected by another host's open breaker: %v", err)
	}
}
