package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/odds-data/internal/retry"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com/v4", "test-key")

		if c.baseURL != "https://api.example.com/v4" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com/v4")
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.policy != retry.DefaultPolicy() {
			t.Errorf("policy = %+v, want %+v", c.policy, retry.DefaultPolicy())
		}
		if c.limiter != nil {
			t.Error("limiter should be nil by default")
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with retries option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithRetries(5, 2*time.Second))
		if c.policy.MaxAttempts != 5 {
			t.Errorf("MaxAttempts = %d, want %d", c.policy.MaxAttempts, 5)
		}
		if c.policy.Delay != 2*time.Second {
			t.Errorf("Delay = %v, want %v", c.policy.Delay, 2*time.Second)
		}
	})

	t.Run("with retry policy option", func(t *testing.T) {
		p := retry.Policy{MaxAttempts: 4, Delay: time.Second, Multiplier: 2, MaxDelay: 10 * time.Second}
		c := NewClient("https://api.example.com", "", WithRetryPolicy(p))
		if c.policy != p {
			t.Errorf("policy = %+v, want %+v", c.policy, p)
		}
	})

	t.Run("with rate limit option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithRateLimit(2))
		if c.limiter == nil {
			t.Fatal("limiter should be set")
		}
		if c.limiter.Limit() != 2 {
			t.Errorf("Limit = %v, want 2", c.limiter.Limit())
		}

		c = NewClient("https://api.example.com", "", WithRateLimit(0))
		if c.limiter != nil {
			t.Error("zero rate should disable the limiter")
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", "", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", "", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := &APIError{
			StatusCode: 401,
			Message:    "Unauthorized",
			Body:       []byte(`{"message": "API key is not valid"}`),
		}
		expected := "odds api error 401: Unauthorized"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("IsRetryable", func(t *testing.T) {
		tests := []struct {
			code     int
			expected bool
		}{
			{500, true},
			{502, true},
			{503, true},
			{504, true},
			{429, true},
			{408, true},
			{400, false},
			{401, false},
			{403, false},
			{404, false},
			{422, false},
			{499, false},
		}

		for _, tt := range tests {
			err := &APIError{StatusCode: tt.code}
			if got := err.IsRetryable(); got != tt.expected {
				t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
			}
		}
	})
}

// TestDoRequest tests a single HTTP attempt.
func TestDoRequest(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			if r.URL.Query().Get("apiKey") != "test-key" {
				t.Errorf("apiKey = %q, want %q", r.URL.Query().Get("apiKey"), "test-key")
			}
			if r.Header.Get("User-Agent") != "odds-tracker/test" {
				t.Errorf("User-Agent = %q, want %q", r.Header.Get("User-Agent"), "odds-tracker/test")
			}
			w.Header().Set("x-requests-remaining", "480")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "test-key", WithUserAgent("odds-tracker/test"))
		resp, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(resp.body) != `[]` {
			t.Errorf("body = %q, want %q", string(resp.body), `[]`)
		}
		if resp.header.Get("x-requests-remaining") != "480" {
			t.Errorf("header not propagated")
		}
	})

	t.Run("request without API key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Has("apiKey") {
				t.Errorf("apiKey should be absent, got %q", r.URL.Query().Get("apiKey"))
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		if _, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Unknown sport"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if !strings.Contains(string(apiErr.Body), "Unknown sport") {
			t.Errorf("Body should contain 'Unknown sport', got %q", string(apiErr.Body))
		}
	})

	t.Run("transport error does not leak api key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		c := NewClient(server.URL, "super-secret")
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if strings.Contains(err.Error(), "super-secret") {
			t.Errorf("error leaks api key: %v", err)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.doRequest(ctx, http.MethodGet, "/test", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(3, 10*time.Millisecond))
		if err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&attempts, 1)
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(3, 10*time.Millisecond))
		if err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("retries on 429 and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(3, 10*time.Millisecond))
		if err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry on 401", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(3, 10*time.Millisecond))
		err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 401 {
			t.Fatalf("error = %v, want 401 APIError", err)
		}
		if errors.Is(err, retry.ErrExhausted) {
			t.Error("fail-fast error should not report exhausted retries")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("retries undecodable body", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.Write([]byte(`<html>gateway</html>`))
				return
			}
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(3, 10*time.Millisecond))
		_, err := c.GetOdds(context.Background(), OddsRequest{Sport: "soccer_epl"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("max attempts exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		var observed atomic.Int32
		c := NewClient(server.URL, "key",
			WithRetries(3, 10*time.Millisecond),
			WithAttemptObserver(func(err error) {
				if err != nil {
					observed.Add(1)
				}
			}),
		)
		err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil, nil)
		if !errors.Is(err, retry.ErrExhausted) {
			t.Fatalf("error = %v, want ErrExhausted", err)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
		if observed.Load() != 3 {
			t.Errorf("observed failures = %d, want 3", observed.Load())
		}
	})

	t.Run("context cancellation during retry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(5, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()

		err := c.doWithRetry(ctx, http.MethodGet, "/test", nil, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want context.DeadlineExceeded", err)
		}
	})
}

// TestGetOdds tests the odds endpoint.
func TestGetOdds(t *testing.T) {
	t.Run("builds path and query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v4/sports/soccer_uefa_nations_league/odds" {
				t.Errorf("path = %q", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("regions") != "eu,uk" {
				t.Errorf("regions = %q, want %q", q.Get("regions"), "eu,uk")
			}
			if q.Get("markets") != "h2h" {
				t.Errorf("markets = %q, want %q", q.Get("markets"), "h2h")
			}
			if q.Get("oddsFormat") != "decimal" {
				t.Errorf("oddsFormat = %q, want %q", q.Get("oddsFormat"), "decimal")
			}
			w.Header().Set("x-requests-remaining", "499")
			w.Header().Set("x-requests-used", "1")
			w.Header().Set("x-requests-last", "1")
			w.Write([]byte(`[{"id":"a"},{"id":"b"}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL+"/v4", "key")
		resp, err := c.GetOdds(context.Background(), OddsRequest{
			Sport:      "soccer_uefa_nations_league",
			Regions:    []string{"eu", "uk"},
			Markets:    []string{"h2h"},
			OddsFormat: "decimal",
		})
		if err != nil {
			t.Fatalf("GetOdds() error = %v", err)
		}
		if len(resp.Events) != 2 {
			t.Fatalf("len(Events) = %d, want 2", len(resp.Events))
		}
		if string(resp.Events[1]) != `{"id":"b"}` {
			t.Errorf("Events[1] = %s", resp.Events[1])
		}
		want := Quota{Known: true, Remaining: 499, Used: 1, Last: 1}
		if resp.Quota != want {
			t.Errorf("Quota = %+v, want %+v", resp.Quota, want)
		}
	})

	t.Run("one malformed event does not fail decode", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id":"a"}, 42, {"home_team": null}]`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		resp, err := c.GetOdds(context.Background(), OddsRequest{Sport: "soccer_epl"})
		if err != nil {
			t.Fatalf("GetOdds() error = %v", err)
		}
		if len(resp.Events) != 3 {
			t.Errorf("len(Events) = %d, want 3", len(resp.Events))
		}
		if resp.Quota.Known {
			t.Error("Quota.Known should be false without headers")
		}
	})

	t.Run("sport required", func(t *testing.T) {
		c := NewClient("http://unused", "key")
		if _, err := c.GetOdds(context.Background(), OddsRequest{}); err == nil {
			t.Error("expected error for empty sport")
		}
	})
}

func TestParseQuota(t *testing.T) {
	h := http.Header{}
	h.Set("x-requests-remaining", "12.0")
	h.Set("x-requests-used", "488")

	q := parseQuota(h)
	if !q.Known || q.Remaining != 12 || q.Used != 488 || q.Last != 0 {
		t.Errorf("parseQuota() = %+v", q)
	}

	if q := parseQuota(http.Header{}); q.Known {
		t.Errorf("parseQuota(empty) = %+v, want unknown", q)
	}
}
