package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/odds-data/internal/retry"
)

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 4096

// APIError represents a non-success response from the odds API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("odds api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
//
// Server errors, 408 and 429 are transient. Every other 4xx (bad key,
// unknown sport, invalid parameters, exhausted quota) will not change on
// retry and fails fast.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout
}

// response is a successful HTTP response.
type response struct {
	body   []byte
	header http.Header
}

// doRequest performs a single HTTP attempt.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}

	fullURL := c.baseURL + path
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, which carries the api key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("do request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &response{body: body, header: resp.Header}, nil
}

// doWithRetry performs a request under the client's retry policy. decode is
// part of the attempt: a body that does not parse is a protocol failure and
// is retried like a transport error.
func (c *Client) doWithRetry(ctx context.Context, method, path string, query url.Values, decode func(*response) error) error {
	op := func(ctx context.Context) error {
		resp, err := c.doRequest(ctx, method, path, query)
		if err == nil && decode != nil {
			err = decode(resp)
		}

		if c.observeAttempt != nil {
			c.observeAttempt(err)
		}
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
			return retry.Permanent(err)
		}
		return err
	}

	notify := func(attempt int, err error, wait time.Duration) {
		c.logger.Warn("request failed, retrying",
			"path", path,
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"backoff", wait,
			"error", err,
		)
	}

	return c.policy.DoNotify(ctx, op, notify)
}

// headerInt parses an integer response header, reporting whether it was present.
func headerInt(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	// Quota headers are occasionally sent as floats ("499.0").
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}
