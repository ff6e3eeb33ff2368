package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/odds-data/internal/retry"
)

// Client provides access to the odds REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string

	policy  retry.Policy
	limiter *rate.Limiter

	// observeAttempt is called once per HTTP attempt with its outcome.
	observeAttempt func(err error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
		policy: retry.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets a fixed-delay retry policy. maxAttempts counts the first
// attempt too.
func WithRetries(maxAttempts int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.policy = retry.Policy{MaxAttempts: maxAttempts, Delay: delay, Multiplier: 1}
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithRateLimit limits outgoing requests to perSecond (burst 1). Zero or
// negative disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithAttemptObserver registers fn to be called after every HTTP attempt
// with nil on success or the attempt's error.
func WithAttemptObserver(fn func(err error)) ClientOption {
	return func(c *Client) {
		c.observeAttempt = fn
	}
}
