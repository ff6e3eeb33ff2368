package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnavailable is returned by Fetcher.Fetch when no data could be obtained
// this cycle. It is an expected outcome, not a fault.
var ErrUnavailable = errors.New("upstream unavailable")

// Fetcher retrieves the current event list for one configured request.
type Fetcher struct {
	client *Client
	req    OddsRequest
	logger *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(client *Client, req OddsRequest, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		req:    req,
		logger: logger,
	}
}

// Request returns the request this fetcher issues.
func (f *Fetcher) Request() OddsRequest {
	return f.req
}

// Fetch returns the current events. Any failure that survives the client's
// retry policy, retryable or not, is reported as ErrUnavailable wrapping the
// cause. Context cancellation is returned as ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context) (*OddsResponse, error) {
	resp, err := f.client.GetOdds(ctx, f.req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.Quota.Known {
		f.logger.Debug("odds api quota",
			"remaining", resp.Quota.Remaining,
			"used", resp.Quota.Used,
			"last", resp.Quota.Last,
		)
	}

	return resp, nil
}
