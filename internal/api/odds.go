package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GetOdds fetches the current events and their quotes for one sport.
func (c *Client) GetOdds(ctx context.Context, req OddsRequest) (*OddsResponse, error) {
	if req.Sport == "" {
		return nil, errors.New("get odds: sport is required")
	}

	query := url.Values{}
	if len(req.Regions) > 0 {
		query.Set("regions", strings.Join(req.Regions, ","))
	}
	if len(req.Markets) > 0 {
		query.Set("markets", strings.Join(req.Markets, ","))
	}
	if req.OddsFormat != "" {
		query.Set("oddsFormat", req.OddsFormat)
	}

	path := "/sports/" + url.PathEscape(req.Sport) + "/odds"

	var out OddsResponse
	err := c.doWithRetry(ctx, http.MethodGet, path, query, func(resp *response) error {
		var events []json.RawMessage
		if err := json.Unmarshal(resp.body, &events); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		out.Events = events
		out.Quota = parseQuota(resp.header)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get odds %s: %w", req.Sport, err)
	}

	return &out, nil
}

func parseQuota(h http.Header) Quota {
	var q Quota
	var ok bool
	if q.Remaining, ok = headerInt(h, "x-requests-remaining"); ok {
		q.Known = true
	}
	if q.Used, ok = headerInt(h, "x-requests-used"); ok {
		q.Known = true
	}
	if q.Last, ok = headerInt(h, "x-requests-last"); ok {
		q.Known = true
	}
	return q
}
