package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Sport is one entry of GET /sports.
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// GetSports lists in-season sports, or every sport when all is set.
// The endpoint does not count against the request quota.
func (c *Client) GetSports(ctx context.Context, all bool) ([]Sport, error) {
	query := url.Values{}
	if all {
		query.Set("all", "true")
	}

	var sports []Sport
	err := c.doWithRetry(ctx, http.MethodGet, "/sports", query, func(resp *response) error {
		if err := json.Unmarshal(resp.body, &sports); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get sports: %w", err)
	}
	return sports, nil
}

// FindSport returns the sport with key, if listed.
func FindSport(sports []Sport, key string) (Sport, bool) {
	for _, s := range sports {
		if s.Key == key {
			return s, true
		}
	}
	return Sport{}, false
}
