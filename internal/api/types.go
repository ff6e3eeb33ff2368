package api

import "encoding/json"

// OddsRequest selects what GET /sports/{sport}/odds returns.
type OddsRequest struct {
	Sport      string   // Sport key embedded in the path, e.g. "soccer_epl"
	Regions    []string // Bookmaker regions, e.g. ["eu"]
	Markets    []string // Market keys; the tracker always asks for "h2h"
	OddsFormat string   // "decimal" or "american"; empty leaves the API default
}

// OddsResponse from GET /sports/{sport}/odds
type OddsResponse struct {
	// Events holds one raw JSON object per event, in upstream order.
	Events []json.RawMessage

	// Quota reported by the response headers.
	Quota Quota
}

// Quota is the request budget reported by the API.
type Quota struct {
	Known     bool // False when the headers were absent
	Remaining int  // x-requests-remaining
	Used      int  // x-requests-used
	Last      int  // x-requests-last: cost of this request
}
