// Package api provides the odds API client and the per-cycle Fetcher.
//
// REST endpoint:
//   - Production: https://api.the-odds-api.com/v4
//   - Odds: GET /sports/{sport}/odds?apiKey=...&regions=eu&markets=h2h
//   - Sports: GET /sports (free, used for startup checks)
//
// The response body is a JSON array of events. Events are returned as raw
// JSON so that a single malformed event never fails the whole response.
// Quota usage is reported in the x-requests-remaining / x-requests-used /
// x-requests-last response headers.
package api
