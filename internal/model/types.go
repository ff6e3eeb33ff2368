package model

import (
	"strconv"
	"time"
)

// MarketHeadToHead is the upstream key of the head-to-head market, the only
// market category the tracker consumes.
const MarketHeadToHead = "h2h"

// TimeLayout is the capture timestamp layout used in the store.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Columns is the fixed header of the quote store. Column names and order are
// a compatibility contract with every reader of the file.
var Columns = []string{"id", "home_team", "away_team", "time", "bookmaker", "team", "odds"}

// -----------------------------------------------------------------------------
// Upstream Types
// -----------------------------------------------------------------------------

// Event is a sporting event and its nested quotes for one poll cycle.
type Event struct {
	ID           string      // Upstream event id
	SportKey     string      // e.g. "soccer_uefa_nations_league" (optional upstream)
	CommenceTime time.Time   // Zero if not provided
	HomeTeam     string      // Home participant name
	AwayTeam     string      // Away participant name
	Bookmakers   []Bookmaker // In upstream order
}

// Bookmaker is a quotation source publishing prices for an event.
type Bookmaker struct {
	Key     string   // Machine key, e.g. "unibet_eu"
	Title   string   // Display name, persisted as the source name
	Markets []Market // In upstream order
}

// Market is a typed category of quotes offered by a bookmaker.
type Market struct {
	Key      string // "h2h", "spreads", "totals", ...
	Outcomes []Outcome
}

// Outcome pairs a participant (or "Draw") with a price.
type Outcome struct {
	Name  string
	Price float64
}

// -----------------------------------------------------------------------------
// Persisted Types
// -----------------------------------------------------------------------------

// QuoteRecord is one flattened (bookmaker, outcome) quote of an event.
type QuoteRecord struct {
	EventID     string
	HomeTeam    string
	AwayTeam    string
	CapturedAt  time.Time // Shared by every record of one event in one cycle
	Bookmaker   string
	Participant string
	Price       float64
}

// Row renders the record in Columns order.
func (r QuoteRecord) Row() []string {
	return []string{
		r.EventID,
		r.HomeTeam,
		r.AwayTeam,
		FormatTime(r.CapturedAt),
		r.Bookmaker,
		r.Participant,
		FormatPrice(r.Price),
	}
}

// FormatTime renders a capture timestamp in the store layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatPrice renders a price with the shortest exact decimal representation.
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
