package extract

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/rickgao/odds-data/internal/model"
)

// MalformedPayloadError reports an event payload that cannot be flattened.
type MalformedPayloadError struct {
	EventID string // Empty if the id itself is missing
	Field   string // gjson-style path of the offending field
	Reason  string
}

func (e *MalformedPayloadError) Error() string {
	if e.EventID == "" {
		return fmt.Sprintf("malformed event payload: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed event payload %s: %s: %s", e.EventID, e.Field, e.Reason)
}

// Parse validates one raw event and converts it to a model.Event.
//
// Required: the payload is an object with string id, home_team and
// away_team. bookmakers, markets and outcomes may be absent (treated as
// empty) but must be arrays when present. Within a head-to-head market the
// bookmaker title and every outcome's string name and numeric price are
// required. Non head-to-head markets are kept with their key only.
func Parse(raw []byte) (model.Event, error) {
	if !gjson.ValidBytes(raw) {
		return model.Event{}, &MalformedPayloadError{Field: "$", Reason: "invalid json"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return model.Event{}, &MalformedPayloadError{Field: "$", Reason: "not an object"}
	}

	id, err := requireString(root, "id", "")
	if err != nil {
		return model.Event{}, err
	}

	ev := model.Event{
		ID:       id,
		SportKey: root.Get("sport_key").String(),
	}
	if ev.HomeTeam, err = requireString(root, "home_team", id); err != nil {
		return model.Event{}, err
	}
	if ev.AwayTeam, err = requireString(root, "away_team", id); err != nil {
		return model.Event{}, err
	}
	if ct := root.Get("commence_time"); ct.Type == gjson.String {
		if t, perr := time.Parse(time.RFC3339, ct.Str); perr == nil {
			ev.CommenceTime = t
		}
	}

	bookmakers, err := optionalArray(root, "bookmakers", id)
	if err != nil {
		return model.Event{}, err
	}
	for i, bm := range bookmakers {
		b, err := parseBookmaker(bm, fmt.Sprintf("bookmakers.%d", i), id)
		if err != nil {
			return model.Event{}, err
		}
		ev.Bookmakers = append(ev.Bookmakers, b)
	}

	return ev, nil
}

func parseBookmaker(bm gjson.Result, path, eventID string) (model.Bookmaker, error) {
	if !bm.IsObject() {
		return model.Bookmaker{}, malformed(eventID, path, "not an object")
	}

	b := model.Bookmaker{
		Key:   bm.Get("key").String(),
		Title: bm.Get("title").String(),
	}

	markets, err := optionalArray(bm, "markets", eventID, path)
	if err != nil {
		return model.Bookmaker{}, err
	}
	for i, mk := range markets {
		mpath := fmt.Sprintf("%s.markets.%d", path, i)
		if !mk.IsObject() {
			return model.Bookmaker{}, malformed(eventID, mpath, "not an object")
		}

		m := model.Market{Key: mk.Get("key").String()}
		if m.Key == model.MarketHeadToHead {
			if _, err := requireString(bm, "title", eventID, path); err != nil {
				return model.Bookmaker{}, err
			}
			if m.Outcomes, err = parseOutcomes(mk, mpath, eventID); err != nil {
				return model.Bookmaker{}, err
			}
		}
		b.Markets = append(b.Markets, m)
	}

	return b, nil
}

func parseOutcomes(mk gjson.Result, path, eventID string) ([]model.Outcome, error) {
	outcomes, err := optionalArray(mk, "outcomes", eventID, path)
	if err != nil {
		return nil, err
	}

	out := make([]model.Outcome, 0, len(outcomes))
	for i, oc := range outcomes {
		opath := fmt.Sprintf("%s.outcomes.%d", path, i)
		if !oc.IsObject() {
			return nil, malformed(eventID, opath, "not an object")
		}
		name, err := requireString(oc, "name", eventID, opath)
		if err != nil {
			return nil, err
		}
		price := oc.Get("price")
		if price.Type != gjson.Number {
			return nil, malformed(eventID, opath+".price", describeMissing(price, "number"))
		}
		out = append(out, model.Outcome{Name: name, Price: price.Num})
	}
	return out, nil
}

// requireString returns the string at key, or a MalformedPayloadError.
// prefix, when given, is the path of obj within the event.
func requireString(obj gjson.Result, key, eventID string, prefix ...string) (string, error) {
	v := obj.Get(key)
	if v.Type != gjson.String {
		return "", malformed(eventID, joinPath(prefix, key), describeMissing(v, "string"))
	}
	return v.Str, nil
}

// optionalArray returns the elements at key; a missing or null key is empty.
func optionalArray(obj gjson.Result, key, eventID string, prefix ...string) ([]gjson.Result, error) {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, malformed(eventID, joinPath(prefix, key), "expected array")
	}
	return v.Array(), nil
}

func joinPath(prefix []string, key string) string {
	if len(prefix) == 0 || prefix[0] == "" {
		return key
	}
	return prefix[0] + "." + key
}

func describeMissing(v gjson.Result, want string) string {
	if !v.Exists() {
		return "missing"
	}
	return "expected " + want
}

func malformed(eventID, field, reason string) *MalformedPayloadError {
	return &MalformedPayloadError{EventID: eventID, Field: field, Reason: reason}
}
