package extract

import (
	"time"

	"github.com/rickgao/odds-data/internal/model"
)

// Records flattens the head-to-head quotes of ev. Every record carries
// capturedAt. The result is empty when no bookmaker offers the market.
func Records(ev model.Event, capturedAt time.Time) []model.QuoteRecord {
	var out []model.QuoteRecord
	for _, bm := range ev.Bookmakers {
		for _, m := range bm.Markets {
			if m.Key != model.MarketHeadToHead {
				continue
			}
			for _, oc := range m.Outcomes {
				out = append(out, model.QuoteRecord{
					EventID:     ev.ID,
					HomeTeam:    ev.HomeTeam,
					AwayTeam:    ev.AwayTeam,
					CapturedAt:  capturedAt,
					Bookmaker:   bm.Title,
					Participant: oc.Name,
					Price:       oc.Price,
				})
			}
		}
	}
	return out
}

// Event parses raw and flattens it in one step.
func Event(raw []byte, capturedAt time.Time) (model.Event, []model.QuoteRecord, error) {
	ev, err := Parse(raw)
	if err != nil {
		return model.Event{}, nil, err
	}
	return ev, Records(ev, capturedAt), nil
}
