// Package extract turns one upstream event payload into quote records.
//
// Parse validates the raw JSON and builds a model.Event; a payload missing a
// required field yields a *MalformedPayloadError for that event only.
// Records flattens a validated event: bookmakers in upstream order, then the
// head-to-head market's outcomes in upstream order, one record per outcome,
// all stamped with the same capture time.
package extract
