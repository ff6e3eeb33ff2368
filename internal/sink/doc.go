// Package sink persists quote records.
//
// Sinks:
//   - CSV store (primary, append-only, header written once)
//   - Fanout (primary first, then best-effort mirrors)
//
// The CSV store is the compatibility contract with the dashboard: its
// header is model.Columns and rows are only ever appended.
package sink
