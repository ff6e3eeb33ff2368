// Package poller implements the odds polling cycle.
//
// Each cycle:
//   - Fetches the current event list (with retries)
//   - Flattens every event into quote records, skipping malformed events
//   - Appends the cycle's records to the sink in one batch
//   - Waits until the next wall-clock boundary of the interval
//
// The loop is strictly sequential. A failed fetch or a failed append is
// logged and the loop moves on to the next boundary.
package poller
