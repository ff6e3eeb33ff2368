// Package writer implements the TimescaleDB quote mirror.
//
// Each appended batch is copied into the odds_quotes hypertable with a
// single COPY. The table is append-only (never update, only insert);
// repeated quotes across cycles are kept, as in the CSV store.
package writer
