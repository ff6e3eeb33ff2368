// Package model defines shared data types used across the odds tracker.
//
// Conventions:
//   - Prices: decimal odds as float64, exactly as quoted upstream
//   - Timestamps: time.Time, written to the store as ISO 8601 UTC with microseconds
//   - IDs: upstream event ids are opaque strings
package model
