package poller

import "time"

// NextBoundary returns the first boundary strictly after now.
//
// Boundaries are counted in steps of interval from the top of the UTC hour,
// or from UTC midnight for intervals longer than an hour, and restart at
// the next hour or day. A 7m interval therefore fires at :00, :07 ... :56
// and again at :00. For whole-minute intervals the seconds and sub-seconds
// are zero.
func NextBoundary(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return now
	}
	if interval > 24*time.Hour {
		return now.Truncate(interval).Add(interval)
	}

	anchor, period := gridStart(now.UTC(), interval)
	next := anchor.Add(now.Sub(anchor).Truncate(interval) + interval)
	if end := anchor.Add(period); next.After(end) {
		next = end
	}
	return next.In(now.Location())
}

// gridStart returns the UTC hour or day that boundaries are counted from,
// and its length.
func gridStart(now time.Time, interval time.Duration) (time.Time, time.Duration) {
	if interval <= time.Hour {
		return now.Truncate(time.Hour), time.Hour
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), 24 * time.Hour
}

// TimeUntilNextBoundary returns how long to wait from now until the next
// boundary. It is never negative.
func TimeUntilNextBoundary(now time.Time, interval time.Duration) time.Duration {
	return clampWait(NextBoundary(now, interval).Sub(now))
}

// clampWait turns an overrun (negative wait) into an immediate start.
func clampWait(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
