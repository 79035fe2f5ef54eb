package timeutil

import "time"

// NowFunc is an injectable time source. Timer-driven components take one so
// their decisions are testable without real clocks.
type NowFunc func() time.Time

// DaysSince returns the number of whole days elapsed from t to now. Negative
// elapsed time counts as zero days.
func DaysSince(t, now time.Time) int {
	if now.Before(t) {
		return 0
	}
	return int(now.Sub(t) / (24 * time.Hour))
}
