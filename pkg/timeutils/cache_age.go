package timeutils

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// cacheAgeMagnitudes stops at days: a cached payload older than that is labelled
// in days rather than weeks or months.
var cacheAgeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "just now", DivBy: time.Second},
	{D: 2 * time.Second, Format: "1 second %s", DivBy: 1},
	{D: time.Minute, Format: "%d seconds %s", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: humanize.Day},
}

// FormatCacheAge renders how long ago a cached value was written,
// e.g. "just now", "42 seconds ago", "3 hours ago", "9 days ago".
func FormatCacheAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	now := time.Now()
	return humanize.CustomRelTime(now.Add(-age), now, "ago", "from now", cacheAgeMagnitudes)
}

// UnixMillis converts t to epoch milliseconds, the timestamp unit of persisted cache records.
func UnixMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// AgeSince returns how much time elapsed between the epoch-millisecond timestamp ts and now.
func AgeSince(ts int64, now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(ts))
}
