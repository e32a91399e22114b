package service

import (
	"fmt"
	"time"
)

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
	month  = 30 * day
)

// TimeAgo renders the span from from to now as "N <unit> ago". Months are 30 days.
// The seconds bucket is always plural; the others are singular when N == 1.
// Spans in the future render as "0 seconds ago".
func TimeAgo(from, now time.Time) string {
	secs := int64(now.Sub(from) / time.Second)
	if secs < 0 {
		secs = 0
	}

	switch {
	case secs < minute:
		return fmt.Sprintf("%d seconds ago", secs)
	case secs < hour:
		return ago(secs/minute, "minute")
	case secs < day:
		return ago(secs/hour, "hour")
	case secs < month:
		return ago(secs/day, "day")
	default:
		return ago(secs/month, "month")
	}
}

func ago(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
